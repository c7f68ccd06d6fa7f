package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Domenick1991/tripplanner/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type PlanRepository interface {
	Save(ctx context.Context, tripRequestID uuid.UUID, plan *domain.Plan) error
	GetByTripID(ctx context.Context, tripRequestID uuid.UUID) (*domain.Plan, error)
}

type PGPlanRepository struct {
	db DB
}

func NewPlanRepository(db DB) PlanRepository {
	return &PGPlanRepository{db: db}
}

func (r *PGPlanRepository) Save(ctx context.Context, tripRequestID uuid.UUID, plan *domain.Plan) error {
	payload, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}

	// a redelivered run overwrites the plan of the earlier attempt
	_, err = r.db.Exec(ctx, `INSERT INTO generated_plans (id, trip_request_id, total_estimated_cost, source, plan_data, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (trip_request_id) DO UPDATE SET
			plan_data = EXCLUDED.plan_data,
			total_estimated_cost = EXCLUDED.total_estimated_cost,
			source = EXCLUDED.source,
			status = EXCLUDED.status`,
		uuid.New(), tripRequestID, plan.TotalEstimatedCost, string(plan.Source), payload, string(domain.TripStatusCompleted))
	if err != nil {
		return fmt.Errorf("upsert generated plan: %w", err)
	}
	return nil
}

func (r *PGPlanRepository) GetByTripID(ctx context.Context, tripRequestID uuid.UUID) (*domain.Plan, error) {
	var payload []byte
	err := r.db.QueryRow(ctx, `SELECT plan_data FROM generated_plans WHERE trip_request_id=$1`, tripRequestID).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var plan domain.Plan
	if err := json.Unmarshal(payload, &plan); err != nil {
		return nil, fmt.Errorf("decode plan_data: %w", err)
	}
	return &plan, nil
}

var _ PlanRepository = (*PGPlanRepository)(nil)
