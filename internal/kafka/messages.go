package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/tripplanner/internal/domain"
	"github.com/google/uuid"
)

const (
	EventPlanCompleted = "plan.completed"
	EventPlanFailed    = "plan.failed"
)

// PlanRequest asks the worker to run the orchestrator for one trip request.
type PlanRequest struct {
	TripRequestID uuid.UUID `json:"trip_request_id"`
	RequestedAt   time.Time `json:"requested_at"`
}

// PlanEvent reports the terminal outcome of one orchestration run.
type PlanEvent struct {
	Type               string            `json:"type"`
	TripRequestID      uuid.UUID         `json:"trip_request_id"`
	UserID             string            `json:"user_id"`
	Status             domain.TripStatus `json:"status"`
	TotalEstimatedCost float64           `json:"total_estimated_cost,omitempty"`
	BudgetDifference   float64           `json:"budget_difference,omitempty"`
	Source             domain.PlanSource `json:"source,omitempty"`
	Error              string            `json:"error,omitempty"`
	OccurredAt         time.Time         `json:"occurred_at"`
}

func DecodePlanRequest(data []byte) (PlanRequest, error) {
	var req PlanRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return PlanRequest{}, fmt.Errorf("decode plan request: %w", err)
	}
	if req.TripRequestID == uuid.Nil {
		return PlanRequest{}, fmt.Errorf("decode plan request: missing trip_request_id")
	}
	return req, nil
}

func DecodePlanEvent(data []byte) (PlanEvent, error) {
	var ev PlanEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return PlanEvent{}, fmt.Errorf("decode plan event: %w", err)
	}
	return ev, nil
}
