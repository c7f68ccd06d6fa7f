package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/tripplanner/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TripRequestRepository interface {
	Create(ctx context.Context, trip *domain.TripRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TripRequest, error)
	GetForUser(ctx context.Context, id uuid.UUID, userID string) (*domain.TripRequest, error)
	ListByUser(ctx context.Context, userID string) ([]domain.TripRequest, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.TripStatus) error
}

type PGTripRequestRepository struct {
	db DB
}

func NewTripRequestRepository(db DB) TripRequestRepository {
	return &PGTripRequestRepository{db: db}
}

const tripColumns = `id, user_id, origin, destination, start_date, end_date, budget, requested_cities,
	accommodation_preference, travel_style, status, created_at, updated_at`

func (r *PGTripRequestRepository) Create(ctx context.Context, trip *domain.TripRequest) error {
	if trip.ID == uuid.Nil {
		trip.ID = uuid.New()
	}
	trip.Status = domain.TripStatusPending

	err := r.db.QueryRow(ctx, `INSERT INTO trip_requests (id, user_id, origin, destination, start_date, end_date, budget,
		requested_cities, accommodation_preference, travel_style, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`,
		trip.ID, trip.UserID, trip.Origin, trip.Destination, trip.StartDate.Time, trip.EndDate.Time, trip.Budget,
		trip.RequestedCities, string(trip.AccommodationPreference), string(trip.TravelStyle), string(trip.Status),
	).Scan(&trip.CreatedAt, &trip.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert trip request: %w", err)
	}
	return nil
}

func (r *PGTripRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.TripRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trip_requests WHERE id=$1`, id)
	return scanTrip(row)
}

func (r *PGTripRequestRepository) GetForUser(ctx context.Context, id uuid.UUID, userID string) (*domain.TripRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+tripColumns+` FROM trip_requests WHERE id=$1 AND user_id=$2`, id, userID)
	return scanTrip(row)
}

func (r *PGTripRequestRepository) ListByUser(ctx context.Context, userID string) ([]domain.TripRequest, error) {
	rows, err := r.db.Query(ctx, `SELECT `+tripColumns+` FROM trip_requests WHERE user_id=$1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trips := make([]domain.TripRequest, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, *t)
	}
	return trips, rows.Err()
}

// SetStatus moves the request along the status state machine. Updates that
// would leave a terminal state or skip a step fail with ErrInvalidTransition.
func (r *PGTripRequestRepository) SetStatus(ctx context.Context, id uuid.UUID, status domain.TripStatus) error {
	from := make([]string, 0, 2)
	for _, s := range status.Predecessors() {
		from = append(from, string(s))
	}

	cmd, err := r.db.Exec(ctx, `UPDATE trip_requests SET status=$1, updated_at=now() WHERE id=$2 AND status = ANY($3)`,
		string(status), id, from)
	if err != nil {
		return fmt.Errorf("update trip status: %w", err)
	}
	if cmd.RowsAffected() > 0 {
		return nil
	}

	var current string
	if err := r.db.QueryRow(ctx, `SELECT status FROM trip_requests WHERE id=$1`, id).Scan(&current); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("read trip status: %w", err)
	}
	return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, current, status)
}

func scanTrip(row pgx.Row) (*domain.TripRequest, error) {
	var (
		t                 domain.TripRequest
		start, end        time.Time
		pref, style, stat string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Origin, &t.Destination, &start, &end, &t.Budget, &t.RequestedCities,
		&pref, &style, &stat, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	t.StartDate = domain.NewDate(start)
	t.EndDate = domain.NewDate(end)
	t.AccommodationPreference = domain.AccommodationPreference(pref)
	t.TravelStyle = domain.TravelStyle(style)
	t.Status = domain.TripStatus(stat)
	return &t, nil
}

var _ TripRequestRepository = (*PGTripRequestRepository)(nil)
