package trips

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Domenick1991/tripplanner/internal/domain"
	"github.com/Domenick1991/tripplanner/internal/repository"
	"github.com/google/uuid"
)

type TripUseCase interface {
	CreateTrip(ctx context.Context, userID string, input CreateTripInput) (*domain.TripRequest, error)
	ListTrips(ctx context.Context, userID string) ([]TripWithPlan, error)
	GetTrip(ctx context.Context, userID string, id uuid.UUID) (*TripWithPlan, error)
	GetPlan(ctx context.Context, userID string, id uuid.UUID) (*domain.Plan, error)
}

// Dispatcher starts plan generation for a freshly created trip request.
type Dispatcher interface {
	Dispatch(ctx context.Context, trip domain.TripRequest) error
}

type CreateTripInput struct {
	Origin                  string   `json:"origin"`
	Destination             string   `json:"destination"`
	StartDate               string   `json:"start_date"`
	EndDate                 string   `json:"end_date"`
	Budget                  float64  `json:"budget"`
	RequestedCities         []string `json:"requested_cities"`
	AccommodationPreference string   `json:"accommodation_preference"`
	TravelStyle             string   `json:"travel_style"`
}

type TripWithPlan struct {
	domain.TripRequest
	Plan *domain.Plan `json:"generated_plan,omitempty"`
}

type TripService struct {
	trips      repository.TripRequestRepository
	plans      repository.PlanRepository
	dispatcher Dispatcher
	logger     *slog.Logger
}

type TripServiceOption func(*TripService)

func WithLogger(l *slog.Logger) TripServiceOption {
	return func(s *TripService) { s.logger = l }
}

func NewTripService(
	trips repository.TripRequestRepository,
	plans repository.PlanRepository,
	dispatcher Dispatcher,
	opts ...TripServiceOption,
) *TripService {
	s := &TripService{
		trips:      trips,
		plans:      plans,
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTrip validates and stores the request as pending, then hands it to
// the dispatcher. If the hand-off fails the request is marked failed so it
// never sits in pending forever.
func (s *TripService) CreateTrip(ctx context.Context, userID string, input CreateTripInput) (*domain.TripRequest, error) {
	trip, err := input.toTrip(userID)
	if err != nil {
		return nil, err
	}
	if err := trip.Validate(); err != nil {
		return nil, err
	}

	if err := s.trips.Create(ctx, trip); err != nil {
		return nil, err
	}
	s.logger.Info("trip request created", "trip_id", trip.ID, "user_id", userID, "cities", len(trip.RequestedCities))

	if err := s.dispatcher.Dispatch(ctx, *trip); err != nil {
		s.logger.Error("failed to dispatch plan generation", "trip_id", trip.ID, "err", err)
		if serr := s.trips.SetStatus(ctx, trip.ID, domain.TripStatusFailed); serr != nil {
			s.logger.Error("failed to mark trip failed", "trip_id", trip.ID, "err", serr)
		}
		return nil, fmt.Errorf("dispatch plan generation: %w", err)
	}
	return trip, nil
}

func (s *TripService) ListTrips(ctx context.Context, userID string) ([]TripWithPlan, error) {
	list, err := s.trips.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]TripWithPlan, 0, len(list))
	for _, t := range list {
		plan, err := s.planFor(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, TripWithPlan{TripRequest: t, Plan: plan})
	}
	return out, nil
}

func (s *TripService) GetTrip(ctx context.Context, userID string, id uuid.UUID) (*TripWithPlan, error) {
	trip, err := s.trips.GetForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.planFor(ctx, *trip)
	if err != nil {
		return nil, err
	}
	return &TripWithPlan{TripRequest: *trip, Plan: plan}, nil
}

// GetPlan returns the generated plan, or domain.ErrNotFound while the trip is
// still being planned.
func (s *TripService) GetPlan(ctx context.Context, userID string, id uuid.UUID) (*domain.Plan, error) {
	if _, err := s.trips.GetForUser(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.plans.GetByTripID(ctx, id)
}

func (s *TripService) planFor(ctx context.Context, trip domain.TripRequest) (*domain.Plan, error) {
	if trip.Status != domain.TripStatusCompleted {
		return nil, nil
	}
	plan, err := s.plans.GetByTripID(ctx, trip.ID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return plan, err
}

func (in CreateTripInput) toTrip(userID string) (*domain.TripRequest, error) {
	if strings.TrimSpace(in.StartDate) == "" || strings.TrimSpace(in.EndDate) == "" {
		return nil, fmt.Errorf("%w: missing required fields", domain.ErrValidation)
	}
	start, err := domain.ParseDate(in.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date format", domain.ErrValidation)
	}
	end, err := domain.ParseDate(in.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date format", domain.ErrValidation)
	}

	pref := domain.AccommodationPreference(strings.ToLower(strings.TrimSpace(in.AccommodationPreference)))
	if pref == "" {
		pref = domain.AccommodationAny
	}
	style := domain.TravelStyle(strings.ToLower(strings.TrimSpace(in.TravelStyle)))
	if style == "" {
		style = domain.TravelStyleSlow
	}

	cities := make([]string, 0, len(in.RequestedCities))
	for _, c := range in.RequestedCities {
		cities = append(cities, strings.TrimSpace(c))
	}

	return &domain.TripRequest{
		UserID:                  userID,
		Origin:                  strings.TrimSpace(in.Origin),
		Destination:             strings.TrimSpace(in.Destination),
		StartDate:               start,
		EndDate:                 end,
		Budget:                  in.Budget,
		RequestedCities:         cities,
		AccommodationPreference: pref,
		TravelStyle:             style,
	}, nil
}

var _ TripUseCase = (*TripService)(nil)
