package planner

import (
	"context"
	"time"

	"github.com/Domenick1991/tripplanner/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockFlightSource struct {
	mock.Mock
}

func (m *MockFlightSource) SearchRoundTrip(ctx context.Context, origin, destination string, depart, ret domain.Date) domain.FlightPair {
	args := m.Called(ctx, origin, destination, depart, ret)
	return args.Get(0).(domain.FlightPair)
}

type MockAccommodationSource struct {
	mock.Mock
}

func (m *MockAccommodationSource) Search(ctx context.Context, city string, checkIn, checkOut domain.Date, pref domain.AccommodationPreference, maxPricePerNight int) []domain.Accommodation {
	args := m.Called(ctx, city, checkIn, checkOut, pref, maxPricePerNight)
	return args.Get(0).([]domain.Accommodation)
}

type MockTransportSource struct {
	mock.Mock
}

func (m *MockTransportSource) Search(ctx context.Context, from, to string, date domain.Date, hint string) []domain.TransportOption {
	args := m.Called(ctx, from, to, date, hint)
	return args.Get(0).([]domain.TransportOption)
}

type MockOptimizer struct {
	mock.Mock
}

func (m *MockOptimizer) Optimize(ctx context.Context, tc domain.TripContext, data domain.SourceData) (*domain.Plan, error) {
	args := m.Called(ctx, tc, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Plan), args.Error(1)
}

type MockTripStore struct {
	mock.Mock
}

func (m *MockTripStore) SetStatus(ctx context.Context, id uuid.UUID, status domain.TripStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockTripStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TripRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TripRequest), args.Error(1)
}

type MockPlanStore struct {
	mock.Mock
}

func (m *MockPlanStore) Save(ctx context.Context, tripRequestID uuid.UUID, plan *domain.Plan) error {
	args := m.Called(ctx, tripRequestID, plan)
	return args.Error(0)
}

type MockRunLocker struct {
	mock.Mock
}

func (m *MockRunLocker) AcquireRunLock(ctx context.Context, tripID uuid.UUID, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, tripID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockRunLocker) ReleaseRunLock(ctx context.Context, tripID uuid.UUID) error {
	args := m.Called(ctx, tripID)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value any) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

// blockingOptimizer не отвечает, пока не истечёт контекст
type blockingOptimizer struct{}

func (blockingOptimizer) Optimize(ctx context.Context, _ domain.TripContext, _ domain.SourceData) (*domain.Plan, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type panickingOptimizer struct{}

func (panickingOptimizer) Optimize(context.Context, domain.TripContext, domain.SourceData) (*domain.Plan, error) {
	panic("nil map in model client")
}
