package planner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/tripplanner/internal/domain"
	"github.com/Domenick1991/tripplanner/internal/kafka"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

const eventsTopic = "trip-plans.events"

type fixture struct {
	flights   *MockFlightSource
	stays     *MockAccommodationSource
	transport *MockTransportSource
	trips     *MockTripStore
	plans     *MockPlanStore
	producer  *MockProducer
	saved     *domain.Plan
}

func newFixture() *fixture {
	return &fixture{
		flights:   new(MockFlightSource),
		stays:     new(MockAccommodationSource),
		transport: new(MockTransportSource),
		trips:     new(MockTripStore),
		plans:     new(MockPlanStore),
		producer:  new(MockProducer),
	}
}

func (f *fixture) orchestrator(opt Optimizer, opts ...OrchestratorOption) *Orchestrator {
	opts = append([]OrchestratorOption{
		WithEvents(f.producer, eventsTopic),
		WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	return NewOrchestrator(f.flights, f.stays, f.transport, opt, f.trips, f.plans, opts...)
}

// degradedSources: все источники вернули пустые данные
func (f *fixture) degradedSources() {
	f.flights.On("SearchRoundTrip", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(domain.FlightPair{})
	f.stays.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Accommodation{})
	f.transport.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.TransportOption{})
}

func (f *fixture) expectSave(err error) {
	f.plans.On("Save", mock.Anything, mock.Anything, mock.AnythingOfType("*domain.Plan")).
		Run(func(args mock.Arguments) { f.saved = args.Get(2).(*domain.Plan) }).
		Return(err)
}

func (f *fixture) expectEvent(eventType string) {
	f.producer.On("Publish", mock.Anything, eventsTopic, mock.Anything,
		mock.MatchedBy(func(ev kafka.PlanEvent) bool { return ev.Type == eventType })).Return(nil).Once()
}

func newTrip(start, end string, budget float64, cities ...string) *domain.TripRequest {
	return &domain.TripRequest{
		ID:                      uuid.New(),
		UserID:                  "user-1",
		Origin:                  "Turkey",
		Destination:             "Thailand",
		StartDate:               domain.MustParseDate(start),
		EndDate:                 domain.MustParseDate(end),
		Budget:                  budget,
		RequestedCities:         cities,
		AccommodationPreference: domain.AccommodationAny,
		TravelStyle:             domain.TravelStyleSlow,
		Status:                  domain.TripStatusPending,
	}
}

var planCities = []string{"Bangkok", "Phuket"}

// optimizerPlan spends the first half of the trip in Bangkok and the rest in Phuket.
func optimizerPlan(days int) *domain.Plan {
	plan := &domain.Plan{
		Source:             domain.PlanSourceOptimizer,
		Breakdown:          domain.CostBreakdown{Flights: 700, Accommodation: 100, Transportation: 20, Activities: 60},
		TotalEstimatedCost: 880,
	}
	for d := 1; d <= days; d++ {
		city := "Bangkok"
		if d > days/2 && days > 1 {
			city = "Phuket"
		}
		plan.DailyItinerary = append(plan.DailyItinerary, domain.DailyItineraryEntry{Day: d, City: city})
	}
	return plan
}

func TestOrchestrator_Run_UsesOptimizerPlan(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-19", 1000, "Bangkok", "Phuket")
	flights := domain.FlightPair{
		Outbound: &domain.FlightOption{FlightNumber: "TK750", Price: 350},
		Return:   &domain.FlightOption{FlightNumber: "TK751", Price: 350},
	}

	f.flights.On("SearchRoundTrip", mock.Anything, "Turkey", "Thailand", trip.StartDate, trip.EndDate).Return(flights)
	f.stays.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Accommodation{})
	f.transport.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.TransportOption{})

	opt := new(MockOptimizer)
	opt.On("Optimize", mock.Anything, trip.TripContext(), mock.AnythingOfType("domain.SourceData")).Return(optimizerPlan(4), nil)

	f.trips.On("SetStatus", mock.Anything, trip.ID, domain.TripStatusProcessing).Return(nil).Once()
	f.trips.On("SetStatus", mock.Anything, trip.ID, domain.TripStatusCompleted).Return(nil).Once()
	f.expectSave(nil)
	f.expectEvent(kafka.EventPlanCompleted)

	err := f.orchestrator(opt).Run(context.Background(), trip)

	require.NoError(t, err)
	require.NotNil(t, f.saved)
	assert.Equal(t, domain.PlanSourceOptimizer, f.saved.Source)
	assert.Equal(t, "Bangkok", f.saved.DailyItinerary[0].City)
	assert.Equal(t, "Phuket", f.saved.DailyItinerary[3].City)
	assert.Equal(t, trip.ID, f.saved.TripRequestID)
	assert.Equal(t, "user-1", f.saved.UserID)
	assert.Equal(t, "2026-01-15", f.saved.StartDate)
	assert.Equal(t, 4, f.saved.TotalDays)
	assert.Equal(t, domain.TripStatusCompleted, f.saved.Status)
	assert.Equal(t, flights, f.saved.InternationalFlight)
	assert.Equal(t, 880.0, f.saved.TotalEstimatedCost)
	assert.Equal(t, 120.0, f.saved.BudgetDifference)
	assert.Equal(t, 1000.0, f.saved.UserBudget)
	assert.Equal(t, fixedNow, f.saved.CreatedAt)

	f.trips.AssertExpectations(t)
	f.producer.AssertExpectations(t)
	opt.AssertExpectations(t)
}

func TestOrchestrator_Run_FetchArguments(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-25", 1500, "Bangkok", "Phuket", "Chiang Mai")
	trip.TravelStyle = domain.TravelStyleFast
	d := domain.MustParseDate

	f.flights.On("SearchRoundTrip", mock.Anything, "Turkey", "Thailand", d("2026-01-15"), d("2026-01-25")).Return(domain.FlightPair{}).Once()
	f.stays.On("Search", mock.Anything, "Bangkok", d("2026-01-15"), d("2026-01-18"), domain.AccommodationAny, 75).Return([]domain.Accommodation{}).Once()
	f.stays.On("Search", mock.Anything, "Phuket", d("2026-01-18"), d("2026-01-21"), domain.AccommodationAny, 75).Return([]domain.Accommodation{}).Once()
	f.stays.On("Search", mock.Anything, "Chiang Mai", d("2026-01-21"), d("2026-01-25"), domain.AccommodationAny, 75).Return([]domain.Accommodation{}).Once()
	f.transport.On("Search", mock.Anything, "Bangkok", "Phuket", d("2026-01-17"), "flight").
		Return([]domain.TransportOption{{Type: "flight", Price: 45}}).Once()
	f.transport.On("Search", mock.Anything, "Phuket", "Chiang Mai", d("2026-01-20"), "flight").
		Return([]domain.TransportOption{}).Once()

	f.trips.On("SetStatus", mock.Anything, trip.ID, mock.Anything).Return(nil)
	f.expectSave(nil)
	f.expectEvent(kafka.EventPlanCompleted)

	err := f.orchestrator(nil).Run(context.Background(), trip)

	require.NoError(t, err)
	f.flights.AssertExpectations(t)
	f.stays.AssertExpectations(t)
	f.transport.AssertExpectations(t)

	// fallback used the fetched leg on the Bangkok -> Phuket boundary day
	require.NotNil(t, f.saved.DailyItinerary[2].Transportation)
	assert.Equal(t, 45.0, f.saved.DailyItinerary[2].Transportation.Price)
	assert.Equal(t, 25.0, f.saved.DailyItinerary[5].Transportation.Price)
}

func TestOrchestrator_Run_FallsBack(t *testing.T) {
	tests := []struct {
		name      string
		optimizer func() Optimizer
	}{
		{"no optimizer", func() Optimizer { return nil }},
		{"optimizer error", func() Optimizer {
			m := new(MockOptimizer)
			m.On("Optimize", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))
			return m
		}},
		{"total does not match breakdown", func() Optimizer {
			p := optimizerPlan(4)
			p.TotalEstimatedCost = 500
			m := new(MockOptimizer)
			m.On("Optimize", mock.Anything, mock.Anything, mock.Anything).Return(p, nil)
			return m
		}},
		{"wrong number of days", func() Optimizer {
			m := new(MockOptimizer)
			m.On("Optimize", mock.Anything, mock.Anything, mock.Anything).Return(optimizerPlan(3), nil)
			return m
		}},
		{"empty itinerary", func() Optimizer {
			m := new(MockOptimizer)
			m.On("Optimize", mock.Anything, mock.Anything, mock.Anything).Return(optimizerPlan(0), nil)
			return m
		}},
		{"plan skips a city", func() Optimizer {
			p := optimizerPlan(4)
			for i := range p.DailyItinerary {
				p.DailyItinerary[i].City = "Bangkok"
			}
			m := new(MockOptimizer)
			m.On("Optimize", mock.Anything, mock.Anything, mock.Anything).Return(p, nil)
			return m
		}},
		{"plan returns to an earlier city", func() Optimizer {
			p := optimizerPlan(4)
			p.DailyItinerary[3].City = "Bangkok"
			m := new(MockOptimizer)
			m.On("Optimize", mock.Anything, mock.Anything, mock.Anything).Return(p, nil)
			return m
		}},
		{"optimizer panics", func() Optimizer { return panickingOptimizer{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			trip := newTrip("2026-01-15", "2026-01-19", 1000, "Bangkok", "Phuket")
			f.degradedSources()
			f.trips.On("SetStatus", mock.Anything, trip.ID, mock.Anything).Return(nil)
			f.expectSave(nil)
			f.expectEvent(kafka.EventPlanCompleted)

			err := f.orchestrator(tt.optimizer()).Run(context.Background(), trip)

			require.NoError(t, err)
			assert.Equal(t, domain.PlanSourceFallback, f.saved.Source)
			assert.Len(t, f.saved.DailyItinerary, 4)
		})
	}
}

func TestOrchestrator_Run_OptimizerTimeout(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-17", 1000, "Bangkok")
	f.degradedSources()
	f.trips.On("SetStatus", mock.Anything, trip.ID, mock.Anything).Return(nil)
	f.expectSave(nil)
	f.expectEvent(kafka.EventPlanCompleted)

	o := f.orchestrator(blockingOptimizer{}, WithOptimizerTimeout(20*time.Millisecond))
	require.NoError(t, o.Run(context.Background(), trip))
	assert.Equal(t, domain.PlanSourceFallback, f.saved.Source)
}

func TestOrchestrator_Run_AllSourcesDegraded(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-19", 1000, "Bangkok", "Phuket")
	f.degradedSources()

	opt := new(MockOptimizer)
	opt.On("Optimize", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("model unavailable"))

	f.trips.On("SetStatus", mock.Anything, trip.ID, mock.Anything).Return(nil)
	f.expectSave(nil)
	f.expectEvent(kafka.EventPlanCompleted)

	require.NoError(t, f.orchestrator(opt).Run(context.Background(), trip))

	plan := f.saved
	require.NoError(t, ValidatePlan(plan, 4, trip.RequestedCities))
	assert.Nil(t, plan.InternationalFlight.Outbound)
	assert.Zero(t, plan.Breakdown.Flights)
	assert.Greater(t, plan.Breakdown.Accommodation, 0.0)
	assert.Greater(t, plan.Breakdown.Transportation, 0.0)
	assert.Equal(t, plan.Breakdown.Total(), plan.TotalEstimatedCost)
}

func TestOrchestrator_Run_SaveFailureMarksFailed(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-19", 1000, "Bangkok", "Phuket")
	f.degradedSources()

	dbErr := errors.New("connection reset")
	f.trips.On("SetStatus", mock.Anything, trip.ID, domain.TripStatusProcessing).Return(nil).Once()
	f.trips.On("SetStatus", mock.Anything, trip.ID, domain.TripStatusFailed).Return(nil).Once()
	f.expectSave(dbErr)
	f.producer.On("Publish", mock.Anything, eventsTopic, trip.ID.String(),
		mock.MatchedBy(func(ev kafka.PlanEvent) bool {
			return ev.Type == kafka.EventPlanFailed && ev.Status == domain.TripStatusFailed && ev.Error == "connection reset"
		})).Return(nil).Once()

	err := f.orchestrator(nil).Run(context.Background(), trip)

	assert.ErrorIs(t, err, dbErr)
	f.trips.AssertExpectations(t)
	f.trips.AssertNotCalled(t, "SetStatus", mock.Anything, trip.ID, domain.TripStatusCompleted)
	f.producer.AssertExpectations(t)
}

func TestOrchestrator_Run_ProcessingTransitionLost(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-17", 1000, "Bangkok")
	f.degradedSources()

	// первая попытка перевести в processing не дошла до базы
	f.trips.On("SetStatus", mock.Anything, trip.ID, domain.TripStatusProcessing).Return(errors.New("timeout")).Once()
	f.trips.On("SetStatus", mock.Anything, trip.ID, domain.TripStatusCompleted).Return(domain.ErrInvalidTransition).Once()
	f.trips.On("SetStatus", mock.Anything, trip.ID, domain.TripStatusProcessing).Return(nil).Once()
	f.trips.On("SetStatus", mock.Anything, trip.ID, domain.TripStatusCompleted).Return(nil).Once()
	f.expectSave(nil)
	f.expectEvent(kafka.EventPlanCompleted)

	require.NoError(t, f.orchestrator(nil).Run(context.Background(), trip))
	f.trips.AssertExpectations(t)
}

func TestOrchestrator_Run_LockHeld(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-17", 1000, "Bangkok")

	locker := new(MockRunLocker)
	locker.On("AcquireRunLock", mock.Anything, trip.ID, 10*time.Minute).Return(false, nil)

	err := f.orchestrator(nil, WithRunLock(locker, 10*time.Minute)).Run(context.Background(), trip)

	assert.ErrorIs(t, err, domain.ErrRunInProgress)
	f.trips.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
	f.flights.AssertNotCalled(t, "SearchRoundTrip", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestOrchestrator_Run_LockAcquiredAndReleased(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-17", 1000, "Bangkok")
	f.degradedSources()
	f.trips.On("SetStatus", mock.Anything, trip.ID, mock.Anything).Return(nil)
	f.expectSave(nil)
	f.expectEvent(kafka.EventPlanCompleted)

	locker := new(MockRunLocker)
	locker.On("AcquireRunLock", mock.Anything, trip.ID, time.Minute).Return(true, nil).Once()
	locker.On("ReleaseRunLock", mock.Anything, trip.ID).Return(nil).Once()

	require.NoError(t, f.orchestrator(nil, WithRunLock(locker, time.Minute)).Run(context.Background(), trip))
	locker.AssertExpectations(t)
}

func TestOrchestrator_Run_LockStoreDown(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-17", 1000, "Bangkok")
	f.degradedSources()
	f.trips.On("SetStatus", mock.Anything, trip.ID, mock.Anything).Return(nil)
	f.expectSave(nil)
	f.expectEvent(kafka.EventPlanCompleted)

	locker := new(MockRunLocker)
	locker.On("AcquireRunLock", mock.Anything, trip.ID, time.Minute).Return(false, errors.New("redis: connection refused"))

	require.NoError(t, f.orchestrator(nil, WithRunLock(locker, time.Minute)).Run(context.Background(), trip))
	locker.AssertNotCalled(t, "ReleaseRunLock", mock.Anything, mock.Anything)
	assert.NotNil(t, f.saved)
}

func TestOrchestrator_Run_PublishFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-17", 1000, "Bangkok")
	f.degradedSources()
	f.trips.On("SetStatus", mock.Anything, trip.ID, mock.Anything).Return(nil)
	f.expectSave(nil)
	f.producer.On("Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	assert.NoError(t, f.orchestrator(nil).Run(context.Background(), trip))
}

func TestOrchestrator_Generate(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-17", 1000, "Bangkok")
	f.degradedSources()
	f.trips.On("SetStatus", mock.Anything, trip.ID, mock.Anything).Return(nil)
	f.expectSave(nil)
	f.expectEvent(kafka.EventPlanCompleted)

	o := f.orchestrator(nil)

	// отмена контекста вызывающего не должна прерывать генерацию
	ctx, cancel := context.WithCancel(context.Background())
	task := o.Generate(ctx, *trip)
	cancel()

	waitCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()

	require.NoError(t, task.Wait(waitCtx))
	assert.Equal(t, trip.ID, task.TripRequestID)
	assert.NoError(t, task.Err())
	assert.NoError(t, o.Drain(waitCtx))
	f.trips.AssertCalled(t, "SetStatus", mock.Anything, trip.ID, domain.TripStatusCompleted)
}

func TestOrchestrator_Generate_ReportsFailure(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-17", 1000, "Bangkok")
	f.degradedSources()
	f.trips.On("SetStatus", mock.Anything, trip.ID, mock.Anything).Return(nil)
	f.expectSave(errors.New("disk full"))
	f.expectEvent(kafka.EventPlanFailed)

	task := f.orchestrator(nil).Generate(context.Background(), *trip)

	select {
	case <-task.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("task did not finish")
	}
	assert.ErrorContains(t, task.Err(), "disk full")
}

func TestOrchestrator_Run_FlightsCostFollowsFetchedPair(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-19", 1000, "Bangkok", "Phuket")
	flights := domain.FlightPair{
		Outbound: &domain.FlightOption{FlightNumber: "TK750", Price: 400},
		Return:   &domain.FlightOption{FlightNumber: "TK751", Price: 450},
	}

	f.flights.On("SearchRoundTrip", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(flights)
	f.stays.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.Accommodation{})
	f.transport.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]domain.TransportOption{})

	// оптимизатор оценил перелёты в 700, а найденная пара стоит 850
	opt := new(MockOptimizer)
	opt.On("Optimize", mock.Anything, mock.Anything, mock.Anything).Return(optimizerPlan(4), nil)

	f.trips.On("SetStatus", mock.Anything, trip.ID, mock.Anything).Return(nil)
	f.expectSave(nil)
	f.expectEvent(kafka.EventPlanCompleted)

	require.NoError(t, f.orchestrator(opt).Run(context.Background(), trip))

	assert.Equal(t, domain.PlanSourceOptimizer, f.saved.Source)
	assert.Equal(t, flights, f.saved.InternationalFlight)
	assert.Equal(t, 850.0, f.saved.Breakdown.Flights)
	assert.Equal(t, 1030.0, f.saved.TotalEstimatedCost)
	assert.Equal(t, -30.0, f.saved.BudgetDifference)
}

func TestOrchestrator_Run_ReleasesLockAfterCancel(t *testing.T) {
	f := newFixture()
	trip := newTrip("2026-01-15", "2026-01-17", 1000, "Bangkok")
	f.degradedSources()
	f.trips.On("SetStatus", mock.Anything, trip.ID, mock.Anything).Return(nil)
	f.expectSave(nil)
	f.expectEvent(kafka.EventPlanCompleted)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	locker := new(MockRunLocker)
	locker.On("AcquireRunLock", mock.Anything, trip.ID, time.Minute).Return(true, nil).Once()
	locker.On("ReleaseRunLock", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), trip.ID).
		Return(nil).Once()

	require.NoError(t, f.orchestrator(nil, WithRunLock(locker, time.Minute)).Run(ctx, trip))
	locker.AssertExpectations(t)
}
