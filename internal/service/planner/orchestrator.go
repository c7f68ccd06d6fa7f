// Package planner turns a trip request into a persisted plan: it fetches
// prices from every source in parallel, asks the optimizer for a plan, falls
// back to the deterministic synthesizer when that fails, saves the result and
// drives the request status to a terminal state.
package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Domenick1991/tripplanner/internal/domain"
	"github.com/Domenick1991/tripplanner/internal/kafka"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type FlightSource interface {
	SearchRoundTrip(ctx context.Context, origin, destination string, depart, ret domain.Date) domain.FlightPair
}

type AccommodationSource interface {
	Search(ctx context.Context, city string, checkIn, checkOut domain.Date, pref domain.AccommodationPreference, maxPricePerNight int) []domain.Accommodation
}

type TransportSource interface {
	Search(ctx context.Context, from, to string, date domain.Date, hint string) []domain.TransportOption
}

type Optimizer interface {
	Optimize(ctx context.Context, tc domain.TripContext, data domain.SourceData) (*domain.Plan, error)
}

type TripStatusStore interface {
	SetStatus(ctx context.Context, id uuid.UUID, status domain.TripStatus) error
}

type PlanStore interface {
	Save(ctx context.Context, tripRequestID uuid.UUID, plan *domain.Plan) error
}

type RunLocker interface {
	AcquireRunLock(ctx context.Context, tripID uuid.UUID, ttl time.Duration) (bool, error)
	ReleaseRunLock(ctx context.Context, tripID uuid.UUID) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

var errNoOptimizer = errors.New("no optimizer")

type Orchestrator struct {
	flights   FlightSource
	stays     AccommodationSource
	transport TransportSource
	optimizer Optimizer
	trips     TripStatusStore
	plans     PlanStore

	locker      RunLocker
	lockTTL     time.Duration
	producer    Producer
	eventsTopic string

	optimizerTimeout time.Duration
	logger           *slog.Logger
	now              func() time.Time

	inflight sync.WaitGroup
}

type OrchestratorOption func(*Orchestrator)

// WithRunLock makes Run refuse to start while another run holds the lock of
// the same trip request.
func WithRunLock(locker RunLocker, ttl time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		o.locker = locker
		o.lockTTL = ttl
	}
}

func WithEvents(producer Producer, topic string) OrchestratorOption {
	return func(o *Orchestrator) {
		o.producer = producer
		o.eventsTopic = topic
	}
}

func WithOptimizerTimeout(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.optimizerTimeout = d }
}

func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

func NewOrchestrator(
	flights FlightSource,
	stays AccommodationSource,
	transport TransportSource,
	optimizer Optimizer,
	trips TripStatusStore,
	plans PlanStore,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		flights:   flights,
		stays:     stays,
		transport: transport,
		optimizer: optimizer,
		trips:     trips,
		plans:     plans,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate starts Run in the background and returns its handle. The run does
// not inherit cancellation from ctx: once started it always reaches a
// terminal status.
func (o *Orchestrator) Generate(ctx context.Context, trip domain.TripRequest) *Task {
	task := newTask(trip.ID)
	runCtx := context.WithoutCancel(ctx)

	o.inflight.Add(1)
	go func() {
		defer o.inflight.Done()

		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("plan generation panicked: %v", r)
				o.logger.Error("plan generation panicked", "trip_id", trip.ID, "panic", r)
			}
			task.finish(err)
		}()

		err = o.Run(runCtx, &trip)
		if err != nil {
			o.logger.Error("plan generation failed", "trip_id", trip.ID, "err", err)
		}
	}()
	return task
}

// Drain waits for runs started by Generate.
func (o *Orchestrator) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes one orchestration synchronously. Source and optimizer
// problems are absorbed; only persistence failures end the run with an
// error, after the request has been marked failed.
func (o *Orchestrator) Run(ctx context.Context, trip *domain.TripRequest) error {
	logger := o.logger.With("trip_id", trip.ID)

	release, err := o.lock(ctx, logger, trip.ID)
	if err != nil {
		return err
	}
	defer release()

	started := o.now()
	logger.Info("starting plan generation", "cities", len(trip.RequestedCities), "days", trip.TotalDays())

	if err := o.trips.SetStatus(ctx, trip.ID, domain.TripStatusProcessing); err != nil {
		logger.Error("failed to mark trip processing", "err", err)
	}

	tc := trip.TripContext()
	data := o.fetch(ctx, tc)
	logger.Info("source data fetched",
		"accommodation_cities", len(data.Accommodations),
		"transport_routes", len(data.Transport))

	plan := o.plan(ctx, logger, tc, data)
	o.finalize(plan, trip, data)

	if err := o.plans.Save(ctx, trip.ID, plan); err != nil {
		o.fail(ctx, logger, trip, err)
		return fmt.Errorf("save plan: %w", err)
	}

	if err := o.complete(ctx, trip.ID); err != nil {
		o.fail(ctx, logger, trip, err)
		return fmt.Errorf("mark trip completed: %w", err)
	}

	logger.Info("plan generation completed",
		"source", plan.Source,
		"total_estimated_cost", plan.TotalEstimatedCost,
		"budget_difference", plan.BudgetDifference,
		"elapsed", o.now().Sub(started))

	o.publish(ctx, logger, kafka.PlanEvent{
		Type:               kafka.EventPlanCompleted,
		TripRequestID:      trip.ID,
		UserID:             trip.UserID,
		Status:             domain.TripStatusCompleted,
		TotalEstimatedCost: plan.TotalEstimatedCost,
		BudgetDifference:   plan.BudgetDifference,
		Source:             plan.Source,
		OccurredAt:         o.now().UTC(),
	})
	return nil
}

// lock takes the per-request run lock. A lock store outage does not block
// planning; the run proceeds unguarded.
func (o *Orchestrator) lock(ctx context.Context, logger *slog.Logger, id uuid.UUID) (func(), error) {
	noop := func() {}
	if o.locker == nil {
		return noop, nil
	}

	ok, err := o.locker.AcquireRunLock(ctx, id, o.lockTTL)
	if err != nil {
		logger.Warn("run lock unavailable, continuing without it", "err", err)
		return noop, nil
	}
	if !ok {
		return nil, fmt.Errorf("trip %s: %w", id, domain.ErrRunInProgress)
	}

	return func() {
		if err := o.locker.ReleaseRunLock(context.WithoutCancel(ctx), id); err != nil {
			logger.Warn("failed to release run lock", "err", err)
		}
	}, nil
}

// fetch queries every source concurrently and returns once all have
// answered. Sources never fail, so the bundle is always complete.
func (o *Orchestrator) fetch(ctx context.Context, tc domain.TripContext) domain.SourceData {
	data := domain.SourceData{
		Accommodations: make(map[string][]domain.Accommodation, len(tc.RequestedCities)),
		Transport:      make(map[string][]domain.TransportOption, max(len(tc.RequestedCities)-1, 0)),
	}
	var (
		mu sync.Mutex
		g  errgroup.Group
	)

	g.Go(func() error {
		pair := o.flights.SearchRoundTrip(ctx, tc.Origin, tc.Destination, tc.StartDate, tc.EndDate)
		mu.Lock()
		data.Flights = pair
		mu.Unlock()
		return nil
	})

	maxPrice := tc.MaxNightlyPrice()
	for i, city := range tc.RequestedCities {
		g.Go(func() error {
			checkIn, checkOut := tc.CityWindow(i)
			stays := o.stays.Search(ctx, city, checkIn, checkOut, tc.AccommodationPreference, maxPrice)
			mu.Lock()
			data.Accommodations[city] = stays
			mu.Unlock()
			return nil
		})
	}

	hint := tc.TravelStyle.TransportHint()
	for i := 0; i+1 < len(tc.RequestedCities); i++ {
		from, to := tc.RequestedCities[i], tc.RequestedCities[i+1]
		g.Go(func() error {
			// the leg runs on the last day spent in from
			_, checkOut := tc.CityWindow(i)
			legs := o.transport.Search(ctx, from, to, checkOut.AddDays(-1), hint)
			mu.Lock()
			data.Transport[domain.RouteKey(from, to)] = legs
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	return data
}

func (o *Orchestrator) plan(ctx context.Context, logger *slog.Logger, tc domain.TripContext, data domain.SourceData) *domain.Plan {
	plan, err := o.optimize(ctx, tc, data)
	if err == nil {
		err = ValidatePlan(plan, tc.TotalDays(), tc.RequestedCities)
	}
	if err != nil {
		logger.Warn("optimizer plan unusable, using fallback synthesizer", "err", err)
		return Synthesize(tc, data)
	}
	return plan
}

func (o *Orchestrator) optimize(ctx context.Context, tc domain.TripContext, data domain.SourceData) (plan *domain.Plan, err error) {
	if o.optimizer == nil {
		return nil, errNoOptimizer
	}
	defer func() {
		if r := recover(); r != nil {
			plan, err = nil, fmt.Errorf("optimizer panicked: %v", r)
		}
	}()

	if o.optimizerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.optimizerTimeout)
		defer cancel()
	}
	return o.optimizer.Optimize(ctx, tc, data)
}

// finalize stamps request metadata on the plan and recomputes the totals
// from the breakdown. The flights cost always follows the fetched pair that
// is attached to the plan.
func (o *Orchestrator) finalize(plan *domain.Plan, trip *domain.TripRequest, data domain.SourceData) {
	plan.TripRequestID = trip.ID
	plan.UserID = trip.UserID
	plan.Origin = trip.Origin
	plan.Destination = trip.Destination
	plan.StartDate = trip.StartDate.String()
	plan.EndDate = trip.EndDate.String()
	plan.TotalDays = trip.TotalDays()
	plan.Status = domain.TripStatusCompleted
	plan.InternationalFlight = data.Flights
	plan.Breakdown.Flights = data.Flights.Cost()
	plan.Reconcile(trip.Budget)
	plan.CreatedAt = o.now().UTC()
}

// complete moves the request to completed. If the earlier processing
// transition was lost the request is still pending, so it is replayed first.
func (o *Orchestrator) complete(ctx context.Context, id uuid.UUID) error {
	err := o.trips.SetStatus(ctx, id, domain.TripStatusCompleted)
	if errors.Is(err, domain.ErrInvalidTransition) {
		if perr := o.trips.SetStatus(ctx, id, domain.TripStatusProcessing); perr == nil {
			err = o.trips.SetStatus(ctx, id, domain.TripStatusCompleted)
		}
	}
	return err
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, trip *domain.TripRequest, cause error) {
	logger.Error("plan generation failed", "err", cause)

	if err := o.trips.SetStatus(ctx, trip.ID, domain.TripStatusFailed); err != nil {
		logger.Error("failed to mark trip failed", "err", err)
	}

	o.publish(ctx, logger, kafka.PlanEvent{
		Type:          kafka.EventPlanFailed,
		TripRequestID: trip.ID,
		UserID:        trip.UserID,
		Status:        domain.TripStatusFailed,
		Error:         cause.Error(),
		OccurredAt:    o.now().UTC(),
	})
}

func (o *Orchestrator) publish(ctx context.Context, logger *slog.Logger, ev kafka.PlanEvent) {
	if o.producer == nil || o.eventsTopic == "" {
		return
	}
	if err := o.producer.Publish(ctx, o.eventsTopic, ev.TripRequestID.String(), ev); err != nil {
		logger.Warn("failed to publish plan event", "type", ev.Type, "err", err)
	}
}
