package bootstrap

import (
	"context"
	"log/slog"

	"github.com/Domenick1991/tripplanner/config"
	"github.com/Domenick1991/tripplanner/internal/cache"
	"github.com/Domenick1991/tripplanner/internal/kafka"
	"github.com/Domenick1991/tripplanner/internal/optimizer"
	"github.com/Domenick1991/tripplanner/internal/repository"
	"github.com/Domenick1991/tripplanner/internal/service/planner"
	"github.com/Domenick1991/tripplanner/internal/sources"
	"go.uber.org/fx"
)

var PlannerModule = fx.Module("planner",
	fx.Provide(
		NewOptimizer,
		NewOrchestrator,
	),
)

func NewOptimizer(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) (*optimizer.LLMOptimizer, error) {
	opt, err := optimizer.New(context.Background(), cfg.AI, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return opt.Close() },
	})
	return opt, nil
}

// NewOrchestrator wires the price sources behind the redis cache and hooks
// Drain into shutdown so inline runs finish before the pool closes.
func NewOrchestrator(
	lc fx.Lifecycle,
	cfg *config.Config,
	logger *slog.Logger,
	redisCache *cache.RedisCache,
	producer *kafka.Producer,
	opt *optimizer.LLMOptimizer,
	trips repository.TripRequestRepository,
	plans repository.PlanRepository,
) *planner.Orchestrator {
	client := sources.NewRapidAPIClient(cfg.Sources.RapidAPIKey, cfg.Sources.Timeout(), cfg.Sources.RequestsPerSecond)

	flights := sources.NewCachedFlightSource(
		sources.NewKiwiFlightSource(client, cfg.Sources.KiwiHost, sources.WithFlightLogger(logger)),
		redisCache, logger,
	)
	stays := sources.NewCachedStaySource(
		sources.NewBookingAccommodationSource(client, cfg.Sources.BookingHost, sources.WithStayLogger(logger)),
		redisCache, logger,
	)
	transport := sources.NewCuratedTransportSource(nil)

	opts := []planner.OrchestratorOption{
		planner.WithLogger(logger),
		planner.WithOptimizerTimeout(cfg.Planner.OptimizerTimeout()),
		planner.WithRunLock(redisCache, cfg.Planner.RunLockTTL()),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		opts = append(opts, planner.WithEvents(producer, cfg.Kafka.PlanEventsTopic))
	}

	o := planner.NewOrchestrator(flights, stays, transport, opt, trips, plans, opts...)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := o.Drain(ctx); err != nil {
				logger.Warn("plan runs still in flight at shutdown", "err", err)
			}
			return nil
		},
	})
	return o
}
