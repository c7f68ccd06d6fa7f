package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/Domenick1991/tripplanner/config"
	"github.com/Domenick1991/tripplanner/internal/cache"
	"github.com/Domenick1991/tripplanner/internal/kafka"
	"github.com/Domenick1991/tripplanner/internal/migrations"
	"github.com/Domenick1991/tripplanner/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

// InfraModule provides the shared clients: logger, postgres, redis, kafka
// producer and the repositories on top of them.
var InfraModule = fx.Module("infra",
	fx.Provide(
		NewLogger,
		NewPostgresPool,
		NewRedisCache,
		NewProducer,
		NewTripRepository,
		NewPlanRepository,
	),
)

func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// FxLogger routes fx lifecycle events through the application logger.
func FxLogger(logger *slog.Logger) fxevent.Logger {
	return &fxevent.SlogLogger{Logger: logger}
}

func NewPostgresPool(lc fx.Lifecycle, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})
	return pool, nil
}

// RunMigrations applies pending goose migrations before the server starts.
func RunMigrations(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			db, err := sql.Open("pgx", cfg.Database.DSN())
			if err != nil {
				return fmt.Errorf("open migrations db: %w", err)
			}
			defer db.Close()

			if err := migrations.Up(ctx, db); err != nil {
				return err
			}
			logger.Info("database migrations applied")
			return nil
		},
	})
}

func NewRedisCache(lc fx.Lifecycle, cfg *config.Config) *cache.RedisCache {
	c := cache.NewRedisCache(cfg.Redis, cfg.Sources.CacheTTL())
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return c.Close() },
	})
	return c
}

func NewProducer(lc fx.Lifecycle, cfg *config.Config, logger *slog.Logger) *kafka.Producer {
	p := kafka.NewProducer(cfg.Kafka.Brokers, logger)
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return p.Close() },
	})
	return p
}

func NewTripRepository(pool *pgxpool.Pool) repository.TripRequestRepository {
	return repository.NewTripRequestRepository(pool)
}

func NewPlanRepository(pool *pgxpool.Pool) repository.PlanRepository {
	return repository.NewPlanRepository(pool)
}
