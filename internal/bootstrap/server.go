package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Domenick1991/tripplanner/api"
	"github.com/Domenick1991/tripplanner/config"
	"github.com/Domenick1991/tripplanner/internal/cache"
	"github.com/Domenick1991/tripplanner/internal/kafka"
	"github.com/Domenick1991/tripplanner/internal/repository"
	"github.com/Domenick1991/tripplanner/internal/service/planner"
	"github.com/Domenick1991/tripplanner/internal/service/trips"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"
	"go.uber.org/fx"
)

// HTTPModule serves the trip API. Plans are generated in process or handed
// to the worker depending on planner.dispatch.
var HTTPModule = fx.Module("http",
	fx.Provide(
		NewDispatcher,
		NewTripService,
		NewRouter,
	),
	fx.Invoke(RunMigrations, StartHTTPServer),
)

func NewDispatcher(cfg *config.Config, o *planner.Orchestrator, producer *kafka.Producer) trips.Dispatcher {
	if cfg.Planner.Dispatch == config.DispatchQueue {
		return planner.NewQueueDispatcher(producer, cfg.Kafka.PlanningTopic)
	}
	return planner.NewInlineDispatcher(o)
}

func NewTripService(
	tripRepo repository.TripRequestRepository,
	planRepo repository.PlanRepository,
	dispatcher trips.Dispatcher,
	logger *slog.Logger,
) trips.TripUseCase {
	return trips.NewTripService(tripRepo, planRepo, dispatcher, trips.WithLogger(logger))
}

func NewRouter(
	cfg *config.Config,
	svc trips.TripUseCase,
	pool *pgxpool.Pool,
	redisCache *cache.RedisCache,
	logger *slog.Logger,
) (*gin.Engine, error) {
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger(logger))

	api.NewHealthHandler(map[string]api.Pinger{
		"postgres": pool,
		"redis":    redisCache,
	}).Register(r)
	api.RegisterDocs(r)

	tripsGroup := r.Group("/api/trips", api.AuthMiddleware(cfg.Auth.JWTSecret))
	api.NewTripHandler(svc).Register(tripsGroup)

	return r, nil
}

func StartHTTPServer(lc fx.Lifecycle, cfg *config.Config, engine *gin.Engine, logger *slog.Logger) {
	origins := cfg.HTTP.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	handler := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(engine)

	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				logger.Info("http server listening", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server failed", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutdown http server: %w", err)
			}
			return nil
		},
	})
}
