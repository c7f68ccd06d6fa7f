package bootstrap

import (
	"context"
	"log/slog"
	"testing"

	"github.com/Domenick1991/tripplanner/config"
	"github.com/Domenick1991/tripplanner/internal/kafka"
	"github.com/Domenick1991/tripplanner/internal/service/planner"
	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTP:     config.HTTPConfig{Address: ":0"},
		Database: config.DatabaseConfig{Host: "localhost", Port: 5432, SSLMode: "disable"},
		Kafka:    config.KafkaConfig{Brokers: []string{"localhost:9092"}, PlanningTopic: "plans", PlanEventsTopic: "events"},
		Planner:  config.PlannerConfig{Dispatch: config.DispatchInline},
		AI:       config.AIConfig{Provider: "gemini"},
		Auth:     config.AuthConfig{JWTSecret: "secret"},
		Log:      config.LogConfig{Level: "info"},
	}
}

func TestAppGraphs(t *testing.T) {
	cfg := testConfig()

	assert.NoError(t, fx.ValidateApp(fx.Supply(cfg), fx.WithLogger(FxLogger), InfraModule, PlannerModule, HTTPModule))
	assert.NoError(t, fx.ValidateApp(fx.Supply(cfg), fx.WithLogger(FxLogger), InfraModule, PlannerModule, WorkerModule))
}

func TestNewLogger(t *testing.T) {
	cfg := testConfig()

	cfg.Log.Level = "debug"
	assert.True(t, NewLogger(cfg).Enabled(context.Background(), slog.LevelDebug))

	cfg.Log.Level = "loud"
	logger := NewLogger(cfg)
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
}

func TestNewDispatcher(t *testing.T) {
	cfg := testConfig()
	o := planner.NewOrchestrator(nil, nil, nil, nil, nil, nil)
	producer := kafka.NewProducer(cfg.Kafka.Brokers, nil)
	defer producer.Close()

	assert.IsType(t, &planner.InlineDispatcher{}, NewDispatcher(cfg, o, producer))

	cfg.Planner.Dispatch = config.DispatchQueue
	assert.IsType(t, &planner.QueueDispatcher{}, NewDispatcher(cfg, o, producer))
}

func TestNewRouter_RequiresSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = ""

	_, err := NewRouter(cfg, nil, nil, nil, slog.Default())

	assert.EqualError(t, err, "auth.jwt_secret is required")
}
