package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/Domenick1991/tripplanner/config"
	"github.com/Domenick1991/tripplanner/internal/kafka"
	"github.com/Domenick1991/tripplanner/internal/notify"
	"github.com/Domenick1991/tripplanner/internal/repository"
	"github.com/Domenick1991/tripplanner/internal/service/planner"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/fx"
)

const consumerRestartDelay = 5 * time.Second

// WorkerModule consumes plan requests and plan events.
var WorkerModule = fx.Module("worker",
	fx.Provide(
		NewRequestHandler,
		NewNotifier,
	),
	fx.Invoke(StartWorker),
)

func NewRequestHandler(tripRepo repository.TripRequestRepository, o *planner.Orchestrator, logger *slog.Logger) *planner.RequestHandler {
	return planner.NewRequestHandler(tripRepo, o, logger)
}

func NewNotifier(cfg *config.Config, producer *kafka.Producer, logger *slog.Logger) *notify.Notifier {
	return notify.NewNotifier(logger,
		notify.NewLogSender(logger),
		notify.NewKafkaSender(producer, cfg.Kafka.NotificationsTopic),
	)
}

type handlerFunc func(context.Context, kafkago.Message) error

func StartWorker(
	lc fx.Lifecycle,
	cfg *config.Config,
	requests *planner.RequestHandler,
	notifier *notify.Notifier,
	logger *slog.Logger,
) error {
	if len(cfg.Kafka.Brokers) == 0 {
		return errors.New("worker requires kafka.brokers")
	}

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	start := func(topic, group string, handle handlerFunc) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runConsumer(ctx, cfg.Kafka.Brokers, group, topic, handle, logger)
		}()
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			start(cfg.Kafka.PlanningTopic, cfg.Kafka.GroupID, requests.Handle)
			start(cfg.Kafka.PlanEventsTopic, cfg.Kafka.GroupID+"-notify", notifier.Handle)
			logger.Info("worker started", "planning_topic", cfg.Kafka.PlanningTopic, "events_topic", cfg.Kafka.PlanEventsTopic)
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			done := make(chan struct{})
			go func() {
				wg.Wait()
				close(done)
			}()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
	return nil
}

// runConsumer keeps a consumer alive until ctx is cancelled. A handler error
// closes the reader without committing, so the message comes back after the
// group rebalances.
func runConsumer(ctx context.Context, brokers []string, group, topic string, handle handlerFunc, logger *slog.Logger) {
	logger = logger.With("topic", topic, "group", group)
	for {
		consumer := kafka.NewConsumer(brokers, group, topic, logger)
		err := consumer.Consume(ctx, handle)
		if cerr := consumer.Close(); cerr != nil {
			logger.Warn("close consumer", "err", cerr)
		}
		if ctx.Err() != nil {
			return
		}

		logger.Error("consumer stopped, restarting", "err", err, "delay", consumerRestartDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(consumerRestartDelay):
		}
	}
}
