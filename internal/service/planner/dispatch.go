package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Domenick1991/tripplanner/internal/domain"
	"github.com/Domenick1991/tripplanner/internal/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
)

// InlineDispatcher runs orchestrations inside the calling process.
type InlineDispatcher struct {
	orchestrator *Orchestrator
}

func NewInlineDispatcher(o *Orchestrator) *InlineDispatcher {
	return &InlineDispatcher{orchestrator: o}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, trip domain.TripRequest) error {
	d.orchestrator.Generate(ctx, trip)
	return nil
}

// QueueDispatcher hands orchestrations to the worker through kafka.
type QueueDispatcher struct {
	producer Producer
	topic    string
	now      func() time.Time
}

func NewQueueDispatcher(producer Producer, topic string) *QueueDispatcher {
	return &QueueDispatcher{producer: producer, topic: topic, now: time.Now}
}

func (d *QueueDispatcher) Dispatch(ctx context.Context, trip domain.TripRequest) error {
	req := kafka.PlanRequest{TripRequestID: trip.ID, RequestedAt: d.now().UTC()}
	if err := d.producer.Publish(ctx, d.topic, trip.ID.String(), req); err != nil {
		return fmt.Errorf("enqueue plan request: %w", err)
	}
	return nil
}

type TripLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TripRequest, error)
}

// RequestHandler consumes PlanRequest messages on the worker. Runs are never
// retried: once a request reached a terminal status the message is dropped.
type RequestHandler struct {
	trips        TripLoader
	orchestrator *Orchestrator
	logger       *slog.Logger
}

func NewRequestHandler(trips TripLoader, o *Orchestrator, logger *slog.Logger) *RequestHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestHandler{trips: trips, orchestrator: o, logger: logger}
}

// Handle returns an error only for failures worth redelivering the message.
func (h *RequestHandler) Handle(ctx context.Context, msg kafkago.Message) error {
	req, err := kafka.DecodePlanRequest(msg.Value)
	if err != nil {
		h.logger.Error("dropping undecodable plan request", "offset", msg.Offset, "err", err)
		return nil
	}
	logger := h.logger.With("trip_id", req.TripRequestID)

	trip, err := h.trips.GetByID(ctx, req.TripRequestID)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Warn("plan requested for unknown trip")
		return nil
	}
	if err != nil {
		return fmt.Errorf("load trip %s: %w", req.TripRequestID, err)
	}

	if trip.Status.IsTerminal() {
		logger.Info("trip already planned, skipping", "status", trip.Status)
		return nil
	}

	err = h.orchestrator.Run(ctx, trip)
	switch {
	case errors.Is(err, domain.ErrRunInProgress):
		logger.Info("plan generation already running, skipping")
	case err != nil:
		// the request is already marked failed
		logger.Error("plan generation failed", "err", err)
	}
	return nil
}
