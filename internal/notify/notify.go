package notify

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

// Notification is the user-facing message derived from a plan event.
type Notification struct {
	UserID        string            `json:"user_id"`
	TripRequestID uuid.UUID         `json:"trip_request_id"`
	Status        domain.TripStatus `json:"status"`
	Title         string            `json:"title"`
	Body          string            `json:"body"`
	CreatedAt     time.Time         `json:"created_at"`
}

type Sender interface {
	Send(ctx context.Context, n Notification) error
}

type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, n Notification) error {
	s.logger.InfoContext(ctx, "notify user",
		"user_id", n.UserID,
		"trip_id", n.TripRequestID,
		"status", n.Status,
		"title", n.Title,
	)
	return nil
}

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, payload any, maxRetries int) error
}

const publishRetries = 3

// KafkaSender forwards notifications to a topic read by the push gateway.
type KafkaSender struct {
	producer Producer
	topic    string
}

func NewKafkaSender(producer Producer, topic string) *KafkaSender {
	return &KafkaSender{producer: producer, topic: topic}
}

func (s *KafkaSender) Send(ctx context.Context, n Notification) error {
	return s.producer.PublishWithRetry(ctx, s.topic, n.UserID, n, publishRetries)
}

type Notifier struct {
	senders []Sender
	logger  *slog.Logger
}

func NewNotifier(logger *slog.Logger, senders ...Sender) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{senders: senders, logger: logger}
}

// Handle consumes one plan event. Undecodable payloads are dropped; send
// failures are returned so the message is redelivered.
func (n *Notifier) Handle(ctx context.Context, msg kafkago.Message) error {
	ev, err := kafka.DecodePlanEvent(msg.Value)
	if err != nil {
		n.logger.Warn("dropping plan event", "offset", msg.Offset, "err", err)
		return nil
	}
	if ev.UserID == "" {
		n.logger.Warn("plan event without user", "trip_id", ev.TripRequestID)
		return nil
	}

	note := Compose(ev)
	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, note); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func Compose(ev kafka.PlanEvent) Notification {
	note := Notification{
		UserID:        ev.UserID,
		TripRequestID: ev.TripRequestID,
		Status:        ev.Status,
		CreatedAt:     ev.OccurredAt,
	}

	switch ev.Type {
	case kafka.EventPlanCompleted:
		note.Title = "Your trip plan is ready"
		if ev.BudgetDifference < 0 {
			note.Body = fmt.Sprintf("Estimated cost %.2f, %.2f over budget.", ev.TotalEstimatedCost, -ev.BudgetDifference)
		} else {
			note.Body = fmt.Sprintf("Estimated cost %.2f, %.2f left in budget.", ev.TotalEstimatedCost, ev.BudgetDifference)
		}
	default:
		note.Title = "We could not plan your trip"
		note.Body = "Plan generation failed. Please try submitting the trip again."
	}
	return note
}
