package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"OnboardingBuddy/backend/go/internal/models"
	"OnboardingBuddy/backend/go/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// Event is one user activity record mirrored to the event stream.
type Event struct {
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	Stage     int       `json:"stage,omitempty"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher ships activity events somewhere outside the bot.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Noop drops every event. It is used when Kafka is disabled.
type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// messageWriter is the part of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events as JSON keyed by user id, so one user's events
// stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
	logger *logger.Logger
}

// NewKafkaPublisher wraps a writer bound to the activity topic. For an async
// writer, delivery failures are logged from its Completion callback.
func NewKafkaPublisher(w *kafka.Writer, log *logger.Logger) *KafkaPublisher {
	p := &KafkaPublisher{writer: w, logger: log}
	if w.Async && w.Completion == nil {
		w.Completion = p.completed
	}
	return p
}

func (p *KafkaPublisher) completed(msgs []kafka.Message, err error) {
	if err == nil {
		return
	}
	l := p.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "kafka_error"})
	if len(msgs) == 1 {
		if id, perr := strconv.ParseInt(string(msgs[0].Key), 10, 64); perr == nil {
			l = l.WithUser(id)
		}
	}
	l.WithPayload(map[string]interface{}{"events": len(msgs)}).Warn("activity events not delivered")
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(e.UserID, 10)),
		Value: value,
		Time:  e.CreatedAt,
	})
	if err != nil {
		p.logger.WithUser(e.UserID).
			WithError(models.ErrorInfo{Message: err.Error(), Type: "kafka_error"}).
			WithPayload(map[string]interface{}{"action": e.Action}).
			Warn("failed to publish activity event")
		return fmt.Errorf("write event to kafka: %w", err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
