package mykafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/hg_store/internal/logging"
)

const (
	TopicCart     = "cart_events"
	TopicWishlist = "wishlist_events"
	TopicUser     = "user_events"
	TopicOrder    = "order_events"

	writeTimeout = 5 * time.Second
)

// Publisher is what the services depend on. Publishing is best effort:
// callers log a failure and carry on.
type Publisher interface {
	Publish(ctx context.Context, topic, key string, event Event) error
}

// Event is the envelope written to every topic.
type Event struct {
	Type    string    `json:"type"`
	EventID string    `json:"eventID"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload,omitempty"`
}

func NewEvent(eventType string, payload any) Event {
	return Event{
		Type:    eventType,
		EventID: uuid.NewString(),
		At:      time.Now().UTC(),
		Payload: payload,
	}
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: w}, nil
}

func (p *Producer) Publish(ctx context.Context, topic, key string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  event.At,
	})
	if err != nil {
		return fmt.Errorf("kafka: write to %s failed: %w", topic, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every event. Used when KAFKA_BROKERS is unset.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, string, Event) error { return nil }

// Emit publishes and logs instead of failing the caller.
func Emit(ctx context.Context, p Publisher, topic, key string, event Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed",
			"topic", topic, "type", event.Type, "event_id", event.EventID, "error", err)
	}
}
