package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

// SearchEvent is the telemetry record emitted after each search attempt.
type SearchEvent struct {
	SearchID    string    `json:"searchId"`
	Zip         string    `json:"zip"`
	Outcome     string    `json:"outcome"`
	SafetyScore *int      `json:"safetyScore,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// Publisher emits search events to an external sink. Publishing is best
// effort; a failed publish never fails the search that produced it.
type Publisher interface {
	Publish(ctx context.Context, event SearchEvent) error
	Close() error
}

// Nop is a Publisher that drops every event, used when no broker is
// configured.
type Nop struct{}

func (Nop) Publish(context.Context, SearchEvent) error { return nil }
func (Nop) Close() error                               { return nil }

// KafkaPublisher produces search events to a Kafka topic.
type KafkaPublisher struct {
	writer *kafkago.Writer
}

// NewKafkaPublisher creates a producer for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireOne,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event SearchEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("serialize search event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.Zip),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "outcome", Value: []byte(event.Outcome)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
