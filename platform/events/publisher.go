// Package events publishes delivery outcomes to Kafka so downstream
// consumers (alerting, analytics) can follow the queues without polling
// the database.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// Queue labels for InvocationRecord.Queue.
const (
	QueueEvent     = "event"
	QueueScheduled = "scheduled"
)

// InvocationRecord is the message emitted after every recorded delivery
// attempt, successful or not.
type InvocationRecord struct {
	EventID    string    `json:"event_id"`
	Trigger    string    `json:"trigger"`
	Queue      string    `json:"queue"`
	Status     int       `json:"status"`
	Tries      int       `json:"tries"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher writes invocation records to a Kafka topic, keyed by event ID
// so all attempts of one event land on the same partition in order.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher creates a publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

// Publish sends one invocation record.
func (p *Publisher) Publish(ctx context.Context, rec InvocationRecord) error {
	value, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal invocation record: %w", err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.EventID),
		Value: value,
	}); err != nil {
		return fmt.Errorf("write invocation record: %w", err)
	}
	return nil
}

// Close flushes pending messages and releases the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
