// Package kafkapublisher implements events.Publisher on top of a Kafka writer.
package kafkapublisher

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"

	"github.com/velora-labs/storefront-engine-go/events"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoBrokers is returned when the publisher is built without broker addresses.
var ErrNoBrokers = errors.New("at least one kafka broker address is required")

const topicPrefix = "storefront."

// Publisher writes event envelopes to Kafka, one topic per entity family.
// The entity id is used as the message key so events for the same entity
// land on the same partition and stay ordered.
type Publisher struct {
	writer *kafka.Writer
}

// NewPublisher builds a Publisher with reliability settings suited to
// fire-and-forget domain events: all-replica acks and bounded write retries.
func NewPublisher(brokers []string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}

	return &Publisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
			ReadTimeout:  5 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}, nil
}

// Publish writes one envelope to the topic of the given entity family.
func (p *Publisher) Publish(ctx context.Context, topic events.Topic, action string, entityID uuid.UUID, payload any) error {
	envelope := events.NewEnvelope(topic, action, entityID, payload)

	value, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topicPrefix + string(topic),
		Key:   entityID[:],
		Value: value,
	})
}

// Close releases the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
