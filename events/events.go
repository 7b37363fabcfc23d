// Package events defines the outbound notification contract of the storefront
// engines. Mutations publish fire-and-forget envelopes describing what happened;
// delivery failures are logged by the caller and never surfaced to the client,
// since the primary mutation has already succeeded.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Topic groups events by the entity family they describe.
type Topic string

const (
	TopicUser     Topic = "user"
	TopicOrder    Topic = "order"
	TopicPost     Topic = "post"
	TopicProduct  Topic = "product"
	TopicSupplier Topic = "supplier"
)

// Envelope is the wire representation of a single domain event.
// EventType is "<topic>.<action>", e.g. "order.created".
type Envelope struct {
	EventID    uuid.UUID `json:"event_id"`
	EventType  string    `json:"event_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

// NewEnvelope builds an Envelope stamped with a fresh event id and the current time.
func NewEnvelope(topic Topic, action string, entityID uuid.UUID, payload any) Envelope {
	return Envelope{
		EventID:    uuid.New(),
		EventType:  string(topic) + "." + action,
		EntityID:   entityID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher delivers envelopes to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, topic Topic, action string, entityID uuid.UUID, payload any) error
}

// NoopPublisher discards every event. Useful in tests and in deployments
// without a broker.
type NoopPublisher struct{}

// Publish implements Publisher by doing nothing.
func (NoopPublisher) Publish(_ context.Context, _ Topic, _ string, _ uuid.UUID, _ any) error {
	return nil
}
