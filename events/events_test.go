package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func Test_NewEnvelope_StampsTypeIDAndTime(t *testing.T) {
	entityID := uuid.New()
	before := time.Now().UTC()

	envelope := NewEnvelope(TopicOrder, "created", entityID, map[string]string{"number": "ORD-20260830-3F2A"})

	assert.Equal(t, "order.created", envelope.EventType)
	assert.Equal(t, entityID, envelope.EntityID)
	assert.NotEqual(t, uuid.Nil, envelope.EventID)
	assert.False(t, envelope.OccurredAt.Before(before))
	assert.NotNil(t, envelope.Payload)
}

func Test_NoopPublisher_AcceptsEverything(t *testing.T) {
	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), TopicPost, "deleted", uuid.New(), nil))
}
