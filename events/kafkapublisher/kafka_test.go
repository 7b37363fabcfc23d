package kafkapublisher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_NewPublisher_RequiresBrokers(t *testing.T) {
	_, err := NewPublisher(nil)
	assert.ErrorIs(t, err, ErrNoBrokers)

	_, err = NewPublisher([]string{})
	assert.ErrorIs(t, err, ErrNoBrokers)
}

func Test_NewPublisher_ConfiguresReliabilityDefaults(t *testing.T) {
	publisher, err := NewPublisher([]string{"localhost:9092"})

	require.NoError(t, err)
	assert.Equal(t, 5, publisher.writer.MaxAttempts)
	assert.NotNil(t, publisher.writer.Balancer)
	require.NoError(t, publisher.Close())
}
