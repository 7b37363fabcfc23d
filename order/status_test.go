package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var allStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusProcessing, StatusShipped,
	StatusDelivered, StatusCancelled, StatusRefunded, StatusFailed,
}

func Test_CanTransitionTo_AllowsExactlyTheTable(t *testing.T) {
	allowed := map[OrderStatus][]OrderStatus{
		StatusPending:    {StatusConfirmed, StatusCancelled, StatusFailed},
		StatusConfirmed:  {StatusProcessing, StatusCancelled},
		StatusProcessing: {StatusShipped, StatusCancelled},
		StatusShipped:    {StatusDelivered},
		StatusDelivered:  {StatusRefunded},
		StatusCancelled:  {},
		StatusRefunded:   {},
		StatusFailed:     {},
	}

	for _, from := range allStatuses {
		allowedTargets := make(map[OrderStatus]bool)
		for _, to := range allowed[from] {
			allowedTargets[to] = true
		}

		for _, to := range allStatuses {
			got := from.CanTransitionTo(to)
			assert.Equal(t, allowedTargets[to], got, "transition %s -> %s", from, to)
		}
	}
}

func Test_IsTerminal(t *testing.T) {
	terminal := map[OrderStatus]bool{
		StatusCancelled: true,
		StatusRefunded:  true,
		StatusFailed:    true,
	}

	for _, status := range allStatuses {
		assert.Equal(t, terminal[status], status.IsTerminal(), "status %s", status)
	}
}

func Test_OrderStatus_IsValid(t *testing.T) {
	for _, status := range allStatuses {
		assert.True(t, status.IsValid(), "status %s", status)
	}

	assert.False(t, OrderStatus("returned").IsValid(), "item-level status is not an order status")
	assert.False(t, OrderStatus("").IsValid())
}
