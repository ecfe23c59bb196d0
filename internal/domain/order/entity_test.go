package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusConfirmed, StatusDelivered, StatusCancelled} {
		assert.True(t, s.Valid(), "%s", s)
	}

	for _, s := range []Status{"", "pending", "Shipped", "DELIVERED"} {
		assert.False(t, s.Valid(), "%q", s)
	}
}

func TestStatusCanTransitionTo(t *testing.T) {
	tests := []struct {
		from Status
		to   Status
		want bool
	}{
		{StatusPending, StatusConfirmed, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusDelivered, false},
		{StatusPending, StatusPending, false},

		{StatusConfirmed, StatusDelivered, true},
		{StatusConfirmed, StatusCancelled, false},
		{StatusConfirmed, StatusPending, false},

		// Terminal states
		{StatusDelivered, StatusPending, false},
		{StatusDelivered, StatusConfirmed, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusPending, false},
		{StatusCancelled, StatusConfirmed, false},
		{StatusCancelled, StatusDelivered, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestCanBeCancelledBy(t *testing.T) {
	o := &Order{UserID: 7, Status: StatusPending}

	assert.True(t, o.CanBeCancelledBy(7))
	assert.False(t, o.CanBeCancelledBy(8), "only the owner may cancel")

	for _, s := range []Status{StatusConfirmed, StatusDelivered, StatusCancelled} {
		o.Status = s
		assert.False(t, o.CanBeCancelledBy(7), "status %s", s)
	}
}
