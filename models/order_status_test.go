package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	tests := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusCreated, OrderStatusAccepted, true},
		{OrderStatusCreated, OrderStatusUnpaid, true},
		{OrderStatusCreated, OrderStatusPrinting, false},
		{OrderStatusUnpaid, OrderStatusAccepted, true},
		{OrderStatusUnpaid, OrderStatusCancelled, true},
		{OrderStatusUnpaid, OrderStatusPrinting, false},
		{OrderStatusAccepted, OrderStatusPrinting, true},
		{OrderStatusAccepted, OrderStatusReady, false},
		{OrderStatusPrinting, OrderStatusColoring, true},
		{OrderStatusColoring, OrderStatusPackaging, true},
		{OrderStatusPackaging, OrderStatusReady, true},
		{OrderStatusPrinting, OrderStatusDelayed, true},
		{OrderStatusDelayed, OrderStatusColoring, true},
		{OrderStatusDelayed, OrderStatusReady, false},
		{OrderStatusPackaging, OrderStatusPrinting, false},
		{OrderStatusReady, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusCreated, false},
		{OrderStatusReady, OrderStatusReady, true},
		{OrderStatusAccepted, OrderStatusAccepted, true},
		{"shipped", OrderStatusAccepted, false},
		{OrderStatusCreated, "shipped", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestEveryStatusCanBeCancelledUntilTerminal(t *testing.T) {
	for _, status := range OrderStatuses() {
		if status.IsTerminal() {
			assert.Equal(t, status == OrderStatusCancelled, status.CanTransitionTo(OrderStatusCancelled), status)
			continue
		}
		assert.True(t, status.CanTransitionTo(OrderStatusCancelled), status)
	}
	assert.Len(t, OrderStatuses(), 9)
}

func TestRequestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    RequestStatus
		to      RequestStatus
		allowed bool
	}{
		{RequestStatusPending, RequestStatusWaiting, true},
		{RequestStatusPending, RequestStatusFulfilled, true},
		{RequestStatusPending, RequestStatusRejected, true},
		{RequestStatusWaiting, RequestStatusWaiting, true},
		{RequestStatusWaiting, RequestStatusFulfilled, false},
		{RequestStatusRejected, RequestStatusPending, false},
		{RequestStatusPending, "archived", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}
