package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderTransitions(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderPending, OrderProcessing, true},
		{OrderPending, OrderCancelled, true},
		{OrderPending, OrderOnHold, true},
		{OrderPending, OrderShipped, false},
		{OrderProcessing, OrderShipped, true},
		{OrderOnHold, OrderPending, true},
		{OrderShipped, OrderDelivered, true},
		{OrderShipped, OrderCancelled, false},
		{OrderDelivered, OrderCompleted, true},
		{OrderDelivered, OrderRefunded, true},
		{OrderCompleted, OrderRefunded, true},
		{OrderCancelled, OrderPending, false},
		{OrderRefunded, OrderCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderTerminalAndCancellable(t *testing.T) {
	assert.True(t, OrderCancelled.IsTerminal())
	assert.True(t, OrderRefunded.IsTerminal())
	assert.False(t, OrderPending.IsTerminal())

	assert.True(t, OrderPending.CanBeCancelled())
	assert.True(t, OrderProcessing.CanBeCancelled())
	assert.False(t, OrderShipped.CanBeCancelled())

	assert.True(t, OrderDelivered.IsReturnable())
	assert.True(t, OrderCompleted.IsReturnable())
	assert.False(t, OrderShipped.IsReturnable())
}

func TestShipmentTransitions(t *testing.T) {
	assert.True(t, ShipmentProcessing.CanTransitionTo(ShipmentPickedUp))
	assert.True(t, ShipmentInTransit.CanTransitionTo(ShipmentOutForDelivery))
	assert.True(t, ShipmentOutForDelivery.CanTransitionTo(ShipmentDelivered))
	assert.True(t, ShipmentFailedDelivery.CanTransitionTo(ShipmentReturned))
	assert.False(t, ShipmentDelivered.CanTransitionTo(ShipmentInTransit))
	assert.False(t, ShipmentProcessing.CanTransitionTo(ShipmentDelivered))

	assert.True(t, ShipmentDelivered.Valid())
	assert.False(t, ShipmentStatus("LOST").Valid())
}

func TestReturnTransitions(t *testing.T) {
	assert.True(t, ReturnRequested.CanTransitionTo(ReturnApproved))
	assert.True(t, ReturnApproved.CanTransitionTo(ReturnReceived))
	assert.True(t, ReturnReceived.CanTransitionTo(ReturnCompleted))
	assert.False(t, ReturnRequested.CanTransitionTo(ReturnCompleted))
	assert.False(t, ReturnCompleted.CanTransitionTo(ReturnCancelled))
}

func TestTransactionTransitions(t *testing.T) {
	assert.True(t, TxInitiated.CanTransitionTo(TxProcessing))
	assert.True(t, TxProcessing.CanTransitionTo(TxCompleted))
	assert.True(t, TxCompleted.CanTransitionTo(TxPartiallyRefunded))
	assert.True(t, TxPartiallyRefunded.CanTransitionTo(TxRefunded))
	assert.False(t, TxFailed.CanTransitionTo(TxCompleted))
	assert.False(t, TxRefunded.CanTransitionTo(TxCompleted))
}
