package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/model"
)

func TestSignal_ValidateRejectsWrongSideStop(t *testing.T) {
	now := time.Now()
	long := model.Signal{Direction: model.DirectionLong, EntryPrice: 100, StopLoss: 101}
	require.Error(t, long.Validate(), "LONG stopLoss above entryPrice must be rejected")

	short := model.Signal{Direction: model.DirectionShort, EntryPrice: 100, StopLoss: 99}
	require.Error(t, short.Validate(), "SHORT stopLoss below entryPrice must be rejected")

	valid := model.Signal{Direction: model.DirectionLong, EntryPrice: 100, StopLoss: 98, Timestamp: now}
	require.NoError(t, valid.Validate())
}

func TestOrder_ValidateRejectsOutOfRangeFilledQuantity(t *testing.T) {
	over := model.Order{Quantity: 1, FilledQuantity: 2}
	require.Error(t, over.Validate())

	negative := model.Order{Quantity: 1, FilledQuantity: -0.1}
	require.Error(t, negative.Validate())

	ok := model.Order{Quantity: 1, FilledQuantity: 1}
	require.NoError(t, ok.Validate())
}

func TestOrder_ValidateRequiresFilledAtWhenFilled(t *testing.T) {
	o := model.Order{Quantity: 1, FilledQuantity: 1, Status: model.OrderFilled}
	require.Error(t, o.Validate())

	now := time.Now()
	o.FilledAt = &now
	require.NoError(t, o.Validate())
}

func TestOrderStatus_IsTerminal(t *testing.T) {
	require.True(t, model.OrderFilled.IsTerminal())
	require.True(t, model.OrderCancelled.IsTerminal())
	require.False(t, model.OrderPending.IsTerminal())
	require.False(t, model.OrderOpen.IsTerminal())
}
