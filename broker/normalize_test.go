package broker_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/broker"
	"github.com/synapsestrike/tradeengine/model"
)

// Normalizing an already-canonical status string is a no-op, since
// every adapter's switch falls through to the identity default.
func TestNormalizeStatus_Idempotent(t *testing.T) {
	canonical := []model.OrderStatus{
		model.OrderPending, model.OrderOpen, model.OrderFilled,
		model.OrderPartiallyFilled, model.OrderCancelled, model.OrderRejected, model.OrderExpired,
	}
	for _, status := range canonical {
		require.Equal(t, status, broker.NormalizeAlpacaStatus(string(status)))
		require.Equal(t, status, broker.NormalizeBinanceStatus(string(status)))
	}
}

func TestNormalizeAlpacaStatus_MapsNativeVocabulary(t *testing.T) {
	require.Equal(t, model.OrderPending, broker.NormalizeAlpacaStatus("new"))
	require.Equal(t, model.OrderFilled, broker.NormalizeAlpacaStatus("filled"))
	require.Equal(t, model.OrderPartiallyFilled, broker.NormalizeAlpacaStatus("partially_filled"))
	require.Equal(t, model.OrderCancelled, broker.NormalizeAlpacaStatus("canceled"))
}
