package broker_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/broker"
	"github.com/synapsestrike/tradeengine/model"
)

func TestRoute(t *testing.T) {
	cases := []struct {
		symbol string
		want   model.AssetClass
	}{
		{"MNQ", model.Futures},
		{"ES", model.Futures},
		{"ESH25", model.Futures},
		{"MNQZ26", model.Futures},
		{"SPY", model.Equity},
		{"TQQQ", model.Equity},
		{"MNQXYZ", model.Equity},
	}
	for _, c := range cases {
		require.Equal(t, c.want, broker.Route(c.symbol), "symbol %s", c.symbol)
	}
}

func TestRoute_Deterministic(t *testing.T) {
	for _, symbol := range []string{"MNQ", "ESH25", "SPY"} {
		require.Equal(t, broker.Route(symbol), broker.Route(symbol))
	}
}
