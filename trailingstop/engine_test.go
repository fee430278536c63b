package trailingstop_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/trailingstop"
)

// A LONG position entered at 100 with an initial stop of 98 ratchets its stop
// upward as price rises, never loosens on a pullback, and triggers once
// price crosses the committed stop.
func TestEngine_LongRatchetLifecycle(t *testing.T) {
	eng := trailingstop.NewEngine(trailingstop.Config{
		Enabled: true, TrailPercent: 0.5, ActivationPercent: 0.3, MinTrailPercent: 0.2,
	})
	eng.Register("pos-1", "MNQ", model.PositionLong, 100, 98)

	update, tracked := eng.OnPriceTick("pos-1", 100.2)
	require.True(t, tracked)
	require.False(t, update.Activated)
	require.False(t, update.Triggered)
	require.Equal(t, 98.0, update.CurrentStop)

	update, _ = eng.OnPriceTick("pos-1", 100.5)
	require.True(t, update.Activated)
	require.False(t, update.Triggered)
	require.InDelta(t, 100.2, update.CurrentStop, 0.001)

	update, _ = eng.OnPriceTick("pos-1", 100.4)
	require.False(t, update.Changed)
	require.InDelta(t, 100.2, update.CurrentStop, 0.001)
	require.False(t, update.Triggered)

	update, _ = eng.OnPriceTick("pos-1", 99.9)
	require.True(t, update.Triggered)
	require.InDelta(t, 100.2, update.CurrentStop, 0.001)
}

func TestEngine_UnregisteredPosition(t *testing.T) {
	eng := trailingstop.NewEngine(trailingstop.DefaultConfig())
	_, tracked := eng.OnPriceTick("unknown", 100)
	require.False(t, tracked)
}

func TestEngine_ShortSideRatchetsDownward(t *testing.T) {
	eng := trailingstop.NewEngine(trailingstop.Config{
		Enabled: true, TrailPercent: 0.5, ActivationPercent: 0.3, MinTrailPercent: 0.2,
	})
	eng.Register("pos-2", "MNQ", model.PositionShort, 100, 102)

	update, _ := eng.OnPriceTick("pos-2", 99.5)
	require.True(t, update.Activated)
	require.Less(t, update.CurrentStop, 102.0)

	update, _ = eng.OnPriceTick("pos-2", 99.6)
	require.False(t, update.Changed)

	update, _ = eng.OnPriceTick("pos-2", update.CurrentStop+0.5)
	require.True(t, update.Triggered)
}
