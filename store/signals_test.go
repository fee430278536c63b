package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/store"
)

func testSignal(id string, now time.Time) model.Signal {
	return model.Signal{
		ID: id, Symbol: "MNQ", AssetClass: model.Futures, Timeframe: "1m",
		Direction: model.DirectionLong, Strength: 0.8, EntryPrice: 15000, StopLoss: 14900,
		Source: model.SourceMomentum, Reasons: []string{"momentum breakout"},
		Indicators: map[string]float64{"rsi": 62.5}, Status: model.SignalActive,
		Timestamp: now, ExpiresAt: now.Add(5 * time.Minute),
	}
}

func TestSignalRepo_CreateGetRoundTrip(t *testing.T) {
	db := openTestDB(t)
	repo := store.NewSignalRepo(db)
	now := time.Now()

	sig := testSignal("sig-1", now)
	require.NoError(t, repo.Create(sig))

	got, err := repo.Get("sig-1")
	require.NoError(t, err)
	require.Equal(t, sig.Symbol, got.Symbol)
	require.Equal(t, sig.Direction, got.Direction)
	require.Equal(t, []string{"momentum breakout"}, got.Reasons)
	require.InDelta(t, 62.5, got.Indicators["rsi"], 0.001)
}

func TestSignalRepo_ActiveExcludesExpiredAndCancelled(t *testing.T) {
	db := openTestDB(t)
	repo := store.NewSignalRepo(db)
	now := time.Now()

	active := testSignal("sig-active", now)
	require.NoError(t, repo.Create(active))

	expired := testSignal("sig-expired", now.Add(-time.Hour))
	expired.ExpiresAt = now.Add(-time.Minute)
	require.NoError(t, repo.Create(expired))

	cancelled := testSignal("sig-cancelled", now)
	require.NoError(t, repo.Create(cancelled))
	require.NoError(t, repo.UpdateStatus("sig-cancelled", model.SignalCancelled))

	out, err := repo.Active(now)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, "sig-active", out[0].ID)
}

func TestSignalRepo_ExpireStale(t *testing.T) {
	db := openTestDB(t)
	repo := store.NewSignalRepo(db)
	now := time.Now()

	sig := testSignal("sig-stale", now.Add(-time.Hour))
	sig.ExpiresAt = now.Add(-time.Minute)
	require.NoError(t, repo.Create(sig))

	n, err := repo.ExpireStale(now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	got, err := repo.Get("sig-stale")
	require.NoError(t, err)
	require.Equal(t, model.SignalExpired, got.Status)
}
