package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/store"
)

func TestRiskStateRepo_GetSeedsOnFirstBoot(t *testing.T) {
	db := openTestDB(t)
	repo := store.NewRiskStateRepo(db)
	now := time.Now()

	state, err := repo.Get(100000, "2026-08-01", now)
	require.NoError(t, err)
	require.Equal(t, 100000.0, state.StartOfDayEquity)
	require.Equal(t, 100000.0, state.PeakEquity)
	require.Equal(t, "2026-08-01", state.TradingDay)

	again, err := repo.Get(999999, "2026-08-01", now)
	require.NoError(t, err)
	require.Equal(t, 100000.0, again.StartOfDayEquity, "a second Get must not re-seed the singleton")
}

func TestRiskStateRepo_SaveRoundTripsCircuitBreakerFields(t *testing.T) {
	db := openTestDB(t)
	repo := store.NewRiskStateRepo(db)
	now := time.Now()

	state, err := repo.Get(100000, "2026-08-01", now)
	require.NoError(t, err)

	until := now.Add(time.Hour)
	reason := model.TriggerDailyLoss
	state.CircuitBreakerTriggered = true
	state.CircuitBreakerUntil = &until
	state.CircuitBreakerReason = &reason
	state.LastUpdated = now
	require.NoError(t, repo.Save(*state))

	got, err := repo.Get(100000, "2026-08-01", now)
	require.NoError(t, err)
	require.True(t, got.CircuitBreakerTriggered)
	require.NotNil(t, got.CircuitBreakerReason)
	require.Equal(t, model.TriggerDailyLoss, *got.CircuitBreakerReason)
	require.NotNil(t, got.CircuitBreakerUntil)
	require.WithinDuration(t, until, *got.CircuitBreakerUntil, time.Millisecond)
}

func TestRiskStateRepo_SaveClearsCircuitBreakerReason(t *testing.T) {
	db := openTestDB(t)
	repo := store.NewRiskStateRepo(db)
	now := time.Now()

	state, err := repo.Get(100000, "2026-08-01", now)
	require.NoError(t, err)
	reason := model.TriggerDailyLoss
	state.CircuitBreakerTriggered = true
	state.CircuitBreakerReason = &reason
	require.NoError(t, repo.Save(*state))

	state.CircuitBreakerTriggered = false
	state.CircuitBreakerReason = nil
	state.CircuitBreakerUntil = nil
	require.NoError(t, repo.Save(*state))

	got, err := repo.Get(100000, "2026-08-01", now)
	require.NoError(t, err)
	require.False(t, got.CircuitBreakerTriggered)
	require.Nil(t, got.CircuitBreakerReason)
	require.Nil(t, got.CircuitBreakerUntil)
}
