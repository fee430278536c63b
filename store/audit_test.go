package store_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/model"
	"github.com/synapsestrike/tradeengine/store"
)

func TestAuditRepo_AppendAndRecent(t *testing.T) {
	db := openTestDB(t)
	repo := store.NewAuditRepo(db)
	now := time.Now()

	require.NoError(t, repo.Append(model.AuditEntry{
		ID: "audit-1", Timestamp: now, Severity: model.SeverityInfo, Category: model.CategoryRisk,
		Message: "risk manager started", Context: map[string]interface{}{"startingEquity": 100000.0},
	}))
	require.NoError(t, repo.Append(model.AuditEntry{
		ID: "audit-2", Timestamp: now.Add(time.Second), Severity: model.SeverityWarn, Category: model.CategorySignal,
		Message: "signal rejected",
	}))

	out, err := repo.Recent(nil, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.Equal(t, "audit-2", out[0].ID, "Recent orders newest first")

	risk := model.CategoryRisk
	filtered, err := repo.Recent(&risk, 10)
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "audit-1", filtered[0].ID)
	require.InDelta(t, 100000.0, filtered[0].Context["startingEquity"].(float64), 0.001)
}
