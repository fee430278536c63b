package store_test

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/store"
)

// openTestDB opens a fresh in-memory sqlite database with every
// repository's schema migrated, mirroring store.Open without touching
// disk.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}
