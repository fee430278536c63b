package store_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/synapsestrike/tradeengine/store"
)

func TestCredentialRepo_PutGetRoundTrip(t *testing.T) {
	db := openTestDB(t)
	key := bytes.Repeat([]byte{0x42}, 32)
	repo, err := store.NewCredentialRepo(db, key)
	require.NoError(t, err)

	now := time.Now().UnixMilli()
	require.NoError(t, repo.Put("alpaca", []byte("refresh-token-1"), now))

	got, err := repo.Get("alpaca")
	require.NoError(t, err)
	require.Equal(t, []byte("refresh-token-1"), got)

	// Replacing re-encrypts under a fresh nonce.
	require.NoError(t, repo.Put("alpaca", []byte("refresh-token-2"), now+1))
	got, err = repo.Get("alpaca")
	require.NoError(t, err)
	require.Equal(t, []byte("refresh-token-2"), got)
}

func TestCredentialRepo_RejectsBadKeyLength(t *testing.T) {
	db := openTestDB(t)
	_, err := store.NewCredentialRepo(db, []byte("short"))
	require.Error(t, err)
}
