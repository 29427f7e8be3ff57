package storage_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/healthsys/go-health-admin/storage"
)

func TestInMemoryStoreRoundTrip(t *testing.T) {
	store := storage.NewInMemoryStore(zerolog.Nop())

	t.Run("string", func(t *testing.T) {
		store.SetItem("k", "hello")
		require.Equal(t, "hello", store.GetItem("k"))
	})

	t.Run("number as string", func(t *testing.T) {
		store.SetItem("k", "42")
		require.Equal(t, "42", store.GetItem("k"))
	})

	t.Run("object", func(t *testing.T) {
		value := map[string]any{"id": "u1", "email": "john@example.com"}
		store.SetItem("k", value)
		require.Equal(t, value, store.GetItem("k"))
	})
}

func TestInMemoryStoreMissingKey(t *testing.T) {
	store := storage.NewInMemoryStore(zerolog.Nop())
	require.Nil(t, store.GetItem("absent"))
}

func TestInMemoryStoreRemoveAndClear(t *testing.T) {
	store := storage.NewInMemoryStore(zerolog.Nop())
	store.SetItem(storage.KeyToken, "access")
	store.SetItem(storage.KeyRefreshToken, "refresh")

	store.RemoveItem(storage.KeyToken)
	require.Nil(t, store.GetItem(storage.KeyToken))
	require.Equal(t, "refresh", store.GetItem(storage.KeyRefreshToken))

	store.Clear()
	require.Nil(t, store.GetItem(storage.KeyRefreshToken))

	// Removing an absent key is a no-op
	store.RemoveItem("absent")
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store := storage.NewFileStore(path, "", zerolog.Nop())
	store.SetItem(storage.KeyToken, "access-token")
	store.SetItem(storage.KeyRefreshToken, "refresh-token")

	reopened := storage.NewFileStore(path, "", zerolog.Nop())
	require.Equal(t, "access-token", reopened.GetItem(storage.KeyToken))
	require.Equal(t, "refresh-token", reopened.GetItem(storage.KeyRefreshToken))
}

func TestFileStoreEncryptedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")

	store := storage.NewFileStore(path, "correct horse", zerolog.Nop())
	store.SetItem(storage.KeyToken, "secret-token")

	// Persisted bytes must not contain the plaintext token
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "secret-token")

	reopened := storage.NewFileStore(path, "correct horse", zerolog.Nop())
	require.Equal(t, "secret-token", reopened.GetItem(storage.KeyToken))
}

func TestFileStoreWrongPassphraseBehavesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.enc")

	store := storage.NewFileStore(path, "right", zerolog.Nop())
	store.SetItem(storage.KeyToken, "secret-token")

	reopened := storage.NewFileStore(path, "wrong", zerolog.Nop())
	require.Nil(t, reopened.GetItem(storage.KeyToken))
}

func TestFileStoreCorruptFileBehavesEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	store := storage.NewFileStore(path, "", zerolog.Nop())
	require.Nil(t, store.GetItem(storage.KeyToken))

	// The store stays usable after the fault
	store.SetItem(storage.KeyToken, "fresh")
	require.Equal(t, "fresh", store.GetItem(storage.KeyToken))
}

func TestFileStoreClearRemovesEverything(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")

	store := storage.NewFileStore(path, "", zerolog.Nop())
	store.SetItem(storage.KeyToken, "access")
	store.SetItem(storage.KeyRefreshToken, "refresh")
	store.Clear()

	reopened := storage.NewFileStore(path, "", zerolog.Nop())
	require.Nil(t, reopened.GetItem(storage.KeyToken))
	require.Nil(t, reopened.GetItem(storage.KeyRefreshToken))
}
