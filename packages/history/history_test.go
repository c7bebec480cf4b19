package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRecordAndRecent(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	first := Entry{
		ExecutedAt: time.Now().Add(-time.Minute),
		File:       "api.http",
		Request:    "#1",
		Method:     "GET",
		Target:     "http://localhost/items",
		StatusCode: 200,
		Duration:   42 * time.Millisecond,
	}
	second := Entry{
		ExecutedAt: time.Now(),
		File:       "api.http",
		Request:    "login",
		Method:     "POST",
		Target:     "http://localhost/login",
		StatusCode: 401,
		Duration:   10 * time.Millisecond,
		Failed:     true,
	}
	require.NoError(t, store.Record(ctx, first))
	require.NoError(t, store.Record(ctx, second))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "login", entries[0].Request)
	assert.True(t, entries[0].Failed)
	assert.Equal(t, 401, entries[0].StatusCode)
	assert.Equal(t, 10*time.Millisecond, entries[0].Duration)
	assert.Equal(t, "#1", entries[1].Request)
	assert.False(t, entries[1].Failed)
}

func TestStoreRecentLimit(t *testing.T) {
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, Entry{
			ExecutedAt: time.Now(),
			File:       "api.http",
			Request:    "#1",
			Method:     "GET",
			Target:     "http://localhost/",
			StatusCode: 200,
		}))
	}

	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
