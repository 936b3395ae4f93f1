package sqlitestore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/davidjes1/fitnesstracker/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func TestStore_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "local", "workouts")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	require.NoError(t, store.Set(ctx, "local", "workouts", []byte(`[1]`)))
	require.NoError(t, store.Set(ctx, "local", "workouts", []byte(`[2,1]`)))
	require.NoError(t, store.Set(ctx, "local", "weights", []byte(`[]`)))
	require.NoError(t, store.Set(ctx, "other", "workouts", []byte(`[9]`)))

	value, err := store.Get(ctx, "local", "workouts")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[2,1]`), value)

	keys, err := store.List(ctx, "local", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"weights", "workouts"}, keys)

	keys, err = store.List(ctx, "local", "wei")
	require.NoError(t, err)
	assert.Equal(t, []string{"weights"}, keys)

	require.NoError(t, store.Delete(ctx, "local", "workouts"))
	_, err = store.Get(ctx, "local", "workouts")
	assert.ErrorIs(t, err, storage.ErrKeyNotFound)

	value, err = store.Get(ctx, "other", "workouts")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[9]`), value)
}

func TestStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.db")
	ctx := context.Background()

	store, err := New(path)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, "local", "weights", []byte(`[{"weight":180.5}]`)))
	require.NoError(t, store.Close())

	store, err = New(path)
	require.NoError(t, err)
	defer store.Close()

	value, err := store.Get(ctx, "local", "weights")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"weight":180.5}]`, string(value))
}

func TestStore_ClosedDBReturnsStorageError(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "tracker.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Set(context.Background(), "local", "weights", []byte(`[]`))
	var sErr *storage.Error
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, "set", sErr.Op)
}
