package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func testStoreLifecycle(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	// Missing object
	_, err := store.Get(ctx, "tables/t1.vectab/_manifests/1.json")
	require.ErrorIs(t, err, ErrNotFound)

	ok, err := store.Exists(ctx, "tables/t1.vectab/_manifests/1.json")
	require.NoError(t, err)
	require.False(t, ok)

	// Put and read back
	data := []byte(`{"version":1}`)
	require.NoError(t, store.Put(ctx, "tables/t1.vectab/_manifests/1.json", data))
	require.NoError(t, store.Put(ctx, "tables/t1.vectab/data/0001.frag", []byte("frag")))
	require.NoError(t, store.Put(ctx, "tables/t2.vectab/_manifests/1.json", data))

	got, err := store.Get(ctx, "tables/t1.vectab/_manifests/1.json")
	require.NoError(t, err)
	require.Equal(t, data, got)

	ok, err = store.Exists(ctx, "tables/t1.vectab/data/0001.frag")
	require.NoError(t, err)
	require.True(t, ok)

	// List by prefix, sorted
	names, err := store.List(ctx, "tables/t1.vectab/")
	require.NoError(t, err)
	require.Equal(t, []string{
		"tables/t1.vectab/_manifests/1.json",
		"tables/t1.vectab/data/0001.frag",
	}, names)

	// Overwrite
	require.NoError(t, store.Put(ctx, "tables/t1.vectab/_manifests/1.json", []byte("v2")))
	got, err = store.Get(ctx, "tables/t1.vectab/_manifests/1.json")
	require.NoError(t, err)
	require.Equal(t, []byte("v2"), got)

	// Delete is idempotent
	require.NoError(t, store.Delete(ctx, "tables/t1.vectab/data/0001.frag"))
	require.NoError(t, store.Delete(ctx, "tables/t1.vectab/data/0001.frag"))

	names, err = store.List(ctx, "tables/t1.vectab/")
	require.NoError(t, err)
	require.Equal(t, []string{"tables/t1.vectab/_manifests/1.json"}, names)
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	testStoreLifecycle(t, NewMemoryStore())
}

func TestLocalStore_Lifecycle(t *testing.T) {
	testStoreLifecycle(t, NewLocalStore(t.TempDir()))
}

func TestLocalStore_ListOnMissingRoot(t *testing.T) {
	store := NewLocalStore(t.TempDir() + "/does-not-exist")
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	require.Empty(t, names)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "obj", []byte{1, 2, 3}))
	got, err := store.Get(ctx, "obj")
	require.NoError(t, err)
	got[0] = 99

	again, err := store.Get(ctx, "obj")
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, again)
}
