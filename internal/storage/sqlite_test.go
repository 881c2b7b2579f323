package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, store.SaveRender(ctx, &Render{
		ID:         "net/socket",
		SourcePath: "net/socket.yaml",
		ModelHash:  "abc",
		Output:     "# Socket\n\n",
		Sections:   []string{"title"},
		UpdatedAt:  at,
	}))

	got, err := store.GetRender(ctx, "net/socket")
	require.NoError(t, err)
	assert.Equal(t, "net/socket.yaml", got.SourcePath)
	assert.Equal(t, "abc", got.ModelHash)
	assert.Equal(t, "# Socket\n\n", got.Output)
	assert.Equal(t, []string{"title"}, got.Sections)
	assert.True(t, at.Equal(got.UpdatedAt))

	// Upsert replaces the record.
	require.NoError(t, store.SaveRender(ctx, &Render{ID: "net/socket", ModelHash: "def", Output: ""}))
	got, err = store.GetRender(ctx, "net/socket")
	require.NoError(t, err)
	assert.Equal(t, "def", got.ModelHash)
	assert.Equal(t, "", got.Output)
	assert.Empty(t, got.Sections)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	store := newTestStore(t)
	_, err := store.GetRender(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SaveRequiresID(t *testing.T) {
	store := newTestStore(t)
	assert.Error(t, store.SaveRender(context.Background(), &Render{}))
}

func TestSQLiteStore_ListAndPrune(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, store.SaveRender(ctx, &Render{ID: id, ModelHash: id}))
	}

	all, err := store.ListRenders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "c", all[2].ID)

	removed, err := store.PruneRenders(ctx, []string{"b"})
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.Equal(t, "a", removed[0].ID)
	assert.Equal(t, "c", removed[1].ID)

	all, err = store.ListRenders(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "b", all[0].ID)

	// Empty keep set clears the store.
	removed, err = store.PruneRenders(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, removed, 1)
	all, err = store.ListRenders(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestSQLiteStore_FindRendersBySource(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRender(ctx, &Render{ID: "net/open", SourcePath: "models/a.yaml"}))
	require.NoError(t, store.SaveRender(ctx, &Render{ID: "a", SourcePath: "models/a.yaml"}))
	require.NoError(t, store.SaveRender(ctx, &Render{ID: "b", SourcePath: "models/b.yaml"}))

	found, err := store.FindRendersBySource(ctx, "models/a.yaml")
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "a", found[0].ID)
	assert.Equal(t, "net/open", found[1].ID)

	found, err = store.FindRendersBySource(ctx, "models/missing.yaml")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestSQLiteStore_CorruptSectionsColumn(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveRender(ctx, &Render{ID: "a", Sections: []string{"title"}}))
	_, err := store.db.ExecContext(ctx, "UPDATE renders SET sections = ? WHERE id = ?", "{not json", "a")
	require.NoError(t, err)

	_, err = store.GetRender(ctx, "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode sections of a")

	_, err = store.ListRenders(ctx)
	assert.Error(t, err)
}
