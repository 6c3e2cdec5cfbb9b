package state

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/leapstack-labs/leapquery/internal/testutil"
	"github.com/leapstack-labs/leapquery/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(testutil.NewTestLogger(t))
	require.NoError(t, store.Open(":memory:"), "failed to open store")
	require.NoError(t, store.Migrate(), "failed to migrate store")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(":memory:"))
	require.NoError(t, store.Close())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(nil)
	ctx := context.Background()

	_, _, err := store.GetItem(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, store.Migrate())
	_, err = store.ListQueries(ctx, "")
	assert.Error(t, err)
}

func TestSQLiteStore_Migrate(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Migrating again is a no-op.
	require.NoError(t, store.Migrate())

	for _, table := range []string{"kv", "data_queries"} {
		rows, err := store.DB().Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s should exist", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	store := NewSQLiteStore(nil)
	require.NoError(t, store.Open(path))
	require.NoError(t, store.Migrate())
	require.NoError(t, store.SetItem(ctx, "k", "v"))
	require.NoError(t, store.Close())

	reopened := NewSQLiteStore(nil)
	require.NoError(t, reopened.Open(path))
	defer reopened.Close()

	v, ok, err := reopened.GetItem(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestSQLiteStore_KV(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	_, ok, err := store.GetItem(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.SetItem(ctx, "prefs", `{"a":1}`))
	require.NoError(t, store.SetItem(ctx, "prefs", `{"a":2}`))

	v, ok, err := store.GetItem(ctx, "prefs")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":2}`, v)

	require.NoError(t, store.RemoveItem(ctx, "prefs"))
	require.NoError(t, store.RemoveItem(ctx, "prefs"), "removing twice is fine")

	_, ok, err = store.GetItem(ctx, "prefs")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStore_QueryLifecycle(t *testing.T) {
	tests := []struct {
		name   string
		verify func(t *testing.T, store *SQLiteStore, created *core.Query)
	}{
		{
			name: "get returns stored fields",
			verify: func(t *testing.T, store *SQLiteStore, created *core.Query) {
				got, err := store.GetQuery(context.Background(), created.ID)
				require.NoError(t, err)
				assert.False(t, got.UpdatedAt.IsZero())
				assert.True(t, created.UpdatedAt.Equal(got.UpdatedAt))
				assert.Equal(t, created, got)
				assert.Equal(t, "", got.DataSourceID, "unbound source stays empty")
			},
		},
		{
			name: "update renames and replaces options",
			verify: func(t *testing.T, store *SQLiteStore, created *core.Query) {
				ctx := context.Background()
				updated, err := store.UpdateQuery(ctx, created.ID, "renamed", core.Options{"url": "https://b"})
				require.NoError(t, err)
				assert.Equal(t, "renamed", updated.Name)

				got, err := store.GetQuery(ctx, created.ID)
				require.NoError(t, err)
				assert.Equal(t, "renamed", got.Name)
				assert.Equal(t, core.Options{"url": "https://b"}, got.Options)
			},
		},
		{
			name: "update may keep its own name",
			verify: func(t *testing.T, store *SQLiteStore, created *core.Query) {
				_, err := store.UpdateQuery(context.Background(), created.ID, created.Name, nil)
				require.NoError(t, err)
			},
		},
		{
			name: "unchanged update still advances updated_at",
			verify: func(t *testing.T, store *SQLiteStore, created *core.Query) {
				ctx := context.Background()
				time.Sleep(time.Millisecond)
				updated, err := store.UpdateQuery(ctx, created.ID, created.Name, created.Options)
				require.NoError(t, err)
				assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

				got, err := store.GetQuery(ctx, created.ID)
				require.NoError(t, err)
				assert.True(t, updated.UpdatedAt.Equal(got.UpdatedAt))
				assert.Equal(t, created.Options, got.Options)
			},
		},
		{
			name: "delete removes the query",
			verify: func(t *testing.T, store *SQLiteStore, created *core.Query) {
				ctx := context.Background()
				require.NoError(t, store.DeleteQuery(ctx, created.ID))
				_, err := store.GetQuery(ctx, created.ID)
				assert.ErrorIs(t, err, core.ErrQueryNotFound)
				assert.ErrorIs(t, store.DeleteQuery(ctx, created.ID), core.ErrQueryNotFound)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := setupTestStore(t)
			created, err := store.CreateQuery(context.Background(), &core.Query{
				Name:      "restapi1",
				Kind:      core.KindRestAPI,
				AppID:     "app",
				VersionID: "v1",
				Options:   core.Options{"method": "get", "url": "https://a"},
			})
			require.NoError(t, err)
			require.NotEmpty(t, created.ID)
			tt.verify(t, store, created)
		})
	}
}

func TestSQLiteStore_DuplicateNames(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	a, err := store.CreateQuery(ctx, &core.Query{Name: "a", Kind: "runjs", VersionID: "v1"})
	require.NoError(t, err)
	_, err = store.CreateQuery(ctx, &core.Query{Name: "b", Kind: "runjs", VersionID: "v1"})
	require.NoError(t, err)

	_, err = store.CreateQuery(ctx, &core.Query{Name: "a", Kind: "runjs", VersionID: "v1"})
	assert.ErrorIs(t, err, core.ErrDuplicateName)

	_, err = store.CreateQuery(ctx, &core.Query{Name: "a", Kind: "runjs", VersionID: "v2"})
	assert.NoError(t, err, "names are scoped to the app version")

	_, err = store.UpdateQuery(ctx, a.ID, "b", nil)
	assert.ErrorIs(t, err, core.ErrDuplicateName)

	_, err = store.UpdateQuery(ctx, "nope", "c", nil)
	assert.ErrorIs(t, err, core.ErrQueryNotFound)
}

func TestSQLiteStore_ListQueries(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, q := range []core.Query{
		{Name: "zeta", Kind: "runjs", VersionID: "v1"},
		{Name: "alpha", Kind: "postgresql", DataSourceID: "ds1", VersionID: "v1"},
		{Name: "other", Kind: "runjs", VersionID: "v2"},
	} {
		_, err := store.CreateQuery(ctx, &q)
		require.NoError(t, err)
	}

	v1, err := store.ListQueries(ctx, "v1")
	require.NoError(t, err)
	require.Len(t, v1, 2)
	assert.Equal(t, "alpha", v1[0].Name)
	assert.Equal(t, "ds1", v1[0].DataSourceID)
	assert.Equal(t, "zeta", v1[1].Name)

	all, err := store.ListQueries(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
