package state

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/leapquery/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockStore(t *testing.T) (*SQLiteStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSQLiteStoreWithDB(db, nil), mock
}

func TestSQLiteStore_GetItemError(t *testing.T) {
	store, mock := setupMockStore(t)
	boom := errors.New("disk I/O error")

	mock.ExpectQuery("SELECT value FROM kv").WithArgs("prefs").WillReturnError(boom)

	_, _, err := store.GetItem(context.Background(), "prefs")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failed to get item")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_SetItemError(t *testing.T) {
	store, mock := setupMockStore(t)
	boom := errors.New("database is locked")

	mock.ExpectExec("INSERT INTO kv").WillReturnError(boom)

	err := store.SetItem(context.Background(), "prefs", "{}")
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_CreateQueryRollsBack(t *testing.T) {
	store, mock := setupMockStore(t)
	boom := errors.New("constraint failed")

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id FROM data_queries").
		WithArgs("v1", "restapi1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec("INSERT INTO data_queries").WillReturnError(boom)
	mock.ExpectRollback()

	_, err := store.CreateQuery(context.Background(), &core.Query{Name: "restapi1", Kind: "restapi", VersionID: "v1"})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLiteStore_ListQueriesBadOptions(t *testing.T) {
	store, mock := setupMockStore(t)

	rows := sqlmock.NewRows(queryRowColumns).
		AddRow("1", "app", "v1", "q", "runjs", nil, nil, "{broken", "2026-01-02T03:04:05Z")
	mock.ExpectQuery("SELECT (.+) FROM data_queries").WillReturnRows(rows)

	_, err := store.ListQueries(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode options")
}

var queryRowColumns = []string{"id", "app_id", "app_version_id", "name", "kind", "data_source_id", "plugin_id", "options", "updated_at"}

func TestSQLiteStore_GetQueryUpdatedAt(t *testing.T) {
	tests := []struct {
		name    string
		stamp   string
		want    time.Time
		wantErr string
	}{
		{
			name:  "rfc3339",
			stamp: "2026-01-02T03:04:05.123456789Z",
			want:  time.Date(2026, 1, 2, 3, 4, 5, 123456789, time.UTC),
		},
		{
			name:  "driver layout with offset",
			stamp: "2026-01-02 05:04:05.5+02:00",
			want:  time.Date(2026, 1, 2, 3, 4, 5, 500000000, time.UTC),
		},
		{
			name:    "garbage",
			stamp:   "yesterday",
			wantErr: "failed to decode updated_at",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := setupMockStore(t)
			rows := sqlmock.NewRows(queryRowColumns).
				AddRow("1", "app", "v1", "q", "runjs", nil, nil, "{}", tt.stamp)
			mock.ExpectQuery("SELECT (.+) FROM data_queries WHERE id").WithArgs("1").WillReturnRows(rows)

			got, err := store.GetQuery(context.Background(), "1")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got.UpdatedAt), "got %s", got.UpdatedAt)
		})
	}
}
