package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
	"github.com/leapstack-labs/leapquery/pkg/core"
)

const queryColumns = `id, app_id, app_version_id, name, kind, data_source_id, plugin_id, options`

// selectColumns adds the save stamp to queryColumns for reads.
const selectColumns = queryColumns + `, updated_at`

// Layouts accepted for stored timestamps. Rows written by this package use
// the first; the second is how the sqlite driver renders a bound time.Time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
}

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateQuery inserts q under a fresh id. Names are unique per app version.
func (s *SQLiteStore) CreateQuery(ctx context.Context, q *core.Query) (*core.Query, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	created := q.Clone()
	created.ID = generateID()
	if created.Options == nil {
		created.Options = core.Options{}
	}
	opts, err := json.Marshal(created.Options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	s.logger.Debug("creating query", slog.String("id", created.ID), slog.String("name", created.Name), slog.String("kind", created.Kind))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := checkNameFree(ctx, tx, created.VersionID, created.Name, ""); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created.UpdatedAt = now
	_, err = tx.ExecContext(ctx,
		`INSERT INTO data_queries (`+queryColumns+`, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.AppID, created.VersionID, created.Name, created.Kind,
		nullString(created.DataSourceID), nullString(created.PluginID), string(opts), formatTimestamp(now), formatTimestamp(now),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit query: %w", err)
	}
	return created, nil
}

// UpdateQuery renames q and replaces its options.
func (s *SQLiteStore) UpdateQuery(ctx context.Context, id, name string, options core.Options) (*core.Query, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	if options == nil {
		options = core.Options{}
	}
	opts, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode options: %w", err)
	}

	s.logger.Debug("updating query", slog.String("id", id), slog.String("name", name))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := scanQuery(tx.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM data_queries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrQueryNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query: %w", err)
	}

	if err := checkNameFree(ctx, tx, current.VersionID, name, id); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx,
		`UPDATE data_queries SET name = ?, options = ?, updated_at = ? WHERE id = ?`,
		name, string(opts), formatTimestamp(now), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update query: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit query: %w", err)
	}

	current.Name = name
	current.Options = options.Clone()
	current.UpdatedAt = now
	return current, nil
}

// GetQuery retrieves a query by id.
func (s *SQLiteStore) GetQuery(ctx context.Context, id string) (*core.Query, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	q, err := scanQuery(s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM data_queries WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrQueryNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get query: %w", err)
	}
	return q, nil
}

// ListQueries returns the queries of an app version ordered by name.
// An empty versionID lists every query.
func (s *SQLiteStore) ListQueries(ctx context.Context, versionID string) ([]core.Query, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query := `SELECT ` + selectColumns + ` FROM data_queries`
	var args []any
	if versionID != "" {
		query += ` WHERE app_version_id = ?`
		args = append(args, versionID)
	}
	query += ` ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Query
	for rows.Next() {
		q, err := scanQuery(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan query: %w", err)
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list queries: %w", err)
	}
	return out, nil
}

// DeleteQuery removes a query.
func (s *SQLiteStore) DeleteQuery(ctx context.Context, id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM data_queries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete query: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", core.ErrQueryNotFound, id)
	}
	return nil
}

func checkNameFree(ctx context.Context, tx *sql.Tx, versionID, name, selfID string) error {
	var owner string
	err := tx.QueryRowContext(ctx,
		`SELECT id FROM data_queries WHERE app_version_id = ? AND name = ?`, versionID, name,
	).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to check query name: %w", err)
	}
	if owner == selfID {
		return nil
	}
	return fmt.Errorf("%w: %s", core.ErrDuplicateName, name)
}

func scanQuery(row rowScanner) (*core.Query, error) {
	var (
		q            core.Query
		dataSourceID sql.NullString
		pluginID     sql.NullString
		opts         string
		updatedAt    string
	)
	if err := row.Scan(&q.ID, &q.AppID, &q.VersionID, &q.Name, &q.Kind, &dataSourceID, &pluginID, &opts, &updatedAt); err != nil {
		return nil, err
	}
	ts, err := parseTimestamp(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode updated_at of %s: %w", q.ID, err)
	}
	q.UpdatedAt = ts
	q.DataSourceID = dataSourceID.String
	q.PluginID = pluginID.String
	if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
		return nil, fmt.Errorf("failed to decode options of %s: %w", q.ID, err)
	}
	if q.Options == nil {
		q.Options = core.Options{}
	}
	return &q, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
