// Package state persists editor preferences and data queries in SQLite.
package state

import (
	"context"

	"github.com/leapstack-labs/leapquery/pkg/core"
)

// KV is the key/value surface backing the preference store.
type KV interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
}

// QueryStore is the persistence surface of the query service.
type QueryStore interface {
	CreateQuery(ctx context.Context, q *core.Query) (*core.Query, error)
	UpdateQuery(ctx context.Context, id, name string, options core.Options) (*core.Query, error)
	GetQuery(ctx context.Context, id string) (*core.Query, error)
	ListQueries(ctx context.Context, versionID string) ([]core.Query, error)
	DeleteQuery(ctx context.Context, id string) error
}

// Store combines both surfaces with lifecycle management.
type Store interface {
	KV
	QueryStore
	Open(path string) error
	Migrate() error
	Close() error
}

var _ Store = (*SQLiteStore)(nil)
