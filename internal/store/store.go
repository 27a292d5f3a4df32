// Package store persists watch history and exclusion lists. Two backends
// are provided: SQLite for single-user local use and PostgreSQL for shared
// deployments.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/screenpick/screenpick/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = eris.New("store: not found")

// WatchHistoryStore reads and appends a user's watch history.
type WatchHistoryStore interface {
	// ListHistory returns all history items for the user, newest first.
	ListHistory(ctx context.Context, userID string) ([]model.WatchHistoryItem, error)
	AddHistory(ctx context.Context, userID string, item model.WatchHistoryItem) (*model.WatchHistoryItem, error)
}

// ExclusionStore manages a user's exclusion list. Exclusion items carry a
// snapshot of the title's tags taken at add time so rejection rates stay
// computable without catalog access.
type ExclusionStore interface {
	ListExclusionIDs(ctx context.Context, userID string) ([]string, error)
	ListExclusions(ctx context.Context, userID string) ([]model.ExclusionItem, error)
	AddExclusion(ctx context.Context, userID string, item model.ExclusionItem) (*model.ExclusionItem, error)
	RemoveExclusion(ctx context.Context, userID string, catalogID string) error
}

// Store is the persistence interface for the recommendation pipeline.
type Store interface {
	WatchHistoryStore
	ExclusionStore

	Migrate(ctx context.Context) error
	Close() error
}

// Open creates a Store for the given driver ("sqlite" or "postgres") and
// connection string. poolCfg tunes the postgres pool and is ignored by
// sqlite; nil means defaults.
func Open(ctx context.Context, driver, dsn string, poolCfg *PoolConfig) (Store, error) {
	switch driver {
	case "sqlite", "":
		return NewSQLite(dsn)
	case "postgres":
		return NewPostgres(ctx, dsn, poolCfg)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}
