package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/screenpick/screenpick/internal/model"
)

// pgxPool is the subset of pgxpool.Pool the store uses. pgxmock's pool
// satisfies it in tests.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool pgxPool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot store operations.
var preparedStatements = map[string]string{
	"list_history":       `SELECT id, catalog_id, title, genres, year, countries, directors, actors, user_rating, catalog_rating, created_at FROM watch_history WHERE user_id = $1 ORDER BY created_at DESC`,
	"insert_history":     `INSERT INTO watch_history (id, user_id, catalog_id, title, genres, year, countries, directors, actors, user_rating, catalog_rating, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
	"list_exclusion_ids": `SELECT catalog_id FROM exclusions WHERE user_id = $1`,
	"list_exclusions":    `SELECT catalog_id, kind, title, genres, directors, actors, created_at FROM exclusions WHERE user_id = $1 ORDER BY created_at DESC`,
	"remove_exclusion":   `DELETE FROM exclusions WHERE user_id = $1 AND catalog_id = $2`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns, pgxCfg.MinConns = poolSizes(poolCfg)
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// poolSizes resolves the pool bounds, falling back to defaults per field
// when the config is nil or a field is unset.
func poolSizes(poolCfg *PoolConfig) (maxConns, minConns int32) {
	maxConns, minConns = 10, 2
	if poolCfg == nil {
		return maxConns, minConns
	}
	if poolCfg.MaxConns > 0 {
		maxConns = poolCfg.MaxConns
	}
	if poolCfg.MinConns > 0 {
		minConns = poolCfg.MinConns
	}
	return maxConns, minConns
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS watch_history (
	id             TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id        TEXT NOT NULL,
	catalog_id     TEXT,
	title          TEXT NOT NULL,
	genres         JSONB NOT NULL DEFAULT '[]',
	year           INTEGER NOT NULL DEFAULT 0,
	countries      JSONB NOT NULL DEFAULT '[]',
	directors      JSONB NOT NULL DEFAULT '[]',
	actors         JSONB NOT NULL DEFAULT '[]',
	user_rating    DOUBLE PRECISION NOT NULL DEFAULT 0,
	catalog_rating DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS exclusions (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id    TEXT NOT NULL,
	catalog_id TEXT NOT NULL,
	kind       TEXT NOT NULL,
	title      TEXT NOT NULL,
	genres     JSONB NOT NULL DEFAULT '[]',
	directors  JSONB NOT NULL DEFAULT '[]',
	actors     JSONB NOT NULL DEFAULT '[]',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(user_id, catalog_id)
);

CREATE INDEX IF NOT EXISTS idx_watch_history_user_id ON watch_history(user_id);
CREATE INDEX IF NOT EXISTS idx_watch_history_created_at ON watch_history(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_exclusions_user_id ON exclusions(user_id);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) ListHistory(ctx context.Context, userID string) ([]model.WatchHistoryItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, catalog_id, title, genres, year, countries, directors, actors,
		        user_rating, catalog_rating, created_at
		 FROM watch_history WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list history")
	}
	defer rows.Close()

	var items []model.WatchHistoryItem
	for rows.Next() {
		var it model.WatchHistoryItem
		var catalogID *string
		if err := rows.Scan(&it.ID, &catalogID, &it.Title, &it.Genres, &it.Year,
			&it.Countries, &it.Directors, &it.Actors, &it.UserRating, &it.CatalogRating, &it.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan history item")
		}
		if catalogID != nil {
			it.CatalogID = *catalogID
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list history iterate")
}

func (s *PostgresStore) AddHistory(ctx context.Context, userID string, item model.WatchHistoryItem) (*model.WatchHistoryItem, error) {
	item.ID = uuid.New().String()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO watch_history
		 (id, user_id, catalog_id, title, genres, year, countries, directors, actors, user_rating, catalog_rating, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		item.ID, userID, item.CatalogID, item.Title, jsonList(item.Genres), item.Year,
		jsonList(item.Countries), jsonList(item.Directors), jsonList(item.Actors),
		item.UserRating, item.CatalogRating, item.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert history item")
	}
	return &item, nil
}

func (s *PostgresStore) ListExclusionIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT catalog_id FROM exclusions WHERE user_id = $1`, userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list exclusion ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan exclusion id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "postgres: list exclusion ids iterate")
}

func (s *PostgresStore) ListExclusions(ctx context.Context, userID string) ([]model.ExclusionItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT catalog_id, kind, title, genres, directors, actors, created_at
		 FROM exclusions WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list exclusions")
	}
	defer rows.Close()

	var items []model.ExclusionItem
	for rows.Next() {
		var it model.ExclusionItem
		var kind string
		if err := rows.Scan(&it.CatalogID, &kind, &it.Title, &it.Genres, &it.Directors, &it.Actors, &it.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan exclusion")
		}
		it.Kind = model.MediaKind(kind)
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "postgres: list exclusions iterate")
}

func (s *PostgresStore) AddExclusion(ctx context.Context, userID string, item model.ExclusionItem) (*model.ExclusionItem, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	// Re-excluding the same title refreshes the tag snapshot.
	_, err := s.pool.Exec(ctx,
		`INSERT INTO exclusions (id, user_id, catalog_id, kind, title, genres, directors, actors, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (user_id, catalog_id) DO UPDATE SET
		   kind = EXCLUDED.kind, title = EXCLUDED.title, genres = EXCLUDED.genres,
		   directors = EXCLUDED.directors, actors = EXCLUDED.actors`,
		uuid.New().String(), userID, item.CatalogID, string(item.Kind), item.Title,
		jsonList(item.Genres), jsonList(item.Directors), jsonList(item.Actors), item.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert exclusion")
	}
	return &item, nil
}

func (s *PostgresStore) RemoveExclusion(ctx context.Context, userID string, catalogID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM exclusions WHERE user_id = $1 AND catalog_id = $2`,
		userID, catalogID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: remove exclusion %s", catalogID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "exclusion %s", catalogID)
	}
	return nil
}

// IsNotFound reports whether err stems from a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// jsonList never sends NULL for an absent slice; JSONB columns expect '[]'.
func jsonList(l []string) []string {
	if l == nil {
		return []string{}
	}
	return l
}
