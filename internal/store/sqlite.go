package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/screenpick/screenpick/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS watch_history (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	catalog_id     TEXT,
	title          TEXT NOT NULL,
	genres         TEXT NOT NULL DEFAULT '[]',
	year           INTEGER NOT NULL DEFAULT 0,
	countries      TEXT NOT NULL DEFAULT '[]',
	directors      TEXT NOT NULL DEFAULT '[]',
	actors         TEXT NOT NULL DEFAULT '[]',
	user_rating    REAL NOT NULL DEFAULT 0,
	catalog_rating REAL NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS exclusions (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	catalog_id TEXT NOT NULL,
	kind       TEXT NOT NULL,
	title      TEXT NOT NULL,
	genres     TEXT NOT NULL DEFAULT '[]',
	directors  TEXT NOT NULL DEFAULT '[]',
	actors     TEXT NOT NULL DEFAULT '[]',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(user_id, catalog_id)
);

CREATE INDEX IF NOT EXISTS idx_watch_history_user_id ON watch_history(user_id);
CREATE INDEX IF NOT EXISTS idx_watch_history_created_at ON watch_history(created_at);
CREATE INDEX IF NOT EXISTS idx_exclusions_user_id ON exclusions(user_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ListHistory(ctx context.Context, userID string) ([]model.WatchHistoryItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, catalog_id, title, genres, year, countries, directors, actors,
		        user_rating, catalog_rating, created_at
		 FROM watch_history WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list history")
	}
	defer rows.Close()

	var items []model.WatchHistoryItem
	for rows.Next() {
		var it model.WatchHistoryItem
		var catalogID sql.NullString
		var genres, countries, directors, actors string
		if err := rows.Scan(&it.ID, &catalogID, &it.Title, &genres, &it.Year,
			&countries, &directors, &actors, &it.UserRating, &it.CatalogRating, &it.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan history item")
		}
		it.CatalogID = catalogID.String
		if err := decodeLists(
			listCol{genres, &it.Genres},
			listCol{countries, &it.Countries},
			listCol{directors, &it.Directors},
			listCol{actors, &it.Actors},
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list history iterate")
}

func (s *SQLiteStore) AddHistory(ctx context.Context, userID string, item model.WatchHistoryItem) (*model.WatchHistoryItem, error) {
	item.ID = uuid.New().String()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	cols, err := encodeLists(item.Genres, item.Countries, item.Directors, item.Actors)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO watch_history
		 (id, user_id, catalog_id, title, genres, year, countries, directors, actors, user_rating, catalog_rating, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, userID, item.CatalogID, item.Title, cols[0], item.Year,
		cols[1], cols[2], cols[3], item.UserRating, item.CatalogRating, item.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert history item")
	}
	return &item, nil
}

func (s *SQLiteStore) ListExclusionIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT catalog_id FROM exclusions WHERE user_id = ?`, userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list exclusion ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan exclusion id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: list exclusion ids iterate")
}

func (s *SQLiteStore) ListExclusions(ctx context.Context, userID string) ([]model.ExclusionItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT catalog_id, kind, title, genres, directors, actors, created_at
		 FROM exclusions WHERE user_id = ? ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list exclusions")
	}
	defer rows.Close()

	var items []model.ExclusionItem
	for rows.Next() {
		var it model.ExclusionItem
		var kind, genres, directors, actors string
		if err := rows.Scan(&it.CatalogID, &kind, &it.Title, &genres, &directors, &actors, &it.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan exclusion")
		}
		it.Kind = model.MediaKind(kind)
		if err := decodeLists(
			listCol{genres, &it.Genres},
			listCol{directors, &it.Directors},
			listCol{actors, &it.Actors},
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, eris.Wrap(rows.Err(), "sqlite: list exclusions iterate")
}

func (s *SQLiteStore) AddExclusion(ctx context.Context, userID string, item model.ExclusionItem) (*model.ExclusionItem, error) {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	cols, err := encodeLists(item.Genres, item.Directors, item.Actors)
	if err != nil {
		return nil, err
	}

	// Re-excluding the same title refreshes the tag snapshot.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO exclusions (id, user_id, catalog_id, kind, title, genres, directors, actors, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, catalog_id) DO UPDATE SET
		   kind = excluded.kind, title = excluded.title, genres = excluded.genres,
		   directors = excluded.directors, actors = excluded.actors`,
		uuid.New().String(), userID, item.CatalogID, string(item.Kind), item.Title,
		cols[0], cols[1], cols[2], item.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert exclusion")
	}
	return &item, nil
}

func (s *SQLiteStore) RemoveExclusion(ctx context.Context, userID string, catalogID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM exclusions WHERE user_id = ? AND catalog_id = ?`,
		userID, catalogID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: remove exclusion %s", catalogID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "exclusion %s", catalogID)
	}
	return nil
}

// helpers

// encodeLists JSON-encodes each slice for storage in a TEXT column.
func encodeLists(lists ...[]string) ([]string, error) {
	out := make([]string, len(lists))
	for i, l := range lists {
		if l == nil {
			l = []string{}
		}
		b, err := json.Marshal(l)
		if err != nil {
			return nil, eris.Wrap(err, "store: marshal list")
		}
		out[i] = string(b)
	}
	return out, nil
}

type listCol struct {
	raw string
	dst *[]string
}

// decodeLists unmarshals JSON list columns into their destinations.
func decodeLists(cols ...listCol) error {
	for _, c := range cols {
		if c.raw == "" {
			continue
		}
		if err := json.Unmarshal([]byte(c.raw), c.dst); err != nil {
			return eris.Wrap(err, "store: unmarshal list")
		}
	}
	return nil
}
