package store

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenpick/screenpick/internal/model"
)

func newTestPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgres_Migrate(t *testing.T) {
	st, mock := newTestPostgresStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS watch_history").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListHistory(t *testing.T) {
	st, mock := newTestPostgresStore(t)

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	catalogID := "tt0113277"
	mock.ExpectQuery("SELECT (.+) FROM watch_history WHERE user_id").
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "catalog_id", "title", "genres", "year", "countries",
			"directors", "actors", "user_rating", "catalog_rating", "created_at",
		}).AddRow(
			"hist-1", &catalogID, "Heat", []string{"Action", "Crime"}, 1995,
			[]string{"USA"}, []string{"Michael Mann"}, []string{"Al Pacino"},
			9.0, 8.3, created,
		))

	items, err := st.ListHistory(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "tt0113277", items[0].CatalogID)
	assert.Equal(t, []string{"Action", "Crime"}, items[0].Genres)
	assert.Equal(t, 9.0, items[0].UserRating)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_AddHistory(t *testing.T) {
	st, mock := newTestPostgresStore(t)

	mock.ExpectExec("INSERT INTO watch_history").
		WithArgs(pgxmock.AnyArg(), "alice", "tt1", "Heat", []string{"Action"},
			1995, []string{}, []string{}, []string{}, 9.0, 8.3, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	added, err := st.AddHistory(context.Background(), "alice", model.WatchHistoryItem{
		CatalogID:     "tt1",
		Title:         "Heat",
		Genres:        []string{"Action"},
		Year:          1995,
		UserRating:    9,
		CatalogRating: 8.3,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListExclusions(t *testing.T) {
	st, mock := newTestPostgresStore(t)

	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM exclusions WHERE user_id").
		WithArgs("alice").
		WillReturnRows(pgxmock.NewRows([]string{
			"catalog_id", "kind", "title", "genres", "directors", "actors", "created_at",
		}).AddRow(
			"tt2", "movie", "Skipped", []string{"Horror"}, []string{}, []string{}, created,
		))

	items, err := st.ListExclusions(context.Background(), "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.KindMovie, items[0].Kind)
	assert.Equal(t, []string{"Horror"}, items[0].Genres)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPoolSizes(t *testing.T) {
	t.Parallel()

	maxConns, minConns := poolSizes(nil)
	assert.Equal(t, int32(10), maxConns)
	assert.Equal(t, int32(2), minConns)

	maxConns, minConns = poolSizes(&PoolConfig{MaxConns: 25, MinConns: 5})
	assert.Equal(t, int32(25), maxConns)
	assert.Equal(t, int32(5), minConns)

	// Unset fields fall back independently.
	maxConns, minConns = poolSizes(&PoolConfig{MaxConns: 25})
	assert.Equal(t, int32(25), maxConns)
	assert.Equal(t, int32(2), minConns)
}

func TestPostgres_RemoveExclusion_Missing(t *testing.T) {
	st, mock := newTestPostgresStore(t)

	mock.ExpectExec("DELETE FROM exclusions").
		WithArgs("alice", "tt-nope").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := st.RemoveExclusion(context.Background(), "alice", "tt-nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
