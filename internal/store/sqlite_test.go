package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenpick/screenpick/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Watch history ---

func TestSQLite_History_AddAndList(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	added, err := st.AddHistory(ctx, "alice", model.WatchHistoryItem{
		CatalogID:     "tt0113277",
		Title:         "Heat",
		Genres:        []string{"Action", "Crime"},
		Year:          1995,
		Countries:     []string{"USA"},
		Directors:     []string{"Michael Mann"},
		Actors:        []string{"Al Pacino", "Robert De Niro"},
		UserRating:    9,
		CatalogRating: 8.3,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.False(t, added.CreatedAt.IsZero())

	items, err := st.ListHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Heat", items[0].Title)
	assert.Equal(t, []string{"Action", "Crime"}, items[0].Genres)
	assert.Equal(t, []string{"Al Pacino", "Robert De Niro"}, items[0].Actors)
	assert.Equal(t, 9.0, items[0].UserRating)
}

func TestSQLite_History_NewestFirst(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	older := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	_, err := st.AddHistory(ctx, "alice", model.WatchHistoryItem{Title: "Old", CreatedAt: older})
	require.NoError(t, err)
	_, err = st.AddHistory(ctx, "alice", model.WatchHistoryItem{Title: "New", CreatedAt: newer})
	require.NoError(t, err)

	items, err := st.ListHistory(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "New", items[0].Title)
}

func TestSQLite_History_IsolatedPerUser(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.AddHistory(ctx, "alice", model.WatchHistoryItem{Title: "Hers"})
	require.NoError(t, err)

	items, err := st.ListHistory(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, items)
}

// --- Exclusions ---

func TestSQLite_Exclusions_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.AddExclusion(ctx, "alice", model.ExclusionItem{
		CatalogID: "tt0111161",
		Kind:      model.KindMovie,
		Title:     "The Shawshank Redemption",
		Genres:    []string{"Drama"},
		Directors: []string{"Frank Darabont"},
	})
	require.NoError(t, err)

	ids, err := st.ListExclusionIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []string{"tt0111161"}, ids)

	items, err := st.ListExclusions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, model.KindMovie, items[0].Kind)
	assert.Equal(t, []string{"Drama"}, items[0].Genres)
}

func TestSQLite_Exclusions_ReAddRefreshesSnapshot(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.AddExclusion(ctx, "alice", model.ExclusionItem{
		CatalogID: "tt1", Kind: model.KindMovie, Title: "First", Genres: []string{"Horror"},
	})
	require.NoError(t, err)
	_, err = st.AddExclusion(ctx, "alice", model.ExclusionItem{
		CatalogID: "tt1", Kind: model.KindMovie, Title: "First", Genres: []string{"Horror", "Thriller"},
	})
	require.NoError(t, err)

	items, err := st.ListExclusions(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, []string{"Horror", "Thriller"}, items[0].Genres)
}

func TestSQLite_Exclusions_Remove(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.AddExclusion(ctx, "alice", model.ExclusionItem{
		CatalogID: "tt1", Kind: model.KindMovie, Title: "Gone",
	})
	require.NoError(t, err)

	require.NoError(t, st.RemoveExclusion(ctx, "alice", "tt1"))

	ids, err := st.ListExclusionIDs(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSQLite_Exclusions_RemoveMissing(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.RemoveExclusion(context.Background(), "alice", "tt-nope")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "dsn", nil)
	assert.Error(t, err)
}
