package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenpick/screenpick/internal/model"
)

func TestSearch_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		assert.Equal(t, "heist thriller", r.URL.Query().Get("s"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"Search": [
				{"Title": "Heat", "Year": "1995", "imdbID": "tt0113277", "Type": "movie", "Poster": "https://img/heat.jpg"},
				{"Title": "Money Heist", "Year": "2017–2021", "imdbID": "tt6468322", "Type": "series", "Poster": "N/A"}
			],
			"totalResults": "2",
			"Response": "True"
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "heist thriller")

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "tt0113277", got[0].CatalogID)
	assert.Equal(t, 1995, got[0].Year)
	assert.Equal(t, model.KindMovie, got[0].Kind)
	assert.Equal(t, model.KindSeries, got[1].Kind)
	assert.Equal(t, 2017, got[1].Year)
	assert.Empty(t, got[1].Poster)
}

func TestSearch_NoResultsIsNotAnError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response": "False", "Error": "Movie not found!"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Search(context.Background(), "zzzzz")

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearch_RateLimited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response": "False", "Error": "Request limit reached!"}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "anything")

	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestSearch_RateLimited429(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), "anything")

	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestDetails_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "tt0113277", r.URL.Query().Get("i"))

		_, _ = w.Write([]byte(`{
			"Title": "Heat",
			"Year": "1995",
			"Genre": "Action, Crime, Drama",
			"Director": "Michael Mann",
			"Actors": "Al Pacino, Robert De Niro, Val Kilmer",
			"Country": "United States",
			"imdbRating": "8.3",
			"Poster": "https://img/heat.jpg",
			"Type": "movie",
			"imdbID": "tt0113277",
			"Response": "True"
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Details(context.Background(), "tt0113277")

	require.NoError(t, err)
	assert.Equal(t, "Heat", got.Title)
	assert.Equal(t, []string{"Action", "Crime", "Drama"}, got.Genres)
	assert.Equal(t, []string{"Michael Mann"}, got.Directors)
	assert.InDelta(t, 8.3, got.Rating, 1e-9)
	assert.Equal(t, model.KindMovie, got.Kind)
}

func TestDetails_NotFound(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Response": "False", "Error": "Incorrect IMDb ID."}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.Details(context.Background(), "tt0000000")

	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsRateLimited(err))
}

func TestDetails_UnknownRatingParsesToZero(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"Title": "Obscure",
			"Year": "2003",
			"Genre": "N/A",
			"Director": "N/A",
			"Actors": "N/A",
			"Country": "N/A",
			"imdbRating": "N/A",
			"Poster": "N/A",
			"Type": "movie",
			"imdbID": "tt0000001",
			"Response": "True"
		}`))
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	got, err := client.Details(context.Background(), "tt0000001")

	require.NoError(t, err)
	assert.Zero(t, got.Rating)
	assert.Empty(t, got.Genres)
	assert.Empty(t, got.Poster)
}
