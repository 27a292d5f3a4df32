// Package model defines the domain types shared across the recommendation
// pipeline: watch history, preference profiles, catalog candidates, and
// scored recommendations.
package model

import "time"

// MediaKind distinguishes the two catalog media types.
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "series"
)

// ParseMediaKind returns the MediaKind for a string, defaulting to movie.
func ParseMediaKind(s string) MediaKind {
	if MediaKind(s) == KindSeries {
		return KindSeries
	}
	return KindMovie
}

// WatchHistoryItem is a single previously watched title. Items are owned and
// mutated by the watch-history store; the pipeline treats them as read-only.
type WatchHistoryItem struct {
	ID        string   `json:"id"`
	CatalogID string   `json:"catalog_id,omitempty"`
	Title     string   `json:"title"`
	Genres    []string `json:"genres,omitempty"`
	Year      int      `json:"year,omitempty"`
	Countries []string `json:"countries,omitempty"`
	Directors []string `json:"directors,omitempty"`
	Actors    []string `json:"actors,omitempty"`
	// UserRating is the user's own 1-10 rating, 0 if the user never rated.
	UserRating float64 `json:"user_rating,omitempty"`
	// CatalogRating is the catalog's aggregate rating, used when UserRating
	// is absent.
	CatalogRating float64   `json:"catalog_rating,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// EffectiveRating returns the user rating when present, otherwise the
// catalog rating. Zero means no rating signal at all.
func (w WatchHistoryItem) EffectiveRating() float64 {
	if w.UserRating > 0 {
		return w.UserRating
	}
	return w.CatalogRating
}

// ExclusionItem is a title the user explicitly marked not interested. The
// tag snapshot (genres, directors, actors) is captured at add time so
// rejection statistics can be derived without re-fetching the catalog.
type ExclusionItem struct {
	CatalogID string    `json:"catalog_id"`
	Kind      MediaKind `json:"kind"`
	Title     string    `json:"title,omitempty"`
	Genres    []string  `json:"genres,omitempty"`
	Directors []string  `json:"directors,omitempty"`
	Actors    []string  `json:"actors,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
