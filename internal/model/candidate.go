package model

import "time"

// CandidateSummary is a catalog search result, used only for cheap
// filtering before spending a detail fetch.
type CandidateSummary struct {
	CatalogID string    `json:"catalog_id"`
	Title     string    `json:"title"`
	Year      int       `json:"year"`
	Kind      MediaKind `json:"kind"`
	Poster    string    `json:"poster,omitempty"`
}

// CandidateDetail is a full catalog record for a candidate. Ephemeral; used
// once per orchestration run. Rating 0 means the catalog has no rating.
type CandidateDetail struct {
	CatalogID string    `json:"catalog_id"`
	Title     string    `json:"title"`
	Year      int       `json:"year"`
	Genres    []string  `json:"genres"`
	Rating    float64   `json:"rating"`
	Directors []string  `json:"directors"`
	Actors    []string  `json:"actors"`
	Countries []string  `json:"countries"`
	Poster    string    `json:"poster,omitempty"`
	Kind      MediaKind `json:"kind"`
}

// ScoredRecommendation is the only artifact persisted into the result
// cache. Score and Confidence are both in [0,1].
type ScoredRecommendation struct {
	CatalogID  string    `json:"catalog_id"`
	Title      string    `json:"title"`
	Year       int       `json:"year"`
	Kind       MediaKind `json:"kind"`
	Poster     string    `json:"poster,omitempty"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	Reasoning  []string  `json:"reasoning,omitempty"`
}

// CacheEntry is the per-user cached recommendation set.
type CacheEntry struct {
	Recommendations map[MediaKind][]ScoredRecommendation `json:"recommendations"`
	Profile         PreferenceProfile                    `json:"profile"`
	WrittenAt       time.Time                            `json:"written_at"`
}
