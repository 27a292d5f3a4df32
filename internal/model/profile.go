package model

import "fmt"

// PreferenceProfile is a derived, read-only snapshot of a user's taste,
// valid for one orchestration run. Every weight map value lies in [0,1].
type PreferenceProfile struct {
	GenreWeight    map[string]float64 `json:"genre_weight"`
	EraWeight      map[string]float64 `json:"era_weight"`
	DirectorWeight map[string]float64 `json:"director_weight"`
	ActorWeight    map[string]float64 `json:"actor_weight"`
	CountryWeight  map[string]float64 `json:"country_weight"`

	// RatingThreshold is mean(rating) - stddev(rating), floored at 1. A
	// candidate rated at or above it counts as a quality match.
	RatingThreshold float64 `json:"rating_threshold"`
	AverageRating   float64 `json:"average_rating"`
	RatingStdDev    float64 `json:"rating_std_dev"`
	HistorySize     int     `json:"history_size"`
}

// DefaultProfile is the fixed profile used when a user has no usable watch
// history. Weights are moderate so downstream stages never need to branch
// on an empty profile.
func DefaultProfile() PreferenceProfile {
	return PreferenceProfile{
		GenreWeight: map[string]float64{
			"drama":    0.5,
			"comedy":   0.5,
			"thriller": 0.4,
		},
		EraWeight: map[string]float64{
			"2010s": 0.5,
			"2020s": 0.5,
		},
		DirectorWeight:  map[string]float64{},
		ActorWeight:     map[string]float64{},
		CountryWeight:   map[string]float64{},
		RatingThreshold: 6.5,
		AverageRating:   7.0,
		RatingStdDev:    0,
		HistorySize:     0,
	}
}

// DecadeLabel maps a release year to its decade label, e.g. 1987 -> "1980s".
func DecadeLabel(year int) string {
	if year <= 0 {
		return ""
	}
	return fmt.Sprintf("%ds", (year/10)*10)
}

// RejectionStats holds per-tag rejection rates derived from the user's
// not-interested history: timesRejectedWithTag / timesSeenWithTag. A tag the
// user never saw has rate 0.
type RejectionStats struct {
	Genre    map[string]float64 `json:"genre"`
	Director map[string]float64 `json:"director"`
	Actor    map[string]float64 `json:"actor"`
}

// Rate returns the rejection rate from m, defaulting to 0 for unseen tags.
func Rate(m map[string]float64, tag string) float64 {
	if m == nil {
		return 0
	}
	return m[tag]
}
