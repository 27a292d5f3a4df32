// Package query derives a bounded, ranked list of catalog search strings
// from a preference profile. Generation is fully deterministic: the same
// profile always yields the same queries in the same order.
package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/screenpick/screenpick/internal/model"
)

const (
	// maxQueries bounds the catalog searches per category per run.
	maxQueries = 6

	// Signal floors. These are deliberate: lowering them changes which
	// profiles count as "warm" and is a redesign, not a tuning knob.
	genreFloor    = 0.3
	eraFloor      = 0.4
	directorFloor = 0.5

	// bestGenreThreshold gates the quality-seeking "best <genre>" query on
	// users whose history shows a high rating bar.
	bestGenreThreshold = 7.5

	maxTopGenres = 3
)

// Generator builds catalog search strings from a profile.
type Generator struct {
	currentYear int
}

// NewGenerator creates a generator anchored at the given current year.
func NewGenerator(currentYear int) *Generator {
	return &Generator{currentYear: currentYear}
}

// Generate returns an ordered list of at most six search strings for the
// given profile and media kind.
func (g *Generator) Generate(p model.PreferenceProfile, kind model.MediaKind) []string {
	genres := topEntries(p.GenreWeight, genreFloor, maxTopGenres)
	if len(genres) == 0 {
		return g.coldQueries(kind)
	}

	eras := topEntries(p.EraWeight, eraFloor, 1)
	directors := topEntries(p.DirectorWeight, directorFloor, 1)

	kindWord := "movies"
	if kind == model.KindSeries {
		kindWord = "series"
	}

	queries := make([]string, 0, maxQueries+1)
	add := func(q string) {
		for _, existing := range queries {
			if existing == q {
				return
			}
		}
		queries = append(queries, q)
	}

	add(genres[0] + " " + kindWord)
	if len(genres) > 1 {
		add(genres[1] + " " + kindWord)
		add(genres[0] + " " + genres[1])
	}
	add("acclaimed " + genres[0] + " " + kindWord)
	// The threshold-gated quality query outranks the era and director terms
	// so a rich profile never pushes it past the budget.
	if p.RatingThreshold >= bestGenreThreshold {
		add("best " + genres[0])
	}
	if len(directors) > 0 {
		add(directors[0])
	}
	add(genres[0] + " " + fmt.Sprintf("%d", g.anchorYear(eras)))

	if len(queries) > maxQueries {
		queries = queries[:maxQueries]
	}
	return queries
}

// coldQueries is the fallback for profiles with no genre signal: generic
// quality-seeking searches anchored at the current year.
func (g *Generator) coldQueries(kind model.MediaKind) []string {
	kindWord := "movies"
	if kind == model.KindSeries {
		kindWord = "series"
	}
	return []string{
		fmt.Sprintf("best %s %d", kindWord, g.currentYear),
		fmt.Sprintf("top rated %d", g.currentYear-1),
		"critically acclaimed",
	}
}

// anchorYear returns the first year of the strongest preferred era, or the
// current year when no era clears the floor.
func (g *Generator) anchorYear(eras []string) int {
	if len(eras) == 0 {
		return g.currentYear
	}
	var y int
	if _, err := fmt.Sscanf(eras[0], "%ds", &y); err != nil || y <= 0 {
		return g.currentYear
	}
	return y
}

// topEntries returns the map keys with weight above floor, sorted by weight
// descending with ties broken by key ascending, capped at limit.
func topEntries(weights map[string]float64, floor float64, limit int) []string {
	type entry struct {
		key    string
		weight float64
	}
	entries := make([]entry, 0, len(weights))
	for k, w := range weights {
		if w > floor {
			entries = append(entries, entry{key: k, weight: w})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].weight != entries[j].weight {
			return entries[i].weight > entries[j].weight
		}
		return entries[i].key < entries[j].key
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = strings.TrimSpace(e.key)
	}
	return out
}
