// Package recommend implements the recommendation pipeline: candidate
// filtering, multi-factor scoring, discovery augmentation, and the
// orchestrator that drives a run end to end.
package recommend

import (
	"strings"

	"github.com/screenpick/screenpick/internal/model"
)

// darkGenres marks profiles whose top genres anti-correlate with
// family/romance titles in practice; the filter drops those by title
// keyword before spending a detail fetch.
var darkGenres = map[string]bool{
	"action":   true,
	"thriller": true,
	"crime":    true,
}

// familyKeywords is the fixed title denylist applied for dark-genre
// profiles.
var familyKeywords = []string{
	"family",
	"kids",
	"children",
	"princess",
	"romance",
	"romantic",
	"wedding",
}

// modernCutoffYear is the release-year floor applied unless the profile
// shows real interest in the 1980s or 1990s.
const modernCutoffYear = 2000

// FilterSummaries applies the cheap relevance pass to raw search results,
// in order: media kind, exclusion set, dark-genre title denylist, era
// cutoff, then a per-query cap to preserve diversity across queries.
func FilterSummaries(
	summaries []model.CandidateSummary,
	kind model.MediaKind,
	skip map[string]struct{},
	p model.PreferenceProfile,
	perQueryCap int,
) []model.CandidateSummary {
	dark := hasDarkTopGenre(p)
	retro := p.EraWeight["1980s"] > 0.3 || p.EraWeight["1990s"] > 0.3

	out := make([]model.CandidateSummary, 0, perQueryCap)
	for _, s := range summaries {
		if len(out) >= perQueryCap {
			break
		}
		if s.Kind != kind {
			continue
		}
		if _, excluded := skip[s.CatalogID]; excluded {
			continue
		}
		if dark && titleOnDenylist(s.Title) {
			continue
		}
		if s.Year > 0 && s.Year < modernCutoffYear && !retro {
			continue
		}
		out = append(out, s)
	}
	return out
}

func hasDarkTopGenre(p model.PreferenceProfile) bool {
	for genre, w := range p.GenreWeight {
		if w > 0.3 && darkGenres[strings.ToLower(genre)] {
			return true
		}
	}
	return false
}

func titleOnDenylist(title string) bool {
	t := strings.ToLower(title)
	for _, kw := range familyKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}
