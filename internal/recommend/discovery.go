package recommend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/screenpick/screenpick/internal/model"
)

// discoveryGenres is the fixed pool of genres considered for horizon
// broadening, alphabetical.
var discoveryGenres = []string{
	"animation",
	"documentary",
	"film-noir",
	"musical",
	"western",
}

const (
	// underrepresentedCeiling is the profile weight below which a discovery
	// genre counts as unexplored.
	underrepresentedCeiling = 0.2

	discoveryScore      = 0.4
	discoveryConfidence = 0.6
)

// Augmenter injects a single exploratory pick from a genre the user has
// barely touched. It never displaces organic recommendations; the
// orchestrator only invokes it when a category comes up short.
type Augmenter struct {
	currentYear int
}

// NewAugmenter creates an augmenter anchored at the given current year.
func NewAugmenter(currentYear int) *Augmenter {
	return &Augmenter{currentYear: currentYear}
}

// UnderrepresentedGenre returns the discovery genre with the lowest profile
// weight under the ceiling, ties broken alphabetically by the fixed pool
// order. ok is false when the user already engages with every pool genre.
func (a *Augmenter) UnderrepresentedGenre(p model.PreferenceProfile) (string, bool) {
	best := ""
	bestWeight := underrepresentedCeiling
	for _, g := range discoveryGenres {
		if w := p.GenreWeight[g]; w < bestWeight {
			best = g
			bestWeight = w
		}
	}
	return best, best != ""
}

// Augment searches the catalog for one exploratory title of the given kind
// and returns it with a fixed modest score. ok is false when no suitable
// candidate exists or the catalog is unreachable.
func (a *Augmenter) Augment(
	ctx context.Context,
	client Catalog,
	p model.PreferenceProfile,
	skip map[string]struct{},
	seen map[string]bool,
	kind model.MediaKind,
) (model.ScoredRecommendation, bool) {
	genre, ok := a.UnderrepresentedGenre(p)
	if !ok {
		return model.ScoredRecommendation{}, false
	}

	kindWord := "movies"
	if kind == model.KindSeries {
		kindWord = "series"
	}

	summaries, err := client.Search(ctx, genre+" "+kindWord)
	if err != nil {
		zap.L().Debug("discovery search failed", zap.String("genre", genre), zap.Error(err))
		return model.ScoredRecommendation{}, false
	}

	for _, s := range summaries {
		if s.Kind != kind {
			continue
		}
		if _, excluded := skip[s.CatalogID]; excluded {
			continue
		}
		if seen[s.CatalogID] {
			continue
		}
		if s.Year <= 0 || s.Year > a.currentYear {
			continue
		}
		return model.ScoredRecommendation{
			CatalogID:  s.CatalogID,
			Title:      s.Title,
			Year:       s.Year,
			Kind:       s.Kind,
			Poster:     s.Poster,
			Score:      discoveryScore,
			Confidence: discoveryConfidence,
			Reasoning:  []string{fmt.Sprintf("Discovery: explore %s", genre)},
		}, true
	}
	return model.ScoredRecommendation{}, false
}
