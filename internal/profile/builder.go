// Package profile converts a user's watch history into a weighted
// preference profile and resolves exclusion sets and rejection statistics.
package profile

import (
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/screenpick/screenpick/internal/model"
)

const (
	// sampleThreshold bounds cost on large histories: above it, build the
	// profile from the most recent and highest-rated items only.
	sampleThreshold = 100
	sampleRecent    = 50
	sampleTopRated  = 50
	// topRatedFloor is the minimum rating for an item to be picked by the
	// highest-rated half of the sample.
	topRatedFloor = 7.0

	genreBlend = 0.7
	eraBlend   = 0.6

	// talentMinCount / talentMinRating are the signal-strength floor for
	// director, actor and country weights: one-off appearances never
	// dominate the profile.
	talentMinCount  = 2
	talentMinRating = 6.5
	talentFreqBonus = 0.2
)

// Builder derives preference profiles from watch history.
type Builder struct{}

// NewBuilder creates a profile builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build computes a PreferenceProfile from the given history, newest first.
// An empty or unusable history yields the fixed default profile, never an
// error.
func (b *Builder) Build(items []model.WatchHistoryItem) model.PreferenceProfile {
	items = sampleHistory(items)
	if len(items) == 0 {
		return model.DefaultProfile()
	}

	mean, stddev := ratingMoments(items)

	p := model.PreferenceProfile{
		GenreWeight:     blendWeights(items, genreBlend, func(it model.WatchHistoryItem) []string { return lowerAll(it.Genres) }),
		EraWeight:       blendWeights(items, eraBlend, eraKeys),
		DirectorWeight:  flooredWeights(items, func(it model.WatchHistoryItem) []string { return it.Directors }),
		ActorWeight:     flooredWeights(items, func(it model.WatchHistoryItem) []string { return it.Actors }),
		CountryWeight:   flooredWeights(items, func(it model.WatchHistoryItem) []string { return lowerAll(it.Countries) }),
		RatingThreshold: math.Max(1, mean-stddev),
		AverageRating:   mean,
		RatingStdDev:    stddev,
		HistorySize:     len(items),
	}

	zap.L().Debug("profile: built",
		zap.Int("history_size", p.HistorySize),
		zap.Int("genres", len(p.GenreWeight)),
		zap.Float64("rating_threshold", p.RatingThreshold),
	)
	return p
}

// sampleHistory returns the items used for profile building. Histories over
// sampleThreshold are reduced to the most recent plus the highest-rated
// (>= topRatedFloor) items, deduplicated by ID.
func sampleHistory(items []model.WatchHistoryItem) []model.WatchHistoryItem {
	if len(items) <= sampleThreshold {
		return items
	}

	picked := make([]model.WatchHistoryItem, 0, sampleRecent+sampleTopRated)
	seen := make(map[string]bool, sampleRecent+sampleTopRated)

	// Store order is newest first.
	for _, it := range items[:sampleRecent] {
		picked = append(picked, it)
		seen[it.ID] = true
	}

	byRating := make([]model.WatchHistoryItem, len(items))
	copy(byRating, items)
	sort.SliceStable(byRating, func(i, j int) bool {
		return byRating[i].EffectiveRating() > byRating[j].EffectiveRating()
	})
	for _, it := range byRating {
		if len(picked) >= sampleRecent+sampleTopRated {
			break
		}
		if it.EffectiveRating() < topRatedFloor {
			break
		}
		if seen[it.ID] {
			continue
		}
		picked = append(picked, it)
		seen[it.ID] = true
	}

	return picked
}

// ratingMoments returns the mean and population standard deviation of the
// effective ratings. Population (divide by N) keeps small samples
// deterministic.
func ratingMoments(items []model.WatchHistoryItem) (mean, stddev float64) {
	var ratings []float64
	for _, it := range items {
		if r := it.EffectiveRating(); r > 0 {
			ratings = append(ratings, r)
		}
	}
	if len(ratings) == 0 {
		return 0, 0
	}

	var sum float64
	for _, r := range ratings {
		sum += r
	}
	mean = sum / float64(len(ratings))

	var sq float64
	for _, r := range ratings {
		d := r - mean
		sq += d * d
	}
	stddev = math.Sqrt(sq / float64(len(ratings)))
	return mean, stddev
}

// normalizeRating maps ratings 5-10 onto 0-1; anything below 5 is 0.
func normalizeRating(r float64) float64 {
	return math.Max(0, (r-5)/5)
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

type tagGroup struct {
	count     int
	ratingSum float64
	rated     int
}

func groupByTag(items []model.WatchHistoryItem, keys func(model.WatchHistoryItem) []string) map[string]*tagGroup {
	groups := make(map[string]*tagGroup)
	for _, it := range items {
		for _, key := range keys(it) {
			if key == "" {
				continue
			}
			g := groups[key]
			if g == nil {
				g = &tagGroup{}
				groups[key] = g
			}
			g.count++
			if r := it.EffectiveRating(); r > 0 {
				g.ratingSum += r
				g.rated++
			}
		}
	}
	return groups
}

func (g *tagGroup) meanRating() float64 {
	if g.rated == 0 {
		return 0
	}
	return g.ratingSum / float64(g.rated)
}

// blendWeights computes weight = normalize(meanRating)*blend + freq*(1-blend)
// per tag group.
func blendWeights(items []model.WatchHistoryItem, blend float64, keys func(model.WatchHistoryItem) []string) map[string]float64 {
	groups := groupByTag(items, keys)
	out := make(map[string]float64, len(groups))
	n := float64(len(items))
	for key, g := range groups {
		freq := float64(g.count) / n
		out[key] = clamp01(normalizeRating(g.meanRating())*blend + freq*(1-blend))
	}
	return out
}

// flooredWeights computes weights for sparse dimensions (directors, actors,
// countries): a tag only earns weight after appearing in at least
// talentMinCount items with mean rating >= talentMinRating, and then gets
// the full normalized rating plus a small frequency bonus.
func flooredWeights(items []model.WatchHistoryItem, keys func(model.WatchHistoryItem) []string) map[string]float64 {
	groups := groupByTag(items, keys)
	out := make(map[string]float64)
	n := float64(len(items))
	for key, g := range groups {
		if g.count < talentMinCount || g.meanRating() < talentMinRating {
			continue
		}
		freq := float64(g.count) / n
		out[key] = clamp01(normalizeRating(g.meanRating()) + math.Min(freq, talentFreqBonus))
	}
	return out
}

func eraKeys(it model.WatchHistoryItem) []string {
	if label := model.DecadeLabel(it.Year); label != "" {
		return []string{label}
	}
	return nil
}

func lowerAll(ss []string) []string {
	if len(ss) == 0 {
		return nil
	}
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
