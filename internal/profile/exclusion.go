package profile

import (
	"strings"

	"github.com/screenpick/screenpick/internal/model"
)

// SkipSet merges watched catalog IDs and explicit not-interested IDs into a
// single set. A candidate present in either source is unconditionally
// dropped before scoring.
func SkipSet(history []model.WatchHistoryItem, excluded []model.ExclusionItem) map[string]struct{} {
	skip := make(map[string]struct{}, len(history)+len(excluded))
	for _, it := range history {
		if it.CatalogID != "" {
			skip[it.CatalogID] = struct{}{}
		}
	}
	for _, it := range excluded {
		if it.CatalogID != "" {
			skip[it.CatalogID] = struct{}{}
		}
	}
	return skip
}

// RejectionStats derives per-tag rejection rates from the not-interested
// list: timesRejectedWithTag / timesSeenWithTag, where "seen" counts both
// watched and rejected items carrying the tag.
func RejectionStats(history []model.WatchHistoryItem, excluded []model.ExclusionItem) model.RejectionStats {
	seenGenre := make(map[string]int)
	seenDirector := make(map[string]int)
	seenActor := make(map[string]int)
	rejGenre := make(map[string]int)
	rejDirector := make(map[string]int)
	rejActor := make(map[string]int)

	for _, it := range history {
		countTags(seenGenre, lowerAll(it.Genres))
		countTags(seenDirector, it.Directors)
		countTags(seenActor, it.Actors)
	}
	for _, it := range excluded {
		genres := lowerAll(it.Genres)
		countTags(seenGenre, genres)
		countTags(seenDirector, it.Directors)
		countTags(seenActor, it.Actors)
		countTags(rejGenre, genres)
		countTags(rejDirector, it.Directors)
		countTags(rejActor, it.Actors)
	}

	return model.RejectionStats{
		Genre:    rates(rejGenre, seenGenre),
		Director: rates(rejDirector, seenDirector),
		Actor:    rates(rejActor, seenActor),
	}
}

func countTags(m map[string]int, tags []string) {
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			m[t]++
		}
	}
}

func rates(rejected, seen map[string]int) map[string]float64 {
	out := make(map[string]float64, len(rejected))
	for tag, r := range rejected {
		if s := seen[tag]; s > 0 {
			out[tag] = float64(r) / float64(s)
		}
	}
	return out
}
