package recommend

import (
	"fmt"
	"math"
	"strings"

	"github.com/screenpick/screenpick/internal/model"
)

// Factor weights of the scoring engine. They must total exactly 1.0; the
// table is unit-tested against that invariant.
const (
	weightGenre     = 0.35
	weightEra       = 0.25
	weightQuality   = 0.20
	weightAvoidance = 0.15
	weightTalent    = 0.05
)

// MinRelevanceScore is the gate below which the orchestrator drops a
// candidate before ranking.
const MinRelevanceScore = 0.3

// maxReasons caps the human-readable reasoning strings per candidate.
const maxReasons = 2

// Engine computes the weighted multi-factor score, confidence, and
// reasoning for a fully-detailed candidate against a profile. It is a
// deterministic function of its inputs.
type Engine struct{}

// NewEngine creates a scoring engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Score evaluates one candidate.
func (e *Engine) Score(d model.CandidateDetail, p model.PreferenceProfile, stats model.RejectionStats) model.ScoredRecommendation {
	genre := genreFactor(d, p)
	era := eraFactor(d, p)
	quality := qualityFactor(d, p)
	avoidance := avoidanceFactor(d, stats)
	talent, talentIsDirector := talentFactor(d, p)

	score := weightGenre*genre +
		weightEra*era +
		weightQuality*quality +
		weightAvoidance*avoidance +
		weightTalent*talent

	return model.ScoredRecommendation{
		CatalogID:  d.CatalogID,
		Title:      d.Title,
		Year:       d.Year,
		Kind:       d.Kind,
		Poster:     d.Poster,
		Score:      clamp01(score),
		Confidence: confidence(d, p),
		Reasoning:  reasoning(d, genre, era, quality, talent, talentIsDirector),
	}
}

// genreFactor is the mean over candidate genres of a step function of the
// profile weight. A candidate with no genre information scores a flat 0.1.
func genreFactor(d model.CandidateDetail, p model.PreferenceProfile) float64 {
	if len(d.Genres) == 0 {
		return 0.1
	}
	var sum float64
	for _, g := range d.Genres {
		w := p.GenreWeight[strings.ToLower(g)]
		switch {
		case w >= 0.7:
			sum += 1.0
		case w >= 0.3:
			sum += 0.7
		case w >= 0.1:
			sum += 0.3
		default:
			sum += 0.1
		}
	}
	return sum / float64(len(d.Genres))
}

// eraFactor is the profile's weight for the candidate's decade, defaulting
// to 0.2 for unseen decades. Acclaimed classics (pre-1990, rating above
// 8.0) score at least 0.8 regardless of era preference.
func eraFactor(d model.CandidateDetail, p model.PreferenceProfile) float64 {
	w := 0.2
	if label := model.DecadeLabel(d.Year); label != "" {
		if ew, ok := p.EraWeight[label]; ok {
			w = ew
		}
	}
	if d.Year > 0 && d.Year < 1990 && d.Rating > 8.0 {
		return math.Max(w, 0.8)
	}
	return w
}

// qualityFactor scores the candidate's rating relative to the profile's
// rating threshold. Unknown ratings score 0.3.
func qualityFactor(d model.CandidateDetail, p model.PreferenceProfile) float64 {
	if d.Rating <= 0 {
		return 0.3
	}
	switch {
	case d.Rating >= p.RatingThreshold+1:
		return 1.0
	case d.Rating >= p.RatingThreshold:
		return 0.8
	case d.Rating >= p.RatingThreshold-0.5:
		return 0.5
	default:
		return 0.1
	}
}

// avoidanceFactor starts at 1.0 and subtracts per tag the user has a
// history of rejecting, clamped to [0,1].
func avoidanceFactor(d model.CandidateDetail, stats model.RejectionStats) float64 {
	penalty := 0.0
	for _, g := range d.Genres {
		switch rate := model.Rate(stats.Genre, strings.ToLower(g)); {
		case rate > 0.5:
			penalty += 0.8
		case rate > 0.2:
			penalty += 0.5
		}
	}
	for _, dir := range d.Directors {
		if model.Rate(stats.Director, dir) > 0.3 {
			penalty += 0.6
		}
	}
	for _, a := range d.Actors {
		if model.Rate(stats.Actor, a) > 0.3 {
			penalty += 0.4
		}
	}
	return clamp01(1.0 - penalty)
}

// talentFactor is the max over the candidate's directors and actors of the
// profile weight, with actor contributions discounted to 0.7. The bool
// reports whether the winning contribution came from a director.
func talentFactor(d model.CandidateDetail, p model.PreferenceProfile) (float64, bool) {
	best := 0.0
	isDirector := false
	for _, dir := range d.Directors {
		if w := p.DirectorWeight[dir]; w > best {
			best = w
			isDirector = true
		}
	}
	for _, a := range d.Actors {
		if w := p.ActorWeight[a] * 0.7; w > best {
			best = w
			isDirector = false
		}
	}
	return best, isDirector
}

// confidence reflects data completeness and profile maturity, independent
// of the score itself. Clamped to [0.1, 1.0].
func confidence(d model.CandidateDetail, p model.PreferenceProfile) float64 {
	c := 0.0
	if len(d.Genres) > 0 {
		c += 0.3
	}
	if d.Rating > 0 {
		c += 0.3
	}
	if d.Year > 0 {
		c += 0.2
	}
	c += math.Min(float64(p.HistorySize)/20, 1) * 0.2
	return math.Min(1.0, math.Max(0.1, c))
}

func reasoning(d model.CandidateDetail, genre, era, quality, talent float64, talentIsDirector bool) []string {
	reasons := make([]string, 0, maxReasons)
	add := func(r string) {
		if len(reasons) < maxReasons {
			reasons = append(reasons, r)
		}
	}

	if genre > 0.7 && len(d.Genres) > 0 {
		add(fmt.Sprintf("Matches your taste in %s", strings.ToLower(d.Genres[0])))
	}
	if era > 0.6 && d.Year > 0 {
		add(fmt.Sprintf("From the %s, an era you enjoy", model.DecadeLabel(d.Year)))
	}
	if quality > 0.7 && d.Rating > 0 {
		add(fmt.Sprintf("Highly rated (%.1f) against your quality bar", d.Rating))
	}
	if talent > 0.5 {
		if talentIsDirector && len(d.Directors) > 0 {
			add(fmt.Sprintf("Directed by %s, whose work you rate highly", d.Directors[0]))
		} else if len(d.Actors) > 0 {
			add(fmt.Sprintf("Stars %s, a favorite of yours", d.Actors[0]))
		}
	}
	return reasons
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
