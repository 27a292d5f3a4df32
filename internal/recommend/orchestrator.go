package recommend

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/screenpick/screenpick/internal/cache"
	"github.com/screenpick/screenpick/internal/model"
	"github.com/screenpick/screenpick/internal/profile"
	"github.com/screenpick/screenpick/internal/query"
	"github.com/screenpick/screenpick/internal/store"
	"github.com/screenpick/screenpick/pkg/catalog"
)

// Catalog is the throttled catalog surface the pipeline consumes.
type Catalog interface {
	Search(ctx context.Context, query string) ([]model.CandidateSummary, error)
	Details(ctx context.Context, id string) (*model.CandidateDetail, error)
	FallbackMode() bool
	SetFallback(v bool)
}

// Options bounds a recommendation run.
type Options struct {
	MaxAcceptedPerKind  int
	MaxPerQuery         int
	TopN                int
	DiscoveryTriggerMin int
	CurrentYear         int
}

func (o Options) withDefaults() Options {
	if o.MaxAcceptedPerKind <= 0 {
		o.MaxAcceptedPerKind = 10
	}
	if o.MaxPerQuery <= 0 {
		o.MaxPerQuery = 2
	}
	if o.TopN <= 0 {
		o.TopN = 10
	}
	if o.DiscoveryTriggerMin <= 0 {
		o.DiscoveryTriggerMin = 8
	}
	if o.CurrentYear <= 0 {
		o.CurrentYear = time.Now().Year()
	}
	return o
}

// Status is a snapshot of the orchestrator's operational state for one user.
type Status struct {
	FallbackMode  bool `json:"fallback_mode"`
	CachedEntries int  `json:"cached_entries"`
}

// Orchestrator drives a full recommendation run: cache check, profile
// build, per-category candidate loop, and cache write. Identical concurrent
// requests (same user, same category set) are collapsed via singleflight;
// on top of that, a per-user mutex serializes all runs for one user so the
// cache read-merge-write never interleaves across category sets.
type Orchestrator struct {
	history    store.WatchHistoryStore
	exclusions store.ExclusionStore
	cache      cache.ResultCache
	newCatalog func() Catalog

	builder   *profile.Builder
	gen       *query.Generator
	engine    *Engine
	augmenter *Augmenter
	opts      Options

	group singleflight.Group

	// latched remembers, per user, that a previous run hit the provider's
	// rate limit. A fresh throttled client is seeded with it each run; it is
	// cleared only when the user's cache is explicitly invalidated.
	mu      sync.Mutex
	latched map[string]bool
	userMu  map[string]*sync.Mutex
}

// NewOrchestrator wires the pipeline. newCatalog must return a fresh
// throttled client per run; the underlying rate limiter should be shared.
func NewOrchestrator(
	history store.WatchHistoryStore,
	exclusions store.ExclusionStore,
	results cache.ResultCache,
	newCatalog func() Catalog,
	opts Options,
) *Orchestrator {
	opts = opts.withDefaults()
	return &Orchestrator{
		history:    history,
		exclusions: exclusions,
		cache:      results,
		newCatalog: newCatalog,
		builder:    profile.NewBuilder(),
		gen:        query.NewGenerator(opts.CurrentYear),
		engine:     NewEngine(),
		augmenter:  NewAugmenter(opts.CurrentYear),
		opts:       opts,
		latched:    make(map[string]bool),
		userMu:     make(map[string]*sync.Mutex),
	}
}

// GenerateRecommendations returns ranked recommendations for the requested
// media kinds, serving from cache when a fresh entry covers them. Kinds
// defaults to both movie and series.
func (o *Orchestrator) GenerateRecommendations(ctx context.Context, userID string, kinds []model.MediaKind) (map[model.MediaKind][]model.ScoredRecommendation, error) {
	kinds = normalizeKinds(kinds)

	key := runKey(userID, kinds)
	res, err, shared := o.group.Do(key, func() (any, error) {
		return o.run(ctx, userID, kinds)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		zap.L().Debug("recommendation run shared", zap.String("user_id", userID))
	}
	return res.(map[model.MediaKind][]model.ScoredRecommendation), nil
}

func (o *Orchestrator) run(ctx context.Context, userID string, kinds []model.MediaKind) (map[model.MediaKind][]model.ScoredRecommendation, error) {
	// Runs for the same user never interleave, whatever their category
	// sets: the window between the cache read and the merged write must
	// not race with another run on the same key.
	lock := o.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	if entry, ok := o.cache.Get(userID); ok && coversKinds(entry, kinds) {
		zap.L().Debug("recommendation cache hit", zap.String("user_id", userID))
		return subset(entry.Recommendations, kinds), nil
	}

	history, err := o.history.ListHistory(ctx, userID)
	if err != nil {
		return nil, eris.Wrapf(err, "recommend: list history for %s", userID)
	}
	excluded, err := o.exclusions.ListExclusions(ctx, userID)
	if err != nil {
		return nil, eris.Wrapf(err, "recommend: list exclusions for %s", userID)
	}

	p := o.builder.Build(history)
	skip := profile.SkipSet(history, excluded)
	stats := profile.RejectionStats(history, excluded)

	client := o.newCatalog()
	client.SetFallback(o.isLatched(userID))

	results := make(map[model.MediaKind][]model.ScoredRecommendation, len(kinds))
	for _, kind := range kinds {
		results[kind] = o.runCategory(ctx, client, p, skip, stats, kind)
	}

	o.setLatched(userID, client.FallbackMode())

	// Fallback runs still cache whatever was gathered before the latch
	// tripped, so the user is not re-charged against the provider quota.
	// Kinds computed by earlier runs are carried over rather than clobbered.
	merged := make(map[model.MediaKind][]model.ScoredRecommendation, len(results))
	if prev, ok := o.cache.Get(userID); ok {
		for k, v := range prev.Recommendations {
			merged[k] = v
		}
	}
	for k, v := range results {
		merged[k] = v
	}
	o.cache.Set(userID, model.CacheEntry{
		Recommendations: merged,
		Profile:         p,
	})

	zap.L().Info("recommendation run complete",
		zap.String("user_id", userID),
		zap.Int("history_size", p.HistorySize),
		zap.Bool("fallback", client.FallbackMode()),
	)
	return results, nil
}

// runCategory executes the query loop for one media kind: search, filter,
// detail-fetch, score, gate, then rank. It stops early on the accepted cap,
// query exhaustion, or the fallback latch.
func (o *Orchestrator) runCategory(
	ctx context.Context,
	client Catalog,
	p model.PreferenceProfile,
	skip map[string]struct{},
	stats model.RejectionStats,
	kind model.MediaKind,
) []model.ScoredRecommendation {
	queries := o.gen.Generate(p, kind)
	accepted := make([]model.ScoredRecommendation, 0, o.opts.MaxAcceptedPerKind)
	seen := make(map[string]bool)

	for _, q := range queries {
		if len(accepted) >= o.opts.MaxAcceptedPerKind || client.FallbackMode() {
			break
		}

		summaries, err := client.Search(ctx, q)
		if err != nil {
			if catalog.IsUnavailable(err) {
				break
			}
			zap.L().Warn("catalog search failed", zap.String("query", q), zap.Error(err))
			continue
		}

		for _, s := range FilterSummaries(summaries, kind, skip, p, o.opts.MaxPerQuery) {
			if len(accepted) >= o.opts.MaxAcceptedPerKind {
				break
			}
			if seen[s.CatalogID] {
				continue
			}
			seen[s.CatalogID] = true

			detail, err := client.Details(ctx, s.CatalogID)
			if err != nil {
				if catalog.IsUnavailable(err) {
					break
				}
				zap.L().Debug("candidate detail fetch failed",
					zap.String("catalog_id", s.CatalogID), zap.Error(err))
				continue
			}

			rec := o.engine.Score(*detail, p, stats)
			if rec.Score >= MinRelevanceScore {
				accepted = append(accepted, rec)
			}
		}
	}

	if len(accepted) < o.opts.DiscoveryTriggerMin && !client.FallbackMode() {
		if rec, ok := o.augmenter.Augment(ctx, client, p, skip, seen, kind); ok {
			accepted = append(accepted, rec)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Score > accepted[j].Score
	})
	if len(accepted) > o.opts.TopN {
		accepted = accepted[:o.opts.TopN]
	}
	return accepted
}

// AddExclusion records a not-interested title and invalidates the user's
// cached results so the next run reflects it. The fallback latch is cleared
// with the cache.
func (o *Orchestrator) AddExclusion(ctx context.Context, userID string, item model.ExclusionItem) error {
	if _, err := o.exclusions.AddExclusion(ctx, userID, item); err != nil {
		return err
	}
	o.InvalidateUserCache(userID)
	return nil
}

// RemoveExclusion lifts an exclusion and invalidates the user's cache.
func (o *Orchestrator) RemoveExclusion(ctx context.Context, userID string, catalogID string) error {
	if err := o.exclusions.RemoveExclusion(ctx, userID, catalogID); err != nil {
		return err
	}
	o.InvalidateUserCache(userID)
	return nil
}

// InvalidateUserCache drops the user's cached results and clears their
// fallback latch. This is the only path that re-enables catalog access for
// a rate-limited user.
func (o *Orchestrator) InvalidateUserCache(userID string) {
	o.cache.Invalidate(userID)
	o.mu.Lock()
	delete(o.latched, userID)
	o.mu.Unlock()
}

// ClearAllCaches drops every cached entry and latch.
func (o *Orchestrator) ClearAllCaches() {
	o.cache.Clear()
	o.mu.Lock()
	o.latched = make(map[string]bool)
	o.mu.Unlock()
}

// Status reports the user's fallback latch and the cache population.
func (o *Orchestrator) Status(userID string) Status {
	return Status{
		FallbackMode:  o.isLatched(userID),
		CachedEntries: o.cache.Len(),
	}
}

func (o *Orchestrator) userLock(userID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	m, ok := o.userMu[userID]
	if !ok {
		m = &sync.Mutex{}
		o.userMu[userID] = m
	}
	return m
}

func (o *Orchestrator) isLatched(userID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.latched[userID]
}

func (o *Orchestrator) setLatched(userID string, v bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if v {
		o.latched[userID] = true
	}
}

func normalizeKinds(kinds []model.MediaKind) []model.MediaKind {
	if len(kinds) == 0 {
		return []model.MediaKind{model.KindMovie, model.KindSeries}
	}
	seen := make(map[model.MediaKind]bool, len(kinds))
	out := make([]model.MediaKind, 0, len(kinds))
	for _, k := range kinds {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func runKey(userID string, kinds []model.MediaKind) string {
	parts := make([]string, 0, len(kinds)+1)
	parts = append(parts, userID)
	for _, k := range kinds {
		parts = append(parts, string(k))
	}
	return strings.Join(parts, "|")
}

func coversKinds(entry *model.CacheEntry, kinds []model.MediaKind) bool {
	for _, k := range kinds {
		if _, ok := entry.Recommendations[k]; !ok {
			return false
		}
	}
	return true
}

func subset(all map[model.MediaKind][]model.ScoredRecommendation, kinds []model.MediaKind) map[model.MediaKind][]model.ScoredRecommendation {
	out := make(map[model.MediaKind][]model.ScoredRecommendation, len(kinds))
	for _, k := range kinds {
		out[k] = all[k]
	}
	return out
}
