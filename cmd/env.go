package main

import (
	"context"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/screenpick/screenpick/internal/cache"
	"github.com/screenpick/screenpick/internal/model"
	"github.com/screenpick/screenpick/internal/recommend"
	"github.com/screenpick/screenpick/internal/store"
	"github.com/screenpick/screenpick/pkg/catalog"
)

// env bundles the wired pipeline for a command invocation.
type env struct {
	store   store.Store
	client  catalog.Client
	limiter *rate.Limiter
	orch    *recommend.Orchestrator
}

func initStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DatabaseURL, &store.PoolConfig{
		MaxConns: cfg.Store.MaxConns,
		MinConns: cfg.Store.MinConns,
	})
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func initEnv(ctx context.Context) (*env, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	client := catalog.NewClient(cfg.Catalog.Key,
		catalog.WithBaseURL(cfg.Catalog.BaseURL),
		catalog.WithHTTPClient(&http.Client{
			Timeout: time.Duration(cfg.Catalog.TimeoutSecs) * time.Second,
		}),
	)
	limiter := catalog.NewLimiter(cfg.Catalog.MinInterval())

	orch := recommend.NewOrchestrator(
		st, st,
		cache.NewMemory(cfg.Cache.TTL()),
		func() recommend.Catalog { return catalog.NewThrottled(client, limiter) },
		recommend.Options{
			MaxAcceptedPerKind:  cfg.Pipeline.MaxAcceptedPerKind,
			MaxPerQuery:         cfg.Pipeline.MaxPerQuery,
			TopN:                cfg.Pipeline.TopN,
			DiscoveryTriggerMin: cfg.Pipeline.DiscoveryTriggerMin,
			CurrentYear:         time.Now().Year(),
		},
	)

	return &env{store: st, client: client, limiter: limiter, orch: orch}, nil
}

func (e *env) Close() {
	_ = e.store.Close()
}

// throttled returns a fresh rate-limited catalog handle sharing the
// provider-wide limiter.
func (e *env) throttled() *catalog.Throttled {
	return catalog.NewThrottled(e.client, e.limiter)
}

// parseKinds maps kind flags to media kinds, defaulting to both.
func parseKinds(raw []string) []model.MediaKind {
	if len(raw) == 0 {
		return nil
	}
	kinds := make([]model.MediaKind, 0, len(raw))
	for _, s := range raw {
		kinds = append(kinds, model.ParseMediaKind(s))
	}
	return kinds
}
