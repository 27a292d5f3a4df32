package catalog

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/screenpick/screenpick/internal/model"
)

// NewLimiter builds a rate limiter enforcing the given minimum interval
// between catalog requests. The limiter is meant to be shared by every
// Throttled instance talking to the same provider.
func NewLimiter(minInterval time.Duration) *rate.Limiter {
	if minInterval <= 0 {
		minInterval = time.Second
	}
	return rate.NewLimiter(rate.Every(minInterval), 1)
}

// Throttled wraps a catalog Client with a minimum-interval throttle and a
// rate-limit-triggered fallback latch. The latch is one-way: once a
// rate-limit-class error is seen, every further call returns ErrUnavailable
// without touching the network until SetFallback(false) is called.
type Throttled struct {
	client  Client
	limiter *rate.Limiter

	mu            sync.Mutex
	fallback      bool
	lastRequestAt time.Time

	nowFunc func() time.Time
}

// NewThrottled wraps client with the shared limiter.
func NewThrottled(client Client, limiter *rate.Limiter) *Throttled {
	return &Throttled{
		client:  client,
		limiter: limiter,
		nowFunc: time.Now,
	}
}

// Search performs a throttled title search.
func (t *Throttled) Search(ctx context.Context, query string) ([]model.CandidateSummary, error) {
	var out []model.CandidateSummary
	err := t.call(ctx, func(ctx context.Context) error {
		res, err := t.client.Search(ctx, query)
		out = res
		return err
	})
	return out, err
}

// Details performs a throttled detail fetch.
func (t *Throttled) Details(ctx context.Context, id string) (*model.CandidateDetail, error) {
	var out *model.CandidateDetail
	err := t.call(ctx, func(ctx context.Context) error {
		res, err := t.client.Details(ctx, id)
		out = res
		return err
	})
	return out, err
}

// FallbackMode reports whether the latch is set.
func (t *Throttled) FallbackMode() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fallback
}

// SetFallback seeds or clears the latch. The orchestrator clears it only
// when a user's cache is explicitly invalidated, never by time alone.
func (t *Throttled) SetFallback(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fallback = v
}

// LastRequestAt returns when the last real catalog request was issued.
func (t *Throttled) LastRequestAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastRequestAt
}

func (t *Throttled) call(ctx context.Context, fn func(ctx context.Context) error) error {
	t.mu.Lock()
	if t.fallback {
		t.mu.Unlock()
		return ErrUnavailable
	}
	t.mu.Unlock()

	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	t.mu.Lock()
	t.lastRequestAt = t.nowFunc()
	t.mu.Unlock()

	err := fn(ctx)
	if err == nil {
		return nil
	}

	if IsRateLimited(err) {
		t.mu.Lock()
		t.fallback = true
		t.mu.Unlock()
		zap.L().Warn("catalog: rate limited, entering fallback mode", zap.Error(err))
		return ErrUnavailable
	}

	// Not-found and transient failures pass through; the caller skips the
	// candidate and continues.
	return err
}

// IsUnavailable reports whether err is the fallback-mode result.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
