package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenpick/screenpick/internal/model"
)

// fakeClient scripts catalog responses per query/id.
type fakeClient struct {
	searchCalls  int
	detailsCalls int
	searchFn     func(query string) ([]model.CandidateSummary, error)
	detailsFn    func(id string) (*model.CandidateDetail, error)
}

func (f *fakeClient) Search(_ context.Context, query string) ([]model.CandidateSummary, error) {
	f.searchCalls++
	return f.searchFn(query)
}

func (f *fakeClient) Details(_ context.Context, id string) (*model.CandidateDetail, error) {
	f.detailsCalls++
	return f.detailsFn(id)
}

func TestThrottled_RateLimitTripsLatch(t *testing.T) {
	t.Parallel()

	fake := &fakeClient{
		searchFn: func(string) ([]model.CandidateSummary, error) {
			return nil, &RateLimitError{Message: "request limit reached"}
		},
	}
	th := NewThrottled(fake, NewLimiter(time.Millisecond))

	_, err := th.Search(context.Background(), "q1")
	require.Error(t, err)
	assert.True(t, IsUnavailable(err))
	assert.True(t, th.FallbackMode())

	// Latched: no further network calls.
	_, err = th.Search(context.Background(), "q2")
	assert.True(t, IsUnavailable(err))
	_, err = th.Details(context.Background(), "tt1")
	assert.True(t, IsUnavailable(err))
	assert.Equal(t, 1, fake.searchCalls)
	assert.Zero(t, fake.detailsCalls)
}

func TestThrottled_LatchClearedOnlyExplicitly(t *testing.T) {
	t.Parallel()

	fake := &fakeClient{
		searchFn: func(string) ([]model.CandidateSummary, error) {
			return []model.CandidateSummary{{CatalogID: "tt1"}}, nil
		},
	}
	th := NewThrottled(fake, NewLimiter(time.Millisecond))
	th.SetFallback(true)

	_, err := th.Search(context.Background(), "q")
	assert.True(t, IsUnavailable(err))
	assert.Zero(t, fake.searchCalls)

	th.SetFallback(false)
	got, err := th.Search(context.Background(), "q")
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 1, fake.searchCalls)
}

func TestThrottled_NonRateLimitErrorsPassThrough(t *testing.T) {
	t.Parallel()

	fake := &fakeClient{
		detailsFn: func(string) (*model.CandidateDetail, error) {
			return nil, ErrNotFound
		},
	}
	th := NewThrottled(fake, NewLimiter(time.Millisecond))

	_, err := th.Details(context.Background(), "tt0")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, th.FallbackMode())

	// Still not latched; another call goes through.
	_, _ = th.Details(context.Background(), "tt0")
	assert.Equal(t, 2, fake.detailsCalls)
}

func TestThrottled_EnforcesMinInterval(t *testing.T) {
	t.Parallel()

	fake := &fakeClient{
		searchFn: func(string) ([]model.CandidateSummary, error) { return nil, nil },
	}
	interval := 50 * time.Millisecond
	th := NewThrottled(fake, NewLimiter(interval))

	start := time.Now()
	_, err := th.Search(context.Background(), "a")
	require.NoError(t, err)
	_, err = th.Search(context.Background(), "b")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), interval)
	assert.False(t, th.LastRequestAt().IsZero())
}
