package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/screenpick/screenpick/internal/model"
)

func entryWith(id string) model.CacheEntry {
	return model.CacheEntry{
		Recommendations: map[model.MediaKind][]model.ScoredRecommendation{
			model.KindMovie: {{CatalogID: id, Score: 0.8, Confidence: 0.9}},
		},
	}
}

func TestMemory_GetSetRoundTrip(t *testing.T) {
	t.Parallel()

	c := NewMemory(24 * time.Hour)
	_, ok := c.Get("u1")
	assert.False(t, ok)

	c.Set("u1", entryWith("tt1"))
	got, ok := c.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "tt1", got.Recommendations[model.KindMovie][0].CatalogID)
	assert.False(t, got.WrittenAt.IsZero())
	assert.Equal(t, 1, c.Len())
}

func TestMemory_TTLExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemory(24*time.Hour, WithClock(func() time.Time { return now }))

	c.Set("u1", entryWith("tt1"))

	now = now.Add(23 * time.Hour)
	_, ok := c.Get("u1")
	assert.True(t, ok, "entry inside TTL must be served")

	now = now.Add(2 * time.Hour)
	_, ok = c.Get("u1")
	assert.False(t, ok, "entry past TTL must expire")
	assert.Zero(t, c.Len(), "expired entry is evicted on read")
}

func TestMemory_InvalidateAndClear(t *testing.T) {
	t.Parallel()

	c := NewMemory(24 * time.Hour)
	c.Set("u1", entryWith("tt1"))
	c.Set("u2", entryWith("tt2"))

	c.Invalidate("u1")
	_, ok := c.Get("u1")
	assert.False(t, ok)
	_, ok = c.Get("u2")
	assert.True(t, ok)

	c.Clear()
	assert.Zero(t, c.Len())
}
