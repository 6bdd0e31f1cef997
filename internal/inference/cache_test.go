package inference

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bechidu/partner-sync-ai/internal/canonical"
)

func cacheForTest(t *testing.T) (*SuggestionCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSuggestionCache(rdb, time.Hour), mr
}

func TestSuggestionCacheRoundTrip(t *testing.T) {
	cache, _ := cacheForTest(t)
	ctx := context.Background()

	fields := []PartnerField{{PartnerField: "AWB Number"}, {PartnerField: "Dest City"}}
	key := cache.Key(fields, []string{"tracking_id", "destination.city"})

	_, hit := cache.Get(ctx, key)
	assert.False(t, hit, "cold cache must miss")

	set := canonical.MappingSet{{SourceField: "AWB.Number", CanonicalPath: "tracking_id", Confidence: 0.9}}
	require.NoError(t, cache.Put(ctx, key, set))

	got, hit := cache.Get(ctx, key)
	require.True(t, hit)
	assert.Equal(t, set, got)
}

func TestSuggestionCacheKeyStableUnderOrderAndSpelling(t *testing.T) {
	cache, _ := cacheForTest(t)

	a := cache.Key(
		[]PartnerField{{PartnerField: "AWB Number"}, {PartnerField: "Dest City"}},
		[]string{"tracking_id", "destination.city"},
	)
	// Field order and leaf order must not change the key.
	b := cache.Key(
		[]PartnerField{{PartnerField: "Dest City"}, {PartnerField: "AWB Number"}},
		[]string{"destination.city", "tracking_id"},
	)
	assert.Equal(t, a, b)

	// Separator variants normalize to the same dotted name and share a key.
	c := cache.Key(
		[]PartnerField{{PartnerField: "AWB.Number"}, {PartnerField: "Dest_City"}},
		[]string{"tracking_id", "destination.city"},
	)
	assert.Equal(t, a, c)
	assert.NotEqual(t, a, cache.Key([]PartnerField{{PartnerField: "Other"}}, []string{"tracking_id"}))
}

func TestSuggestionCacheExpiry(t *testing.T) {
	cache, mr := cacheForTest(t)
	ctx := context.Background()

	key := cache.Key([]PartnerField{{PartnerField: "f"}}, nil)
	require.NoError(t, cache.Put(ctx, key, canonical.MappingSet{{SourceField: "f", CanonicalPath: "notes"}}))

	mr.FastForward(2 * time.Hour)
	_, hit := cache.Get(ctx, key)
	assert.False(t, hit, "entries expire after the TTL")
}

func TestSuggestionCacheRedisDownDegradesToMiss(t *testing.T) {
	cache, mr := cacheForTest(t)
	mr.Close()

	_, hit := cache.Get(context.Background(), "mapsuggest:deadbeef")
	assert.False(t, hit)
}
