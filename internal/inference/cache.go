package inference

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bechidu/partner-sync-ai/internal/canonical"
	"github.com/bechidu/partner-sync-ai/internal/mapping"
	"github.com/bechidu/partner-sync-ai/internal/pkg/logger"
)

// SuggestionCache memoizes stage-two mapping suggestions in Redis. The key
// is content-addressed over the normalized field names and schema leaves,
// so two partners sending the same column set share one model call.
type SuggestionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSuggestionCache(rdb *redis.Client, ttl time.Duration) *SuggestionCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SuggestionCache{rdb: rdb, ttl: ttl}
}

// Key derives the cache key for a field set against a leaf set.
func (c *SuggestionCache) Key(fields []PartnerField, leaves []string) string {
	names := make([]string, 0, len(fields))
	for _, f := range fields {
		names = append(names, mapping.NormalizeFieldName(f.PartnerField))
	}
	sort.Strings(names)

	sortedLeaves := append([]string(nil), leaves...)
	sort.Strings(sortedLeaves)

	h := sha256.Sum256([]byte(strings.Join(names, "\n") + "\x00" + strings.Join(sortedLeaves, "\n")))
	return "mapsuggest:" + hex.EncodeToString(h[:])
}

// Get returns the cached mapping set, or (nil, false) on a miss. Redis
// outages degrade to a miss rather than an error.
func (c *SuggestionCache) Get(ctx context.Context, key string) (canonical.MappingSet, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Warn("suggestion cache read failed", "error", err)
		}
		return nil, false
	}
	var set canonical.MappingSet
	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, false
	}
	return set, true
}

// Put stores a mapping set under key for the cache TTL.
func (c *SuggestionCache) Put(ctx context.Context, key string, set canonical.MappingSet) error {
	raw, err := json.Marshal(set)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, raw, c.ttl).Err()
}
