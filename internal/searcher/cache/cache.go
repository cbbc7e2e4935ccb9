// Package cache memoises search results in Redis. Keys carry the instance ID
// of the index that produced them, so processes sharing one Redis never see
// each other's entries, and the index size at query time; since the index
// only grows, any add moves new queries onto fresh keys and stale entries
// simply age out by TTL.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/oogle/internal/index/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/oogle/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/oogle/pkg/metrics"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search:"

// Store is the key/value backend; *redis.Client satisfies it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	DeletePrefix(ctx context.Context, prefix string) (int64, error)
}

type QueryCache struct {
	store   Store
	scope   string
	ttl     time.Duration
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a cache over store whose entries belong to the index with the
// given instance ID. m may be nil.
func New(store Store, instance string, ttl time.Duration, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:   store,
		scope:   instance,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "query-cache"),
	}
}

func (c *QueryCache) Get(ctx context.Context, words []string, generation int) (*executor.SearchResult, bool) {
	key := BuildKey(c.scope, words, generation)
	data, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Error("cache get failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	if !found {
		c.recordMiss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal(data, &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	c.logger.Debug("cache hit", "words", words, "key", key)
	return &result, true
}

func (c *QueryCache) Set(ctx context.Context, words []string, generation int, result *executor.SearchResult) {
	key := BuildKey(c.scope, words, generation)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute serves words from the cache or runs computeFn, sharing one
// computation between concurrent callers of the same key. Errors from
// computeFn are returned to every waiting caller and never stored.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	words []string,
	generation int,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, words, generation); ok {
		result.Words = words
		return result, true, nil
	}
	key := BuildKey(c.scope, words, generation)
	val, err, _ := c.group.Do(key, func() (any, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, words, generation, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	shared := *val.(*executor.SearchResult)
	shared.Words = words
	return &shared, false, nil
}

func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.DeletePrefix(ctx, scopePrefix(c.scope))
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BuildKey derives the cache key for a query against one index instance at a
// given size. Word order, case and repetition do not change the key.
func BuildKey(instance string, words []string, generation int) string {
	raw := fmt.Sprintf("%d|%s", generation, normalizeWords(words))
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", scopePrefix(instance), hash[:16])
}

func scopePrefix(instance string) string {
	return keyPrefix + instance + ":"
}

func normalizeWords(words []string) string {
	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		term := tokenizer.Normalize(w)
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return strings.Join(terms, "\x00")
}
