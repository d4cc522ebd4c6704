package ledger

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"unisync/core/catalog"
	"unisync/core/source"

	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is used when NewCached receives a non-positive TTL.
const DefaultCacheTTL = 30 * time.Second

// Cached wraps a Ledger and caches Latest lookups, which status endpoints
// issue far more often than runs are recorded. Concurrent misses for the same
// pair share one underlying query. Record invalidates the pair it writes.
//
// Every invalidation bumps a generation. A miss only stores its result when
// the generation it started under is still current, so a query that raced
// with Record never caches the run Record replaced.
type Cached struct {
	next  Ledger
	cache *ttlcache.Cache[string, *Run]
	sf    singleflight.Group

	mu    sync.Mutex
	gens  map[string]uint64
	epoch uint64
}

// NewCached wraps next with a cache of the given TTL.
func NewCached(next Ledger, ttl time.Duration) *Cached {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cached{
		next: next,
		cache: ttlcache.New(
			ttlcache.WithTTL[string, *Run](ttl),
			ttlcache.WithDisableTouchOnHit[string, *Run](),
		),
		gens: make(map[string]uint64),
	}
}

// generation identifies the cache state of key.
func (c *Cached) generation(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generationLocked(key)
}

func (c *Cached) generationLocked(key string) string {
	return strconv.FormatUint(c.epoch, 10) + "." + strconv.FormatUint(c.gens[key], 10)
}

func cacheKey(institution string, category catalog.Category) string {
	return source.NormalizeInstitutionCode(institution) + "|" + string(category)
}

// Record implements Ledger.
func (c *Cached) Record(ctx context.Context, run Run) error {
	if err := c.next.Record(ctx, run); err != nil {
		return err
	}
	key := cacheKey(run.Institution, run.Category)
	c.mu.Lock()
	c.gens[key]++
	c.cache.Delete(key)
	c.mu.Unlock()
	return nil
}

// Latest implements Ledger.
func (c *Cached) Latest(ctx context.Context, institution string, category catalog.Category) (*Run, error) {
	key := cacheKey(institution, category)

	// Fast path
	if item := c.cache.Get(key); item != nil {
		return copyRun(item.Value()), nil
	}

	// Slow path: one query per key and generation, shared by concurrent callers
	gen := c.generation(key)
	v, err, _ := c.sf.Do(key+"@"+gen, func() (any, error) {
		if item := c.cache.Get(key); item != nil {
			return item.Value(), nil
		}
		run, err := c.next.Latest(ctx, institution, category)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.generationLocked(key) == gen {
			c.cache.Set(key, run, ttlcache.DefaultTTL)
		}
		return run, nil
	})
	if err != nil {
		return nil, err
	}
	return copyRun(v.(*Run)), nil
}

// History implements Ledger. History is not cached.
func (c *Cached) History(ctx context.Context, institution string, limit int) ([]Run, error) {
	return c.next.History(ctx, institution, limit)
}

// Invalidate drops every cached entry.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.epoch++
	c.cache.DeleteAll()
}

func copyRun(run *Run) *Run {
	if run == nil {
		return nil
	}
	out := *run
	out.Errors = slices.Clone(run.Errors)
	return &out
}
