package decode

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/rawblock/sieve/internal/metrics"
)

// Store is the decode-cache interface the evaluator (internal/engine)
// depends on. A Filter's CallData/EventData conditions ask for the decode
// of their (event, shape) key at most once; the Store decides whether that
// decode is remembered across events (Cache) or only within the batch
// currently being evaluated (BatchCache).
type Store interface {
	GetOrDecode(key Key, decode func() (*Decoded, error)) (*Decoded, error)
}

// cacheEntry is what both Cache and BatchCache store per Key: either a
// successful decode, or a remembered failure. Caching the failure itself
// (not just the *Decoded) is what makes a key that failed to decode once
// return false on every later lookup instead of retrying the decode.
type cacheEntry struct {
	decoded *Decoded
	err     error
}

// Cache is a process-wide, bounded decode cache. It coordinates concurrent
// callers asking for the same key via singleflight, so under concurrent
// evaluation of several filters against the same event, a given (event,
// shape) pair is decoded exactly once — the Go equivalent of the reference
// implementation's DashMap-coordinated decode-once guarantee. An
// undecodable key is remembered the same way a successful one is: once
// decode() fails for a Key, every later GetOrDecode for that Key returns
// the cached error without invoking decode() again.
type Cache struct {
	lru     *lru.Cache[Key, cacheEntry]
	sf      singleflight.Group
	metrics *metrics.Metrics // nil is fine; every use is nil-checked
}

// WithMetrics attaches a Metrics handle so cache hits/misses get recorded.
func (c *Cache) WithMetrics(m *metrics.Metrics) *Cache {
	c.metrics = m
	return c
}

// DefaultSize is the LRU bound used when not overridden: 10,000 entries,
// matching the reference implementation's dedup cache sizing.
const DefaultSize = 10_000

// NewCache builds a Cache bounded at size entries.
func NewCache(size int) (*Cache, error) {
	l, err := lru.New[Key, cacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cache{lru: l}, nil
}

// GetOrDecode returns the cached decode for key, running decode() at most
// once even under concurrent callers — including when decode() fails: the
// error itself is cached, so a later call with the same key returns it
// again rather than retrying the decode.
func (c *Cache) GetOrDecode(key Key, decode func() (*Decoded, error)) (*Decoded, error) {
	if v, ok := c.lru.Get(key); ok {
		if c.metrics != nil {
			c.metrics.DecodeCacheHits.Inc()
		}
		return v.decoded, v.err
	}
	v, _, _ := c.sf.Do(keyString(key), func() (any, error) {
		if v, ok := c.lru.Get(key); ok {
			return v, nil
		}
		if c.metrics != nil {
			c.metrics.DecodeCacheMiss.Inc()
		}
		d, err := decode()
		entry := cacheEntry{decoded: d, err: err}
		c.lru.Add(key, entry)
		return entry, nil
	})
	entry := v.(cacheEntry)
	return entry.decoded, entry.err
}

func keyString(k Key) string {
	return k.Shape + "\x00" + k.EventIdentity
}

// BatchCache is the per-batch-scoped alternative to Cache: an unlocked map
// cleared between batches, for callers that evaluate one batch of events at
// a time on a single goroutine and don't need cross-batch memory or
// cross-goroutine coordination. Like Cache, a decode failure is remembered
// for the rest of the batch rather than retried.
type BatchCache struct {
	entries map[Key]cacheEntry
}

// NewBatchCache returns an empty BatchCache.
func NewBatchCache() *BatchCache {
	return &BatchCache{entries: make(map[Key]cacheEntry)}
}

func (c *BatchCache) GetOrDecode(key Key, decode func() (*Decoded, error)) (*Decoded, error) {
	if v, ok := c.entries[key]; ok {
		return v.decoded, v.err
	}
	d, err := decode()
	c.entries[key] = cacheEntry{decoded: d, err: err}
	return d, err
}

// Reset discards all entries, ready for the next batch.
func (c *BatchCache) Reset() {
	c.entries = make(map[Key]cacheEntry)
}
