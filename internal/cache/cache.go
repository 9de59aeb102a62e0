// Package cache implements the Instance-Scoped Client Cache (C6): a
// bounded LRU-with-TTL of per-caller REST clients, keyed by a SHA-256 hash
// of the caller's (url, key, instanceId) tuple, with mutex-protected
// single-flight creation so a burst of concurrent requests for the same
// key never constructs more than one client.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/rakunlabs/n8n-mcp/internal/model"
)

// Factory constructs a client for ctx. It is invoked at most once per
// key per miss, even under concurrent callers racing the same key.
type Factory func(ctx model.InstanceContext) (any, error)

// Metrics is a snapshot of the cache's counters (§4.6). It never carries
// credentials; Size/HighWater describe entry counts only.
type Metrics struct {
	Hits      uint64    `json:"hits"`
	Misses    uint64    `json:"misses"`
	Sets      uint64    `json:"sets"`
	Evictions uint64    `json:"evictions"`
	Clears    uint64    `json:"clears"`
	Size      int       `json:"size"`
	HighWater int       `json:"highWater"`
	LastReset time.Time `json:"lastReset"`
}

// Cache is the bounded, TTL-expiring client cache described by §4.6.
type Cache struct {
	mu    sync.Mutex // guards lru, metrics, and the per-key creation locks map
	lru   *expirable.LRU[string, model.ClientCacheEntry]
	locks map[string]*sync.Mutex

	ttl time.Duration

	metrics   Metrics
	lastReset time.Time
}

// New builds a cache holding at most max entries, each with the given TTL
// and update-on-read semantics: a cache hit refreshes the entry's
// remaining lifetime rather than letting it expire on a fixed schedule.
func New(max int, ttl time.Duration) *Cache {
	c := &Cache{
		locks:     make(map[string]*sync.Mutex),
		ttl:       ttl,
		lastReset: now(),
	}
	c.lru = expirable.NewLRU[string, model.ClientCacheEntry](max, c.onEvict, ttl)
	return c
}

var now = time.Now

func (c *Cache) onEvict(key string, _ model.ClientCacheEntry) {
	// Called while c.lru's own internal lock is held; never re-enter the
	// LRU from here. c.mu is already held by every caller that can trigger
	// eviction (Add, below), so do not re-lock it.
	c.metrics.Evictions++
	slog.Debug("client cache evicted entry", "key", shortKey(key))
}

// Key hashes an InstanceContext into the cache key (§3): SHA-256 hex of
// "url|key|instanceId". The raw URL, key, and instance id never appear in
// logs or errors past this point.
func Key(ctx model.InstanceContext) string {
	sum := sha256.Sum256([]byte(ctx.APIURL + "|" + ctx.APIKey + "|" + ctx.InstanceID))
	return hex.EncodeToString(sum[:])
}

// shortKey truncates a cache key to its first 8 hex characters, the only
// portion ever logged (§3, §4.6).
func shortKey(key string) string {
	if len(key) <= 8 {
		return key
	}
	return key[:8]
}

// Get returns the cached client for ctx, creating it via factory on a
// miss. Concurrent Get calls for the same key block on a per-key mutex;
// whichever goroutine obtains the mutex first calls factory, and every
// other contender observes the freshly created entry once it is released.
func (c *Cache) Get(ctx model.InstanceContext, factory Factory) (any, error) {
	key := Key(ctx)

	c.mu.Lock()
	if entry, ok := c.lru.Get(key); ok {
		entry.LastAccess = now()
		c.lru.Add(key, entry) // refresh TTL and LastAccess on read (updateAgeOnGet)
		c.metrics.Hits++
		c.mu.Unlock()
		return entry.Client, nil
	}
	c.metrics.Misses++
	keyLock, ok := c.locks[key]
	if !ok {
		keyLock = &sync.Mutex{}
		c.locks[key] = keyLock
	}
	c.mu.Unlock()

	keyLock.Lock()
	defer keyLock.Unlock()

	// Another goroutine may have created the entry while we waited on
	// keyLock; re-check before constructing a new client.
	c.mu.Lock()
	if entry, ok := c.lru.Get(key); ok {
		c.mu.Unlock()
		return entry.Client, nil
	}
	c.mu.Unlock()

	client, err := factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("create client for cache key %s: %w", shortKey(key), err)
	}

	c.mu.Lock()
	entry := model.ClientCacheEntry{Client: client, CreatedAt: now(), LastAccess: now()}
	c.lru.Add(key, entry)
	c.metrics.Sets++
	if size := c.lru.Len(); size > c.metrics.HighWater {
		c.metrics.HighWater = size
	}
	delete(c.locks, key)
	c.mu.Unlock()

	return client, nil
}

// Clear purges every entry, running eviction callbacks for each, and bumps
// the Clears counter.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.metrics.Clears++
}

// Reset zeroes the hit/miss/set/eviction/clear counters (but not Size,
// which reflects live state) and stamps LastReset.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.metrics.Hits = 0
	c.metrics.Misses = 0
	c.metrics.Sets = 0
	c.metrics.Evictions = 0
	c.metrics.Clears = 0
	c.lastReset = now()
}

// Metrics returns a point-in-time snapshot (§4.6).
func (c *Cache) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	m := c.metrics
	m.Size = c.lru.Len()
	m.LastReset = c.lastReset
	return m
}

// process-wide singleton fallback (§4.6): used when an inbound request
// carries no per-request InstanceContext, e.g. stdio mode where a single
// process-configured n8n instance is all that exists.
var (
	singletonMu  sync.Mutex
	singleton    any
	singletonURL string
)

// Singleton returns the process-wide fallback client, (re)building it via
// factory if absent or if url has changed since it was built.
func Singleton(url string, factory func() (any, error)) (any, error) {
	singletonMu.Lock()
	defer singletonMu.Unlock()
	if singleton != nil && singletonURL == url {
		return singleton, nil
	}
	client, err := factory()
	if err != nil {
		return nil, err
	}
	singleton = client
	singletonURL = url
	return client, nil
}
