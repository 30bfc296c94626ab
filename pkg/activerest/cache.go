package activerest

import (
	"context"
	"errors"
	nethttp "net/http"
	"net/url"
	"sync"
	"time"

	"github.com/activerest-io/activerest/internal/constants"
)

// Cache errors.
var (
	ErrCacheKeyNotFound  = errors.New("key not found in cache")
	ErrCacheEntryExpired = errors.New("cache entry expired")
	ErrCacheDisabled     = errors.New("cache disabled")
)

// CacheEntry is one cached response.
type CacheEntry struct {
	Data        []byte    `json:"data"`
	StatusCode  int       `json:"status_code"`
	ContentType string    `json:"content_type"`
	ETag        string    `json:"etag,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the entry's lifetime has passed.
func (e *CacheEntry) Expired() bool {
	return time.Now().After(e.ExpiresAt)
}

// Cache is a response cache backend.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// MemoryCache is an in-memory Cache with a maximum size. When full, the
// entry closest to expiry is evicted.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*CacheEntry
	maxSize int
}

// NewMemoryCache creates a memory cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	return &MemoryCache{
		entries: make(map[string]*CacheEntry),
		maxSize: maxSize,
	}
}

// Get implements Cache.Get.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrCacheKeyNotFound
	}

	if entry.Expired() {
		_ = c.Delete(ctx, key)

		return nil, ErrCacheEntryExpired
	}

	return entry, nil
}

// Set implements Cache.Set.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	c.entries[key] = entry

	return nil
}

// evictLocked removes the entry closest to expiry. Callers hold the lock.
func (c *MemoryCache) evictLocked() {
	var (
		oldestKey    string
		oldestExpiry time.Time
	)

	for key, entry := range c.entries {
		if oldestKey == "" || entry.ExpiresAt.Before(oldestExpiry) {
			oldestKey = key
			oldestExpiry = entry.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

// Delete implements Cache.Delete.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)

	return nil
}

// Clear implements Cache.Clear.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*CacheEntry)

	return nil
}

// Has implements Cache.Has.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Cleanup removes expired entries.
func (c *MemoryCache) Cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.entries {
		if entry.Expired() {
			delete(c.entries, key)
		}
	}
}

// NoOpCache is a cache that stores nothing.
type NoOpCache struct{}

// NewNoOpCache creates a new no-op cache.
func NewNoOpCache() *NoOpCache {
	return &NoOpCache{}
}

// Get always misses.
func (c *NoOpCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	return nil, ErrCacheDisabled
}

// Set discards the entry.
func (c *NoOpCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	return nil
}

// Delete does nothing.
func (c *NoOpCache) Delete(ctx context.Context, key string) error {
	return nil
}

// Clear does nothing.
func (c *NoOpCache) Clear(ctx context.Context) error {
	return nil
}

// Has always reports false.
func (c *NoOpCache) Has(ctx context.Context, key string) bool {
	return false
}

// CachingPolicy decides which requests and responses are cacheable.
// Only GET responses with 2xx statuses are cached; HEAD requests are
// never cached so count discovery always reaches the server.
type CachingPolicy struct {
	CacheGET   bool
	DefaultTTL time.Duration
}

// DefaultCachingPolicy returns the default caching policy.
func DefaultCachingPolicy() *CachingPolicy {
	return &CachingPolicy{
		CacheGET:   true,
		DefaultTTL: constants.DefaultCacheTTL,
	}
}

// CacheableRequest reports whether the verb may be served from cache.
func (p *CachingPolicy) CacheableRequest(method string) bool {
	return p.CacheGET && method == nethttp.MethodGet
}

// ShouldCache reports whether a response should be stored.
func (p *CachingPolicy) ShouldCache(method string, statusCode int) bool {
	return p.CacheableRequest(method) && statusCode >= 200 && statusCode < 300
}

// CacheStats tracks cache effectiveness.
type CacheStats struct {
	Hits   int64
	Misses int64
	Sets   int64
}

// GetHitRate returns the fraction of lookups served from cache.
func (s *CacheStats) GetHitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}

	return float64(s.Hits) / float64(total)
}

// CacheManager fronts a Cache backend with key construction, a caching
// policy, and hit/miss statistics.
type CacheManager struct {
	mu     sync.Mutex
	cache  Cache
	policy *CachingPolicy
	stats  CacheStats
}

// NewCacheManager creates a cache manager. A nil policy uses
// DefaultCachingPolicy.
func NewCacheManager(cache Cache, policy *CachingPolicy) *CacheManager {
	if policy == nil {
		policy = DefaultCachingPolicy()
	}

	return &CacheManager{
		cache:  cache,
		policy: policy,
	}
}

// Policy returns the caching policy.
func (m *CacheManager) Policy() *CachingPolicy {
	return m.policy
}

// GetCacheKey builds the cache key for a request.
func (m *CacheManager) GetCacheKey(method, requestURL string, params url.Values) string {
	key := method + ":" + requestURL
	if len(params) > 0 {
		key += ":" + params.Encode()
	}

	return key
}

// GetResponse returns a cached response, counting the hit or miss.
func (m *CacheManager) GetResponse(ctx context.Context, key string) (*Response, error) {
	entry, err := m.cache.Get(ctx, key)

	m.mu.Lock()
	if err != nil {
		m.stats.Misses++
	} else {
		m.stats.Hits++
	}
	m.mu.Unlock()

	if err != nil {
		return nil, err
	}

	headers := make(nethttp.Header)
	if entry.ContentType != "" {
		headers.Set("Content-Type", entry.ContentType)
	}

	if entry.ETag != "" {
		headers.Set("ETag", entry.ETag)
	}

	return &Response{
		StatusCode: entry.StatusCode,
		Headers:    headers,
		Body:       entry.Data,
	}, nil
}

// SetResponse stores a response under the key with the policy's TTL.
func (m *CacheManager) SetResponse(ctx context.Context, key string, resp *Response) error {
	entry := &CacheEntry{
		Data:        resp.Body,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header("Content-Type"),
		ETag:        resp.Header("ETag"),
		ExpiresAt:   time.Now().Add(m.policy.DefaultTTL),
	}

	err := m.cache.Set(ctx, key, entry)
	if err == nil {
		m.mu.Lock()
		m.stats.Sets++
		m.mu.Unlock()
	}

	return err
}

// GetStats returns a snapshot of the cache statistics.
func (m *CacheManager) GetStats() CacheStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stats
}
