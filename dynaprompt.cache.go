package dynaprompt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DetailLevel selects how far an Enhancer elaborates a prompt
type DetailLevel string

// Validate rejects unknown detail levels
func (d DetailLevel) Validate() error {
	switch d {
	case DetailLevelEnhanced, DetailLevelCinematic:
		return nil
	default:
		return NewConfigError(ErrMsgUnknownDetailLevel, "", nil)
	}
}

// EnhanceRequest identifies one persona rewrite of a prompt
type EnhanceRequest struct {
	Prompt      string      `json:"prompt"`
	DetailLevel DetailLevel `json:"detailLevel"`
	Style       string      `json:"style"`
}

// Enhancer rewrites a prompt in a director's voice. Implementations call
// out to a text model and are expensive.
type Enhancer interface {
	Enhance(ctx context.Context, req EnhanceRequest) (string, error)
}

// EnhancerFunc adapts a function to Enhancer
type EnhancerFunc func(ctx context.Context, req EnhanceRequest) (string, error)

// Enhance calls f
func (f EnhancerFunc) Enhance(ctx context.Context, req EnhanceRequest) (string, error) {
	return f(ctx, req)
}

// EnhancementCache holds enhanced prompts keyed by (prompt, detail level,
// style). Editing a prompt should be followed by Invalidate.
type EnhancementCache struct {
	mu        sync.RWMutex
	entries   map[string]*enhancementEntry
	config    EnhancementCacheConfig
	stats     EnhancementCacheStats
	evictList []string // insertion order for FIFO eviction
}

// enhancementEntry holds a cached rewrite with metadata.
type enhancementEntry struct {
	Result    string
	CreatedAt time.Time
	ExpiresAt time.Time
	HitCount  int
}

// EnhancementCacheConfig configures the enhancement cache.
type EnhancementCacheConfig struct {
	// TTL is how long rewrites are kept. Default: 30 minutes.
	TTL time.Duration

	// MaxEntries is the maximum number of cached rewrites. Default: 500.
	MaxEntries int
}

// EnhancementCacheStats tracks cache performance.
type EnhancementCacheStats struct {
	Hits          int64
	Misses        int64
	Evictions     int64
	Invalidations int64
	EntryCount    int
}

// DefaultEnhancementCacheConfig returns the default cache settings.
func DefaultEnhancementCacheConfig() EnhancementCacheConfig {
	return EnhancementCacheConfig{
		TTL:        DefaultEnhancementCacheTTL,
		MaxEntries: DefaultEnhancementCacheMaxEntries,
	}
}

// NewEnhancementCache creates an empty cache. Zero settings take defaults.
func NewEnhancementCache(config EnhancementCacheConfig) *EnhancementCache {
	if config.TTL <= 0 {
		config.TTL = DefaultEnhancementCacheTTL
	}
	if config.MaxEntries <= 0 {
		config.MaxEntries = DefaultEnhancementCacheMaxEntries
	}

	return &EnhancementCache{
		entries:   make(map[string]*enhancementEntry),
		config:    config,
		evictList: make([]string, 0, config.MaxEntries),
	}
}

// Get returns a cached rewrite if present and not expired.
func (c *EnhancementCache) Get(req EnhanceRequest) (string, bool) {
	key := enhancementKey(req)

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		c.stats.Misses++
		return "", false
	}

	if time.Now().After(entry.ExpiresAt) {
		delete(c.entries, key)
		c.stats.Misses++
		c.stats.EntryCount = len(c.entries)
		return "", false
	}

	entry.HitCount++
	c.stats.Hits++
	return entry.Result, true
}

// Set stores a rewrite, evicting the oldest entry when full.
func (c *EnhancementCache) Set(req EnhanceRequest, result string) {
	key := enhancementKey(req)
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, exists := c.entries[key]; exists {
		entry.Result = result
		entry.CreatedAt = now
		entry.ExpiresAt = now.Add(c.config.TTL)
		return
	}

	for len(c.entries) >= c.config.MaxEntries && len(c.evictList) > 0 {
		c.evictOldest()
	}

	c.entries[key] = &enhancementEntry{
		Result:    result,
		CreatedAt: now,
		ExpiresAt: now.Add(c.config.TTL),
	}
	c.evictList = append(c.evictList, key)
	c.stats.EntryCount = len(c.entries)
}

// Invalidate drops every rewrite of the prompt, across all detail levels
// and styles. Returns the number of entries removed.
func (c *EnhancementCache) Invalidate(prompt string) int {
	prefix := promptHash(prompt) + keySeparator

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			removed++
		}
	}
	c.stats.Invalidations += int64(removed)
	c.stats.EntryCount = len(c.entries)
	return removed
}

// Clear removes all entries.
func (c *EnhancementCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*enhancementEntry)
	c.evictList = make([]string, 0, c.config.MaxEntries)
	c.stats.EntryCount = 0
}

// Len returns the number of cached entries, expired ones included
func (c *EnhancementCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns current cache statistics.
func (c *EnhancementCache) Stats() EnhancementCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// HitRate returns the cache hit rate (0.0 to 1.0).
func (c *EnhancementCache) HitRate() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := c.stats.Hits + c.stats.Misses
	if total == 0 {
		return 0
	}
	return float64(c.stats.Hits) / float64(total)
}

// Cleanup removes expired entries and returns how many were dropped.
func (c *EnhancementCache) Cleanup() int {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.ExpiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	c.stats.EntryCount = len(c.entries)
	return removed
}

// evictOldest removes the oldest live entry. Keys already removed by
// Invalidate or expiry are skipped.
func (c *EnhancementCache) evictOldest() {
	for len(c.evictList) > 0 {
		oldestKey := c.evictList[0]
		c.evictList = c.evictList[1:]
		if _, exists := c.entries[oldestKey]; exists {
			delete(c.entries, oldestKey)
			c.stats.Evictions++
			return
		}
	}
}

const keySeparator = ":"

// enhancementKey is "<prompt hash>:<detail level>:<style>"
func enhancementKey(req EnhanceRequest) string {
	return promptHash(req.Prompt) + keySeparator + string(req.DetailLevel) + keySeparator + req.Style
}

// promptHash uses the first 8 bytes of a SHA-256 digest
func promptHash(prompt string) string {
	hash := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(hash[:8])
}

// CachedEnhancer wraps an Enhancer with an EnhancementCache. Concurrent
// identical requests share one upstream call.
type CachedEnhancer struct {
	enhancer Enhancer
	cache    *EnhancementCache
	group    singleflight.Group
	logger   *zap.Logger
	metrics  *Metrics
}

// NewCachedEnhancer creates a caching wrapper. A nil cache gets defaults.
func NewCachedEnhancer(enhancer Enhancer, cache *EnhancementCache, logger *zap.Logger) (*CachedEnhancer, error) {
	if enhancer == nil {
		return nil, NewConfigError(ErrMsgEnhancerNil, "", nil)
	}
	if cache == nil {
		cache = NewEnhancementCache(DefaultEnhancementCacheConfig())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedEnhancer{
		enhancer: enhancer,
		cache:    cache,
		logger:   logger,
	}, nil
}

// WithMetrics records cache hits and misses on m
func (ce *CachedEnhancer) WithMetrics(m *Metrics) *CachedEnhancer {
	ce.metrics = m
	return ce
}

// Enhance returns a cached rewrite or asks the wrapped Enhancer.
func (ce *CachedEnhancer) Enhance(ctx context.Context, req EnhanceRequest) (string, error) {
	if err := req.DetailLevel.Validate(); err != nil {
		return "", err
	}

	if result, ok := ce.cache.Get(req); ok {
		ce.logger.Debug(LogMsgEnhancementHit,
			zap.String(LogFieldDetailLevel, string(req.DetailLevel)),
			zap.String(LogFieldStyle, req.Style))
		ce.metrics.observeEnhancement(true)
		return result, nil
	}
	ce.metrics.observeEnhancement(false)
	ce.logger.Debug(LogMsgEnhancementMiss,
		zap.String(LogFieldDetailLevel, string(req.DetailLevel)),
		zap.String(LogFieldStyle, req.Style))

	v, err, _ := ce.group.Do(enhancementKey(req), func() (any, error) {
		result, err := ce.enhancer.Enhance(ctx, req)
		if err != nil {
			return "", err
		}
		ce.cache.Set(req, result)
		return result, nil
	})
	if err != nil {
		ce.logger.Warn(LogMsgEnhancementFailed, zap.Error(err))
		return "", NewEnhancementError(err)
	}
	return v.(string), nil
}

// Invalidate drops cached rewrites of an edited prompt
func (ce *CachedEnhancer) Invalidate(prompt string) int {
	removed := ce.cache.Invalidate(prompt)
	ce.logger.Debug(LogMsgCacheInvalidated, zap.Int(LogFieldCount, removed))
	return removed
}

// Cache returns the underlying cache
func (ce *CachedEnhancer) Cache() *EnhancementCache {
	return ce.cache
}
