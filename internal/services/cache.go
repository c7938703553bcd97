package services

import (
	"sync"
	"time"

	"flight-delay-dashboard/internal/models"

	"go.uber.org/zap"
)

type cacheItem struct {
	records   []models.FlightRecord
	expiresAt time.Time
}

// SnapshotCache holds loaded record snapshots for a bounded time so repeated
// renders don't hammer the backing store. TTL is injectable and entries can
// be invalidated explicitly (the refresh path).
type SnapshotCache struct {
	mu              sync.RWMutex
	items           map[string]cacheItem
	logger          *zap.Logger
	defaultTTL      time.Duration
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
}

func NewSnapshotCache(defaultTTL time.Duration, logger *zap.Logger) *SnapshotCache {
	cache := &SnapshotCache{
		items:           make(map[string]cacheItem),
		logger:          logger,
		defaultTTL:      defaultTTL,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go cache.startCleanup()

	return cache
}

func (c *SnapshotCache) Set(key string, records []models.FlightRecord) {
	c.SetUntil(key, records, time.Now().Add(c.defaultTTL))
}

// SetCapped stores a snapshot with the default TTL, but never past cap
// (a "today" snapshot must not survive midnight).
func (c *SnapshotCache) SetCapped(key string, records []models.FlightRecord, cap time.Time) {
	expiresAt := time.Now().Add(c.defaultTTL)
	if cap.Before(expiresAt) {
		expiresAt = cap
	}
	c.SetUntil(key, records, expiresAt)
}

// SetUntil stores a snapshot with an explicit expiry.
func (c *SnapshotCache) SetUntil(key string, records []models.FlightRecord, expiresAt time.Time) {
	c.mu.Lock()
	c.items[key] = cacheItem{records: records, expiresAt: expiresAt}
	c.mu.Unlock()

	c.logger.Debug("Snapshot cached",
		zap.String("key", key),
		zap.Int("records", len(records)),
		zap.Time("expires_at", expiresAt))
}

func (c *SnapshotCache) Get(key string) ([]models.FlightRecord, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false
	}

	return item.records, true
}

// Invalidate drops the given keys, or everything when called without
// arguments.
func (c *SnapshotCache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(keys) == 0 {
		c.items = make(map[string]cacheItem)
		return
	}
	for _, key := range keys {
		delete(c.items, key)
	}
}

func (c *SnapshotCache) startCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *SnapshotCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	expiredCount := 0

	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned expired snapshots", zap.Int("count", expiredCount))
	}
}

func (c *SnapshotCache) Stop() {
	close(c.stopCleanup)
}

func (c *SnapshotCache) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"entries":     len(c.items),
		"default_ttl": c.defaultTTL.String(),
	}
}
