package services

import (
	"context"
	"sync"
	"time"

	"flight-delay-dashboard/internal/models"
	"flight-delay-dashboard/internal/store"

	"go.uber.org/zap"
)

const (
	keyAll   = "records:all"
	keyToday = "records:today"
)

// Dataset is the data-refresh pipeline: it owns the store and the snapshot
// cache and turns every load into an explicit (records, state) pair. Callers
// switch on the state instead of guessing whether an empty slice means "no
// data" or "fetch failed".
type Dataset struct {
	store  store.RecordStore
	cache  *SnapshotCache
	logger *zap.Logger

	mu           sync.RWMutex
	lastState    models.DatasetState
	lastRefresh  time.Time
	successCount int
	failureCount int
}

func NewDataset(recordStore store.RecordStore, cache *SnapshotCache, logger *zap.Logger) *Dataset {
	return &Dataset{
		store:     recordStore,
		cache:     cache,
		logger:    logger,
		lastState: models.StateLoading,
	}
}

// Snapshot returns the all-time records. A store failure degrades to an
// empty slice with StateFailed; it never propagates an error upward.
func (d *Dataset) Snapshot(ctx context.Context) ([]models.FlightRecord, models.DatasetState) {
	if cached, ok := d.cache.Get(keyAll); ok {
		return cached, stateOf(cached)
	}

	records, err := d.store.LoadAll(ctx)
	if err != nil {
		d.logger.Error("Failed to load flight records", zap.Error(err))
		d.noteResult(models.StateFailed)
		return nil, models.StateFailed
	}

	d.cache.Set(keyAll, records)
	state := stateOf(records)
	d.noteResult(state)
	return records, state
}

// TodaySnapshot returns today's records. The cache entry never outlives the
// day it was taken on; "today" is a moving target.
func (d *Dataset) TodaySnapshot(ctx context.Context) ([]models.FlightRecord, models.DatasetState) {
	if cached, ok := d.cache.Get(keyToday); ok {
		return cached, stateOf(cached)
	}

	records, err := d.store.LoadToday(ctx)
	if err != nil {
		d.logger.Error("Failed to load today's flight records", zap.Error(err))
		d.noteResult(models.StateFailed)
		return nil, models.StateFailed
	}

	d.cache.SetCapped(keyToday, records, todayExpiry(time.Now()))
	state := stateOf(records)
	d.noteResult(state)
	return records, state
}

// Refresh invalidates both snapshots and reloads them. This is the refresh
// button and the scheduler entry point; a stale in-flight render simply
// keeps its old snapshot.
func (d *Dataset) Refresh(ctx context.Context) (models.DatasetState, models.DatasetState) {
	d.cache.Invalidate(keyAll, keyToday)

	_, allState := d.Snapshot(ctx)
	_, todayState := d.TodaySnapshot(ctx)

	d.mu.Lock()
	d.lastRefresh = time.Now()
	d.mu.Unlock()

	d.logger.Info("Dataset refreshed",
		zap.String("all_state", string(allState)),
		zap.String("today_state", string(todayState)))

	return allState, todayState
}

// State reports the most recent load outcome; StateLoading until the first
// load completes.
func (d *Dataset) State() models.DatasetState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastState
}

func (d *Dataset) LastRefresh() time.Time {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.lastRefresh
}

func (d *Dataset) Stats() map[string]interface{} {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return map[string]interface{}{
		"state":         string(d.lastState),
		"last_refresh":  d.lastRefresh,
		"success_count": d.successCount,
		"failure_count": d.failureCount,
		"cache":         d.cache.Stats(),
	}
}

func (d *Dataset) noteResult(state models.DatasetState) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.lastState = state
	if state == models.StateFailed {
		d.failureCount++
	} else {
		d.successCount++
	}
}

func stateOf(records []models.FlightRecord) models.DatasetState {
	if len(records) == 0 {
		return models.StateEmpty
	}
	return models.StateReady
}

// todayExpiry caps a today-snapshot at local midnight.
func todayExpiry(now time.Time) time.Time {
	year, month, day := now.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, now.Location()).Add(24 * time.Hour)
}
