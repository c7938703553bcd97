package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"flight-delay-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) LoadAll(ctx context.Context) ([]models.FlightRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.FlightRecord), args.Error(1)
}

func (m *MockRecordStore) LoadToday(ctx context.Context) ([]models.FlightRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.FlightRecord), args.Error(1)
}

func newTestDataset(t *testing.T, store *MockRecordStore) *Dataset {
	t.Helper()
	cache := NewSnapshotCache(time.Minute, zap.NewNop())
	t.Cleanup(cache.Stop)
	return NewDataset(store, cache, zap.NewNop())
}

func TestDataset_SnapshotReady(t *testing.T) {
	mockStore := &MockRecordStore{}
	dataset := newTestDataset(t, mockStore)
	ctx := context.Background()

	records := sampleRecords()
	mockStore.On("LoadAll", mock.Anything).Return(records, nil).Once()

	got, state := dataset.Snapshot(ctx)

	assert.Equal(t, models.StateReady, state)
	assert.Equal(t, records, got)

	// Second call is served from cache; the store is not touched again.
	got, state = dataset.Snapshot(ctx)
	assert.Equal(t, models.StateReady, state)
	assert.Len(t, got, len(records))

	mockStore.AssertExpectations(t)
}

func TestDataset_SnapshotFailed(t *testing.T) {
	mockStore := &MockRecordStore{}
	dataset := newTestDataset(t, mockStore)

	mockStore.On("LoadAll", mock.Anything).Return(([]models.FlightRecord)(nil), errors.New("connection refused")).Once()

	got, state := dataset.Snapshot(context.Background())

	assert.Equal(t, models.StateFailed, state)
	assert.Empty(t, got)
	mockStore.AssertExpectations(t)
}

func TestDataset_TodayEmptyIsNotFailure(t *testing.T) {
	mockStore := &MockRecordStore{}
	dataset := newTestDataset(t, mockStore)

	mockStore.On("LoadToday", mock.Anything).Return([]models.FlightRecord{}, nil).Once()

	records, state := dataset.TodaySnapshot(context.Background())

	assert.Equal(t, models.StateEmpty, state)
	assert.Empty(t, records)

	// Downstream aggregations degrade to zero-filled output, not errors.
	assert.Empty(t, MapPoints(records))
	assert.Equal(t, StatusSplitResult{}, StatusSplit(records))
	assert.Equal(t, [7]int{}, DelaySumByWeekday(records))
	assert.Empty(t, HourlyDelayProfile(records))

	mockStore.AssertExpectations(t)
}

func TestDataset_RefreshInvalidatesCache(t *testing.T) {
	mockStore := &MockRecordStore{}
	dataset := newTestDataset(t, mockStore)
	ctx := context.Background()

	records := sampleRecords()
	mockStore.On("LoadAll", mock.Anything).Return(records, nil).Twice()
	mockStore.On("LoadToday", mock.Anything).Return([]models.FlightRecord{}, nil).Once()

	_, _ = dataset.Snapshot(ctx)

	allState, todayState := dataset.Refresh(ctx)

	assert.Equal(t, models.StateReady, allState)
	assert.Equal(t, models.StateEmpty, todayState)
	assert.False(t, dataset.LastRefresh().IsZero())
	mockStore.AssertExpectations(t)
}

func TestDataset_StateBeforeFirstLoad(t *testing.T) {
	dataset := newTestDataset(t, &MockRecordStore{})
	assert.Equal(t, models.StateLoading, dataset.State())
}

func TestSnapshotCache_TTLAndInvalidate(t *testing.T) {
	cache := NewSnapshotCache(time.Minute, zap.NewNop())
	defer cache.Stop()

	records := sampleRecords()
	cache.Set("k", records)

	got, ok := cache.Get("k")
	assert.True(t, ok)
	assert.Len(t, got, len(records))

	cache.Invalidate("k")
	_, ok = cache.Get("k")
	assert.False(t, ok)

	// An already-expired entry is a miss.
	cache.SetUntil("expired", records, time.Now().Add(-time.Second))
	_, ok = cache.Get("expired")
	assert.False(t, ok)
}

func TestSnapshotCache_SetCappedHonorsCap(t *testing.T) {
	cache := NewSnapshotCache(time.Hour, zap.NewNop())
	defer cache.Stop()

	cache.SetCapped("k", sampleRecords(), time.Now().Add(-time.Second))

	_, ok := cache.Get("k")
	assert.False(t, ok)
}
