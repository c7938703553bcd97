package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"flight-delay-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubPredictor fails individual calls for origins listed in failOrigins,
// and can fail the whole batch call.
type stubPredictor struct {
	failOrigins map[string]bool
	batchErr    error
	calls       []models.PredictionRequest
}

func (s *stubPredictor) Predict(ctx context.Context, req models.PredictionRequest) models.PredictionResult {
	s.calls = append(s.calls, req)

	if s.failOrigins[req.Origin] {
		return models.PredictionResult{
			Carrier:     req.Carrier,
			Origin:      req.Origin,
			Destination: req.Destination,
			Status:      models.PredictionFailure,
			ErrorKind:   models.ErrConnection,
			RawDetail:   "dial tcp: connection refused",
		}
	}
	return models.PredictionResult{
		Carrier:     req.Carrier,
		Origin:      req.Origin,
		Destination: req.Destination,
		Status:      models.PredictionSuccess,
		Probability: 0.42,
		Message:     "ok",
	}
}

func (s *stubPredictor) PredictBatch(ctx context.Context, reqs []models.PredictionRequest) ([]models.PredictionResult, error) {
	if s.batchErr != nil {
		return nil, s.batchErr
	}
	results := make([]models.PredictionResult, len(reqs))
	for i, req := range reqs {
		results[i] = s.Predict(ctx, req)
	}
	return results, nil
}

func batchRecords(n int) []models.BatchRecord {
	recs := make([]models.BatchRecord, n)
	for i := range recs {
		recs[i] = models.BatchRecord{
			Carrier:     "AA",
			Origin:      fmt.Sprintf("OR%d", i),
			Destination: "JFK",
			Departure:   "2024-03-15T10:30",
			DistanceKM:  100,
		}
	}
	return recs
}

func TestNormalizeTimestamp(t *testing.T) {
	assert.Equal(t, "2024-03-15T10:30:00", NormalizeTimestamp("2024-03-15T10:30"))
	assert.Equal(t, "2024-03-15T10:30:00", NormalizeTimestamp("2024-03-15T10:30:00"))
	assert.Equal(t, "2024-03-15", NormalizeTimestamp("2024-03-15"))
}

func TestRequestFromRecord_NormalizesDeparture(t *testing.T) {
	req := RequestFromRecord(models.BatchRecord{
		Carrier:     "DL",
		Origin:      "LAX",
		Destination: "SFO",
		Departure:   "2024-03-16T14:20",
		DistanceKM:  543,
	})

	assert.Equal(t, "2024-03-16T14:20:00", req.Departure)
	assert.Equal(t, "DL", req.Carrier)
	assert.Equal(t, 543.0, req.DistanceKM)
}

func TestSubmit_Sequential_OneResultPerRecord(t *testing.T) {
	predictor := &stubPredictor{failOrigins: map[string]bool{"OR2": true}}
	orchestrator := NewOrchestrator(predictor, StrategySequential, zap.NewNop())

	recs := batchRecords(5)
	results, err := orchestrator.Submit(context.Background(), recs, nil)

	require.NoError(t, err)
	require.Len(t, results, 5)

	for i, result := range results {
		assert.Equal(t, i+1, result.Index)
		assert.Equal(t, recs[i].Origin, result.Origin)
	}

	// Record 2 failed; everything after it still went through.
	assert.Equal(t, models.PredictionFailure, results[2].Status)
	assert.Equal(t, models.ErrConnection, results[2].ErrorKind)
	for _, i := range []int{0, 1, 3, 4} {
		assert.Equal(t, models.PredictionSuccess, results[i].Status)
	}
}

func TestSubmit_Sequential_ReportsProgress(t *testing.T) {
	predictor := &stubPredictor{}
	orchestrator := NewOrchestrator(predictor, StrategySequential, zap.NewNop())

	var seen []int
	_, err := orchestrator.Submit(context.Background(), batchRecords(3), func(done, total int) {
		assert.Equal(t, 3, total)
		seen = append(seen, done)
	})

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestSubmit_Bulk_OrderPreserved(t *testing.T) {
	predictor := &stubPredictor{}
	orchestrator := NewOrchestrator(predictor, StrategyBulk, zap.NewNop())

	recs := batchRecords(4)
	results, err := orchestrator.Submit(context.Background(), recs, nil)

	require.NoError(t, err)
	require.Len(t, results, 4)
	for i, result := range results {
		assert.Equal(t, i+1, result.Index)
		assert.Equal(t, recs[i].Origin, result.Origin)
	}
}

func TestSubmit_Bulk_WholeCallFailure(t *testing.T) {
	predictor := &stubPredictor{batchErr: errors.New("predictor unreachable")}
	orchestrator := NewOrchestrator(predictor, StrategyBulk, zap.NewNop())

	results, err := orchestrator.Submit(context.Background(), batchRecords(3), nil)

	// One batch-level failure, no fabricated per-record results.
	require.Error(t, err)
	assert.Nil(t, results)
}

func TestSubmit_EmptyInput(t *testing.T) {
	orchestrator := NewOrchestrator(&stubPredictor{}, StrategySequential, zap.NewNop())

	results, err := orchestrator.Submit(context.Background(), nil, nil)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSubmitOne(t *testing.T) {
	predictor := &stubPredictor{}
	orchestrator := NewOrchestrator(predictor, StrategySequential, zap.NewNop())

	result := orchestrator.SubmitOne(context.Background(), batchRecords(1)[0])

	assert.Equal(t, models.PredictionSuccess, result.Status)
	assert.Equal(t, 0.42, result.Probability)
	require.Len(t, predictor.calls, 1)
	assert.Equal(t, "2024-03-15T10:30:00", predictor.calls[0].Departure)
}
