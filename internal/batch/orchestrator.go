package batch

import (
	"context"
	"fmt"
	"strings"

	"flight-delay-dashboard/internal/models"

	"go.uber.org/zap"
)

// Strategy selects how a batch reaches the predictor: one call per record
// or one call carrying the whole list. Both preserve input order.
type Strategy string

const (
	StrategySequential Strategy = "sequential"
	StrategyBulk       Strategy = "bulk"
)

// Predictor is the outbound interface to the prediction service.
type Predictor interface {
	Predict(ctx context.Context, req models.PredictionRequest) models.PredictionResult
	PredictBatch(ctx context.Context, reqs []models.PredictionRequest) ([]models.PredictionResult, error)
}

// ProgressFunc is called after each record in sequential mode.
type ProgressFunc func(done, total int)

// Orchestrator maps a collection of flight records to prediction outcomes.
// It always produces exactly one result per input, in input order; one
// record failing never aborts the rest. A whole-batch transport failure in
// bulk mode surfaces as a single error instead of fabricated per-record
// failures.
type Orchestrator struct {
	predictor Predictor
	strategy  Strategy
	logger    *zap.Logger
}

func NewOrchestrator(predictor Predictor, strategy Strategy, logger *zap.Logger) *Orchestrator {
	if strategy == "" {
		strategy = StrategySequential
	}
	return &Orchestrator{predictor: predictor, strategy: strategy, logger: logger}
}

// RequestFromRecord builds the predictor payload, normalizing the departure
// timestamp to seconds precision.
func RequestFromRecord(rec models.BatchRecord) models.PredictionRequest {
	return models.PredictionRequest{
		Carrier:     rec.Carrier,
		Origin:      rec.Origin,
		Destination: rec.Destination,
		Departure:   NormalizeTimestamp(rec.Departure),
		DistanceKM:  rec.DistanceKM,
	}
}

// NormalizeTimestamp pads a minute-precision ISO-8601 timestamp with ":00".
// Timestamps already carrying seconds pass through unchanged.
func NormalizeTimestamp(ts string) string {
	_, timePart, found := strings.Cut(ts, "T")
	if !found {
		return ts
	}
	if strings.Count(timePart, ":") == 1 {
		return ts + ":00"
	}
	return ts
}

// SubmitOne submits a single record. The result is always typed; nothing
// escapes as an error.
func (o *Orchestrator) SubmitOne(ctx context.Context, rec models.BatchRecord) models.PredictionResult {
	result := o.predictor.Predict(ctx, RequestFromRecord(rec))
	result.Index = 1
	return result
}

// Submit processes the whole collection with the configured strategy.
// Results are 1-indexed to match the exported report.
func (o *Orchestrator) Submit(ctx context.Context, recs []models.BatchRecord, progress ProgressFunc) ([]models.PredictionResult, error) {
	if len(recs) == 0 {
		return []models.PredictionResult{}, nil
	}

	switch o.strategy {
	case StrategyBulk:
		return o.submitBulk(ctx, recs)
	default:
		return o.submitSequential(ctx, recs, progress), nil
	}
}

func (o *Orchestrator) submitSequential(ctx context.Context, recs []models.BatchRecord, progress ProgressFunc) []models.PredictionResult {
	results := make([]models.PredictionResult, len(recs))
	failures := 0

	for i, rec := range recs {
		result := o.predictor.Predict(ctx, RequestFromRecord(rec))
		result.Index = i + 1
		results[i] = result

		if result.Status == models.PredictionFailure {
			failures++
		}
		if progress != nil {
			progress(i+1, len(recs))
		}
	}

	o.logger.Info("Batch submission completed",
		zap.Int("records", len(recs)),
		zap.Int("failures", failures))

	return results
}

func (o *Orchestrator) submitBulk(ctx context.Context, recs []models.BatchRecord) ([]models.PredictionResult, error) {
	reqs := make([]models.PredictionRequest, len(recs))
	for i, rec := range recs {
		reqs[i] = RequestFromRecord(rec)
	}

	results, err := o.predictor.PredictBatch(ctx, reqs)
	if err != nil {
		o.logger.Error("Bulk batch submission failed",
			zap.Int("records", len(recs)),
			zap.Error(err))
		return nil, fmt.Errorf("bulk submission of %d records: %w", len(recs), err)
	}

	for i := range results {
		results[i].Index = i + 1
	}
	return results, nil
}
