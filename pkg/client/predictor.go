package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"flight-delay-dashboard/internal/models"

	"go.uber.org/zap"
)

// PredictorClient talks to the external delay-prediction service. It never
// returns an error from Predict: every outcome, including transport
// failures, is expressed as a typed PredictionResult.
type PredictorClient struct {
	*BaseClient
	baseURL string
}

func NewPredictorClient(baseURL string, config ClientConfig, logger *zap.Logger) *PredictorClient {
	return &PredictorClient{
		BaseClient: NewBaseClient("predictor", config, logger),
		baseURL:    baseURL,
	}
}

// predictionResponse accepts both upstream schemas; the backend answers in
// Portuguese or English depending on its version. canonical() is the single
// place where that drift is absorbed.
type predictionResponse struct {
	Probability   *float64        `json:"probability"`
	Probabilidade *float64        `json:"probabilidade"`
	Message       string          `json:"message"`
	Mensagem      string          `json:"mensagem"`
	Metrics       *metricsPayload `json:"internal_metrics"`
	Metricas      *metricsPayload `json:"metricas_internas"`
}

type metricsPayload struct {
	HistoricalOriginRisk  float64 `json:"historical_origin_risk"`
	HistoricalCarrierRisk float64 `json:"historical_carrier_risk"`
	Source                string  `json:"source"`
}

func (r predictionResponse) canonical() (float64, string, *models.InternalMetrics, error) {
	var probability float64
	switch {
	case r.Probability != nil:
		probability = *r.Probability
	case r.Probabilidade != nil:
		probability = *r.Probabilidade
	default:
		return 0, "", nil, fmt.Errorf("response carries no probability field")
	}

	message := r.Message
	if message == "" {
		message = r.Mensagem
	}

	payload := r.Metrics
	if payload == nil {
		payload = r.Metricas
	}
	var metrics *models.InternalMetrics
	if payload != nil {
		metrics = &models.InternalMetrics{
			HistoricalOriginRisk:  payload.HistoricalOriginRisk,
			HistoricalCarrierRisk: payload.HistoricalCarrierRisk,
			Source:                payload.Source,
		}
	}

	return probability, message, metrics, nil
}

// Predict submits a single request and maps the outcome to a canonical
// result: 200 -> success, 400 -> validation_failed, other statuses ->
// http_<code>, transport failures and unparseable bodies -> connection_error.
func (c *PredictorClient) Predict(ctx context.Context, req models.PredictionRequest) models.PredictionResult {
	result := models.PredictionResult{
		Carrier:     req.Carrier,
		Origin:      req.Origin,
		Destination: req.Destination,
	}

	status, body, err := c.PostJSON(ctx, c.baseURL+"/api/v1/predict", req)
	if err != nil {
		c.logger.Warn("Predictor request failed",
			zap.String("route", req.Origin+" -> "+req.Destination),
			zap.Error(err))
		result.Status = models.PredictionFailure
		result.ErrorKind = models.ErrConnection
		result.RawDetail = err.Error()
		return result
	}

	switch {
	case status == http.StatusOK:
		var response predictionResponse
		if err := json.Unmarshal(body, &response); err != nil {
			result.Status = models.PredictionFailure
			result.ErrorKind = models.ErrConnection
			result.RawDetail = fmt.Sprintf("malformed response: %v", err)
			return result
		}
		probability, message, metrics, err := response.canonical()
		if err != nil {
			result.Status = models.PredictionFailure
			result.ErrorKind = models.ErrConnection
			result.RawDetail = err.Error()
			return result
		}
		result.Status = models.PredictionSuccess
		result.Probability = probability
		result.Message = message
		result.Metrics = metrics
		return result

	case status == http.StatusBadRequest:
		result.Status = models.PredictionFailure
		result.ErrorKind = models.ErrValidationFailed
		result.RawDetail = string(body)
		return result

	default:
		result.Status = models.PredictionFailure
		result.ErrorKind = fmt.Sprintf("http_%d", status)
		result.RawDetail = string(body)
		return result
	}
}

// PredictBatch submits all requests in one call to the batch endpoint. The
// response list is order-aligned with the input. Any whole-call failure is
// returned as an error; callers must not fabricate per-record outcomes from
// it.
func (c *PredictorClient) PredictBatch(ctx context.Context, reqs []models.PredictionRequest) ([]models.PredictionResult, error) {
	status, body, err := c.PostJSON(ctx, c.baseURL+"/api/v1/predict/batch", reqs)
	if err != nil {
		return nil, fmt.Errorf("batch request failed: %w", err)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("batch request returned HTTP %d: %s", status, string(body))
	}

	var responses []predictionResponse
	if err := json.Unmarshal(body, &responses); err != nil {
		return nil, fmt.Errorf("malformed batch response: %w", err)
	}
	if len(responses) != len(reqs) {
		return nil, fmt.Errorf("batch response has %d entries for %d requests", len(responses), len(reqs))
	}

	results := make([]models.PredictionResult, len(responses))
	for i, response := range responses {
		result := models.PredictionResult{
			Carrier:     reqs[i].Carrier,
			Origin:      reqs[i].Origin,
			Destination: reqs[i].Destination,
		}
		probability, message, metrics, err := response.canonical()
		if err != nil {
			result.Status = models.PredictionFailure
			result.ErrorKind = models.ErrConnection
			result.RawDetail = err.Error()
		} else {
			result.Status = models.PredictionSuccess
			result.Probability = probability
			result.Message = message
			result.Metrics = metrics
		}
		results[i] = result
	}

	return results, nil
}
