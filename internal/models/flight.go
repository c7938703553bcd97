package models

import (
	"fmt"
	"time"
)

// DateLayout is the wire format for date-only fields.
const DateLayout = "2006-01-02"

type FlightRecord struct {
	Carrier       string    `json:"carrier"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	DistanceKM    float64   `json:"distance_km"`
	Delayed       bool      `json:"predicted_delay"`

	// Derived from DepartureTime; recomputed on every load, never read
	// back from storage.
	DateOnly      string `json:"date_only"`
	DepartureHour int    `json:"departure_hour"`
	DayOfWeek     int    `json:"day_of_week"` // 0=Sunday .. 6=Saturday
	Route         string `json:"route"`

	// Geo enrichment, present only on "today" loads. Nil when the airport
	// code is unknown to the directory.
	OriginLatitude  *float64 `json:"origin_latitude,omitempty"`
	OriginLongitude *float64 `json:"origin_longitude,omitempty"`
	OriginName      string   `json:"origin_name,omitempty"`
	DestLatitude    *float64 `json:"destination_latitude,omitempty"`
	DestLongitude   *float64 `json:"destination_longitude,omitempty"`
	DestName        string   `json:"destination_name,omitempty"`
}

// Derive recomputes all derived fields from DepartureTime. Safe to call
// repeatedly; the result depends only on the timestamp.
func (r *FlightRecord) Derive() {
	r.DateOnly = r.DepartureTime.Format(DateLayout)
	r.DepartureHour = r.DepartureTime.Hour()
	r.DayOfWeek = int(r.DepartureTime.Weekday())
	r.Route = r.Origin + " -> " + r.Destination
}

type AirportInfo struct {
	Code        string  `json:"code"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
}

// BatchRecord is one user-submitted flight, as uploaded or posted. The
// departure field stays a raw string until the orchestrator normalizes it.
type BatchRecord struct {
	Carrier     string  `json:"companhia"`
	Origin      string  `json:"origem_aeroporto"`
	Destination string  `json:"destino_aeroporto"`
	Departure   string  `json:"data_partida"`
	DistanceKM  float64 `json:"distancia_km"`
}

func (r BatchRecord) Validate() error {
	switch {
	case r.Carrier == "":
		return fmt.Errorf("companhia is required")
	case r.Origin == "":
		return fmt.Errorf("origem_aeroporto is required")
	case r.Destination == "":
		return fmt.Errorf("destino_aeroporto is required")
	case r.Departure == "":
		return fmt.Errorf("data_partida is required")
	}
	return nil
}

// PredictionRequest is exactly what the predictor accepts. Departure must
// already be ISO-8601 with seconds.
type PredictionRequest struct {
	Carrier     string  `json:"companhia"`
	Origin      string  `json:"origem_aeroporto"`
	Destination string  `json:"destino_aeroporto"`
	Departure   string  `json:"data_partida"`
	DistanceKM  float64 `json:"distancia_km"`
}

type PredictionStatus string

const (
	PredictionSuccess PredictionStatus = "success"
	PredictionFailure PredictionStatus = "failure"
)

// Failure kinds carried on PredictionResult.ErrorKind.
const (
	ErrValidationFailed = "validation_failed"
	ErrConnection       = "connection_error"
)

type InternalMetrics struct {
	HistoricalOriginRisk  float64 `json:"historical_origin_risk"`
	HistoricalCarrierRisk float64 `json:"historical_carrier_risk"`
	Source                string  `json:"source"`
}

// PredictionResult is the canonical per-record outcome, one per submitted
// record, in input order.
type PredictionResult struct {
	Index       int              `json:"flight_index"`
	Carrier     string           `json:"carrier"`
	Origin      string           `json:"origin"`
	Destination string           `json:"destination"`
	Status      PredictionStatus `json:"status"`
	Probability float64          `json:"probability,omitempty"`
	Message     string           `json:"message,omitempty"`
	Metrics     *InternalMetrics `json:"internal_metrics,omitempty"`
	ErrorKind   string           `json:"error_kind,omitempty"`
	RawDetail   string           `json:"raw_detail,omitempty"`
}

// DatasetState tells a consumer how to read a (possibly empty) snapshot:
// an empty ready/empty snapshot is "no data", a failed one is "fetch failed".
type DatasetState string

const (
	StateLoading DatasetState = "loading"
	StateEmpty   DatasetState = "empty"
	StateReady   DatasetState = "ready"
	StateFailed  DatasetState = "failed"
)
