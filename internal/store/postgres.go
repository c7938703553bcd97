package store

import (
	"context"
	"fmt"
	"time"

	"flight-delay-dashboard/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RecordStore retrieves historical flight-prediction records. Both loaders
// recompute derived fields on every call; nothing derived is trusted from
// storage.
type RecordStore interface {
	LoadAll(ctx context.Context) ([]models.FlightRecord, error)
	LoadToday(ctx context.Context) ([]models.FlightRecord, error)
}

// AirportResolver is the subset of the airport directory the store needs
// for geo enrichment.
type AirportResolver interface {
	Resolve(code string) (models.AirportInfo, bool)
}

type PGRecordStore struct {
	db           *pgxpool.Pool
	airports     AirportResolver
	queryTimeout time.Duration
}

func NewRecordStore(db *pgxpool.Pool, airports AirportResolver, queryTimeout time.Duration) RecordStore {
	return &PGRecordStore{db: db, airports: airports, queryTimeout: queryTimeout}
}

const recordColumns = `companhia_aerea, origem_aeroporto, destino_aeroporto, data_partida, distancia_km, atraso_previsto`

func (s *PGRecordStore) LoadAll(ctx context.Context) ([]models.FlightRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT `+recordColumns+` FROM prediction_history ORDER BY data_partida`)
	if err != nil {
		return nil, fmt.Errorf("querying prediction history: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// LoadToday returns only today's records, with "today" evaluated in the
// store's timezone, and joins origin/destination against the airport
// directory for map rendering.
func (s *PGRecordStore) LoadToday(ctx context.Context) ([]models.FlightRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	rows, err := s.db.Query(ctx,
		`SELECT `+recordColumns+` FROM prediction_history WHERE DATE(data_partida) = CURRENT_DATE ORDER BY data_partida`)
	if err != nil {
		return nil, fmt.Errorf("querying today's prediction history: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}

	enrich(records, s.airports)
	return records, nil
}

type pgxRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows pgxRows) ([]models.FlightRecord, error) {
	records := make([]models.FlightRecord, 0)
	for rows.Next() {
		var r models.FlightRecord
		var delayed int
		if err := rows.Scan(&r.Carrier, &r.Origin, &r.Destination, &r.DepartureTime, &r.DistanceKM, &delayed); err != nil {
			return nil, fmt.Errorf("scanning prediction record: %w", err)
		}
		r.Delayed = delayed != 0
		r.Derive()
		records = append(records, r)
	}
	return records, rows.Err()
}

// enrich attaches coordinates and display names in place. Unknown codes
// leave the geo fields nil and fall back to the raw code as the name, the
// same degradation the map applies.
func enrich(records []models.FlightRecord, airports AirportResolver) {
	if airports == nil {
		return
	}
	for i := range records {
		r := &records[i]

		if info, ok := airports.Resolve(r.Origin); ok {
			lat, lon := info.Latitude, info.Longitude
			r.OriginLatitude = &lat
			r.OriginLongitude = &lon
			r.OriginName = info.DisplayName
		} else {
			r.OriginName = r.Origin
		}

		if info, ok := airports.Resolve(r.Destination); ok {
			lat, lon := info.Latitude, info.Longitude
			r.DestLatitude = &lat
			r.DestLongitude = &lon
			r.DestName = info.DisplayName
		} else {
			r.DestName = r.Destination
		}
	}
}

var _ RecordStore = (*PGRecordStore)(nil)
