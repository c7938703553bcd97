package batch

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"flight-delay-dashboard/internal/models"
)

var requiredColumns = []string{
	"companhia", "origem_aeroporto", "destino_aeroporto", "data_partida", "distancia_km",
}

// ReadRecords parses an uploaded batch file. The header must contain the
// five required columns; extra columns are ignored and column order is
// free.
func ReadRecords(r io.Reader) ([]models.BatchRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, column := range header {
		index[column] = i
	}
	for _, column := range requiredColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("csv is missing required column %q", column)
		}
	}

	var records []models.BatchRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line+1, err)
		}
		line++

		distance, err := strconv.ParseFloat(row[index["distancia_km"]], 64)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: invalid distancia_km %q", line, row[index["distancia_km"]])
		}

		records = append(records, models.BatchRecord{
			Carrier:     row[index["companhia"]],
			Origin:      row[index["origem_aeroporto"]],
			Destination: row[index["destino_aeroporto"]],
			Departure:   row[index["data_partida"]],
			DistanceKM:  distance,
		})
	}

	return records, nil
}

// WriteResults writes the per-flight prediction report, one row per
// submitted record in submission order.
func WriteResults(w io.Writer, results []models.PredictionResult) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{
		"flight_index", "carrier", "origin", "destination", "probability_pct", "status",
	}); err != nil {
		return fmt.Errorf("writing results header: %w", err)
	}

	for _, result := range results {
		probability := "N/A"
		status := string(result.Status)
		if result.Status == models.PredictionSuccess {
			probability = fmt.Sprintf("%.2f", result.Probability*100)
		} else if result.ErrorKind != "" {
			status = result.ErrorKind
		}

		if err := writer.Write([]string{
			strconv.Itoa(result.Index),
			result.Carrier,
			result.Origin,
			result.Destination,
			probability,
			status,
		}); err != nil {
			return fmt.Errorf("writing result row %d: %w", result.Index, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteRecords exports historical records for the dashboard download
// buttons.
func WriteRecords(w io.Writer, records []models.FlightRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{
		"carrier", "origin", "destination", "departure_time", "distance_km",
		"predicted_delay", "date_only", "departure_hour", "day_of_week", "route",
	}); err != nil {
		return fmt.Errorf("writing records header: %w", err)
	}

	for i, r := range records {
		delayed := "0"
		if r.Delayed {
			delayed = "1"
		}

		if err := writer.Write([]string{
			r.Carrier,
			r.Origin,
			r.Destination,
			r.DepartureTime.Format("2006-01-02T15:04:05"),
			strconv.FormatFloat(r.DistanceKM, 'f', -1, 64),
			delayed,
			r.DateOnly,
			strconv.Itoa(r.DepartureHour),
			strconv.Itoa(r.DayOfWeek),
			r.Route,
		}); err != nil {
			return fmt.Errorf("writing record row %d: %w", i+1, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
