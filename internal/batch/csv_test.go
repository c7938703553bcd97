package batch

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"flight-delay-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRecords(t *testing.T) {
	input := strings.Join([]string{
		"companhia,origem_aeroporto,destino_aeroporto,data_partida,distancia_km",
		"AA,JFK,MIA,2024-03-15T10:30,1759",
		"DL,LAX,SFO,2024-03-16T14:20,543",
	}, "\n")

	records, err := ReadRecords(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.BatchRecord{
		Carrier: "AA", Origin: "JFK", Destination: "MIA",
		Departure: "2024-03-15T10:30", DistanceKM: 1759,
	}, records[0])
	assert.Equal(t, "DL", records[1].Carrier)
}

func TestReadRecords_ColumnOrderFree(t *testing.T) {
	input := strings.Join([]string{
		"distancia_km,companhia,data_partida,destino_aeroporto,origem_aeroporto,extra",
		"500,UA,2024-01-01T08:00,DEN,ORD,ignored",
	}, "\n")

	records, err := ReadRecords(strings.NewReader(input))

	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ORD", records[0].Origin)
	assert.Equal(t, "DEN", records[0].Destination)
	assert.Equal(t, 500.0, records[0].DistanceKM)
}

func TestReadRecords_MissingColumn(t *testing.T) {
	input := "companhia,origem_aeroporto,destino_aeroporto,data_partida\nAA,JFK,MIA,2024-03-15T10:30"

	_, err := ReadRecords(strings.NewReader(input))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "distancia_km")
}

func TestReadRecords_InvalidDistance(t *testing.T) {
	input := "companhia,origem_aeroporto,destino_aeroporto,data_partida,distancia_km\nAA,JFK,MIA,2024-03-15T10:30,abc"

	_, err := ReadRecords(strings.NewReader(input))
	require.Error(t, err)
}

func TestWriteResults(t *testing.T) {
	results := []models.PredictionResult{
		{
			Index: 1, Carrier: "AA", Origin: "JFK", Destination: "MIA",
			Status: models.PredictionSuccess, Probability: 0.8234,
		},
		{
			Index: 2, Carrier: "DL", Origin: "LAX", Destination: "SFO",
			Status: models.PredictionFailure, ErrorKind: models.ErrConnection,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteResults(&buf, results))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "flight_index,carrier,origin,destination,probability_pct,status", lines[0])
	assert.Equal(t, "1,AA,JFK,MIA,82.34,success", lines[1])
	assert.Equal(t, "2,DL,LAX,SFO,N/A,connection_error", lines[2])
}

func TestWriteRecords(t *testing.T) {
	record := models.FlightRecord{
		Carrier:       "AA",
		Origin:        "JFK",
		Destination:   "MIA",
		DepartureTime: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC),
		DistanceKM:    1759,
		Delayed:       true,
	}
	record.Derive()

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, []models.FlightRecord{record}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t,
		"carrier,origin,destination,departure_time,distance_km,predicted_delay,date_only,departure_hour,day_of_week,route",
		lines[0])
	assert.Equal(t, "AA,JFK,MIA,2024-03-15T10:30:00,1759,1,2024-03-15,10,5,JFK -> MIA", lines[1])
}
