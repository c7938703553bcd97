package store

import (
	"errors"
	"testing"
	"time"

	"flight-delay-dashboard/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRows struct {
	rows [][]any
	pos  int
	err  error
}

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.rows) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	row := f.rows[f.pos-1]
	*dest[0].(*string) = row[0].(string)
	*dest[1].(*string) = row[1].(string)
	*dest[2].(*string) = row[2].(string)
	*dest[3].(*time.Time) = row[3].(time.Time)
	*dest[4].(*float64) = row[4].(float64)
	*dest[5].(*int) = row[5].(int)
	return nil
}

func (f *fakeRows) Err() error { return f.err }

type fakeResolver struct {
	airports map[string]models.AirportInfo
}

func (f *fakeResolver) Resolve(code string) (models.AirportInfo, bool) {
	info, ok := f.airports[code]
	return info, ok
}

func TestScanRecordsDerivesFields(t *testing.T) {
	rows := &fakeRows{rows: [][]any{
		{"AA", "JFK", "MIA", time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), 1759.0, 1},
		{"DL", "LAX", "SFO", time.Date(2024, 3, 17, 8, 0, 0, 0, time.UTC), 543.0, 0},
	}}

	records, err := scanRecords(rows)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.True(t, records[0].Delayed)
	assert.Equal(t, "2024-03-15", records[0].DateOnly)
	assert.Equal(t, 10, records[0].DepartureHour)
	assert.Equal(t, 5, records[0].DayOfWeek)
	assert.Equal(t, "JFK -> MIA", records[0].Route)

	assert.False(t, records[1].Delayed)
	assert.Equal(t, 0, records[1].DayOfWeek, "Sunday maps to zero")
}

func TestScanRecordsEmpty(t *testing.T) {
	records, err := scanRecords(&fakeRows{})
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestScanRecordsRowError(t *testing.T) {
	rows := &fakeRows{err: errors.New("connection reset")}
	_, err := scanRecords(rows)
	assert.Error(t, err)
}

func TestEnrich(t *testing.T) {
	resolver := &fakeResolver{airports: map[string]models.AirportInfo{
		"JFK": {
			Code:        "JFK",
			Latitude:    40.6398,
			Longitude:   -73.7789,
			DisplayName: "John F Kennedy International Airport - New York, United States",
		},
	}}

	records := []models.FlightRecord{
		{Carrier: "AA", Origin: "JFK", Destination: "ZZZ"},
	}
	enrich(records, resolver)

	r := records[0]
	require.NotNil(t, r.OriginLatitude)
	assert.InDelta(t, 40.6398, *r.OriginLatitude, 0.001)
	assert.Contains(t, r.OriginName, "Kennedy")

	assert.Nil(t, r.DestLatitude, "unknown codes stay without coordinates")
	assert.Equal(t, "ZZZ", r.DestName, "unknown codes fall back to the raw code")
}

func TestEnrichNilResolver(t *testing.T) {
	records := []models.FlightRecord{{Origin: "JFK", Destination: "MIA"}}
	assert.NotPanics(t, func() { enrich(records, nil) })
	assert.Empty(t, records[0].OriginName)
}
