package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFlightRecord_Derive(t *testing.T) {
	r := FlightRecord{
		Carrier:       "AA",
		Origin:        "JFK",
		Destination:   "MIA",
		DepartureTime: time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC), // a Friday
	}

	r.Derive()

	assert.Equal(t, "2024-03-15", r.DateOnly)
	assert.Equal(t, 10, r.DepartureHour)
	assert.Equal(t, 5, r.DayOfWeek)
	assert.Equal(t, "JFK -> MIA", r.Route)
}

func TestFlightRecord_DeriveIdempotent(t *testing.T) {
	r := FlightRecord{
		Origin:        "LAX",
		Destination:   "SFO",
		DepartureTime: time.Date(2024, 7, 1, 23, 59, 59, 0, time.UTC),
	}

	r.Derive()
	first := r

	// Poison the derived fields as if stale values came back from storage.
	r.DateOnly = "1999-01-01"
	r.DepartureHour = -1
	r.DayOfWeek = -1
	r.Route = "bogus"
	r.Derive()

	assert.Equal(t, first.DateOnly, r.DateOnly)
	assert.Equal(t, first.DepartureHour, r.DepartureHour)
	assert.Equal(t, first.DayOfWeek, r.DayOfWeek)
	assert.Equal(t, first.Route, r.Route)
}

func TestFlightRecord_DeriveSundayIsZero(t *testing.T) {
	r := FlightRecord{DepartureTime: time.Date(2024, 3, 17, 8, 0, 0, 0, time.UTC)} // a Sunday
	r.Derive()
	assert.Equal(t, 0, r.DayOfWeek)
}

func TestBatchRecord_Validate(t *testing.T) {
	valid := BatchRecord{Carrier: "AA", Origin: "JFK", Destination: "MIA", Departure: "2024-03-15T10:30", DistanceKM: 1759}
	assert.NoError(t, valid.Validate())

	missing := valid
	missing.Origin = ""
	assert.Error(t, missing.Validate())
}
