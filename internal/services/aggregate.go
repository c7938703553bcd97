package services

import (
	"sort"

	"flight-delay-dashboard/internal/models"
)

// Pure aggregations over an in-memory snapshot. Deterministic, no store
// access, empty input yields empty or zero-filled output.

// Field selectors for the generic aggregations.
func ByCarrier(r models.FlightRecord) string { return r.Carrier }
func ByRoute(r models.FlightRecord) string   { return r.Route }
func ByOrigin(r models.FlightRecord) string  { return r.Origin }

// AirportTraffic counts how often each code appears as origin or
// destination. The sum over all codes is always twice the record count.
func AirportTraffic(records []models.FlightRecord) map[string]int {
	traffic := make(map[string]int)
	for _, r := range records {
		traffic[r.Origin]++
		traffic[r.Destination]++
	}
	return traffic
}

type AirportDelayRate struct {
	Airport string  `json:"airport"`
	Delays  int     `json:"total_delays"`
	Flights int     `json:"total_flights"`
	Rate    float64 `json:"rate"`
}

// DelayRateByAirport ranks origin airports by delay rate, descending,
// truncated to topN. Ties break on airport code so output is stable.
func DelayRateByAirport(records []models.FlightRecord, topN int) []AirportDelayRate {
	delays := make(map[string]int)
	flights := make(map[string]int)
	for _, r := range records {
		flights[r.Origin]++
		if r.Delayed {
			delays[r.Origin]++
		}
	}

	ranked := make([]AirportDelayRate, 0, len(flights))
	for airport, total := range flights {
		ranked = append(ranked, AirportDelayRate{
			Airport: airport,
			Delays:  delays[airport],
			Flights: total,
			Rate:    float64(delays[airport]) / float64(total),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Rate != ranked[j].Rate {
			return ranked[i].Rate > ranked[j].Rate
		}
		return ranked[i].Airport < ranked[j].Airport
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

type HourlyPoint struct {
	Hour    int     `json:"hour"`
	Delayed int     `json:"delayed"`
	OnTime  int     `json:"on_time"`
	RatePct float64 `json:"rate_pct"`
}

// HourlyDelayProfile groups records by departure hour, ascending. Only
// hours present in the input appear.
func HourlyDelayProfile(records []models.FlightRecord) []HourlyPoint {
	delayed := make(map[int]int)
	total := make(map[int]int)
	for _, r := range records {
		total[r.DepartureHour]++
		if r.Delayed {
			delayed[r.DepartureHour]++
		}
	}

	hours := make([]int, 0, len(total))
	for hour := range total {
		hours = append(hours, hour)
	}
	sort.Ints(hours)

	profile := make([]HourlyPoint, 0, len(hours))
	for _, hour := range hours {
		profile = append(profile, HourlyPoint{
			Hour:    hour,
			Delayed: delayed[hour],
			OnTime:  total[hour] - delayed[hour],
			RatePct: float64(delayed[hour]) / float64(total[hour]) * 100,
		})
	}
	return profile
}

type CountEntry struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// TopByCount is the generic "top N occurrences" used for carriers and
// routes. Descending by count, ties on value.
func TopByCount(records []models.FlightRecord, field func(models.FlightRecord) string, topN int) []CountEntry {
	counts := make(map[string]int)
	for _, r := range records {
		counts[field(r)]++
	}
	return topEntries(counts, topN)
}

// TopDelaySums is TopByCount's delay-weighted sibling: top N values by
// summed delay flags.
func TopDelaySums(records []models.FlightRecord, field func(models.FlightRecord) string, topN int) []CountEntry {
	return topEntries(DelaySumBy(records, field), topN)
}

func topEntries(counts map[string]int, topN int) []CountEntry {
	entries := make([]CountEntry, 0, len(counts))
	for value, count := range counts {
		entries = append(entries, CountEntry{Value: value, Count: count})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})

	if topN > 0 && len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

// DelaySumBy sums the delay flag per group value. Groups with zero delays
// still appear, with a zero sum.
func DelaySumBy(records []models.FlightRecord, field func(models.FlightRecord) string) map[string]int {
	sums := make(map[string]int)
	for _, r := range records {
		key := field(r)
		if r.Delayed {
			sums[key]++
		} else if _, seen := sums[key]; !seen {
			sums[key] = 0
		}
	}
	return sums
}

// DelaySumByWeekday always returns all seven days (0=Sunday .. 6=Saturday),
// zero-filled, because the weekday chart is a fixed 7-element series.
func DelaySumByWeekday(records []models.FlightRecord) [7]int {
	var sums [7]int
	for _, r := range records {
		if r.Delayed {
			sums[r.DayOfWeek]++
		}
	}
	return sums
}

type HourDelay struct {
	Hour   int `json:"hour"`
	Delays int `json:"delays"`
}

// DelaySumByHour sums delays per departure hour, hours present only,
// ascending.
func DelaySumByHour(records []models.FlightRecord) []HourDelay {
	sums := make(map[int]int)
	for _, r := range records {
		if r.Delayed {
			sums[r.DepartureHour]++
		} else if _, seen := sums[r.DepartureHour]; !seen {
			sums[r.DepartureHour] = 0
		}
	}

	hours := make([]int, 0, len(sums))
	for hour := range sums {
		hours = append(hours, hour)
	}
	sort.Ints(hours)

	out := make([]HourDelay, 0, len(hours))
	for _, hour := range hours {
		out = append(out, HourDelay{Hour: hour, Delays: sums[hour]})
	}
	return out
}

// FilterByDateRange keeps records whose date falls within [start, end],
// inclusive on both ends. Dates are DateLayout strings; empty bounds mean
// unbounded on that side.
func FilterByDateRange(records []models.FlightRecord, start, end string) []models.FlightRecord {
	filtered := make([]models.FlightRecord, 0, len(records))
	for _, r := range records {
		if start != "" && r.DateOnly < start {
			continue
		}
		if end != "" && r.DateOnly > end {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered
}

func FilterByCarrier(records []models.FlightRecord, carrier string) []models.FlightRecord {
	filtered := make([]models.FlightRecord, 0, len(records))
	for _, r := range records {
		if r.Carrier == carrier {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

type StatusSplitResult struct {
	Delayed int `json:"delayed"`
	OnTime  int `json:"on_time"`
}

func StatusSplit(records []models.FlightRecord) StatusSplitResult {
	var split StatusSplitResult
	for _, r := range records {
		if r.Delayed {
			split.Delayed++
		} else {
			split.OnTime++
		}
	}
	return split
}

type RouteDelayRate struct {
	Route   string  `json:"route"`
	Delays  int     `json:"total_delays"`
	Flights int     `json:"total_flights"`
	Rate    float64 `json:"rate"`
}

// DelayRateByRoute ranks routes by mean delay, descending, truncated to
// topN. Used for the per-carrier drilldown.
func DelayRateByRoute(records []models.FlightRecord, topN int) []RouteDelayRate {
	delays := make(map[string]int)
	flights := make(map[string]int)
	for _, r := range records {
		flights[r.Route]++
		if r.Delayed {
			delays[r.Route]++
		}
	}

	ranked := make([]RouteDelayRate, 0, len(flights))
	for route, total := range flights {
		ranked = append(ranked, RouteDelayRate{
			Route:   route,
			Delays:  delays[route],
			Flights: total,
			Rate:    float64(delays[route]) / float64(total),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Rate != ranked[j].Rate {
			return ranked[i].Rate > ranked[j].Rate
		}
		return ranked[i].Route < ranked[j].Route
	})

	if topN > 0 && len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}

// Carriers lists the distinct carriers in the snapshot, sorted.
func Carriers(records []models.FlightRecord) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Carrier] = struct{}{}
	}

	carriers := make([]string, 0, len(seen))
	for carrier := range seen {
		carriers = append(carriers, carrier)
	}
	sort.Strings(carriers)
	return carriers
}

// DateBounds returns the min and max record dates; ok is false for an
// empty snapshot.
func DateBounds(records []models.FlightRecord) (min, max string, ok bool) {
	for _, r := range records {
		if min == "" || r.DateOnly < min {
			min = r.DateOnly
		}
		if r.DateOnly > max {
			max = r.DateOnly
		}
	}
	return min, max, min != ""
}

type MapPoint struct {
	Airport   string  `json:"airport"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Total     int     `json:"total"`
}

// MapPoints builds one marker per airport seen in the snapshot, with its
// traffic total. Airports the directory could not geolocate are dropped
// rather than plotted at the origin.
func MapPoints(records []models.FlightRecord) []MapPoint {
	traffic := AirportTraffic(records)

	points := make(map[string]MapPoint)
	add := func(code, name string, lat, lon *float64) {
		if lat == nil || lon == nil {
			return
		}
		if _, exists := points[code]; exists {
			return
		}
		points[code] = MapPoint{
			Airport:   code,
			Name:      name,
			Latitude:  *lat,
			Longitude: *lon,
			Total:     traffic[code],
		}
	}

	for _, r := range records {
		add(r.Origin, r.OriginName, r.OriginLatitude, r.OriginLongitude)
		add(r.Destination, r.DestName, r.DestLatitude, r.DestLongitude)
	}

	out := make([]MapPoint, 0, len(points))
	for _, p := range points {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Airport < out[j].Airport })
	return out
}
