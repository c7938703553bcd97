package airports

import (
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"flight-delay-dashboard/internal/models"
	"flight-delay-dashboard/pkg/client"

	"go.uber.org/zap"
)

// airports.dat column positions (OpenFlights fixed schema).
const (
	colName      = 1
	colCity      = 2
	colCountry   = 3
	colIATA      = 4
	colLatitude  = 6
	colLongitude = 7
	columnCount  = 14
)

// Directory is the process-wide airport lookup. It is loaded once from the
// OpenFlights reference dataset and refreshed on a bounded interval; between
// refreshes the mapping is immutable, so concurrent reads are cheap.
type Directory struct {
	client       *client.BaseClient
	sourceURL    string
	refreshEvery time.Duration
	logger       *zap.Logger

	mu       sync.RWMutex
	byCode   map[string]models.AirportInfo
	loadedAt time.Time
}

func NewDirectory(sourceURL string, refreshEvery time.Duration, config client.ClientConfig, logger *zap.Logger) *Directory {
	return &Directory{
		client:       client.NewBaseClient("openflights", config, logger),
		sourceURL:    sourceURL,
		refreshEvery: refreshEvery,
		logger:       logger,
		byCode:       make(map[string]models.AirportInfo),
	}
}

// Load fetches and parses the reference dataset. It fails soft: on any
// fetch or parse error the current mapping is kept (empty on first load)
// and a warning is logged. Callers treat absent codes as unknown, never
// as fatal.
func (d *Directory) Load(ctx context.Context) {
	data, err := d.client.GetWithRetry(ctx, d.sourceURL)
	if err != nil {
		d.logger.Warn("Failed to fetch airport reference dataset",
			zap.String("url", d.sourceURL),
			zap.Error(err))
		d.mu.Lock()
		d.loadedAt = time.Now()
		d.mu.Unlock()
		return
	}

	byCode, err := parseAirports(data)
	if err != nil {
		d.logger.Warn("Failed to parse airport reference dataset", zap.Error(err))
		d.mu.Lock()
		d.loadedAt = time.Now()
		d.mu.Unlock()
		return
	}

	d.mu.Lock()
	d.byCode = byCode
	d.loadedAt = time.Now()
	d.mu.Unlock()

	d.logger.Info("Airport directory loaded", zap.Int("airports", len(byCode)))
}

// Resolve is a pure lookup; it never errors.
func (d *Directory) Resolve(code string) (models.AirportInfo, bool) {
	d.mu.RLock()
	info, ok := d.byCode[code]
	d.mu.RUnlock()
	return info, ok
}

// RefreshIfStale reloads the dataset when the refresh interval has passed.
// Called by the scheduler alongside the flight-data refresh.
func (d *Directory) RefreshIfStale(ctx context.Context) {
	d.mu.RLock()
	stale := time.Since(d.loadedAt) >= d.refreshEvery
	d.mu.RUnlock()

	if stale {
		d.Load(ctx)
	}
}

// Size reports how many airports are currently loaded.
func (d *Directory) Size() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byCode)
}

// Options lists every airport formatted for a selector:
// "<name> - <city>, <country> (IATA)", sorted for stable output.
func (d *Directory) Options() []string {
	d.mu.RLock()
	options := make([]string, 0, len(d.byCode))
	for code, info := range d.byCode {
		options = append(options, fmt.Sprintf("%s (%s)", info.DisplayName, code))
	}
	d.mu.RUnlock()

	sort.Strings(options)
	return options
}

// CodeFromOption extracts the IATA code from a selector option produced by
// Options. Returns "" when the option carries no parenthesized code.
func CodeFromOption(option string) string {
	open := strings.LastIndex(option, "(")
	close := strings.LastIndex(option, ")")
	if open == -1 || close == -1 || close < open {
		return ""
	}
	return option[open+1 : close]
}

func parseAirports(data []byte) (map[string]models.AirportInfo, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading airports csv: %w", err)
	}

	byCode := make(map[string]models.AirportInfo, len(rows))
	for _, row := range rows {
		if len(row) < columnCount {
			continue
		}

		iata := row[colIATA]
		// \N is OpenFlights' null marker; entries without a valid IATA code
		// cannot be joined to flight records.
		if iata == "" || iata == `\N` {
			continue
		}

		lat, errLat := strconv.ParseFloat(row[colLatitude], 64)
		lon, errLon := strconv.ParseFloat(row[colLongitude], 64)
		if errLat != nil || errLon != nil {
			continue
		}

		byCode[iata] = models.AirportInfo{
			Code:        iata,
			Latitude:    lat,
			Longitude:   lon,
			DisplayName: fmt.Sprintf("%s - %s, %s", row[colName], row[colCity], row[colCountry]),
		}
	}

	return byCode, nil
}
