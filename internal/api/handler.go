package api

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"flight-delay-dashboard/internal/batch"
	"flight-delay-dashboard/internal/models"
	"flight-delay-dashboard/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Dataset is what the handlers need from the data pipeline.
type Dataset interface {
	Snapshot(ctx context.Context) ([]models.FlightRecord, models.DatasetState)
	TodaySnapshot(ctx context.Context) ([]models.FlightRecord, models.DatasetState)
	Refresh(ctx context.Context) (models.DatasetState, models.DatasetState)
	Stats() map[string]interface{}
}

// AirportLookup is the directory surface exposed over the API.
type AirportLookup interface {
	Resolve(code string) (models.AirportInfo, bool)
	Size() int
}

// Submitter forwards records to the prediction service.
type Submitter interface {
	SubmitOne(ctx context.Context, rec models.BatchRecord) models.PredictionResult
	Submit(ctx context.Context, recs []models.BatchRecord, progress batch.ProgressFunc) ([]models.PredictionResult, error)
}

type Handler struct {
	dataset      Dataset
	airports     AirportLookup
	orchestrator Submitter
	logger       *zap.Logger
}

func NewHandler(dataset Dataset, airports AirportLookup, orchestrator Submitter, logger *zap.Logger) *Handler {
	return &Handler{
		dataset:      dataset,
		airports:     airports,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// section wraps one widget's data with its dataset state so a failed widget
// degrades alone instead of blanking the page.
func section(state models.DatasetState, data interface{}) fiber.Map {
	return fiber.Map{"state": state, "data": data}
}

// GetDashboardToday handles GET /api/v1/dashboard/today
func (h *Handler) GetDashboardToday(c *fiber.Ctx) error {
	records, state := h.dataset.TodaySnapshot(c.Context())

	if state == models.StateFailed {
		h.logger.Warn("Today's dashboard rendering degraded", zap.String("state", string(state)))
	}

	return c.JSON(fiber.Map{
		"date":             time.Now().Format(models.DateLayout),
		"map_points":       section(state, services.MapPoints(records)),
		"status_split":     section(state, services.StatusSplit(records)),
		"problem_airports": section(state, services.DelayRateByAirport(records, 5)),
		"hourly_profile":   section(state, services.HourlyDelayProfile(records)),
	})
}

// GetDashboardSummary handles GET /api/v1/dashboard/summary
func (h *Handler) GetDashboardSummary(c *fiber.Ctx) error {
	records, state := h.dataset.Snapshot(c.Context())

	start := c.Query("start")
	end := c.Query("end")
	if err := validateDate(start); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validateDate(end); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	minDate, maxDate, _ := services.DateBounds(records)
	filtered := services.FilterByDateRange(records, start, end)
	filteredState := state
	if state == models.StateReady && len(filtered) == 0 {
		filteredState = models.StateEmpty
	}

	payload := fiber.Map{
		"date_bounds":    section(state, fiber.Map{"min": minDate, "max": maxDate}),
		"top_carriers":   section(filteredState, services.TopByCount(filtered, services.ByCarrier, 5)),
		"weekday_delays": section(filteredState, services.DelaySumByWeekday(filtered)),
		"route_delays":   section(filteredState, services.TopDelaySums(filtered, services.ByRoute, 5)),
		"hourly_delays":  section(filteredState, services.DelaySumByHour(filtered)),
		"top_routes":     section(filteredState, services.TopByCount(filtered, services.ByRoute, 5)),
		"carriers":       section(filteredState, services.Carriers(filtered)),
	}

	if carrier := c.Query("carrier"); carrier != "" {
		drilldown := services.FilterByCarrier(filtered, carrier)
		drilldownState := filteredState
		if filteredState == models.StateReady && len(drilldown) == 0 {
			drilldownState = models.StateEmpty
		}
		payload["carrier_drilldown"] = section(drilldownState, fiber.Map{
			"carrier":           carrier,
			"top_routes":        services.TopByCount(drilldown, services.ByRoute, 5),
			"route_delay_rates": services.DelayRateByRoute(drilldown, 5),
		})
	}

	return c.JSON(payload)
}

// PostRefresh handles POST /api/v1/refresh
func (h *Handler) PostRefresh(c *fiber.Ctx) error {
	allState, todayState := h.dataset.Refresh(c.Context())

	return c.JSON(fiber.Map{
		"all_state":   allState,
		"today_state": todayState,
	})
}

// GetAirport handles GET /api/v1/airports/:code
func (h *Handler) GetAirport(c *fiber.Ctx) error {
	code := strings.ToUpper(c.Params("code"))

	info, ok := h.airports.Resolve(code)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Unknown airport code",
			"code":  code,
		})
	}

	return c.JSON(info)
}

// PostPrediction handles POST /api/v1/predictions
func (h *Handler) PostPrediction(c *fiber.Ctx) error {
	var record models.BatchRecord
	if err := c.BodyParser(&record); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := record.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.logger.Info("Submitting prediction",
		zap.String("carrier", record.Carrier),
		zap.String("route", record.Origin+" -> "+record.Destination))

	result := h.orchestrator.SubmitOne(c.Context(), record)
	return c.JSON(result)
}

// PostBatchPredictions handles POST /api/v1/predictions/batch. The body is
// either a JSON array of records or a multipart upload with a "file" CSV
// field. With ?format=csv the results come back as the downloadable report.
func (h *Handler) PostBatchPredictions(c *fiber.Ctx) error {
	records, err := h.batchInput(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if len(records) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "No records submitted"})
	}
	for i, record := range records {
		if err := record.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("record %d: %v", i+1, err),
			})
		}
	}

	h.logger.Info("Submitting batch", zap.Int("records", len(records)))

	results, err := h.orchestrator.Submit(c.Context(), records, nil)
	if err != nil {
		// Whole-batch failure: report once, render nothing partial.
		h.logger.Error("Batch submission failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Batch prediction failed",
			"details": err.Error(),
		})
	}

	if c.Query("format") == "csv" {
		var buf bytes.Buffer
		if err := batch.WriteResults(&buf, results); err != nil {
			return fmt.Errorf("rendering results csv: %w", err)
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="previsoes_voos.csv"`)
		return c.Send(buf.Bytes())
	}

	return c.JSON(fiber.Map{
		"count":   len(results),
		"results": results,
	})
}

// ExportRecords handles GET /api/v1/export/records
func (h *Handler) ExportRecords(c *fiber.Ctx) error {
	records, state := h.dataset.Snapshot(c.Context())
	if state == models.StateFailed {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Flight data is unavailable",
		})
	}

	start := c.Query("start")
	end := c.Query("end")
	if err := validateDate(start); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if err := validateDate(end); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	filtered := services.FilterByDateRange(records, start, end)

	filename := fmt.Sprintf("voos_filtrados_%s_a_%s.csv", start, end)
	if start == "" && end == "" {
		filename = "voos_todos.csv"
	}

	return sendRecordsCSV(c, filtered, filename)
}

// ExportToday handles GET /api/v1/export/today
func (h *Handler) ExportToday(c *fiber.Ctx) error {
	records, state := h.dataset.TodaySnapshot(c.Context())
	if state == models.StateFailed {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "Flight data is unavailable",
		})
	}

	filename := fmt.Sprintf("voos_hoje_%s.csv", time.Now().Format("20060102"))
	return sendRecordsCSV(c, records, filename)
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "healthy",
		"timestamp": time.Now(),
		"uptime":    time.Since(startTime).String(),
		"dataset":   h.dataset.Stats(),
		"airports":  h.airports.Size(),
	})
}

// GetMetrics handles GET /api/v1/metrics
func (h *Handler) GetMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"metrics":   h.dataset.Stats(),
		"timestamp": time.Now(),
	})
}

func (h *Handler) batchInput(c *fiber.Ctx) ([]models.BatchRecord, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing csv upload field %q", "file")
		}
		file, err := fileHeader.Open()
		if err != nil {
			return nil, fmt.Errorf("opening uploaded file: %w", err)
		}
		defer file.Close()
		return batch.ReadRecords(file)
	}

	var records []models.BatchRecord
	if err := c.BodyParser(&records); err != nil {
		return nil, fmt.Errorf("invalid request body: expected a JSON array of records")
	}
	return records, nil
}

func sendRecordsCSV(c *fiber.Ctx, records []models.FlightRecord, filename string) error {
	var buf bytes.Buffer
	if err := batch.WriteRecords(&buf, records); err != nil {
		return fmt.Errorf("rendering records csv: %w", err)
	}

	c.Set(fiber.HeaderContentType, "text/csv")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(buf.Bytes())
}

func validateDate(value string) error {
	if value == "" {
		return nil
	}
	if _, err := time.Parse(models.DateLayout, value); err != nil {
		return fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
	}
	return nil
}

var startTime = time.Now()
