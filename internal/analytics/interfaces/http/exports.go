package http

import (
	"context"
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	analyticsapp "energy-monitor/internal/analytics/application"
	analytics "energy-monitor/internal/analytics/domain"
	"energy-monitor/internal/analytics/interfaces"
	telemetry "energy-monitor/internal/telemetry/domain"
	telemetryhttp "energy-monitor/internal/telemetry/interfaces/http"
)

// MeasurementLister pages through filtered measurements for exports.
type MeasurementLister interface {
	FindMany(ctx context.Context, filter telemetry.Filter) (*telemetry.PaginatedMeasurements, error)
}

// ExportsHandler serves file downloads of measurements and analytics.
type ExportsHandler struct {
	measurements MeasurementLister
	analytics    *analyticsapp.AnalyticsService
	logger       zerolog.Logger
}

// NewExportsHandler constructs a handler.
func NewExportsHandler(measurements MeasurementLister, service *analyticsapp.AnalyticsService, logger zerolog.Logger) (*ExportsHandler, error) {
	if measurements == nil || service == nil {
		return nil, errors.New("exports handler: nil dependency")
	}
	return &ExportsHandler{measurements: measurements, analytics: service, logger: logger}, nil
}

// Register mounts the export routes on the mux.
func (h *ExportsHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/exports/measurements.csv", h.measurementsCSV)
	mux.HandleFunc("/api/v1/exports/aggregated.xlsx", h.aggregatedXLSX)
	mux.HandleFunc("/api/v1/exports/statistics.pdf", h.statisticsPDF)
}

func (h *ExportsHandler) measurementsCSV(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	filter, err := telemetryhttp.ParseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	filter.Page = telemetry.Page{Page: 1, Limit: telemetry.MaxLimit}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="measurements.csv"`)

	writer := csv.NewWriter(w)
	header := []string{"id", "date", "voltage", "current", "sensorId", "sensor", "area", "workCenter"}
	if err := writer.Write(header); err != nil {
		return
	}

	for {
		page, err := h.measurements.FindMany(r.Context(), filter)
		if err != nil {
			h.logger.Error().Err(err).Msg("measurement export failed")
			// Headers are already sent; flush what we have and stop.
			writer.Flush()
			return
		}
		for _, m := range page.Data {
			record := []string{
				m.ID,
				m.Date.UTC().Format(time.RFC3339),
				strconv.FormatFloat(m.Voltage, 'f', -1, 64),
				strconv.FormatFloat(m.Current, 'f', -1, 64),
				m.SensorID,
				"", "", "",
			}
			if m.Sensor != nil {
				record[5] = m.Sensor.SensorID
				record[6] = m.Sensor.Area.Name
				record[7] = m.Sensor.Area.WorkCenter.Name
			}
			if err := writer.Write(record); err != nil {
				return
			}
		}
		if !page.Meta.HasNextPage {
			break
		}
		filter.Page.Page++
	}
	writer.Flush()
}

func (h *ExportsHandler) aggregatedXLSX(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	filter, err := telemetryhttp.ParseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	aggregationType := r.URL.Query().Get("aggregationType")
	if aggregationType == "" {
		aggregationType = "hour"
	}

	buckets, err := h.analytics.Aggregate(r.Context(), filter, aggregationType)
	if errors.Is(err, analytics.ErrUnknownBucketWidth) {
		http.Error(w, "aggregationType must be one of 15min, hour, day, week", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("aggregated export failed")
		http.Error(w, "aggregated export error", http.StatusInternalServerError)
		return
	}

	payload, err := interfaces.BuildAggregatedXLSX(buckets, aggregationType)
	if err != nil {
		h.logger.Error().Err(err).Msg("xlsx rendering failed")
		http.Error(w, "aggregated export error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="aggregated.xlsx"`)
	_, _ = w.Write(payload)
}

func (h *ExportsHandler) statisticsPDF(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	filter, err := telemetryhttp.ParseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	stats, err := h.analytics.GetStatistics(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Msg("statistics export failed")
		http.Error(w, "statistics export error", http.StatusInternalServerError)
		return
	}

	payload, err := interfaces.BuildStatisticsPDF(stats, time.Now())
	if err != nil {
		h.logger.Error().Err(err).Msg("pdf rendering failed")
		http.Error(w, "statistics export error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="statistics.pdf"`)
	_, _ = w.Write(payload)
}
