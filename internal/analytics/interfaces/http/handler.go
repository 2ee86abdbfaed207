package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	analyticsapp "energy-monitor/internal/analytics/application"
	analytics "energy-monitor/internal/analytics/domain"
	"energy-monitor/internal/observability/metrics"
	telemetryhttp "energy-monitor/internal/telemetry/interfaces/http"
)

// AggregatedHandler serves time-bucketed aggregation queries.
type AggregatedHandler struct {
	service *analyticsapp.AnalyticsService
	logger  zerolog.Logger
}

// NewAggregatedHandler constructs a handler.
func NewAggregatedHandler(service *analyticsapp.AnalyticsService, logger zerolog.Logger) (*AggregatedHandler, error) {
	if service == nil {
		return nil, errors.New("aggregated handler: nil service")
	}
	return &AggregatedHandler{service: service, logger: logger}, nil
}

// ServeHTTP handles GET /api/v1/measurements/aggregated.
func (h *AggregatedHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
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

	started := time.Now()
	buckets, err := h.service.Aggregate(r.Context(), filter, aggregationType)
	metrics.ObserveQuery("aggregated", err, started)
	if errors.Is(err, analytics.ErrUnknownBucketWidth) {
		http.Error(w, "aggregationType must be one of 15min, hour, day, week", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("aggregationType", aggregationType).Msg("aggregation query failed")
		http.Error(w, "aggregate measurements error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(buckets)
}

// StatisticsHandler serves the global statistics summary.
type StatisticsHandler struct {
	service *analyticsapp.AnalyticsService
	logger  zerolog.Logger
}

// NewStatisticsHandler constructs a handler.
func NewStatisticsHandler(service *analyticsapp.AnalyticsService, logger zerolog.Logger) (*StatisticsHandler, error) {
	if service == nil {
		return nil, errors.New("statistics handler: nil service")
	}
	return &StatisticsHandler{service: service, logger: logger}, nil
}

// ServeHTTP handles GET /api/v1/statistics.
func (h *StatisticsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	filter, err := telemetryhttp.ParseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	started := time.Now()
	stats, err := h.service.GetStatistics(r.Context(), filter)
	metrics.ObserveQuery("statistics", err, started)
	if err != nil {
		h.logger.Error().Err(err).Msg("statistics query failed")
		http.Error(w, "statistics error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(stats)
}
