package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"energy-monitor/internal/observability/metrics"
	telemetryapp "energy-monitor/internal/telemetry/application"
	telemetry "energy-monitor/internal/telemetry/domain"
)

// Handler serves measurement ingestion and queries.
type Handler struct {
	service *telemetryapp.MeasurementService
	logger  zerolog.Logger
}

// NewHandler constructs a handler.
func NewHandler(service *telemetryapp.MeasurementService, logger zerolog.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("measurements handler: nil service")
	}
	return &Handler{service: service, logger: logger}, nil
}

// Register mounts the measurement routes on the mux. The aggregated and
// statistics routes live in the analytics package and must be registered
// before this prefix route.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/measurements", h.collection)
	mux.HandleFunc("/api/v1/measurements/", h.subresource)
}

type ingestRequest struct {
	WorkCenter string  `json:"workCenter"`
	Area       string  `json:"area"`
	SensorID   string  `json:"sensorId"`
	Voltage    float64 `json:"voltage"`
	Current    float64 `json:"current"`
	Date       string  `json:"date"`
	Time       string  `json:"time"`
}

type validationError struct {
	Message []string `json:"message"`
	Error   string   `json:"error"`
	Status  int      `json:"statusCode"`
}

func (h *Handler) collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.ingest(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		metrics.IncIngestError("bad_json")
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	date, err := telemetryapp.CombineDateTime(req.Date, req.Time)
	if err != nil {
		metrics.IncIngestError("bad_date")
		writeValidationError(w, []string{"date and time must form a valid instant"})
		return
	}

	data := telemetry.IngestData{
		WorkCenter: req.WorkCenter,
		Area:       req.Area,
		SensorID:   req.SensorID,
		Voltage:    req.Voltage,
		Current:    req.Current,
		Date:       date,
	}

	measurement, err := h.service.Ingest(r.Context(), data)
	metrics.ObserveIngest(err, started)
	var invalid *telemetryapp.ValidationError
	if errors.As(err, &invalid) {
		writeValidationError(w, invalid.Fields)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("sensorId", req.SensorID).Msg("measurement ingest failed")
		http.Error(w, "create measurement error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, measurement)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	started := time.Now()
	page, err := h.service.FindMany(r.Context(), filter)
	metrics.ObserveQuery("measurements", err, started)
	if err != nil {
		h.logger.Error().Err(err).Msg("measurement listing failed")
		http.Error(w, "query measurements error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *Handler) subresource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/v1/measurements/")
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		h.findOne(w, r, parts[0])
	case len(parts) == 2 && parts[1] != "":
		h.listByScope(w, r, parts[0], parts[1])
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) findOne(w http.ResponseWriter, r *http.Request, id string) {
	started := time.Now()
	measurement, err := h.service.FindOne(r.Context(), id)
	metrics.ObserveQuery("measurement", err, started)
	if errors.Is(err, telemetry.ErrMeasurementNotFound) {
		http.Error(w, "measurement not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Str("id", id).Msg("measurement lookup failed")
		http.Error(w, "query measurement error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, measurement)
}

func (h *Handler) listByScope(w http.ResponseWriter, r *http.Request, scope, id string) {
	page, err := parsePage(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	started := time.Now()
	var result *telemetry.PaginatedMeasurements
	switch scope {
	case "sensor":
		result, err = h.service.FindBySensor(r.Context(), id, page)
	case "area":
		result, err = h.service.FindByArea(r.Context(), id, page)
	case "work-center":
		result, err = h.service.FindByWorkCenter(r.Context(), id, page)
	default:
		http.NotFound(w, r)
		return
	}
	metrics.ObserveQuery("measurements_"+scope, err, started)
	if err != nil {
		h.logger.Error().Err(err).Str("scope", scope).Str("id", id).Msg("scoped measurement listing failed")
		http.Error(w, "query measurements error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ParseFilter extracts the shared measurement filter from query params.
// Dates accept either a plain calendar day or a full RFC3339 instant.
func ParseFilter(r *http.Request) (telemetry.Filter, error) {
	return parseFilter(r)
}

func parseFilter(r *http.Request) (telemetry.Filter, error) {
	q := r.URL.Query()

	page, err := parsePage(q.Get("page"), q.Get("limit"))
	if err != nil {
		return telemetry.Filter{}, err
	}

	filter := telemetry.Filter{
		SensorID:     q.Get("sensorId"),
		AreaID:       q.Get("areaId"),
		WorkCenterID: q.Get("workCenterId"),
		Page:         page,
	}

	if raw := q.Get("startDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return telemetry.Filter{}, errors.New("startDate must be YYYY-MM-DD or RFC3339")
		}
		filter.StartDate = &t
	}
	if raw := q.Get("endDate"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return telemetry.Filter{}, errors.New("endDate must be YYYY-MM-DD or RFC3339")
		}
		filter.EndDate = &t
	}
	return filter, nil
}

func parsePage(rawPage, rawLimit string) (telemetry.Page, error) {
	page := telemetry.Page{}
	if rawPage != "" {
		n, err := strconv.Atoi(rawPage)
		if err != nil || n < 1 {
			return page, errors.New("page must be a positive integer")
		}
		page.Page = n
	}
	if rawLimit != "" {
		n, err := strconv.Atoi(rawLimit)
		if err != nil || n < 1 || n > telemetry.MaxLimit {
			return page, errors.New("limit must be between 1 and " + strconv.Itoa(telemetry.MaxLimit))
		}
		page.Limit = n
	}
	return page.Normalize(), nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}

func writeValidationError(w http.ResponseWriter, fields []string) {
	writeJSON(w, http.StatusBadRequest, validationError{
		Message: fields,
		Error:   "Bad Request",
		Status:  http.StatusBadRequest,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
