package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	masterdata "energy-monitor/internal/masterdata/domain"
	"energy-monitor/internal/observability/metrics"
)

// WorkCentersHandler serves the work-center tree.
type WorkCentersHandler struct {
	repo   masterdata.WorkCenterRepository
	logger zerolog.Logger
}

// NewWorkCentersHandler constructs a handler.
func NewWorkCentersHandler(repo masterdata.WorkCenterRepository, logger zerolog.Logger) (*WorkCentersHandler, error) {
	if repo == nil {
		return nil, errors.New("work centers handler: nil repository")
	}
	return &WorkCentersHandler{repo: repo, logger: logger}, nil
}

// ServeHTTP handles GET /api/v1/work-centers.
func (h *WorkCentersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	started := time.Now()
	centers, err := h.repo.FindAll(r.Context())
	metrics.ObserveQuery("work_centers", err, started)
	if err != nil {
		h.logger.Error().Err(err).Msg("work centers query failed")
		http.Error(w, "query work centers error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(centers)
}
