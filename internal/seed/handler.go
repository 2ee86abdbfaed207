package seed

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Handler triggers a seed run over HTTP.
type Handler struct {
	seeder *Seeder
	logger zerolog.Logger
}

// NewHandler constructs a handler.
func NewHandler(seeder *Seeder, logger zerolog.Logger) *Handler {
	return &Handler{seeder: seeder, logger: logger}
}

// ServeHTTP handles POST /api/v1/seed.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h == nil || h.seeder == nil {
		http.Error(w, "seed not configured", http.StatusServiceUnavailable)
		return
	}

	report, err := h.seeder.Populate(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("seed run failed")
		http.Error(w, "seed error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(report)
}
