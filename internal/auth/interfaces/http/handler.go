package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"energy-monitor/internal/audit"
	"energy-monitor/internal/auth"
)

// Handler serves sign-up, sign-in, and API key management.
type Handler struct {
	service *auth.Service
	auditor audit.Logger
	logger  zerolog.Logger
}

// NewHandler constructs an auth handler. auditor may be nil.
func NewHandler(service *auth.Service, auditor audit.Logger, logger zerolog.Logger) (*Handler, error) {
	if service == nil {
		return nil, errors.New("auth handler: nil service")
	}
	return &Handler{service: service, auditor: auditor, logger: logger}, nil
}

// Register mounts the auth routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/v1/auth/sign-up", h.signUp)
	mux.HandleFunc("/api/v1/auth/sign-in", h.signIn)
	mux.HandleFunc("/api/v1/auth/api-keys", h.apiKeys)
	mux.HandleFunc("/api/v1/auth/api-keys/", h.apiKeyByID)
}

type signUpRequest struct {
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Password string `json:"password"`
}

func (h *Handler) signUp(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.Email == "" || req.Password == "" {
		http.Error(w, "email and password are required", http.StatusBadRequest)
		return
	}

	session, err := h.service.SignUp(r.Context(), req.Email, req.FullName, req.Password)
	if errors.Is(err, auth.ErrEmailTaken) {
		http.Error(w, "email already registered", http.StatusConflict)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("sign-up failed")
		http.Error(w, "sign-up error", http.StatusInternalServerError)
		return
	}

	h.auditLog(r, session.User.ID, "auth.sign_up", "user", session.User.ID)
	writeJSON(w, http.StatusCreated, session)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	session, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("sign-in failed")
		http.Error(w, "sign-in error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, session)
}

type createAPIKeyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (h *Handler) apiKeys(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	switch r.Method {
	case http.MethodPost:
		var req createAPIKeyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if req.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}

		key, err := h.service.GenerateAPIKey(r.Context(), userID, req.Name, req.Description)
		if err != nil {
			h.logger.Error().Err(err).Msg("api key generation failed")
			http.Error(w, "generate api key error", http.StatusInternalServerError)
			return
		}
		h.auditLog(r, userID, "auth.api_key_created", "api_key", key.ID)
		writeJSON(w, http.StatusCreated, key)

	case http.MethodGet:
		keys, err := h.service.ListAPIKeys(r.Context(), userID)
		if err != nil {
			h.logger.Error().Err(err).Msg("api key listing failed")
			http.Error(w, "list api keys error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, keys)

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) apiKeyByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/v1/auth/api-keys/")
	if id == "" || strings.Contains(id, "/") {
		http.Error(w, "invalid api key id", http.StatusBadRequest)
		return
	}

	owned, err := h.service.ListAPIKeys(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).Msg("api key listing failed")
		http.Error(w, "deactivate api key error", http.StatusInternalServerError)
		return
	}
	var found bool
	for _, k := range owned {
		if k.ID == id {
			found = true
			break
		}
	}
	if !found {
		// Other users' key ids look the same as unknown ids.
		http.Error(w, "api key not found", http.StatusNotFound)
		return
	}

	key, err := h.service.DeactivateAPIKey(r.Context(), id)
	if errors.Is(err, auth.ErrAPIKeyNotFound) {
		http.Error(w, "api key not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("api key deactivation failed")
		http.Error(w, "deactivate api key error", http.StatusInternalServerError)
		return
	}

	h.auditLog(r, userID, "auth.api_key_deactivated", "api_key", key.ID)
	writeJSON(w, http.StatusOK, key)
}

func (h *Handler) auditLog(r *http.Request, actor, action, resourceType, resourceID string) {
	if h.auditor == nil {
		return
	}
	entry := audit.Entry{
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IP:           r.RemoteAddr,
		UserAgent:    r.UserAgent(),
	}
	if err := h.auditor.Log(r.Context(), entry); err != nil {
		h.logger.Warn().Err(err).Str("action", action).Msg("audit log write failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
