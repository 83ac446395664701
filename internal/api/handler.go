package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/palma21/hotel-rating-fetcher/internal/completion"
	"github.com/palma21/hotel-rating-fetcher/internal/config"
	"github.com/palma21/hotel-rating-fetcher/internal/models"
	"github.com/palma21/hotel-rating-fetcher/internal/rating"
	"github.com/palma21/hotel-rating-fetcher/internal/settings"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const maxBodyBytes = 64 << 10

// RatingService is what the handlers need from the rating pipeline
type RatingService interface {
	FetchHotelRating(ctx context.Context, req models.RequestSpec, apiKey string) (*models.HotelRatingResult, error)
	ValidateAPIKey(ctx context.Context, apiKey string) error
	GetMetrics() string
}

// SettingsStore is what the handlers need from the settings store
type SettingsStore interface {
	Get() (models.Settings, error)
	SetAPIKey(apiKey string) error
	SetMode(mode string) error
}

// Handler serves the extension's requests
type Handler struct {
	config   *config.Config
	ratings  RatingService
	settings SettingsStore
	limiter  *rate.Limiter
}

// envelope mirrors the {success, data | error} messages the extension expects
type envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

type settingsView struct {
	APIKey    string `json:"apiKey"`
	APIKeySet bool   `json:"apiKeySet"`
	Mode      string `json:"mode"`
}

// NewHandler creates a new Handler
func NewHandler(cfg *config.Config, ratings RatingService, settingsStore SettingsStore) *Handler {
	return &Handler{
		config:   cfg,
		ratings:  ratings,
		settings: settingsStore,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst),
	}
}

// Router builds the HTTP routes
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(requestLogging)

	router.HandleFunc("/health", h.healthCheck).Methods("GET")
	router.HandleFunc("/metrics", h.metrics).Methods("GET")
	router.HandleFunc("/rating", rateLimited(h.limiter, h.fetchRating)).Methods("POST")
	router.HandleFunc("/settings", h.getSettings).Methods("GET")
	router.HandleFunc("/settings/mode", h.setMode).Methods("PUT")
	router.HandleFunc("/settings/api-key", h.setAPIKey).Methods("PUT")

	return router
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *Handler) metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(h.ratings.GetMetrics()))
}

func (h *Handler) fetchRating(w http.ResponseWriter, r *http.Request) {
	var req models.RequestSpec
	if err := decodeBody(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: "Invalid request body: " + err.Error()})
		return
	}

	apiKey, err := h.apiKey()
	if err != nil {
		logrus.Errorf("Failed to load settings for request %s: %v", RequestID(r.Context()), err)
		writeJSON(w, http.StatusInternalServerError, envelope{Error: "Failed to load settings"})
		return
	}

	result, err := h.ratings.FetchHotelRating(r.Context(), req, apiKey)
	if err != nil {
		writeJSON(w, statusFor(err), envelope{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: result})
}

// apiKey prefers the key saved through the settings endpoints
func (h *Handler) apiKey() (string, error) {
	saved, err := h.settings.Get()
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(saved.APIKey) != "" {
		return saved.APIKey, nil
	}
	return h.config.GeminiAPIKey, nil
}

func (h *Handler) getSettings(w http.ResponseWriter, r *http.Request) {
	saved, err := h.settings.Get()
	if err != nil {
		logrus.Errorf("Failed to load settings: %v", err)
		writeJSON(w, http.StatusInternalServerError, envelope{Error: "Failed to load settings"})
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true, Data: settingsView{
		APIKey:    settings.MaskKey(saved.APIKey),
		APIKeySet: saved.APIKey != "",
		Mode:      saved.Mode,
	}})
}

func (h *Handler) setMode(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Mode string `json:"mode"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: "Invalid request body: " + err.Error()})
		return
	}

	if err := h.settings.SetMode(body.Mode); err != nil {
		if errors.Is(err, settings.ErrInvalidMode) {
			writeJSON(w, http.StatusBadRequest, envelope{Error: err.Error()})
			return
		}
		logrus.Errorf("Failed to save mode: %v", err)
		writeJSON(w, http.StatusInternalServerError, envelope{Error: "Failed to save settings"})
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true})
}

// setAPIKey tests the key with a tiny prompt before saving it
func (h *Handler) setAPIKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"apiKey"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: "Invalid request body: " + err.Error()})
		return
	}

	apiKey := strings.TrimSpace(body.APIKey)
	if apiKey == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Error: "Please enter your Gemini API key"})
		return
	}

	if err := h.ratings.ValidateAPIKey(r.Context(), apiKey); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Error: "API key test failed: " + err.Error()})
		return
	}

	if err := h.settings.SetAPIKey(apiKey); err != nil {
		logrus.Errorf("Failed to save API key: %v", err)
		writeJSON(w, http.StatusInternalServerError, envelope{Error: "Failed to save settings"})
		return
	}

	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func statusFor(err error) int {
	var authErr *completion.AuthError
	switch {
	case errors.As(err, &authErr):
		return http.StatusUnauthorized
	case errors.Is(err, rating.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, completion.ErrAllCandidatesExhausted):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return decoder.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("Failed to encode response: %v", err)
	}
}
