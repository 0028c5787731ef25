package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	service "github.com/civicgrid/foresight/internal/app"
	"github.com/civicgrid/foresight/internal/domain/category"
)

// PredictHandler handles prediction requests.
type PredictHandler struct {
	deps Dependencies
}

// NewPredictHandler creates a new predict handler.
func NewPredictHandler(deps Dependencies) *PredictHandler {
	return &PredictHandler{deps: deps}
}

// predictRequest mirrors the JSON schema for POST /predict. The enrichment
// flags default to enabled when omitted.
type predictRequest struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Timeframe      string  `json:"timeframe"`
	RadiusKm       float64 `json:"radius_km"`
	IncludeWeather *bool   `json:"include_weather"`
	IncludeHistory *bool   `json:"include_history"`
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", fmt.Errorf("%w: %v", ErrBadRequest, err))
		return
	}
	tf, err := category.ParseTimeframe(req.Timeframe)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_timeframe", err)
		return
	}

	result, err := h.deps.Predict(r.Context(), service.PredictRequest{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Timeframe:      tf,
		RadiusKm:       req.RadiusKm,
		IncludeWeather: boolOrTrue(req.IncludeWeather),
		IncludeHistory: boolOrTrue(req.IncludeHistory),
	})
	if err != nil {
		writePredictError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func writePredictError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidLocation):
		writeError(w, http.StatusBadRequest, "invalid_location", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_ready", err)
	default:
		writeError(w, http.StatusInternalServerError, "prediction_failed", err)
	}
}

func boolOrTrue(b *bool) bool {
	if b == nil {
		return true
	}
	return *b
}
