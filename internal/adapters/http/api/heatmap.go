package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	service "github.com/civicgrid/foresight/internal/app"
)

const defaultHeatmapResolution = 20

// HeatmapHandler handles heatmap rendering requests.
type HeatmapHandler struct {
	deps Dependencies
}

// NewHeatmapHandler creates a new heatmap handler.
func NewHeatmapHandler(deps Dependencies) *HeatmapHandler {
	return &HeatmapHandler{deps: deps}
}

// HandleHeatmap handles GET /visualization/heatmap requests.
// Query parameters: lat, lng (required), radius_km, resolution.
func (h *HeatmapHandler) HandleHeatmap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	q := r.URL.Query()
	lat, err := parseFloatParam(q.Get("lat"), "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_param", err)
		return
	}
	lng, err := parseFloatParam(q.Get("lng"), "lng")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_param", err)
		return
	}
	radius := 0.0
	if v := q.Get("radius_km"); v != "" {
		if radius, err = parseFloatParam(v, "radius_km"); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_param", err)
			return
		}
	}
	resolution := defaultHeatmapResolution
	if v := q.Get("resolution"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_param", fmt.Errorf("%w: resolution: %v", ErrBadRequest, err))
			return
		}
		resolution = n
	}

	hm, err := h.deps.Heatmap(r.Context(), lat, lng, radius, resolution)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidLocation):
			writeError(w, http.StatusBadRequest, "invalid_location", err)
		case errors.Is(err, service.ErrNotStarted):
			writeError(w, http.StatusServiceUnavailable, "not_ready", err)
		default:
			writeError(w, http.StatusInternalServerError, "heatmap_failed", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, hm)
}

func parseFloatParam(v, name string) (float64, error) {
	if v == "" {
		return 0, fmt.Errorf("%w: missing %s", ErrBadRequest, name)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBadRequest, name, err)
	}
	return f, nil
}
