package api

import (
	"errors"
	"net/http"

	service "github.com/civicgrid/foresight/internal/app"
)

// TrainHandler handles training and model-status requests.
type TrainHandler struct {
	deps Dependencies
}

// NewTrainHandler creates a new train handler.
func NewTrainHandler(deps Dependencies) *TrainHandler {
	return &TrainHandler{deps: deps}
}

type trainAck struct {
	Status string `json:"status"`
}

// HandleTrain handles POST /train requests. Training runs in the
// background; a pass already underway yields 409, not a queued run.
func (h *TrainHandler) HandleTrain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	err := h.deps.TrainAsync(r.Context())
	switch {
	case errors.Is(err, service.ErrTrainingInProgress):
		writeError(w, http.StatusConflict, "training_in_progress", err)
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "not_ready", err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, "training_failed", err)
	default:
		writeJSON(w, http.StatusAccepted, trainAck{Status: "training_started"})
	}
}

// HandleStatus handles GET /models/status requests.
func (h *TrainHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	status, err := h.deps.ModelStatus(r.Context())
	if err != nil {
		if errors.Is(err, service.ErrNotStarted) {
			writeError(w, http.StatusServiceUnavailable, "not_ready", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "status_failed", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}
