// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	service "github.com/civicgrid/foresight/internal/app"
	"github.com/civicgrid/foresight/internal/domain/spatial"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Predict(ctx context.Context, req service.PredictRequest) (service.PredictResult, error)
	TrainAsync(ctx context.Context) error
	ModelStatus(ctx context.Context) (service.StatusResult, error)
	Heatmap(ctx context.Context, lat, lng, radiusKm float64, resolution int) (spatial.Heatmap, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	predictHandler *PredictHandler
	trainHandler   *TrainHandler
	heatmapHandler *HeatmapHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		predictHandler: NewPredictHandler(deps),
		trainHandler:   NewTrainHandler(deps),
		heatmapHandler: NewHeatmapHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/predict", MetricsMiddleware(s.predictHandler.HandlePredict, "predict"))
	mux.HandleFunc("/train", MetricsMiddleware(s.trainHandler.HandleTrain, "train"))
	mux.HandleFunc("/models/status", MetricsMiddleware(s.trainHandler.HandleStatus, "models_status"))
	mux.HandleFunc("/visualization/heatmap", MetricsMiddleware(s.heatmapHandler.HandleHeatmap, "heatmap"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
