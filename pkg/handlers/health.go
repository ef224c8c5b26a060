package handlers

import (
	"io"
	"net/http"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// StatusResponse describes the running service.
type StatusResponse struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Version       string `json:"version"`
	Environment   string `json:"environment"`
	GoVersion     string `json:"go_version"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

// HealthHandler serves the liveness probe and the status endpoint.
type HealthHandler struct {
	version string
	env     string
	started time.Time
	logger  *zap.Logger
}

// NewHealthHandler creates a HealthHandler. Uptime is measured from this call.
func NewHealthHandler(version, env string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		version: version,
		env:     env,
		started: time.Now(),
		logger:  logger,
	}
}

// RegisterRoutes registers the health handler's routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /status", h.Status)
}

// Health is the liveness probe. It reports reachability and nothing else, so
// load balancers never depend on downstream state.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, "ok")
}

// Status reports version and runtime information about the service.
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Status:        "ok",
		Service:       "rooftag-engine",
		Version:       h.version,
		Environment:   h.env,
		GoVersion:     runtime.Version(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	}
	if err := respond(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode status response", zap.Error(err))
	}
}
