package handlers

import (
	"net/http"
	"os"
	"runtime"

	"go.uber.org/zap"

	"github.com/ekaya-inc/food-agent/pkg/config"
)

// HealthResponse is the body of GET /health and GET /ready.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// PingResponse describes the running service.
type PingResponse struct {
	Status        string `json:"status"`
	Version       string `json:"version"`
	Service       string `json:"service"`
	GoVersion     string `json:"go_version"`
	Hostname      string `json:"hostname"`
	Environment   string `json:"environment"`
	DataDirSource string `json:"data_dir_source"`
	AdminAPI      bool   `json:"admin_api"`
}

// HealthHandler serves the unauthenticated liveness, readiness and ping endpoints.
type HealthHandler struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewHealthHandler(cfg *config.Config, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{cfg: cfg, logger: logger}
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)
	mux.HandleFunc("GET /ping", h.Ping)
}

// Health reports that the process is up. It never touches the data root.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.write(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Ready reports whether the data root is a usable directory. The directory is
// created on first use, so a missing one whose parent is writable is still ready.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := os.MkdirAll(h.cfg.DataDir, 0o755); err != nil {
		h.logger.Warn("Data root unavailable", zap.String("data_dir", h.cfg.DataDir), zap.Error(err))
		h.write(w, http.StatusServiceUnavailable, HealthResponse{
			Status:  "unavailable",
			Message: "Data directory is not accessible",
		})
		return
	}
	h.write(w, http.StatusOK, HealthResponse{Status: "ready"})
}

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	hostname, err := os.Hostname()
	if err != nil {
		h.logger.Error("Failed to get hostname", zap.Error(err))
		hostname = "unknown"
	}

	h.write(w, http.StatusOK, PingResponse{
		Status:        "ok",
		Version:       h.cfg.Version,
		Service:       "food-agent",
		GoVersion:     runtime.Version(),
		Hostname:      hostname,
		Environment:   h.cfg.Env,
		DataDirSource: h.cfg.DataDirSource,
		AdminAPI:      h.cfg.AdminEnabled(),
	})
}

func (h *HealthHandler) write(w http.ResponseWriter, status int, body any) {
	if err := WriteJSON(w, status, body); err != nil {
		h.logger.Error("Failed to encode health response", zap.Error(err))
	}
}
