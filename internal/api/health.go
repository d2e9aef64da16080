package api

import (
	"context"
	"net/http"
	"time"
)

// Pinger checks database liveness.
type Pinger interface {
	HealthCheck(ctx context.Context) error
}

// HealthResponse is the health endpoint payload.
type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Checks        map[string]string `json:"checks"`
}

// HealthHandler reports service liveness and dependency state.
type HealthHandler struct {
	db          Pinger
	storageType string
	transcriber string
	extractor   string
	authGate    bool
	version     string
	startTime   time.Time
}

func NewHealthHandler(db Pinger, storageType, transcriber, extractor string, authGate bool, version string, startTime time.Time) *HealthHandler {
	return &HealthHandler{
		db:          db,
		storageType: storageType,
		transcriber: transcriber,
		extractor:   extractor,
		authGate:    authGate,
		version:     version,
		startTime:   startTime,
	}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.db.HealthCheck(r.Context()); err != nil {
		checks["database"] = "error"
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["database"] = "ok"
	}

	checks["storage"] = h.storageType
	checks["transcription"] = h.transcriber
	checks["extraction"] = h.extractor

	if h.authGate {
		checks["auth"] = "ok"
	} else {
		checks["auth"] = "not_configured"
		if status == "healthy" {
			status = "degraded"
		}
	}

	WriteJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Checks:        checks,
	})
}
