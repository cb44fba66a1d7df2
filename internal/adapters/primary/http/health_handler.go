package http

import (
	"context"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	wsAdapter "github.com/lorrc/defect-triage/internal/adapters/primary/websocket"
	"github.com/lorrc/defect-triage/internal/core/domain"
	apperrors "github.com/lorrc/defect-triage/internal/core/errors"
)

// TrackerPinger is the slice of the tracker client the readiness check
// needs.
type TrackerPinger interface {
	Myself(ctx context.Context) (*domain.TrackerUser, error)
}

// RealtimeStats is the slice of the websocket hub the detailed health
// report reads.
type RealtimeStats interface {
	GetClientCount() int
	GetRoomCount() int
	GetClientsInRoom(room string) int
}

// HealthHandler handles health check requests
type HealthHandler struct {
	tracker   TrackerPinger
	realtime  RealtimeStats
	startTime time.Time
	version   string
	timeout   time.Duration
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(tracker TrackerPinger, version string) *HealthHandler {
	return &HealthHandler{
		tracker:   tracker,
		startTime: time.Now(),
		version:   version,
		timeout:   5 * time.Second,
	}
}

// WithRealtime adds websocket connection counts to the detailed report.
func (h *HealthHandler) WithRealtime(stats RealtimeStats) *HealthHandler {
	h.realtime = stats
	return h
}

// RealtimeHealth reports websocket usage.
type RealtimeHealth struct {
	Clients           int `json:"clients"`
	Rooms             int `json:"rooms"`
	DashboardWatchers int `json:"dashboard_watchers"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Version   string           `json:"version,omitempty"`
	Uptime    string           `json:"uptime,omitempty"`
	Checks    map[string]Check `json:"checks,omitempty"`
}

// Check represents an individual health check result
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// RegisterRoutes registers the health endpoints.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HandleHealth)
	r.Get("/health/live", h.HandleLiveness)
	r.Get("/health/ready", h.HandleReadiness)
}

// HandleLiveness reports that the process is serving requests. It never
// calls the tracker.
func (h *HealthHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleReadiness reports whether the tracker accepts the configured
// credentials.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	response := h.check(r.Context())

	statusCode := http.StatusOK
	if response.Status != "healthy" {
		statusCode = http.StatusServiceUnavailable
	}
	WriteJSON(w, statusCode, response)
}

// HandleHealth handles detailed health check requests (for monitoring/debugging)
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	base := h.check(r.Context())
	if base.Status != "healthy" {
		base.Status = "degraded"
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := struct {
		HealthResponse
		Memory struct {
			Alloc      uint64 `json:"alloc_bytes"`
			TotalAlloc uint64 `json:"total_alloc_bytes"`
			Sys        uint64 `json:"sys_bytes"`
			NumGC      uint32 `json:"num_gc"`
		} `json:"memory"`
		Goroutines int             `json:"goroutines"`
		Realtime   *RealtimeHealth `json:"realtime,omitempty"`
	}{
		HealthResponse: base,
		Goroutines:     runtime.NumGoroutine(),
	}
	response.Memory.Alloc = memStats.Alloc
	response.Memory.TotalAlloc = memStats.TotalAlloc
	response.Memory.Sys = memStats.Sys
	response.Memory.NumGC = memStats.NumGC

	if h.realtime != nil {
		response.Realtime = &RealtimeHealth{
			Clients:           h.realtime.GetClientCount(),
			Rooms:             h.realtime.GetRoomCount(),
			DashboardWatchers: h.realtime.GetClientsInRoom(wsAdapter.DashboardRoom),
		}
	}

	statusCode := http.StatusOK
	if base.Status == "degraded" {
		statusCode = http.StatusServiceUnavailable
	}
	WriteJSON(w, statusCode, response)
}

func (h *HealthHandler) check(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	tracker := h.checkTracker(ctx)
	status := "healthy"
	if tracker.Status != "healthy" {
		status = "unhealthy"
	}

	return HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Checks:    map[string]Check{"tracker": tracker},
	}
}

func (h *HealthHandler) checkTracker(ctx context.Context) Check {
	if h.tracker == nil {
		return Check{
			Status:  "unhealthy",
			Message: "Issue tracker not configured",
		}
	}

	start := time.Now()
	_, err := h.tracker.Myself(ctx)
	latency := time.Since(start)

	if err != nil {
		message := err.Error()
		if credentialsRejected(err) {
			message = "Issue tracker rejected the configured credentials"
		}
		return Check{
			Status:  "unhealthy",
			Message: message,
			Latency: latency.String(),
		}
	}

	return Check{
		Status:  "healthy",
		Latency: latency.String(),
	}
}

func credentialsRejected(err error) bool {
	var tf apperrors.TrackerFailure
	if !errors.As(err, &tf) {
		return false
	}
	status := tf.TrackerStatus()
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}
