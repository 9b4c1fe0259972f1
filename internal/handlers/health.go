package handlers

import (
	"net/http"
	"runtime"
	"time"

	"video-vault/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusStarting = "starting"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	// Catalog summary
	TotalVideos      int   `json:"totalVideos"`
	ProcessingVideos int   `json:"processingVideos"`
	ReadyVideos      int   `json:"readyVideos"`
	FailedVideos     int   `json:"failedVideos"`
	TotalBytes       int64 `json:"totalBytes"`
	ThumbnailQueue   int   `json:"thumbnailQueue"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	stats := h.catalog.Stats()
	ready := h.IsReady()

	response := HealthResponse{
		Ready:            ready,
		Version:          startup.Version,
		Uptime:           time.Since(h.started).Round(time.Second).String(),
		TotalVideos:      stats.Total,
		ProcessingVideos: stats.Processing,
		ReadyVideos:      stats.Ready,
		FailedVideos:     stats.Failed,
		TotalBytes:       stats.TotalBytes,
		ThumbnailQueue:   h.pool.QueueDepth(),
		GoVersion:        runtime.Version(),
		NumCPU:           runtime.NumCPU(),
		NumGoroutine:     runtime.NumGoroutine(),
	}

	if ready {
		response.Status = statusHealthy
	} else {
		response.Status = statusStarting
	}

	w.Header().Set("Content-Type", "application/json")
	if !ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if the server
// is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSONStatus(w, "alive")
	}
}

// ReadinessCheck returns 200 only once the startup reconcile has completed
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if h.IsReady() {
		w.WriteHeader(http.StatusOK)
		writeJSON(w, map[string]string{"status": "ready"})
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
		writeJSON(w, map[string]string{"status": "not_ready"})
	}
}
