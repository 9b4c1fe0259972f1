package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_vault_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "video_vault_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_vault_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Ingestion metrics
var (
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_vault_uploads_total",
			Help: "Total number of upload attempts by outcome",
		},
		[]string{"outcome"}, // "accepted", "invalid_name", "unsupported_type", "too_large", "storage_error", "client_gone"
	)

	UploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_vault_upload_bytes_total",
			Help: "Total bytes accepted through the ingestion service",
		},
	)

	UploadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_vault_upload_duration_seconds",
			Help:    "Upload receive-and-commit duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_vault_thumbnail_jobs_total",
			Help: "Total number of thumbnail jobs by terminal outcome",
		},
		[]string{"outcome"}, // "ready", "failed"
	)

	ThumbnailAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_vault_thumbnail_attempts_total",
			Help: "Total number of individual extraction attempts",
		},
		[]string{"outcome"}, // "success", "error"
	)

	ThumbnailRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_vault_thumbnail_retries_total",
			Help: "Total number of thumbnail attempt retries",
		},
	)

	ThumbnailGenerationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "video_vault_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	ThumbnailQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_vault_thumbnail_queue_depth",
			Help: "Number of thumbnail jobs waiting for a worker",
		},
	)

	ThumbnailWorkersBusy = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_vault_thumbnail_workers_busy",
			Help: "Number of thumbnail workers currently processing a job",
		},
	)
)

// Streaming metrics
var (
	StreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_vault_stream_requests_total",
			Help: "Total number of content requests by response mode",
		},
		[]string{"mode"}, // "full", "partial", "unsatisfiable", "malformed", "not_found"
	)

	StreamBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_vault_stream_bytes_total",
			Help: "Total bytes served from video content",
		},
	)

	StreamClientDisconnects = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_vault_stream_client_disconnects_total",
			Help: "Total number of streams aborted by the client",
		},
	)
)

// Catalog metrics
var (
	CatalogAssets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_vault_catalog_assets",
			Help: "Number of catalog assets by status",
		},
		[]string{"status"},
	)

	CatalogBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "video_vault_catalog_bytes",
			Help: "Total stored bytes across catalog assets",
		},
	)

	CatalogInvariantViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_vault_catalog_invariant_violations_total",
			Help: "Internal faults detected by the catalog",
		},
		[]string{"kind"}, // "duplicate_id", "invalid_transition"
	)
)

// Filesystem retry metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_vault_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries",
		},
		[]string{"operation"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_vault_filesystem_retry_success_total",
			Help: "Filesystem operations that succeeded after at least one retry",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_vault_filesystem_retry_failures_total",
			Help: "Filesystem operations that exhausted their retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_vault_filesystem_stale_errors_total",
			Help: "Stale file handle errors observed",
		},
		[]string{"operation"},
	)
)

// Watcher metrics
var (
	WatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "video_vault_watcher_events_total",
			Help: "Filesystem watcher events by type",
		},
		[]string{"event_type"},
	)

	WatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "video_vault_watcher_errors_total",
			Help: "Filesystem watcher errors",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "video_vault_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric.
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
