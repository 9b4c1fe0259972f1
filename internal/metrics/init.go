package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	for _, outcome := range []string{"accepted", "invalid_name", "unsupported_type", "too_large", "storage_error", "client_gone"} {
		UploadsTotal.WithLabelValues(outcome)
	}

	for _, outcome := range []string{"ready", "failed"} {
		ThumbnailJobsTotal.WithLabelValues(outcome)
	}
	for _, outcome := range []string{"success", "error"} {
		ThumbnailAttemptsTotal.WithLabelValues(outcome)
	}

	for _, mode := range []string{"full", "partial", "unsatisfiable", "malformed", "not_found"} {
		StreamRequestsTotal.WithLabelValues(mode)
	}

	for _, status := range []string{"processing", "ready", "failed"} {
		CatalogAssets.WithLabelValues(status)
	}

	for _, kind := range []string{"duplicate_id", "invalid_transition"} {
		CatalogInvariantViolations.WithLabelValues(kind)
	}

	for _, op := range []string{"stat", "open"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetrySuccess.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}

	for _, event := range []string{"create", "write", "remove", "rename"} {
		WatcherEventsTotal.WithLabelValues(event)
	}
}
