package metrics

// FilesystemObserver records filesystem retry metrics. It satisfies the
// filesystem package's Observer interface without that package importing
// this one.
type FilesystemObserver struct{}

// NewFilesystemObserver returns the metrics-backed observer.
func NewFilesystemObserver() *FilesystemObserver {
	return &FilesystemObserver{}
}

// ObserveRetryAttempt records one retry of a filesystem operation.
func (o *FilesystemObserver) ObserveRetryAttempt(operation string) {
	FilesystemRetryAttempts.WithLabelValues(operation).Inc()
}

// ObserveRetrySuccess records an operation that recovered on retry.
func (o *FilesystemObserver) ObserveRetrySuccess(operation string) {
	FilesystemRetrySuccess.WithLabelValues(operation).Inc()
}

// ObserveRetryFailure records an operation that exhausted its retries.
func (o *FilesystemObserver) ObserveRetryFailure(operation string) {
	FilesystemRetryFailures.WithLabelValues(operation).Inc()
}

// ObserveStaleError records a stale file handle error.
func (o *FilesystemObserver) ObserveStaleError(operation string) {
	FilesystemStaleErrors.WithLabelValues(operation).Inc()
}
