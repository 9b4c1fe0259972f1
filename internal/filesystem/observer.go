package filesystem

// Observer records retry metrics. The implementation lives in the metrics
// package to break the import cycle between filesystem and metrics.
type Observer interface {
	ObserveRetryAttempt(operation string)
	ObserveRetrySuccess(operation string)
	ObserveRetryFailure(operation string)
	ObserveStaleError(operation string)
}

// defaultObserver is the package-level observer set at startup.
// If nil, metric recording is silently skipped (safe for tests).
var defaultObserver Observer

// SetObserver sets the package-level metrics observer.
// Call this once at startup.
func SetObserver(o Observer) {
	defaultObserver = o
}
