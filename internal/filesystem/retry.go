package filesystem

import (
	"errors"
	"os"
	"syscall"
	"time"

	"video-vault/internal/logging"
)

// RetryConfig configures retry behavior for filesystem operations.
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for stale handle retries.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isStaleError checks for ESTALE, the stale file handle errno.
func isStaleError(err error) bool {
	if err == nil {
		return false
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}
	return false
}

// StatWithRetry performs os.Stat, retrying stale file handle errors with
// exponential backoff. Any other error returns immediately.
func StatWithRetry(path string, config RetryConfig) (os.FileInfo, error) {
	info, err := withRetry("stat", path, config, func() (os.FileInfo, error) {
		return os.Stat(path)
	})
	return info, err
}

// OpenWithRetry performs os.Open with the same retry discipline.
func OpenWithRetry(path string, config RetryConfig) (*os.File, error) {
	return withRetry("open", path, config, func() (*os.File, error) {
		return os.Open(path)
	})
}

func withRetry[T any](operation, path string, config RetryConfig, fn func() (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			if attempt > 0 {
				logging.Info("%s succeeded on retry %d for %s", operation, attempt, path)
				if o := defaultObserver; o != nil {
					o.ObserveRetrySuccess(operation)
				}
			}
			return result, nil
		}

		lastErr = err

		// Only stale handles are worth retrying; everything else is a
		// real answer.
		if !isStaleError(err) {
			return zero, err
		}

		if o := defaultObserver; o != nil {
			o.ObserveStaleError(operation)
		}

		if attempt < config.MaxRetries {
			if o := defaultObserver; o != nil {
				o.ObserveRetryAttempt(operation)
			}
			logging.Debug("%s stale file handle for %s, retrying in %v (attempt %d/%d)",
				operation, path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	logging.Warn("%s failed after %d retries for %s: %v", operation, config.MaxRetries, path, lastErr)
	if o := defaultObserver; o != nil {
		o.ObserveRetryFailure(operation)
	}
	return zero, lastErr
}
