package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Count returns the worker count for a given task type.
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//   - 1.5 for mixed tasks
//
// The limit parameter caps the worker count to prevent resource
// exhaustion; use 0 for no limit. THUMBNAIL_WORKERS overrides the
// computed value.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv("THUMBNAIL_WORKERS"); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	// GOMAXPROCS tracks the container CPU limit on Go 1.19+.
	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// ForMixed returns the worker count for mixed CPU/I-O tasks such as frame
// extraction, capped at limit.
func ForMixed(limit int) int {
	return Count(1.5, limit)
}
