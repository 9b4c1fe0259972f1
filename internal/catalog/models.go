package catalog

import "time"

// Status is the lifecycle state of a video asset.
type Status string

const (
	// StatusUploading means bytes are still being received.
	StatusUploading Status = "uploading"
	// StatusProcessing means the upload is durable and thumbnail
	// generation is pending or in flight.
	StatusProcessing Status = "processing"
	// StatusReady means the asset is fully processed.
	StatusReady Status = "ready"
	// StatusFailed means post-processing exhausted its retries.
	StatusFailed Status = "failed"
)

// validTransitions encodes the forward-only state machine. Terminal states
// have no successors; processing can never be skipped.
var validTransitions = map[Status][]Status{
	StatusUploading:  {StatusProcessing},
	StatusProcessing: {StatusReady, StatusFailed},
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// VideoAsset is one uploaded video and its derived metadata. Instances
// handed out by the Catalog are copies; mutating them has no effect on
// catalog state.
type VideoAsset struct {
	ID              string    `json:"id"`
	OriginalName    string    `json:"originalName"`
	StoragePath     string    `json:"-"`
	ThumbnailPath   string    `json:"-"`
	SizeBytes       int64     `json:"sizeBytes"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"createdAt"`
	FailureReason   string    `json:"failureReason,omitempty"`
	DurationSeconds float64   `json:"durationSeconds,omitempty"`
}

// HasThumbnail reports whether thumbnail generation succeeded for the asset.
func (a *VideoAsset) HasThumbnail() bool {
	return a.ThumbnailPath != ""
}

// Stats summarizes catalog contents for metrics collection.
type Stats struct {
	Total      int
	Processing int
	Ready      int
	Failed     int
	TotalBytes int64
}
