// Package thumbnail generates poster frames for ingested videos.
//
// A bounded pool of workers consumes jobs enqueued by the ingestion
// service. Each job extracts a frame with ffmpeg, fits it into a 320x240
// JPEG, probes the media duration, and records the terminal outcome in the
// catalog: ready with a thumbnail path, or failed with a reason after the
// retry budget is spent. A job never leaves its asset in processing.
package thumbnail
