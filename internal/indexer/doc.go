// Package indexer watches the videos directory and registers files that
// appear there outside the upload path. A new file is adopted only after its
// writes settle, so half-copied videos are not queued for processing.
package indexer
