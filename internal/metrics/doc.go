// Package metrics defines the Prometheus instrumentation for the video
// vault service: HTTP traffic, ingestion, thumbnail generation, range
// streaming, catalog contents, and filesystem retry behavior.
//
// Metrics are registered via promauto at package load. InitializeMetrics
// pre-populates known label combinations so every series is exported from
// the first scrape, and Collector periodically refreshes the catalog
// gauges.
package metrics
