package metrics

import (
	"time"

	"video-vault/internal/catalog"
)

// StatsProvider supplies aggregate catalog stats for gauge refreshes.
type StatsProvider interface {
	Stats() catalog.Stats
}

// Collector periodically refreshes the catalog gauges.
type Collector struct {
	provider StatsProvider
	interval time.Duration
	stopChan chan struct{}
}

// NewCollector creates a collector that refreshes every interval.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the collection loop.
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the collection loop.
func (c *Collector) Stop() {
	close(c.stopChan)
}

func (c *Collector) collectLoop() {
	// Collect immediately on start so gauges are populated before the
	// first scrape interval elapses.
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}

	stats := c.provider.Stats()

	CatalogAssets.WithLabelValues("processing").Set(float64(stats.Processing))
	CatalogAssets.WithLabelValues("ready").Set(float64(stats.Ready))
	CatalogAssets.WithLabelValues("failed").Set(float64(stats.Failed))
	CatalogBytes.Set(float64(stats.TotalBytes))
}
