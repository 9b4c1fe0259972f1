package thumbnail

import (
	"context"
	"errors"
	"os"
	"sync"
	"time"

	"video-vault/internal/catalog"
	"video-vault/internal/logging"
	"video-vault/internal/metrics"
	"video-vault/internal/storage"
)

const (
	// maxRetries is the number of additional attempts after the first
	// failure. With 2 retries every job makes at most 3 attempts.
	maxRetries = 2

	initialBackoff = 500 * time.Millisecond

	queueCapacity = 256
)

// Pool is a fixed-size worker pool for thumbnail generation. Jobs are
// processed in submission order per worker slot; there is no ordering
// guarantee across slots.
type Pool struct {
	cat       *catalog.Catalog
	store     *storage.Store
	extractor Extractor
	workers   int

	jobs chan catalog.VideoAsset
	wg   sync.WaitGroup

	// stopMu orders Enqueue against Stop: submitters hold the read side
	// while sending, Stop takes the write side before closing the queue.
	stopMu  sync.RWMutex
	stopped bool

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewPool creates a pool with the given number of workers.
func NewPool(cat *catalog.Catalog, store *storage.Store, extractor Extractor, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		cat:       cat,
		store:     store,
		extractor: extractor,
		workers:   workers,
		jobs:      make(chan catalog.VideoAsset, queueCapacity),
	}
}

// Start launches the workers. They run until Stop is called and the queue
// drains, or ctx is canceled, whichever comes first.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		logging.Info("thumbnail pool starting with %d workers", p.workers)
		for i := 0; i < p.workers; i++ {
			p.wg.Add(1)
			go p.worker(ctx, i)
		}
	})
}

// Enqueue submits an asset for thumbnail generation. It blocks while the
// queue is full, which backpressures ingestion rather than dropping jobs.
// After Stop the asset is dropped instead; it stays in processing and the
// next startup reconciliation re-queues it.
func (p *Pool) Enqueue(asset catalog.VideoAsset) {
	p.stopMu.RLock()
	defer p.stopMu.RUnlock()

	if p.stopped {
		logging.Warn("thumbnail pool stopped, leaving %s for startup reconciliation", asset.ID)
		return
	}
	p.jobs <- asset
	metrics.ThumbnailQueueDepth.Set(float64(len(p.jobs)))
}

// QueueDepth returns the number of jobs waiting for a worker.
func (p *Pool) QueueDepth() int {
	return len(p.jobs)
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.stopMu.Lock()
		p.stopped = true
		close(p.jobs)
		p.stopMu.Unlock()
	})
	p.wg.Wait()
}

func (p *Pool) worker(ctx context.Context, slot int) {
	defer p.wg.Done()
	logging.Debug("thumbnail worker %d started", slot)

	for {
		select {
		case <-ctx.Done():
			return
		case asset, ok := <-p.jobs:
			if !ok {
				return
			}
			metrics.ThumbnailQueueDepth.Set(float64(len(p.jobs)))
			metrics.ThumbnailWorkersBusy.Inc()
			p.process(ctx, asset)
			metrics.ThumbnailWorkersBusy.Dec()
		}
	}
}

// process runs one job to a terminal outcome. Whatever happens, the asset
// leaves the processing state: ready on success, failed with a recorded
// reason once retries are exhausted.
func (p *Pool) process(ctx context.Context, asset catalog.VideoAsset) {
	start := time.Now()

	// Duration is presentation metadata; probe failures are logged and
	// do not count against the thumbnail retry budget.
	if duration, err := p.extractor.Probe(ctx, asset.StoragePath); err == nil {
		if err := p.cat.SetDuration(asset.ID, duration); err != nil {
			logging.Debug("failed to record duration for %s: %v", asset.ID, err)
		}
	} else {
		logging.Debug("duration probe failed for %s: %v", asset.ID, err)
	}

	thumbPath := p.store.ThumbnailPathFor(asset.ID)

	var lastErr error
	backoff := initialBackoff
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			// Shutdown mid-job: leave the asset for the next startup
			// reconciliation to re-enqueue.
			return
		}

		lastErr = p.extractor.Extract(ctx, asset.StoragePath, thumbPath)
		if lastErr == nil {
			metrics.ThumbnailAttemptsTotal.WithLabelValues("success").Inc()
			metrics.ThumbnailJobsTotal.WithLabelValues("ready").Inc()
			metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())

			if err := p.cat.UpdateStatus(asset.ID, catalog.StatusReady, thumbPath, ""); err != nil {
				// The asset was likely deleted while we worked; the
				// thumbnail we just wrote has no owner, so unwrite it.
				if errors.Is(err, catalog.ErrInvalidTransition) {
					metrics.CatalogInvariantViolations.WithLabelValues("invalid_transition").Inc()
				}
				logging.Warn("thumbnail ready but status update failed for %s: %v", asset.ID, err)
				if removeErr := os.Remove(thumbPath); removeErr != nil && !os.IsNotExist(removeErr) {
					logging.Warn("failed to remove unowned thumbnail %s: %v", thumbPath, removeErr)
				}
			} else {
				logging.Info("thumbnail ready for %s (%s) in %v", asset.ID, asset.OriginalName, time.Since(start))
			}
			return
		}

		metrics.ThumbnailAttemptsTotal.WithLabelValues("error").Inc()
		if attempt < maxRetries {
			metrics.ThumbnailRetriesTotal.Inc()
			logging.Debug("thumbnail attempt %d failed for %s, retrying in %v: %v",
				attempt+1, asset.ID, backoff, lastErr)

			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	metrics.ThumbnailJobsTotal.WithLabelValues("failed").Inc()
	metrics.ThumbnailGenerationDuration.Observe(time.Since(start).Seconds())

	reason := lastErr.Error()
	logging.Warn("thumbnail generation failed permanently for %s (%s): %s", asset.ID, asset.OriginalName, reason)
	if err := p.cat.UpdateStatus(asset.ID, catalog.StatusFailed, "", reason); err != nil {
		logging.Warn("failed to mark asset %s failed: %v", asset.ID, err)
	}
}
