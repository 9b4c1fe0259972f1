package catalog

import (
	"errors"
	"fmt"
	"sync"

	"video-vault/internal/logging"
	"video-vault/internal/storage"
)

// Sentinel errors for catalog operations.
var (
	// ErrNotFound indicates the asset does not exist or was already deleted.
	ErrNotFound = errors.New("catalog: asset not found")

	// ErrDuplicateID indicates a Register with an id that already exists.
	// Storage allocation guarantees fresh ids, so this is an internal
	// invariant violation rather than an expected condition.
	ErrDuplicateID = errors.New("catalog: duplicate asset id")

	// ErrInvalidTransition indicates a backward or skipped status change.
	ErrInvalidTransition = errors.New("catalog: invalid status transition")
)

// Catalog is the single source of truth for which assets are servable.
type Catalog struct {
	store *storage.Store
	index *Index // nil when persistence is disabled (tests)

	mu     sync.RWMutex
	assets map[string]*VideoAsset
	order  []string
}

// New creates an empty catalog over the given store. index may be nil, in
// which case mutations are not persisted.
func New(store *storage.Store, index *Index) *Catalog {
	return &Catalog{
		store:  store,
		index:  index,
		assets: make(map[string]*VideoAsset),
	}
}

// Register inserts a newly ingested asset. The ingestion service calls this
// only after the upload is durably written, so the asset enters directly in
// the processing state.
func (c *Catalog) Register(asset VideoAsset) error {
	if asset.Status == "" || asset.Status == StatusUploading {
		asset.Status = StatusProcessing
	}

	c.mu.Lock()
	if _, exists := c.assets[asset.ID]; exists {
		c.mu.Unlock()
		logging.Error("duplicate asset id %s (name %q): storage allocation contract violated", asset.ID, asset.OriginalName)
		return fmt.Errorf("%w: %s", ErrDuplicateID, asset.ID)
	}
	stored := asset
	c.assets[asset.ID] = &stored
	c.order = append(c.order, asset.ID)
	c.mu.Unlock()

	c.persist(&stored)
	return nil
}

// Get returns a copy of the asset, or ErrNotFound if it is unknown or
// deleted.
func (c *Catalog) Get(id string) (VideoAsset, error) {
	c.mu.RLock()
	asset, ok := c.assets[id]
	if !ok {
		c.mu.RUnlock()
		return VideoAsset{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	snapshot := *asset
	c.mu.RUnlock()
	return snapshot, nil
}

// List returns a consistent snapshot of all assets in insertion order.
// Callers filter by status themselves; a missing thumbnail never hides an
// asset from the listing.
func (c *Catalog) List() []VideoAsset {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]VideoAsset, 0, len(c.order))
	for _, id := range c.order {
		if asset, ok := c.assets[id]; ok {
			out = append(out, *asset)
		}
	}
	return out
}

// Len returns the number of assets currently indexed.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.assets)
}

// UpdateStatus moves an asset along the forward-only state machine.
// thumbnailPath is recorded only on the transition to ready, failureReason
// only on the transition to failed. A violation of the state machine leaves
// the asset untouched and is surfaced as ErrInvalidTransition.
func (c *Catalog) UpdateStatus(id string, next Status, thumbnailPath, failureReason string) error {
	c.mu.Lock()
	asset, ok := c.assets[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if !asset.Status.CanTransitionTo(next) {
		from := asset.Status
		c.mu.Unlock()
		logging.Error("rejected status transition %s -> %s for asset %s", from, next, id)
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next)
	}

	asset.Status = next
	switch next {
	case StatusReady:
		asset.ThumbnailPath = thumbnailPath
		asset.FailureReason = ""
	case StatusFailed:
		asset.FailureReason = failureReason
	}
	snapshot := *asset
	c.mu.Unlock()

	c.persist(&snapshot)
	return nil
}

// SetDuration records the probed media duration. Duration is presentation
// metadata, not lifecycle state, so it bypasses the transition rules.
func (c *Catalog) SetDuration(id string, seconds float64) error {
	c.mu.Lock()
	asset, ok := c.assets[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	asset.DurationSeconds = seconds
	snapshot := *asset
	c.mu.Unlock()

	c.persist(&snapshot)
	return nil
}

// Delete removes the asset and then its files. The entry is revoked from
// the catalog and the storage lookup table before any unlink happens, so no
// new stream can start once Delete has returned; streams already holding an
// open descriptor finish against the unlinked inode.
func (c *Catalog) Delete(id string) error {
	c.mu.Lock()
	asset, ok := c.assets[id]
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	delete(c.assets, id)
	for i, ordered := range c.order {
		if ordered == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	path := asset.StoragePath
	c.mu.Unlock()

	if c.index != nil {
		if err := c.index.Delete(id); err != nil {
			logging.Warn("failed to remove asset %s from persisted index: %v", id, err)
		}
	}

	c.store.Forget(id)
	if err := c.store.Remove(id, path); err != nil {
		logging.Warn("failed to remove files for deleted asset %s: %v", id, err)
	}

	logging.Info("deleted asset %s (%s)", id, asset.OriginalName)
	return nil
}

// Stats returns aggregate counts for metrics collection.
func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var stats Stats
	stats.Total = len(c.assets)
	for _, asset := range c.assets {
		stats.TotalBytes += asset.SizeBytes
		switch asset.Status {
		case StatusProcessing:
			stats.Processing++
		case StatusReady:
			stats.Ready++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// restore inserts an asset during startup reconciliation, preserving its
// persisted status instead of forcing the processing state.
func (c *Catalog) restore(asset VideoAsset) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.assets[asset.ID]; exists {
		return
	}
	stored := asset
	c.assets[asset.ID] = &stored
	c.order = append(c.order, asset.ID)
}

// persist mirrors an asset to the SQLite index. Persistence failures are
// logged, not propagated: the in-memory catalog stays authoritative for the
// running process and the next startup reconciliation self-heals.
func (c *Catalog) persist(asset *VideoAsset) {
	if c.index == nil {
		return
	}
	if err := c.index.Upsert(asset); err != nil {
		logging.Warn("failed to persist asset %s to index: %v", asset.ID, err)
	}
}
