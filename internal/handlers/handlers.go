package handlers

import (
	"sync/atomic"
	"time"

	"video-vault/internal/catalog"
	"video-vault/internal/ingest"
	"video-vault/internal/startup"
	"video-vault/internal/storage"
	"video-vault/internal/thumbnail"
)

type Handlers struct {
	catalog *catalog.Catalog
	store   *storage.Store
	ingest  *ingest.Service
	pool    *thumbnail.Pool
	config  *startup.Config
	started time.Time
	ready   atomic.Bool
}

func New(cat *catalog.Catalog, store *storage.Store, svc *ingest.Service, pool *thumbnail.Pool, config *startup.Config) *Handlers {
	return &Handlers{
		catalog: cat,
		store:   store,
		ingest:  svc,
		pool:    pool,
		config:  config,
		started: time.Now(),
	}
}

// SetReady flips the readiness probe. Called once the startup reconcile has
// finished and the server is accepting traffic.
func (h *Handlers) SetReady() {
	h.ready.Store(true)
}

// IsReady reports whether the service has completed startup.
func (h *Handlers) IsReady() bool {
	return h.ready.Load()
}
