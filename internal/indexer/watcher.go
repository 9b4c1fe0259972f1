package indexer

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"video-vault/internal/catalog"
	"video-vault/internal/logging"
	"video-vault/internal/mediatypes"
	"video-vault/internal/metrics"
	"video-vault/internal/storage"
)

// defaultSettleDelay is how long a file must go without write events before
// it is considered fully copied.
const defaultSettleDelay = 500 * time.Millisecond

// ThumbnailQueue accepts adopted assets for background processing.
type ThumbnailQueue interface {
	Enqueue(asset catalog.VideoAsset)
}

// Watcher adopts video files dropped directly into the videos directory.
type Watcher struct {
	catalog     *catalog.Catalog
	store       *storage.Store
	queue       ThumbnailQueue
	settleDelay time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWatcher creates a watcher over the store's videos directory. It does
// not deliver events until Start is called.
func NewWatcher(cat *catalog.Catalog, store *storage.Store, queue ThumbnailQueue) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		metrics.WatcherErrors.Inc()
		return nil, err
	}
	if err := fsw.Add(store.VideoDir()); err != nil {
		metrics.WatcherErrors.Inc()
		if closeErr := fsw.Close(); closeErr != nil {
			logging.Warn("failed to close file watcher: %v", closeErr)
		}
		return nil, err
	}

	return &Watcher{
		catalog:     cat,
		store:       store,
		queue:       queue,
		settleDelay: defaultSettleDelay,
		fsw:         fsw,
		pending:     make(map[string]*time.Timer),
	}, nil
}

// Start begins processing events in a background goroutine.
func (w *Watcher) Start() {
	w.wg.Add(1)
	go w.loop()
	logging.Info("watching %s for new video files", w.store.VideoDir())
}

// Stop shuts the watcher down and waits for the event loop to exit. Settle
// timers still in flight are cancelled; their files are picked up by the
// next startup reconcile.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		if err := w.fsw.Close(); err != nil {
			logging.Warn("failed to close file watcher: %v", err)
		}
		w.wg.Wait()

		w.mu.Lock()
		w.closed = true
		for path, timer := range w.pending {
			timer.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error: %v", err)
			metrics.WatcherErrors.Inc()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return
	}

	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !mediatypes.Allowed(name) {
		return
	}

	// Each write resets the file's settle timer. Adoption happens only
	// once the file stops changing.
	w.mu.Lock()
	defer w.mu.Unlock()

	path := event.Name
	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.settleDelay)
		return
	}
	w.pending[path] = time.AfterFunc(w.settleDelay, func() {
		w.mu.Lock()
		closed := w.closed
		delete(w.pending, path)
		w.mu.Unlock()
		if !closed {
			w.adopt(path)
		}
	})
}

// adopt registers a settled file unless the catalog already tracks it. Files
// committed through the upload path land here too and are skipped by the
// catalog lookup.
func (w *Watcher) adopt(path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return
	}

	id, err := w.store.Adopt(path)
	if err != nil {
		logging.Warn("failed to adopt %s: %v", path, err)
		metrics.WatcherErrors.Inc()
		return
	}
	if _, err := w.catalog.Get(id); err == nil {
		return
	} else if !errors.Is(err, catalog.ErrNotFound) {
		logging.Warn("failed to check catalog for %s: %v", id, err)
		return
	}

	asset := catalog.VideoAsset{
		ID:           id,
		OriginalName: filepath.Base(path),
		StoragePath:  path,
		SizeBytes:    info.Size(),
		Status:       catalog.StatusProcessing,
		CreatedAt:    time.Now().UTC(),
	}
	if err := w.catalog.Register(asset); err != nil {
		logging.Warn("failed to register adopted file %s: %v", path, err)
		return
	}

	logging.Info("adopted %s as %s", filepath.Base(path), id)
	w.queue.Enqueue(asset)
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}
