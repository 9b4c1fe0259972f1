package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"video-vault/internal/catalog"
	"video-vault/internal/filesystem"
	"video-vault/internal/handlers"
	"video-vault/internal/indexer"
	"video-vault/internal/ingest"
	"video-vault/internal/logging"
	"video-vault/internal/metrics"
	"video-vault/internal/middleware"
	"video-vault/internal/startup"
	"video-vault/internal/storage"
	"video-vault/internal/thumbnail"
	"video-vault/internal/workers"

	"github.com/gorilla/mux"
)

const maxThumbnailWorkers = 4

func main() {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	// Initialize storage (an unwritable root is fatal)
	storageStart := time.Now()
	store, err := storage.New(config.StorageDir)
	if err != nil {
		logging.Fatal("Failed to initialize storage: %v", err)
	}
	startup.LogStorageInit(store.Root(), time.Since(storageStart))

	// Open the persisted catalog index
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	index, err := catalog.OpenIndex(ctx, filepath.Join(store.Root(), "catalog.db"))
	if err != nil {
		logging.Fatal("Failed to open catalog index: %v", err)
	}

	cat := catalog.New(store, index)

	// Wire filesystem retry metrics
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	// Initialize metrics
	if config.MetricsEnabled {
		metrics.InitializeMetrics()
		metrics.SetAppInfo(startup.Version, startup.Commit, runtime.Version())
	}

	// Thumbnail pool
	workerCount := workers.ForMixed(maxThumbnailWorkers)
	startup.LogThumbnailInit(workerCount)
	pool := thumbnail.NewPool(cat, store, thumbnail.NewFFmpegExtractor(), workerCount)
	pool.Start(ctx)

	// Rebuild the catalog from the index and the storage directory before
	// accepting any traffic, then queue the leftover work.
	rebuildStart := time.Now()
	pending, err := cat.Rebuild(ctx)
	if err != nil {
		logging.Fatal("Failed to rebuild catalog: %v", err)
	}
	startup.LogCatalogRebuilt(cat.Len(), len(pending), time.Since(rebuildStart))
	for _, asset := range pending {
		pool.Enqueue(asset)
	}

	// Ingestion service
	svc := ingest.NewService(cat, store, pool, config.MaxUploadBytes)

	// Directory watcher for files dropped outside the upload path
	var watcher *indexer.Watcher
	if config.WatchEnabled {
		watcher, err = indexer.NewWatcher(cat, store, pool)
		if err != nil {
			logging.Warn("Failed to create directory watcher: %v", err)
		} else {
			watcher.Start()
		}
	}

	// Catalog stats collector
	collector := metrics.NewCollector(cat, 15*time.Second)
	if config.MetricsEnabled {
		collector.Start()
	}

	// Initialize handlers and router
	h := handlers.New(cat, store, svc, pool, config)
	router := setupRouter(h)
	startup.LogHTTPRoutes(router)

	// Middleware chain: compression wraps logging wraps metrics
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Metrics(middleware.DefaultMetricsConfig())(router)
	handler = middleware.Logger(loggingConfig)(handler)
	handler = middleware.Compression(middleware.DefaultCompressionConfig())(handler)

	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  0, // uploads may be slow
		WriteTimeout: 0, // streams may be long
		IdleTimeout:  60 * time.Second,
	}

	// Metrics server on its own port
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", h.MetricsHandler())
		metricsSrv = &http.Server{
			Addr:              ":" + config.MetricsPort,
			Handler:           metricsMux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, watcher, pool, collector, index, cancel)

	h.SetReady()
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		logging.Fatal("Server error: %v", err)
	}
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	// Video API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/videos", h.UploadVideo).Methods("POST")
	api.HandleFunc("/videos", h.ListVideos).Methods("GET")
	api.HandleFunc("/videos/{id}/content", h.GetContent).Methods("GET")
	api.HandleFunc("/videos/{id}/thumbnail", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/videos/{id}", h.DeleteVideo).Methods("DELETE")

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, watcher *indexer.Watcher, pool *thumbnail.Pool, collector *metrics.Collector, index *catalog.Index, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancelTimeout := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelTimeout()

	// The HTTP server stops first so no in-flight upload can submit to
	// the pool after it drains.
	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	if watcher != nil {
		startup.LogShutdownStep("Stopping directory watcher")
		watcher.Stop()
		startup.LogShutdownStepComplete("Directory watcher stopped")
	}

	startup.LogShutdownStep("Draining thumbnail pool")
	pool.Stop()
	startup.LogShutdownStepComplete("Thumbnail pool drained")

	startup.LogShutdownStep("Stopping stats collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Stats collector stopped")

	startup.LogShutdownStep("Closing catalog index")
	if err := index.Close(); err != nil {
		logging.Warn("Catalog index close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Catalog index closed")
	}

	cancel()
	startup.LogShutdownComplete()
}
