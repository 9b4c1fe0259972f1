package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode"

	"video-vault/internal/catalog"
	"video-vault/internal/logging"
	"video-vault/internal/mediatypes"
	"video-vault/internal/metrics"
	"video-vault/internal/storage"
)

// ThumbnailQueue accepts committed assets for background processing. The
// thumbnail pool implements it.
type ThumbnailQueue interface {
	Enqueue(asset catalog.VideoAsset)
}

// Sentinel errors mapped to HTTP statuses by the handlers layer.
var (
	// ErrInvalidName rejects names containing path separators, traversal
	// segments, or control characters.
	ErrInvalidName = errors.New("ingest: invalid file name")

	// ErrUnsupportedType rejects files whose extension is not an allowed
	// video container.
	ErrUnsupportedType = errors.New("ingest: unsupported file type")

	// ErrPayloadTooLarge aborts an upload the moment its running size
	// crosses the configured ceiling.
	ErrPayloadTooLarge = errors.New("ingest: payload exceeds size limit")

	// ErrClientGone marks an upload abandoned by the client mid-transfer.
	ErrClientGone = errors.New("ingest: client disconnected during upload")
)

const copyBufferSize = 256 * 1024

// Service commits uploads. Bytes reach their final path before the asset is
// registered, so the catalog never points at a file that is still arriving.
type Service struct {
	catalog        *catalog.Catalog
	store          *storage.Store
	pool           ThumbnailQueue
	maxUploadBytes int64
}

// NewService returns an ingestion service. maxUploadBytes <= 0 disables the
// size ceiling.
func NewService(cat *catalog.Catalog, store *storage.Store, pool ThumbnailQueue, maxUploadBytes int64) *Service {
	return &Service{
		catalog:        cat,
		store:          store,
		pool:           pool,
		maxUploadBytes: maxUploadBytes,
	}
}

// Ingest validates originalName, streams body to a staging file, commits it
// to its allocated path, registers the asset as processing, and queues
// thumbnail generation. On any failure the partial file is removed and the
// id forgotten before the error is returned.
func (s *Service) Ingest(ctx context.Context, originalName string, body io.Reader) (catalog.VideoAsset, error) {
	start := time.Now()

	if err := validateName(originalName); err != nil {
		metrics.UploadsTotal.WithLabelValues("invalid_name").Inc()
		return catalog.VideoAsset{}, err
	}
	if !mediatypes.Allowed(originalName) {
		metrics.UploadsTotal.WithLabelValues("unsupported_type").Inc()
		return catalog.VideoAsset{}, fmt.Errorf("%w: %s", ErrUnsupportedType, mediatypes.Ext(originalName))
	}

	id, path := s.store.Allocate(originalName)

	// Bytes arrive at a hidden staging path so the directory watcher
	// never sees, and never adopts, a file that is still arriving.
	stagingPath := s.store.StagingPath(path)

	written, err := s.receive(ctx, stagingPath, body)
	if err != nil {
		s.store.Discard(id, stagingPath)
		metrics.UploadsTotal.WithLabelValues(uploadOutcome(err)).Inc()
		return catalog.VideoAsset{}, err
	}

	if err := s.store.Commit(stagingPath, path); err != nil {
		s.store.Discard(id, stagingPath)
		metrics.UploadsTotal.WithLabelValues("storage_error").Inc()
		return catalog.VideoAsset{}, err
	}

	asset := catalog.VideoAsset{
		ID:           id,
		OriginalName: originalName,
		StoragePath:  path,
		SizeBytes:    written,
		Status:       catalog.StatusProcessing,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.catalog.Register(asset); err != nil {
		s.store.Discard(id, path)
		if errors.Is(err, catalog.ErrDuplicateID) {
			metrics.CatalogInvariantViolations.WithLabelValues("duplicate_id").Inc()
		}
		metrics.UploadsTotal.WithLabelValues("storage_error").Inc()
		return catalog.VideoAsset{}, fmt.Errorf("failed to register upload: %w", err)
	}

	metrics.UploadsTotal.WithLabelValues("accepted").Inc()
	metrics.UploadBytesTotal.Add(float64(written))
	metrics.UploadDuration.Observe(time.Since(start).Seconds())
	logging.Info("accepted upload %s (%s, %d bytes)", id, originalName, written)

	s.pool.Enqueue(asset)
	return asset, nil
}

// receive writes body to path, enforcing the size ceiling on the running
// total rather than buffering the payload first.
func (s *Service) receive(ctx context.Context, path string, body io.Reader) (int64, error) {
	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return 0, fmt.Errorf("failed to create upload file: %w", err)
	}

	written, copyErr := s.copyBounded(ctx, dst, body)
	if closeErr := dst.Close(); copyErr == nil && closeErr != nil {
		copyErr = fmt.Errorf("failed to finish upload file: %w", closeErr)
	}
	return written, copyErr
}

func (s *Service) copyBounded(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, copyBufferSize)
	var total int64

	for {
		if err := ctx.Err(); err != nil {
			return total, fmt.Errorf("%w: %v", ErrClientGone, err)
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			total += int64(n)
			if s.maxUploadBytes > 0 && total > s.maxUploadBytes {
				return total, fmt.Errorf("%w: limit %d bytes", ErrPayloadTooLarge, s.maxUploadBytes)
			}
			if _, writeErr := dst.Write(buf[:n]); writeErr != nil {
				return total, fmt.Errorf("failed to write upload: %w", writeErr)
			}
		}
		if readErr == io.EOF {
			return total, nil
		}
		if readErr != nil {
			if ctx.Err() != nil {
				return total, fmt.Errorf("%w: %v", ErrClientGone, readErr)
			}
			return total, fmt.Errorf("failed to read upload: %w", readErr)
		}
	}
}

// validateName accepts plain file names only. The name never influences the
// storage location, but a hostile name must still never be echoed into a
// path, a header, or a shell.
func validateName(name string) error {
	if name == "" || len(name) > 255 {
		return fmt.Errorf("%w: empty or too long", ErrInvalidName)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return fmt.Errorf("%w: path components not allowed", ErrInvalidName)
	}
	if name == "." {
		return fmt.Errorf("%w: path components not allowed", ErrInvalidName)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control characters not allowed", ErrInvalidName)
		}
	}
	return nil
}

func uploadOutcome(err error) string {
	switch {
	case errors.Is(err, ErrPayloadTooLarge):
		return "too_large"
	case errors.Is(err, ErrClientGone):
		return "client_gone"
	default:
		return "storage_error"
	}
}
