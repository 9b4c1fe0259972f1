package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"video-vault/internal/logging"
	"video-vault/internal/mediatypes"
)

// Sentinel errors for storage operations.
var (
	// ErrNotFound indicates that no file is known for the requested id.
	ErrNotFound = errors.New("storage: id not found")

	// ErrUnwritableRoot indicates the storage root failed its write test.
	// This is fatal at startup; the service refuses to run without it.
	ErrUnwritableRoot = errors.New("storage: root directory is not writable")
)

const (
	videosSubdir     = "videos"
	thumbnailsSubdir = "thumbnails"
)

// Store manages deterministic, collision-free placement of uploaded bytes
// and derived thumbnails inside a single fixed root directory.
type Store struct {
	root         string
	videoDir     string
	thumbnailDir string

	mu    sync.RWMutex
	paths map[string]string // id -> absolute original path
}

// New validates the storage root, creates the videos and thumbnails
// subdirectories, and confirms write access. An unwritable root is an error
// the caller must treat as fatal.
func New(root string) (*Store, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}

	s := &Store{
		root:         absRoot,
		videoDir:     filepath.Join(absRoot, videosSubdir),
		thumbnailDir: filepath.Join(absRoot, thumbnailsSubdir),
		paths:        make(map[string]string),
	}

	for _, dir := range []string{s.videoDir, s.thumbnailDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnwritableRoot, err)
		}
	}

	if err := testWriteAccess(s.videoDir); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnwritableRoot, err)
	}

	logging.Debug("storage root ready: %s", absRoot)
	return s, nil
}

// Root returns the absolute storage root directory.
func (s *Store) Root() string {
	return s.root
}

// Allocate generates a fresh unique id and the path its bytes will live at.
// The id is never derived from the user-supplied name; only the validated
// container extension of originalName survives into the stored filename.
func (s *Store) Allocate(originalName string) (id, path string) {
	id = uuid.NewString()
	path = filepath.Join(s.videoDir, id+mediatypes.Ext(originalName))

	s.mu.Lock()
	s.paths[id] = path
	s.mu.Unlock()

	return id, path
}

// StagingPath returns the hidden path an upload is written to before it is
// committed. Dot-prefixed names are invisible to the directory watcher and
// the startup scan, so a file still arriving is never adopted or indexed.
func (s *Store) StagingPath(path string) string {
	return filepath.Join(filepath.Dir(path), "."+filepath.Base(path))
}

// Commit moves a fully received staging file into its final path. The
// rename is atomic within the videos directory.
func (s *Store) Commit(stagingPath, path string) error {
	if err := os.Rename(stagingPath, path); err != nil {
		return fmt.Errorf("failed to commit upload: %w", err)
	}
	return nil
}

// Resolve returns the original file path for id. It is a pure lookup and the
// only path-construction entry point exposed to the streaming layer.
func (s *Store) Resolve(id string) (string, error) {
	s.mu.RLock()
	path, ok := s.paths[id]
	s.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return path, nil
}

// ThumbnailPathFor derives the thumbnail path for an id. The path depends on
// the id alone; it exists on disk only after generation succeeded.
func (s *Store) ThumbnailPathFor(id string) string {
	return filepath.Join(s.thumbnailDir, id+".jpg")
}

// Forget drops the id from the lookup table without touching disk. After
// Forget returns, Resolve fails for the id, closing the window for new opens.
func (s *Store) Forget(id string) {
	s.mu.Lock()
	delete(s.paths, id)
	s.mu.Unlock()
}

// Remove deletes the original and thumbnail files for id. The id must
// already have been forgotten or never allocated; Remove works from the
// given path so it stays usable after Forget.
func (s *Store) Remove(id, path string) error {
	var errs []error
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	if err := os.Remove(s.ThumbnailPathFor(id)); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Discard removes a partially written original and forgets its id. Used when
// an upload fails midway so no orphan file or resolvable id remains.
func (s *Store) Discard(id, path string) {
	s.Forget(id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove partial upload %s: %v", path, err)
	}
}

// ScannedFile describes one original discovered on disk during Scan.
type ScannedFile struct {
	ID        string
	Path      string
	SizeBytes int64
}

// Scan enumerates original files under videos/ and re-registers them in the
// lookup table. It runs once at startup so the catalog can be reconciled
// before the server accepts requests; it is never consulted on the listing
// path.
func (s *Store) Scan() ([]ScannedFile, error) {
	entries, err := os.ReadDir(s.videoDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan storage: %w", err)
	}

	var files []ScannedFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			// A dot-prefixed video file is a staging remnant from an
			// interrupted upload; nothing can ever reference it.
			if mediatypes.Allowed(name) {
				if err := os.Remove(filepath.Join(s.videoDir, name)); err != nil {
					logging.Warn("scan failed to remove stale staging file %s: %v", name, err)
				} else {
					logging.Info("scan removed stale staging file %s", name)
				}
			}
			continue
		}
		if !mediatypes.Allowed(name) {
			logging.Debug("scan skipping non-video file: %s", name)
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logging.Warn("scan failed to stat %s: %v", name, err)
			continue
		}

		id := strings.TrimSuffix(name, mediatypes.Ext(name))
		path := filepath.Join(s.videoDir, name)

		s.mu.Lock()
		s.paths[id] = path
		s.mu.Unlock()

		files = append(files, ScannedFile{ID: id, Path: path, SizeBytes: info.Size()})
	}
	return files, nil
}

// VideoDir returns the directory holding original files. The indexer watches
// it for files dropped outside the upload path.
func (s *Store) VideoDir() string {
	return s.videoDir
}

// Adopt registers an externally created file under a fresh id without
// copying it. Used by the indexer when a video appears directly in the
// videos directory.
func (s *Store) Adopt(path string) (string, error) {
	if filepath.Dir(path) != s.videoDir {
		return "", fmt.Errorf("storage: refusing to adopt file outside videos dir: %s", path)
	}
	id := strings.TrimSuffix(filepath.Base(path), mediatypes.Ext(path))

	s.mu.Lock()
	s.paths[id] = path
	s.mu.Unlock()

	return id, nil
}

// UsageBytes sums the size of all tracked originals, for metrics.
func (s *Store) UsageBytes() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, path := range s.paths {
		if info, err := os.Stat(path); err == nil {
			total += info.Size()
		}
	}
	return total
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}
