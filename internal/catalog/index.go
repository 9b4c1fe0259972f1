package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"video-vault/internal/logging"
)

const indexTimeout = 5 * time.Second

// Index is the persisted mirror of the catalog, one SQLite file inside the
// storage root. It only exists so a restart can pick up where the previous
// process left off; the in-memory catalog remains the source of truth while
// the service runs.
type Index struct {
	db *sql.DB
}

// OpenIndex opens (or creates) the index database at path. The parent
// directory must already exist; startup validates the storage root first.
func OpenIndex(ctx context.Context, path string) (*Index, error) {
	// busy_timeout guards against transient "database is locked" errors
	// when catalog mutations and the collector overlap.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog index: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close index after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to catalog index: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)

	idx := &Index{db: db}
	if err := idx.initialize(ctx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Error("failed to close index after schema failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	logging.Debug("catalog index ready at %s", path)
	return idx, nil
}

func (i *Index) initialize(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assets (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		original_name TEXT NOT NULL,
		storage_path TEXT NOT NULL,
		thumbnail_path TEXT NOT NULL DEFAULT '',
		size_bytes INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		failure_reason TEXT NOT NULL DEFAULT '',
		duration_seconds REAL NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_assets_status ON assets(status);
	`

	execCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := i.db.ExecContext(execCtx, schema)
	return err
}

// Upsert writes the asset row, replacing any previous state for the id.
// The insertion sequence of the first write is preserved across updates.
func (i *Index) Upsert(asset *VideoAsset) error {
	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	_, err := i.db.ExecContext(ctx, `
		INSERT INTO assets (id, original_name, storage_path, thumbnail_path, size_bytes, status, failure_reason, duration_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			thumbnail_path = excluded.thumbnail_path,
			size_bytes = excluded.size_bytes,
			status = excluded.status,
			failure_reason = excluded.failure_reason,
			duration_seconds = excluded.duration_seconds`,
		asset.ID, asset.OriginalName, asset.StoragePath, asset.ThumbnailPath,
		asset.SizeBytes, string(asset.Status), asset.FailureReason,
		asset.DurationSeconds, asset.CreatedAt.Unix(),
	)
	return err
}

// Delete removes the asset row.
func (i *Index) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	_, err := i.db.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	return err
}

// LoadAll returns every persisted asset in original insertion order.
func (i *Index) LoadAll(ctx context.Context) ([]VideoAsset, error) {
	queryCtx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	rows, err := i.db.QueryContext(queryCtx, `
		SELECT id, original_name, storage_path, thumbnail_path, size_bytes, status, failure_reason, duration_seconds, created_at
		FROM assets ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog index: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			logging.Warn("failed to close index rows: %v", closeErr)
		}
	}()

	var assets []VideoAsset
	for rows.Next() {
		var (
			asset     VideoAsset
			status    string
			createdAt int64
		)
		if err := rows.Scan(&asset.ID, &asset.OriginalName, &asset.StoragePath,
			&asset.ThumbnailPath, &asset.SizeBytes, &status,
			&asset.FailureReason, &asset.DurationSeconds, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan asset row: %w", err)
		}
		asset.Status = Status(status)
		asset.CreatedAt = time.Unix(createdAt, 0).UTC()
		assets = append(assets, asset)
	}
	return assets, rows.Err()
}

// Close closes the underlying database.
func (i *Index) Close() error {
	return i.db.Close()
}
