package catalog

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"video-vault/internal/logging"
	"video-vault/internal/mediatypes"
	"video-vault/internal/storage"
)

// Rebuild reconstructs the catalog after a restart, before the server
// accepts any request. It reconciles the persisted index against what is
// actually on disk:
//
//   - index rows whose file survives are restored with their size refreshed
//     from the filesystem;
//   - rows whose file is gone are dropped from the index;
//   - files with no row (dropped into the directory out of band, or written
//     before a crash) are registered fresh in the processing state;
//   - restored assets stuck in processing, or ready assets whose thumbnail
//     file vanished, are returned so the caller can re-enqueue them.
//
// Rebuild returns the assets that still need thumbnail work.
func (c *Catalog) Rebuild(ctx context.Context) ([]VideoAsset, error) {
	scanned, err := c.store.Scan()
	if err != nil {
		return nil, err
	}
	onDisk := make(map[string]storage.ScannedFile, len(scanned))
	for _, f := range scanned {
		onDisk[f.ID] = f
	}

	var persisted []VideoAsset
	if c.index != nil {
		persisted, err = c.index.LoadAll(ctx)
		if err != nil {
			return nil, err
		}
	}

	var pending []VideoAsset
	restored := make(map[string]bool, len(persisted))

	for _, asset := range persisted {
		file, exists := onDisk[asset.ID]
		if !exists {
			logging.Warn("index row %s (%s) has no file on disk, dropping", asset.ID, asset.OriginalName)
			if c.index != nil {
				if err := c.index.Delete(asset.ID); err != nil {
					logging.Warn("failed to drop stale index row %s: %v", asset.ID, err)
				}
			}
			continue
		}

		asset.SizeBytes = file.SizeBytes
		asset.StoragePath = file.Path

		// A restart interrupts in-flight thumbnail jobs; treat a lost
		// thumbnail file the same way.
		needsWork := asset.Status == StatusProcessing
		if asset.Status == StatusReady && !thumbnailExists(asset.ThumbnailPath) {
			logging.Warn("asset %s lost its thumbnail, re-queueing", asset.ID)
			asset.Status = StatusProcessing
			asset.ThumbnailPath = ""
			needsWork = true
		}

		c.restore(asset)
		c.persist(&asset)
		restored[asset.ID] = true
		if needsWork {
			pending = append(pending, asset)
		}
	}

	for _, file := range scanned {
		if restored[file.ID] {
			continue
		}
		asset := VideoAsset{
			ID:           file.ID,
			OriginalName: filepath.Base(file.Path),
			StoragePath:  file.Path,
			SizeBytes:    file.SizeBytes,
			Status:       StatusProcessing,
			CreatedAt:    time.Now().UTC(),
		}
		// Externally dropped files keep a valid container extension or
		// Scan would not have reported them.
		if !mediatypes.Allowed(asset.OriginalName) {
			continue
		}
		c.restore(asset)
		c.persist(&asset)
		pending = append(pending, asset)
		logging.Info("registered unindexed file %s as asset %s", asset.OriginalName, asset.ID)
	}

	logging.Info("catalog rebuilt: %d assets, %d pending thumbnail work", c.Len(), len(pending))
	return pending, nil
}

func thumbnailExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
