package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"video-vault/internal/storage"
)

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenIndex(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("OpenIndex failed: %v", err)
	}
	t.Cleanup(func() {
		if err := idx.Close(); err != nil {
			t.Errorf("index close failed: %v", err)
		}
	})
	return idx
}

func TestIndexRoundTrip(t *testing.T) {
	t.Parallel()

	idx := newTestIndex(t)
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	assets := []VideoAsset{
		{ID: "one", OriginalName: "first.mp4", StoragePath: "/v/one.mp4", SizeBytes: 10, Status: StatusProcessing, CreatedAt: created},
		{ID: "two", OriginalName: "second.mov", StoragePath: "/v/two.mov", SizeBytes: 20, Status: StatusReady, ThumbnailPath: "/t/two.jpg", DurationSeconds: 12.5, CreatedAt: created},
		{ID: "three", OriginalName: "third.mp4", StoragePath: "/v/three.mp4", SizeBytes: 30, Status: StatusFailed, FailureReason: "ffmpeg failed", CreatedAt: created},
	}
	for i := range assets {
		if err := idx.Upsert(&assets[i]); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	loaded, err := idx.LoadAll(context.Background())
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(loaded) != 3 {
		t.Fatalf("LoadAll returned %d assets, want 3", len(loaded))
	}

	// Insertion order survives persistence.
	for i, want := range []string{"one", "two", "three"} {
		if loaded[i].ID != want {
			t.Errorf("loaded[%d].ID = %q, want %q", i, loaded[i].ID, want)
		}
	}
	if loaded[1].ThumbnailPath != "/t/two.jpg" || loaded[1].DurationSeconds != 12.5 {
		t.Errorf("ready asset lost fields: %+v", loaded[1])
	}
	if loaded[2].FailureReason != "ffmpeg failed" {
		t.Errorf("failed asset lost its reason: %+v", loaded[2])
	}
	if !loaded[0].CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", loaded[0].CreatedAt, created)
	}
}

func TestIndexUpsertPreservesSequence(t *testing.T) {
	t.Parallel()

	idx := newTestIndex(t)
	now := time.Now().UTC().Truncate(time.Second)

	first := VideoAsset{ID: "first", OriginalName: "a.mp4", StoragePath: "/v/a.mp4", Status: StatusProcessing, CreatedAt: now}
	second := VideoAsset{ID: "second", OriginalName: "b.mp4", StoragePath: "/v/b.mp4", Status: StatusProcessing, CreatedAt: now}
	for _, a := range []VideoAsset{first, second} {
		if err := idx.Upsert(&a); err != nil {
			t.Fatal(err)
		}
	}

	// Updating the first asset must not move it behind the second.
	first.Status = StatusReady
	first.ThumbnailPath = "/t/first.jpg"
	if err := idx.Upsert(&first); err != nil {
		t.Fatal(err)
	}

	loaded, err := idx.LoadAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if loaded[0].ID != "first" || loaded[0].Status != StatusReady {
		t.Errorf("upsert reordered or lost update: %+v", loaded)
	}
}

func TestIndexDelete(t *testing.T) {
	t.Parallel()

	idx := newTestIndex(t)
	asset := VideoAsset{ID: "gone", OriginalName: "g.mp4", StoragePath: "/v/g.mp4", Status: StatusProcessing, CreatedAt: time.Now()}
	if err := idx.Upsert(&asset); err != nil {
		t.Fatal(err)
	}
	if err := idx.Delete("gone"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	loaded, err := idx.LoadAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 0 {
		t.Errorf("LoadAll after Delete returned %d rows, want 0", len(loaded))
	}
}

func TestRebuildRestoresCatalogAcrossRestart(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	indexPath := filepath.Join(root, "catalog.db")

	store, err := storage.New(root)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := OpenIndex(context.Background(), indexPath)
	if err != nil {
		t.Fatal(err)
	}
	c := New(store, idx)

	// One ready asset with its thumbnail on disk, one still processing.
	ready := registeredAsset(t, c, store, "ready.mp4")
	thumb := store.ThumbnailPathFor(ready.ID)
	if err := os.WriteFile(thumb, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.UpdateStatus(ready.ID, StatusReady, thumb, ""); err != nil {
		t.Fatal(err)
	}
	pending := registeredAsset(t, c, store, "pending.mp4")

	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	// Simulated restart: fresh store, index, catalog over the same root.
	store2, err := storage.New(root)
	if err != nil {
		t.Fatal(err)
	}
	idx2, err := OpenIndex(context.Background(), indexPath)
	if err != nil {
		t.Fatal(err)
	}
	defer idx2.Close()

	c2 := New(store2, idx2)
	needsWork, err := c2.Rebuild(context.Background())
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}

	if c2.Len() != 2 {
		t.Fatalf("rebuilt catalog has %d assets, want 2", c2.Len())
	}
	got, err := c2.Get(ready.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != StatusReady {
		t.Errorf("ready asset restored as %q", got.Status)
	}

	if len(needsWork) != 1 || needsWork[0].ID != pending.ID {
		t.Errorf("pending work = %+v, want only the processing asset", needsWork)
	}
}

func TestRebuildRegistersOrphanFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	store, err := storage.New(root)
	if err != nil {
		t.Fatal(err)
	}
	// A file dropped into videos/ with no catalog history.
	dropped := filepath.Join(store.VideoDir(), "dropped.mp4")
	if err := os.WriteFile(dropped, []byte("raw video"), 0o644); err != nil {
		t.Fatal(err)
	}

	idx, err := OpenIndex(context.Background(), filepath.Join(root, "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	c := New(store, idx)
	pending, err := c.Rebuild(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1 orphan registration", len(pending))
	}
	if pending[0].Status != StatusProcessing {
		t.Errorf("orphan status = %q, want processing", pending[0].Status)
	}
	if pending[0].SizeBytes != int64(len("raw video")) {
		t.Errorf("orphan size = %d, want %d", pending[0].SizeBytes, len("raw video"))
	}
}

func TestRebuildDropsRowsWithMissingFiles(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	indexPath := filepath.Join(root, "catalog.db")

	store, err := storage.New(root)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := OpenIndex(context.Background(), indexPath)
	if err != nil {
		t.Fatal(err)
	}
	c := New(store, idx)

	asset := registeredAsset(t, c, store, "vanishing.mp4")
	if err := os.Remove(asset.StoragePath); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}

	store2, err := storage.New(root)
	if err != nil {
		t.Fatal(err)
	}
	idx2, err := OpenIndex(context.Background(), indexPath)
	if err != nil {
		t.Fatal(err)
	}
	defer idx2.Close()

	c2 := New(store2, idx2)
	if _, err := c2.Rebuild(context.Background()); err != nil {
		t.Fatal(err)
	}

	if c2.Len() != 0 {
		t.Errorf("rebuilt catalog has %d assets, want 0 (file was deleted)", c2.Len())
	}
}
