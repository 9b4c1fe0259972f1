package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"video-vault/internal/catalog"
	"video-vault/internal/ingest"
	"video-vault/internal/startup"
	"video-vault/internal/storage"
	"video-vault/internal/thumbnail"
)

func newTestHandlers(t *testing.T) (*Handlers, *catalog.Catalog, *storage.Store) {
	t.Helper()

	store, err := storage.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	cat := catalog.New(store, nil)

	// The pool is never started; queued jobs simply accumulate.
	pool := thumbnail.NewPool(cat, store, thumbnail.NewFFmpegExtractor(), 1)

	config := &startup.Config{
		MaxUploadBytes: 1 << 20,
	}
	svc := ingest.NewService(cat, store, pool, config.MaxUploadBytes)

	h := New(cat, store, svc, pool, config)
	h.SetReady()
	return h, cat, store
}

func newTestRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/videos", h.UploadVideo).Methods("POST")
	api.HandleFunc("/videos", h.ListVideos).Methods("GET")
	api.HandleFunc("/videos/{id}/content", h.GetContent).Methods("GET")
	api.HandleFunc("/videos/{id}/thumbnail", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/videos/{id}", h.DeleteVideo).Methods("DELETE")
	return r
}

// multipartBody builds a multipart request body with the upload under the
// given field name.
func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func uploadVideo(t *testing.T, router *mux.Router, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, "video", filename, content)
	req := httptest.NewRequest(http.MethodPost, "/api/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// readyAsset registers an asset with content and a thumbnail, marked ready.
func readyAsset(t *testing.T, cat *catalog.Catalog, store *storage.Store, name, content string) catalog.VideoAsset {
	t.Helper()
	id, path := store.Allocate(name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	asset := catalog.VideoAsset{
		ID:           id,
		OriginalName: name,
		StoragePath:  path,
		SizeBytes:    int64(len(content)),
		Status:       catalog.StatusProcessing,
		CreatedAt:    time.Now().UTC(),
	}
	if err := cat.Register(asset); err != nil {
		t.Fatal(err)
	}
	thumbPath := store.ThumbnailPathFor(id)
	if err := os.WriteFile(thumbPath, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := cat.UpdateStatus(id, catalog.StatusReady, thumbPath, ""); err != nil {
		t.Fatal(err)
	}
	got, err := cat.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	return got
}

func decodeJSON(rec *httptest.ResponseRecorder, v interface{}) error {
	return json.NewDecoder(rec.Body).Decode(v)
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("response is not error JSON: %v", err)
	}
	return body
}

func TestUploadVideoCreated(t *testing.T) {
	t.Parallel()

	h, cat, store := newTestHandlers(t)
	router := newTestRouter(h)

	rec := uploadVideo(t, router, "vacation.mp4", "pretend mp4 bytes")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var asset catalog.VideoAsset
	if err := json.NewDecoder(rec.Body).Decode(&asset); err != nil {
		t.Fatal(err)
	}
	if asset.ID == "" {
		t.Error("response must carry the generated id")
	}
	if asset.OriginalName != "vacation.mp4" {
		t.Errorf("originalName = %q", asset.OriginalName)
	}
	if asset.Status != catalog.StatusProcessing {
		t.Errorf("status = %s, want processing", asset.Status)
	}

	if _, err := cat.Get(asset.ID); err != nil {
		t.Errorf("uploaded asset missing from catalog: %v", err)
	}
	if _, err := store.Resolve(asset.ID); err != nil {
		t.Errorf("uploaded asset missing from storage: %v", err)
	}
}

func TestUploadVideoRejectsTraversalName(t *testing.T) {
	t.Parallel()

	h, cat, _ := newTestHandlers(t)
	router := newTestRouter(h)

	rec := uploadVideo(t, router, "../../etc/passwd.mp4", "x")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeError(t, rec); body["error"] != "invalid_name" {
		t.Errorf("error = %q, want invalid_name", body["error"])
	}
	if cat.Len() != 0 {
		t.Error("rejected upload must not be registered")
	}
}

func TestUploadVideoRejectsUnsupportedType(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	router := newTestRouter(h)

	rec := uploadVideo(t, router, "notes.txt", "not a video")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeError(t, rec); body["error"] != "unsupported_type" {
		t.Errorf("error = %q, want unsupported_type", body["error"])
	}
}

func TestUploadVideoRejectsOversizedPayload(t *testing.T) {
	t.Parallel()

	h, cat, store := newTestHandlers(t)
	h.config.MaxUploadBytes = 64
	h.ingest = ingest.NewService(cat, store, h.pool, 64)
	router := newTestRouter(h)

	rec := uploadVideo(t, router, "big.mp4", strings.Repeat("v", 1000))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if body := decodeError(t, rec); body["error"] != "payload_too_large" {
		t.Errorf("error = %q, want payload_too_large", body["error"])
	}
	if cat.Len() != 0 {
		t.Error("oversized upload must not be registered")
	}
}

func TestUploadVideoMissingField(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	router := newTestRouter(h)

	body, contentType := multipartBody(t, "file", "movie.mp4", "bytes")
	req := httptest.NewRequest(http.MethodPost, "/api/videos", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if body := decodeError(t, rec); body["error"] != "missing_file" {
		t.Errorf("error = %q, want missing_file", body["error"])
	}
}

func TestUploadVideoNotMultipart(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	router := newTestRouter(h)

	req := httptest.NewRequest(http.MethodPost, "/api/videos", strings.NewReader("raw bytes"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestListVideosOrderedAndComplete(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	router := newTestRouter(h)

	var uploaded []string
	for i := 0; i < 3; i++ {
		rec := uploadVideo(t, router, fmt.Sprintf("clip-%d.mp4", i), "bytes")
		if rec.Code != http.StatusCreated {
			t.Fatalf("upload %d failed: %d", i, rec.Code)
		}
		var asset catalog.VideoAsset
		if err := json.NewDecoder(rec.Body).Decode(&asset); err != nil {
			t.Fatal(err)
		}
		uploaded = append(uploaded, asset.ID)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var listing struct {
		Videos []videoListItem `json:"videos"`
		Count  int             `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listing); err != nil {
		t.Fatal(err)
	}
	if listing.Count != 3 {
		t.Fatalf("count = %d, want 3", listing.Count)
	}
	for i, item := range listing.Videos {
		if item.ID != uploaded[i] {
			t.Errorf("listing[%d] = %s, want %s (upload order)", i, item.ID, uploaded[i])
		}
	}
}

func TestListVideosReadyOnlyFilter(t *testing.T) {
	t.Parallel()

	h, cat, store := newTestHandlers(t)
	h.config.ListReadyOnly = true
	router := newTestRouter(h)

	ready := readyAsset(t, cat, store, "done.mp4", "bytes")
	if rec := uploadVideo(t, router, "pending.mp4", "bytes"); rec.Code != http.StatusCreated {
		t.Fatalf("upload failed: %d", rec.Code)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))

	var listing struct {
		Videos []videoListItem `json:"videos"`
		Count  int             `json:"count"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listing); err != nil {
		t.Fatal(err)
	}
	if listing.Count != 1 {
		t.Fatalf("count = %d, want 1 (ready only)", listing.Count)
	}
	if listing.Videos[0].ID != ready.ID {
		t.Errorf("listed id = %s, want %s", listing.Videos[0].ID, ready.ID)
	}
	if want := "/api/videos/" + ready.ID + "/thumbnail"; listing.Videos[0].ThumbnailURL != want {
		t.Errorf("thumbnailUrl = %q, want %q", listing.Videos[0].ThumbnailURL, want)
	}
}

func TestListVideosNeverExposesPaths(t *testing.T) {
	t.Parallel()

	h, cat, store := newTestHandlers(t)
	router := newTestRouter(h)
	readyAsset(t, cat, store, "secret.mp4", "bytes")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/videos", nil))

	raw, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(raw), store.Root()) {
		t.Error("listing leaks storage paths")
	}
}

func TestDeleteVideo(t *testing.T) {
	t.Parallel()

	h, cat, store := newTestHandlers(t)
	router := newTestRouter(h)
	asset := readyAsset(t, cat, store, "gone.mp4", "bytes")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/videos/"+asset.ID, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}

	if _, err := cat.Get(asset.ID); err == nil {
		t.Error("deleted asset still in catalog")
	}
	if _, err := store.Resolve(asset.ID); err == nil {
		t.Error("deleted asset still resolvable")
	}
	if _, err := os.Stat(asset.StoragePath); !os.IsNotExist(err) {
		t.Error("original file not removed")
	}
	if _, err := os.Stat(asset.ThumbnailPath); !os.IsNotExist(err) {
		t.Error("thumbnail file not removed")
	}

	// Second delete is a 404, not an error.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/videos/"+asset.ID, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestDeleteVideoUnknownID(t *testing.T) {
	t.Parallel()

	h, _, _ := newTestHandlers(t)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/videos/no-such-id", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
