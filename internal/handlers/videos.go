package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"video-vault/internal/catalog"
	"video-vault/internal/ingest"
	"video-vault/internal/logging"
)

// uploadFieldName is the multipart form field carrying the video file.
const uploadFieldName = "video"

// UploadVideo accepts a multipart upload and commits it through the
// ingestion service. The request body is streamed; it is never buffered in
// full.
func (h *Handlers) UploadVideo(w http.ResponseWriter, r *http.Request) {
	reader, err := r.MultipartReader()
	if err != nil {
		writeJSONError(w, "invalid_multipart", "request is not valid multipart/form-data", http.StatusBadRequest)
		return
	}

	for {
		part, err := reader.NextPart()
		if err != nil {
			writeJSONError(w, "missing_file", fmt.Sprintf("multipart field %q not found", uploadFieldName), http.StatusBadRequest)
			return
		}
		if part.FormName() != uploadFieldName {
			continue
		}

		asset, err := h.ingest.Ingest(r.Context(), part.FileName(), part)
		if err != nil {
			h.writeUploadError(w, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		writeJSON(w, asset)
		return
	}
}

func (h *Handlers) writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ingest.ErrInvalidName):
		writeJSONError(w, "invalid_name", "file name must be a plain name without path components", http.StatusBadRequest)
	case errors.Is(err, ingest.ErrUnsupportedType):
		writeJSONError(w, "unsupported_type", "file extension is not an allowed video container", http.StatusBadRequest)
	case errors.Is(err, ingest.ErrPayloadTooLarge):
		writeJSONError(w, "payload_too_large", "upload exceeds the configured size limit", http.StatusRequestEntityTooLarge)
	case errors.Is(err, ingest.ErrClientGone):
		// The client is no longer listening; nothing useful to write.
		logging.Debug("upload abandoned by client: %v", err)
	default:
		logging.Error("upload failed: %v", err)
		writeJSONError(w, "storage_error", "failed to store the upload", http.StatusInternalServerError)
	}
}

// videoListItem is the listing view of an asset, with the thumbnail URL
// derived rather than exposing any storage path.
type videoListItem struct {
	catalog.VideoAsset
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// ListVideos returns all catalog entries in upload order. The catalog
// snapshot is the sole source; the storage directory is never rescanned
// here.
func (h *Handlers) ListVideos(w http.ResponseWriter, _ *http.Request) {
	assets := h.catalog.List()

	items := make([]videoListItem, 0, len(assets))
	for _, asset := range assets {
		if h.config.ListReadyOnly && asset.Status != catalog.StatusReady {
			continue
		}
		item := videoListItem{VideoAsset: asset}
		if asset.HasThumbnail() {
			item.ThumbnailURL = "/api/videos/" + asset.ID + "/thumbnail"
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]interface{}{
		"videos": items,
		"count":  len(items),
	})
}

// DeleteVideo removes an asset. The catalog entry and the id lookup are
// revoked before any file is unlinked, so a concurrent request cannot begin
// a new stream mid-delete.
func (h *Handlers) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.catalog.Delete(id); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			writeJSONError(w, "not_found", "no such video", http.StatusNotFound)
			return
		}
		logging.Error("failed to delete %s: %v", id, err)
		writeJSONError(w, "delete_failed", "failed to delete the video", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
