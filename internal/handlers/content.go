package handlers

import (
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"video-vault/internal/filesystem"
	"video-vault/internal/logging"
	"video-vault/internal/mediatypes"
	"video-vault/internal/metrics"
	"video-vault/internal/streaming"
)

// GetContent streams video bytes with strict Range semantics: 200 for a full
// read, 206 for a valid range, 416 for an unsatisfiable one, 400 for a
// malformed header. An invalid range is never silently served as a full
// response.
func (h *Handlers) GetContent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if _, err := h.catalog.Get(id); err != nil {
		metrics.StreamRequestsTotal.WithLabelValues("not_found").Inc()
		writeJSONError(w, "not_found", "no such video", http.StatusNotFound)
		return
	}

	path, err := h.store.Resolve(id)
	if err != nil {
		metrics.StreamRequestsTotal.WithLabelValues("not_found").Inc()
		writeJSONError(w, "not_found", "no such video", http.StatusNotFound)
		return
	}

	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		if os.IsNotExist(err) {
			metrics.StreamRequestsTotal.WithLabelValues("not_found").Inc()
			writeJSONError(w, "not_found", "no such video", http.StatusNotFound)
			return
		}
		logging.Error("failed to open %s: %v", path, err)
		writeJSONError(w, "read_failed", "failed to open the video", http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close %s: %v", path, err)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		logging.Error("failed to stat %s: %v", path, err)
		writeJSONError(w, "read_failed", "failed to read the video", http.StatusInternalServerError)
		return
	}
	size := info.Size()

	byteRange, err := streaming.ParseRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, streaming.ErrMalformedRange):
		metrics.StreamRequestsTotal.WithLabelValues("malformed").Inc()
		writeJSONError(w, "malformed_range", "Range header could not be parsed", http.StatusBadRequest)
		return
	case errors.Is(err, streaming.ErrUnsatisfiableRange):
		metrics.StreamRequestsTotal.WithLabelValues("unsatisfiable").Inc()
		w.Header().Set("Content-Range", streaming.UnsatisfiableContentRange(size))
		writeJSONError(w, "unsatisfiable_range", "requested range is outside the file", http.StatusRequestedRangeNotSatisfiable)
		return
	case err != nil:
		logging.Error("unexpected range parse failure: %v", err)
		writeJSONError(w, "read_failed", "failed to read the video", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", mediatypes.ContentType(mediatypes.Ext(path)))

	var length int64
	if byteRange == nil {
		length = size
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
		w.WriteHeader(http.StatusOK)
		metrics.StreamRequestsTotal.WithLabelValues("full").Inc()
	} else {
		length = byteRange.Length()
		if _, err := file.Seek(byteRange.Start, io.SeekStart); err != nil {
			logging.Error("failed to seek %s: %v", path, err)
			writeJSONError(w, "read_failed", "failed to read the video", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Range", byteRange.ContentRange(size))
		w.Header().Set("Content-Length", strconv.FormatInt(length, 10))
		w.WriteHeader(http.StatusPartialContent)
		metrics.StreamRequestsTotal.WithLabelValues("partial").Inc()
	}

	written, err := streaming.Copy(r.Context(), w, file, length, streaming.DefaultCopyConfig())
	metrics.StreamBytesTotal.Add(float64(written))
	if err != nil {
		if errors.Is(err, streaming.ErrClientGone) {
			metrics.StreamClientDisconnects.Inc()
			logging.Debug("client disconnected streaming %s after %d bytes", id, written)
			return
		}
		logging.Warn("stream of %s aborted after %d bytes: %v", id, written, err)
	}
}

// GetThumbnail serves the generated JPEG for a ready asset.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	asset, err := h.catalog.Get(id)
	if err != nil {
		writeJSONError(w, "not_found", "no such video", http.StatusNotFound)
		return
	}
	if !asset.HasThumbnail() {
		writeJSONError(w, "thumbnail_not_available", "thumbnail has not been generated", http.StatusNotFound)
		return
	}

	file, err := filesystem.OpenWithRetry(asset.ThumbnailPath, filesystem.DefaultRetryConfig())
	if err != nil {
		writeJSONError(w, "thumbnail_not_available", "thumbnail file is missing", http.StatusNotFound)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close %s: %v", asset.ThumbnailPath, err)
		}
	}()

	info, err := file.Stat()
	if err != nil {
		writeJSONError(w, "read_failed", "failed to read the thumbnail", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if _, err := io.Copy(w, file); err != nil {
		logging.Debug("thumbnail copy for %s aborted: %v", id, err)
	}
}
