package streaming

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
)

func TestCopyExactLength(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("abcdefgh"), 1024) // 8KB
	rec := httptest.NewRecorder()

	written, err := Copy(context.Background(), rec, bytes.NewReader(data), int64(len(data)), CopyConfig{ChunkSize: 1024})
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if written != int64(len(data)) {
		t.Errorf("written = %d, want %d", written, len(data))
	}
	if !bytes.Equal(rec.Body.Bytes(), data) {
		t.Error("copied bytes differ from source")
	}
}

func TestCopyPartialLength(t *testing.T) {
	t.Parallel()

	data := []byte("0123456789")
	rec := httptest.NewRecorder()

	written, err := Copy(context.Background(), rec, bytes.NewReader(data), 4, DefaultCopyConfig())
	if err != nil {
		t.Fatalf("Copy failed: %v", err)
	}
	if written != 4 {
		t.Errorf("written = %d, want 4", written)
	}
	if got := rec.Body.String(); got != "0123" {
		t.Errorf("body = %q, want %q", got, "0123")
	}
}

func TestCopyCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	data := bytes.Repeat([]byte("x"), 4096)
	rec := httptest.NewRecorder()

	_, err := Copy(ctx, rec, bytes.NewReader(data), int64(len(data)), CopyConfig{ChunkSize: 512})
	if !errors.Is(err, ErrClientGone) {
		t.Errorf("Copy with canceled context = %v, want ErrClientGone", err)
	}
}

func TestCopyShortSource(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	_, err := Copy(context.Background(), rec, bytes.NewReader([]byte("short")), 100, DefaultCopyConfig())
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Copy past source end = %v, want ErrUnexpectedEOF", err)
	}
}

func TestCopyProgressCallback(t *testing.T) {
	t.Parallel()

	data := bytes.Repeat([]byte("y"), 3000)
	rec := httptest.NewRecorder()

	var last int64
	config := CopyConfig{
		ChunkSize:  1024,
		OnProgress: func(n int64) { last = n },
	}
	if _, err := Copy(context.Background(), rec, bytes.NewReader(data), 3000, config); err != nil {
		t.Fatal(err)
	}
	if last != 3000 {
		t.Errorf("final progress = %d, want 3000", last)
	}
}
