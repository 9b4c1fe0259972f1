package streaming

import (
	"context"
	"errors"
	"io"
	"net/http"
)

// Sentinel errors for streaming operations.
var (
	// ErrClientGone indicates that the client disconnected before the
	// stream completed. Detected via the request context.
	ErrClientGone = errors.New("streaming: client disconnected")
)

// CopyConfig configures the chunked copy to the client.
type CopyConfig struct {
	// ChunkSize is the unit of copy between context checks.
	ChunkSize int
	// OnProgress, if set, is called after each chunk with total bytes written.
	OnProgress func(bytesWritten int64)
}

// DefaultCopyConfig returns the copy configuration used for video content.
func DefaultCopyConfig() CopyConfig {
	return CopyConfig{
		ChunkSize: 256 * 1024, // 256KB chunks for video
	}
}

// Copy streams exactly length bytes from r to w in chunks, checking the
// request context between chunks so a disconnected client stops the copy
// promptly instead of draining the whole file. It returns the bytes
// actually written and ErrClientGone when the context was canceled.
func Copy(ctx context.Context, w http.ResponseWriter, r io.Reader, length int64, config CopyConfig) (int64, error) {
	if config.ChunkSize <= 0 {
		config.ChunkSize = DefaultCopyConfig().ChunkSize
	}

	flusher, _ := w.(http.Flusher)
	buf := make([]byte, config.ChunkSize)

	var written int64
	for written < length {
		select {
		case <-ctx.Done():
			return written, clientError(ctx)
		default:
		}

		chunk := int64(config.ChunkSize)
		if remaining := length - written; remaining < chunk {
			chunk = remaining
		}

		n, readErr := io.ReadFull(r, buf[:chunk])
		if n > 0 {
			wn, writeErr := w.Write(buf[:n])
			written += int64(wn)
			if config.OnProgress != nil {
				config.OnProgress(written)
			}
			if writeErr != nil {
				if ctx.Err() != nil {
					return written, clientError(ctx)
				}
				return written, writeErr
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if readErr != nil {
			if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
				// Source ended early; report what we managed to send.
				return written, io.ErrUnexpectedEOF
			}
			return written, readErr
		}
	}

	return written, nil
}

func clientError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ErrClientGone
	}
	return ctx.Err()
}
