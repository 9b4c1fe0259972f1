package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"strconv"
	"strings"

	_ "image/png" // ffmpeg pipes frames out as PNG

	"github.com/disintegration/imaging"

	"video-vault/internal/logging"
)

const (
	// frameTimestamp is where the poster frame is taken from. Falls back
	// to the first frame for clips shorter than this.
	frameTimestamp = "00:00:05"

	thumbWidth  = 320
	thumbHeight = 240
	jpegQuality = 80
)

// Extractor produces a thumbnail file and probes media metadata for a
// source video. The production implementation shells out to ffmpeg; tests
// substitute fakes.
type Extractor interface {
	Extract(ctx context.Context, sourcePath, outputPath string) error
	Probe(ctx context.Context, sourcePath string) (durationSeconds float64, err error)
}

// FFmpegExtractor extracts frames with the ffmpeg and ffprobe binaries.
type FFmpegExtractor struct{}

// NewFFmpegExtractor returns the ffmpeg-backed extractor. It logs a warning
// when ffmpeg is not on PATH; extraction attempts will then fail and assets
// end up failed, which degrades presentation but never playability.
func NewFFmpegExtractor() *FFmpegExtractor {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		logging.Warn("ffmpeg not found in PATH, thumbnail generation will fail: %v", err)
	}
	return &FFmpegExtractor{}
}

// Extract grabs one frame, resizes it to fit the thumbnail box, and writes
// it as JPEG to outputPath.
func (e *FFmpegExtractor) Extract(ctx context.Context, sourcePath, outputPath string) error {
	frame, err := e.extractFrame(ctx, sourcePath)
	if err != nil {
		return err
	}

	thumb := imaging.Fit(frame, thumbWidth, thumbHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write thumbnail: %w", err)
	}
	return nil
}

// extractFrame pipes a single PNG frame out of ffmpeg. The first attempt
// seeks to frameTimestamp; clips shorter than that produce no output, so a
// second attempt takes the first frame instead.
func (e *FFmpegExtractor) extractFrame(ctx context.Context, sourcePath string) (image.Image, error) {
	stdout, err := e.runFFmpeg(ctx, sourcePath, true)
	if err != nil || stdout.Len() == 0 {
		logging.Debug("frame extraction at %s failed for %s, retrying with first frame", frameTimestamp, sourcePath)
		stdout, err = e.runFFmpeg(ctx, sourcePath, false)
		if err != nil {
			return nil, err
		}
	}

	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", sourcePath)
	}

	img, _, err := image.Decode(stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

func (e *FFmpegExtractor) runFFmpeg(ctx context.Context, sourcePath string, seek bool) (*bytes.Buffer, error) {
	args := []string{"-i", sourcePath}
	if seek {
		args = []string{"-ss", frameTimestamp, "-i", sourcePath}
	}
	args = append(args,
		"-vframes", "1",
		"-f", "image2pipe",
		"-vcodec", "png",
		"-",
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	return &stdout, nil
}

// Probe returns the media duration in seconds via ffprobe.
func (e *FFmpegExtractor) Probe(ctx context.Context, sourcePath string) (float64, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		sourcePath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %v, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(stdout.String()), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe duration %q: %w", stdout.String(), err)
	}
	return duration, nil
}
