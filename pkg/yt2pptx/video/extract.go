// Package video wraps the external collaborators of the deduplication core:
// yt-dlp for acquisition and ffmpeg for fixed-interval frame rasterization.
package video

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/patarapolw/yt2pptx/pkg/utils"
	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/timestamp"
)

// rawFrameGlob matches frames as ffmpeg writes them, before dedup renames
// the keepers.
const rawFrameGlob = "frame_[0-9][0-9][0-9][0-9].jpg"

// processedFrameGlob matches frames already renamed to their timestamp form.
const processedFrameGlob = "[0-9][0-9]-[0-9][0-9]-[0-9][0-9].jpg"

// ExtractFrames rasterizes one frame every intervalSeconds from videoPath
// into frameDir using ffmpeg, and returns the frame paths in sequence order.
// ffmpeg must be available on PATH.
func ExtractFrames(ctx context.Context, videoPath, frameDir string, intervalSeconds int) ([]string, error) {
	if intervalSeconds < 1 {
		return nil, fmt.Errorf("interval must be at least 1 second, got %d", intervalSeconds)
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Minute)
		defer cancel()
	}

	if err := utils.MakeDir(frameDir); err != nil {
		return nil, fmt.Errorf("creating frame directory: %w", err)
	}

	cmd := exec.CommandContext(
		ctx,
		"ffmpeg",
		"-loglevel", "error",
		"-i", videoPath,
		"-vf", fmt.Sprintf("fps=1/%d", intervalSeconds),
		"-q:v", "2",
		filepath.Join(frameDir, "frame_%04d.jpg"),
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("ffmpeg failed: %v (%s)", err, strings.TrimSpace(string(out)))
	}

	frames, err := filepath.Glob(filepath.Join(frameDir, rawFrameGlob))
	if err != nil {
		return nil, fmt.Errorf("globbing frames: %w", err)
	}
	sort.Strings(frames)
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", videoPath)
	}
	return frames, nil
}

// ProcessedFrame is a kept frame recovered from a directory that was already
// deduplicated at some earlier time.
type ProcessedFrame struct {
	Path    string
	Seconds int
}

// ListProcessedFrames scans frameDir for frames renamed to "hh-mm-ss.jpg"
// and returns them in chronological order. A non-empty result means the
// directory was already deduplicated, so extraction and scanning can be
// skipped for idempotent re-runs.
func ListProcessedFrames(frameDir string) ([]ProcessedFrame, error) {
	matches, err := filepath.Glob(filepath.Join(frameDir, processedFrameGlob))
	if err != nil {
		return nil, fmt.Errorf("globbing processed frames: %w", err)
	}

	frames := make([]ProcessedFrame, 0, len(matches))
	for _, path := range matches {
		stem := strings.TrimSuffix(filepath.Base(path), ".jpg")
		sec, err := timestamp.Parse(stem, "-")
		if err != nil {
			continue
		}
		frames = append(frames, ProcessedFrame{Path: path, Seconds: sec})
	}

	sort.Slice(frames, func(i, j int) bool { return frames[i].Seconds < frames[j].Seconds })
	return frames, nil
}
