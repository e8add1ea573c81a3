// Package dedup walks a uniformly sampled frame sequence in timestamp order
// and splits it into kept frames and runs of near-duplicates, using
// perceptual hash distance against an adaptively derived threshold.
package dedup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/patarapolw/yt2pptx/pkg/logger"
	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/imagehash"
	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/timestamp"
)

// Logger is the narrow logging surface the deduplicator needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// FrameUnreadableError reports a frame image that could not be decoded. The
// run aborts on the first such frame: a gap in the sequence would corrupt
// timestamp semantics downstream.
type FrameUnreadableError struct {
	Index int
	Path  string
	Err   error
}

func (e *FrameUnreadableError) Error() string {
	return fmt.Sprintf("frame %d unreadable (%s): %v", e.Index, e.Path, e.Err)
}

func (e *FrameUnreadableError) Unwrap() error { return e.Err }

// KeptFrame is a frame that survived deduplication, with its final on-disk
// path and its offset into the source video.
type KeptFrame struct {
	Index   int
	Path    string
	Seconds int
}

// DuplicateRun is a maximal contiguous range of dropped frame indices,
// bounded on both sides by kept frames or a sequence edge.
type DuplicateRun struct {
	StartIndex int
	EndIndex   int
}

// StartSeconds returns the first dropped frame's own timestamp.
func (r DuplicateRun) StartSeconds(intervalSeconds int) int {
	return r.StartIndex * intervalSeconds
}

// EndSeconds returns the last dropped frame's timestamp.
func (r DuplicateRun) EndSeconds(intervalSeconds int) int {
	return r.EndIndex * intervalSeconds
}

// Result is the outcome of one deduplication run.
type Result struct {
	Kept []KeptFrame
	Runs []DuplicateRun

	Threshold        int
	ThresholdDerived bool
	Mean             float64
	Stdev            float64

	// Frames whose delete or rename failed. Harmless clutter, never fatal,
	// but surfaced so callers can report them.
	FailedRemovals []string
	FailedRenames  []string
}

// DroppedCount returns the total number of frames covered by duplicate runs.
func (r *Result) DroppedCount() int {
	n := 0
	for _, run := range r.Runs {
		n += run.EndIndex - run.StartIndex + 1
	}
	return n
}

// Config holds the explicit per-run configuration. There are no package
// level defaults for interval or threshold.
type Config struct {
	// IntervalSeconds is the uniform sampling interval the frames were
	// extracted at.
	IntervalSeconds int

	// Threshold, when non-nil, is the caller-supplied similarity threshold.
	// When nil the threshold is derived from the distance distribution.
	Threshold *int

	// Workers bounds the fingerprinting pool. Defaults to runtime.NumCPU().
	Workers int

	Log Logger
}

// Deduplicator classifies frames as kept or dropped and performs the
// corresponding filesystem side effects.
type Deduplicator struct {
	cfg Config
}

func New(cfg Config) (*Deduplicator, error) {
	if cfg.IntervalSeconds < 1 {
		return nil, fmt.Errorf("dedup: interval must be at least 1 second, got %d", cfg.IntervalSeconds)
	}
	if cfg.Threshold != nil && *cfg.Threshold < 0 {
		return nil, fmt.Errorf("dedup: threshold must be non-negative, got %d", *cfg.Threshold)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.Log == nil {
		cfg.Log = logger.GetLogger()
	}
	return &Deduplicator{cfg: cfg}, nil
}

// Run fingerprints every frame, resolves the threshold, classifies the
// sequence, then deletes dropped frames and renames kept frames to their
// timestamp form. Kept frames are returned in increasing timestamp order.
func (d *Deduplicator) Run(ctx context.Context, framePaths []string) (*Result, error) {
	res := &Result{ThresholdDerived: d.cfg.Threshold == nil}
	if d.cfg.Threshold != nil {
		res.Threshold = *d.cfg.Threshold
	} else {
		res.Threshold = FallbackThreshold
	}

	// Zero frames is a valid, degenerate input. Do not touch statistics.
	if len(framePaths) == 0 {
		return res, nil
	}

	fps, err := d.fingerprints(ctx, framePaths)
	if err != nil {
		return nil, err
	}

	if d.cfg.Threshold == nil {
		stats, err := DeriveThreshold(fps)
		if err != nil {
			return nil, err
		}
		res.Threshold = stats.Threshold
		res.Mean = stats.Mean
		res.Stdev = stats.Stdev
		d.cfg.Log.Infof("derived hash threshold %d (mean=%.2f stdev=%.2f over %d distances)",
			stats.Threshold, stats.Mean, stats.Stdev, len(fps)-1)
	} else {
		d.cfg.Log.Infof("using explicit hash threshold %d", res.Threshold)
	}

	cl, err := Classify(ctx, fps, res.Threshold)
	if err != nil {
		return nil, err
	}
	res.Runs = cl.Runs

	d.apply(cl, framePaths, res)
	return res, nil
}

// fingerprints hashes all frames through a bounded worker pool. Workers
// write into disjoint slots of a preallocated slice, so no lock guards the
// results. The first unreadable frame (lowest index) aborts the run.
func (d *Deduplicator) fingerprints(ctx context.Context, paths []string) ([]imagehash.Fingerprint, error) {
	fps := make([]imagehash.Fingerprint, len(paths))

	workers := d.cfg.Workers
	if workers > len(paths) {
		workers = len(paths)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup

	var mu sync.Mutex
	var firstErr *FrameUnreadableError

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fp, err := imagehash.HashFile(paths[i])
				if err != nil {
					mu.Lock()
					if firstErr == nil || i < firstErr.Index {
						firstErr = &FrameUnreadableError{Index: i, Path: paths[i], Err: err}
					}
					mu.Unlock()
					cancel()
					continue
				}
				fps[i] = fp
			}
		}()
	}

feed:
	for i := range paths {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fps, nil
}

// Classification is the pure outcome of the scan: every frame index appears
// either in KeptIndices or inside exactly one DuplicateRun.
type Classification struct {
	KeptIndices []int
	Runs        []DuplicateRun
}

// Classify performs the sequential keep/drop fold over a fingerprint
// sequence. A frame is kept when its distance to the most recently kept
// fingerprint exceeds the threshold; the first frame is always kept.
// Cancellation is checked once per frame.
func Classify(ctx context.Context, fps []imagehash.Fingerprint, threshold int) (*Classification, error) {
	cl := &Classification{}

	var lastKept *imagehash.Fingerprint
	runStart := -1

	closeRun := func(end int) {
		if runStart >= 0 {
			cl.Runs = append(cl.Runs, DuplicateRun{StartIndex: runStart, EndIndex: end})
			runStart = -1
		}
	}

	for i := range fps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		keep := lastKept == nil
		if !keep {
			d, err := imagehash.Distance(fps[i], *lastKept)
			if err != nil {
				return nil, err
			}
			keep = d > threshold
		}

		if keep {
			closeRun(i - 1)
			cl.KeptIndices = append(cl.KeptIndices, i)
			lastKept = &fps[i]
		} else {
			if runStart < 0 {
				runStart = i
			}
		}
	}
	closeRun(len(fps) - 1)

	return cl, nil
}

// apply performs the batched filesystem side effects for a classification:
// dropped frames are deleted, kept frames are renamed to "hh-mm-ss.jpg".
// Individual failures are logged and collected, never fatal.
func (d *Deduplicator) apply(cl *Classification, paths []string, res *Result) {
	dropped := make(map[int]bool)
	for _, run := range cl.Runs {
		for i := run.StartIndex; i <= run.EndIndex; i++ {
			dropped[i] = true
		}
	}

	for _, i := range cl.KeptIndices {
		seconds := i * d.cfg.IntervalSeconds
		newPath := filepath.Join(filepath.Dir(paths[i]), timestamp.Filename(seconds)+".jpg")

		// A stale frame from an earlier interrupted run may occupy the slot.
		if _, err := os.Stat(newPath); err == nil {
			if err := os.Remove(newPath); err != nil {
				d.cfg.Log.Warnf("could not clear stale frame %s: %v", newPath, err)
			}
		}

		finalPath := newPath
		if err := os.Rename(paths[i], newPath); err != nil {
			d.cfg.Log.Warnf("could not rename kept frame %s: %v", paths[i], err)
			res.FailedRenames = append(res.FailedRenames, paths[i])
			finalPath = paths[i]
		}
		res.Kept = append(res.Kept, KeptFrame{Index: i, Path: finalPath, Seconds: seconds})
	}

	for i := range paths {
		if !dropped[i] {
			continue
		}
		if err := os.Remove(paths[i]); err != nil {
			d.cfg.Log.Warnf("could not remove duplicate frame %s: %v", paths[i], err)
			res.FailedRemovals = append(res.FailedRemovals, paths[i])
		}
	}
}
