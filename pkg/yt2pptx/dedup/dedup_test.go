package dedup

import (
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/imagehash"
	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/timestamp"
)

func classifyOrFail(t *testing.T, fps []imagehash.Fingerprint, threshold int) *Classification {
	t.Helper()
	cl, err := Classify(context.Background(), fps, threshold)
	require.NoError(t, err)
	return cl
}

// requirePartition checks the invariants every classification must hold:
// each index is kept or dropped exactly once, runs are contiguous and
// bounded by kept frames or sequence edges, and index 0 is kept.
func requirePartition(t *testing.T, cl *Classification, n int) {
	t.Helper()

	seen := make(map[int]int)
	for _, i := range cl.KeptIndices {
		seen[i]++
	}
	kept := make(map[int]bool)
	for _, i := range cl.KeptIndices {
		kept[i] = true
	}
	for _, run := range cl.Runs {
		require.LessOrEqual(t, run.StartIndex, run.EndIndex)
		for i := run.StartIndex; i <= run.EndIndex; i++ {
			seen[i]++
		}
		if run.StartIndex > 0 {
			require.True(t, kept[run.StartIndex-1], "frame before run start must be kept")
		}
		if run.EndIndex < n-1 {
			require.True(t, kept[run.EndIndex+1], "frame after run end must be kept")
		}
	}

	for i := 0; i < n; i++ {
		require.Equal(t, 1, seen[i], "frame %d must be classified exactly once", i)
	}
	if n > 0 {
		require.True(t, kept[0], "first frame must always be kept")
	}
}

func TestClassifyEmpty(t *testing.T) {
	cl := classifyOrFail(t, nil, 5)
	require.Empty(t, cl.KeptIndices)
	require.Empty(t, cl.Runs)
}

func TestClassifySingleFrame(t *testing.T) {
	cl := classifyOrFail(t, chainFingerprints(t), FallbackThreshold)
	require.Equal(t, []int{0}, cl.KeptIndices)
	require.Empty(t, cl.Runs)
}

func TestClassifyAllIdentical(t *testing.T) {
	fps := make([]imagehash.Fingerprint, 10)
	for i := range fps {
		fps[i] = imagehash.New(0xABCD, imagehash.HashBits)
	}

	cl := classifyOrFail(t, fps, 1)
	require.Equal(t, []int{0}, cl.KeptIndices)
	require.Equal(t, []DuplicateRun{{StartIndex: 1, EndIndex: 9}}, cl.Runs)
	requirePartition(t, cl, len(fps))
}

func TestClassifyAllDistinct(t *testing.T) {
	// Five fingerprints with 12 private bits each: pairwise distance 24.
	fps := make([]imagehash.Fingerprint, 5)
	for i := range fps {
		var h uint64
		for b := 0; b < 12; b++ {
			h |= 1 << (i*12 + b)
		}
		fps[i] = imagehash.New(h, imagehash.HashBits)
	}

	cl := classifyOrFail(t, fps, 5)
	require.Equal(t, []int{0, 1, 2, 3, 4}, cl.KeptIndices)
	require.Empty(t, cl.Runs)
	requirePartition(t, cl, len(fps))
}

func TestClassifyMixed(t *testing.T) {
	// Consecutive distances [2,2,30,2,2] with threshold 10: indices 1 and 2
	// stay within reach of frame 0, frame 3 jumps out, 4 and 5 cling to it.
	fps := chainFingerprints(t, 2, 2, 30, 2, 2)

	cl := classifyOrFail(t, fps, 10)
	require.Equal(t, []int{0, 3}, cl.KeptIndices)
	require.Equal(t, []DuplicateRun{
		{StartIndex: 1, EndIndex: 2},
		{StartIndex: 4, EndIndex: 5},
	}, cl.Runs)
	requirePartition(t, cl, len(fps))
}

func TestClassifyDeterministic(t *testing.T) {
	fps := chainFingerprints(t, 3, 1, 12, 2, 9, 4)

	first := classifyOrFail(t, fps, 6)
	for i := 0; i < 5; i++ {
		again := classifyOrFail(t, fps, 6)
		require.Equal(t, first, again)
	}
}

func TestClassifyThresholdMonotonicity(t *testing.T) {
	// Raising the threshold must never decrease the number of drops.
	fps := chainFingerprints(t, 1, 7, 3, 15, 2, 6, 10, 4)

	prevDropped := -1
	for threshold := 0; threshold <= imagehash.HashBits; threshold++ {
		cl := classifyOrFail(t, fps, threshold)
		requirePartition(t, cl, len(fps))

		dropped := len(fps) - len(cl.KeptIndices)
		require.GreaterOrEqual(t, dropped, prevDropped,
			"threshold %d dropped fewer frames than threshold %d", threshold, threshold-1)
		prevDropped = dropped
	}
}

func TestClassifyCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Classify(ctx, chainFingerprints(t, 1, 2, 3), 5)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewValidation(t *testing.T) {
	_, err := New(Config{IntervalSeconds: 0})
	require.Error(t, err)

	bad := -1
	_, err = New(Config{IntervalSeconds: 2, Threshold: &bad})
	require.Error(t, err)
}

// writeFrame encodes a synthetic grayscale frame to dir/name.
func writeFrame(t *testing.T, dir, name string, bright bool) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			// Bright frames are half white, dark frames are uniform black.
			if bright && x >= 32 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, jpeg.Encode(f, img, &jpeg.Options{Quality: 95}))
	return path
}

func TestRunEmptyInput(t *testing.T) {
	d, err := New(Config{IntervalSeconds: 2})
	require.NoError(t, err)

	res, err := d.Run(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, res.Kept)
	require.Empty(t, res.Runs)
}

func TestRunSingleFrameUsesFallback(t *testing.T) {
	dir := t.TempDir()
	path := writeFrame(t, dir, "frame_0001.jpg", false)

	d, err := New(Config{IntervalSeconds: 2})
	require.NoError(t, err)

	res, err := d.Run(context.Background(), []string{path})
	require.NoError(t, err)
	require.Equal(t, FallbackThreshold, res.Threshold)
	require.True(t, res.ThresholdDerived)
	require.Len(t, res.Kept, 1)
	require.Empty(t, res.Runs)
}

func TestRunSideEffects(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeFrame(t, dir, "frame_0001.jpg", false),
		writeFrame(t, dir, "frame_0002.jpg", false),
		writeFrame(t, dir, "frame_0003.jpg", false),
		writeFrame(t, dir, "frame_0004.jpg", false),
		writeFrame(t, dir, "frame_0005.jpg", true),
	}

	threshold := 5
	d, err := New(Config{IntervalSeconds: 3, Threshold: &threshold})
	require.NoError(t, err)

	res, err := d.Run(context.Background(), paths)
	require.NoError(t, err)

	// Frames 1-3 duplicate frame 0; frame 4 is a scene change.
	require.Len(t, res.Kept, 2)
	require.Equal(t, 0, res.Kept[0].Index)
	require.Equal(t, 0, res.Kept[0].Seconds)
	require.Equal(t, 4, res.Kept[1].Index)
	require.Equal(t, 12, res.Kept[1].Seconds)
	require.Equal(t, []DuplicateRun{{StartIndex: 1, EndIndex: 3}}, res.Runs)
	require.Equal(t, 3, res.DroppedCount())

	// Timestamp mapping at a 3-second interval.
	require.Equal(t, "0:00", timestamp.Format(res.Kept[0].Seconds))
	require.Equal(t, "0:12", timestamp.Format(res.Kept[1].Seconds))

	// Kept frames were renamed to their timestamp form.
	require.Equal(t, filepath.Join(dir, "00-00-00.jpg"), res.Kept[0].Path)
	require.Equal(t, filepath.Join(dir, "00-00-12.jpg"), res.Kept[1].Path)
	for _, kf := range res.Kept {
		_, err := os.Stat(kf.Path)
		require.NoError(t, err)
	}

	// Dropped frames were deleted.
	for _, p := range paths[1:4] {
		_, err := os.Stat(p)
		require.True(t, os.IsNotExist(err), "dropped frame %s should be gone", p)
	}
	require.Empty(t, res.FailedRemovals)
	require.Empty(t, res.FailedRenames)
}

func TestRunUnreadableFrameAborts(t *testing.T) {
	dir := t.TempDir()
	good := writeFrame(t, dir, "frame_0001.jpg", false)
	bad := filepath.Join(dir, "frame_0002.jpg")
	require.NoError(t, os.WriteFile(bad, []byte("garbage"), 0644))

	d, err := New(Config{IntervalSeconds: 2, Workers: 1})
	require.NoError(t, err)

	_, err = d.Run(context.Background(), []string{good, bad})
	var unreadable *FrameUnreadableError
	require.ErrorAs(t, err, &unreadable)
	require.Equal(t, 1, unreadable.Index)
	require.Equal(t, bad, unreadable.Path)

	// The run aborted before any side effects.
	_, statErr := os.Stat(good)
	require.NoError(t, statErr)
}

func TestRunCancelled(t *testing.T) {
	dir := t.TempDir()
	paths := []string{writeFrame(t, dir, "frame_0001.jpg", false)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d, err := New(Config{IntervalSeconds: 2})
	require.NoError(t, err)

	_, err = d.Run(ctx, paths)
	require.ErrorIs(t, err, context.Canceled)
}
