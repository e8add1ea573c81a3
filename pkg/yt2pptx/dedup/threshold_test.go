package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/imagehash"
)

// chainFingerprints builds a fingerprint sequence whose consecutive Hamming
// distances equal dists, flipping fresh bits at every step so distances to
// earlier frames accumulate.
func chainFingerprints(t *testing.T, dists ...int) []imagehash.Fingerprint {
	t.Helper()

	total := 0
	for _, d := range dists {
		total += d
	}
	require.LessOrEqual(t, total, imagehash.HashBits, "test chain exceeds hash width")

	fps := []imagehash.Fingerprint{imagehash.New(0, imagehash.HashBits)}
	cur := uint64(0)
	bit := 0
	for _, d := range dists {
		for j := 0; j < d; j++ {
			cur ^= 1 << bit
			bit++
		}
		fps = append(fps, imagehash.New(cur, imagehash.HashBits))
	}
	return fps
}

func TestDeriveThresholdFallback(t *testing.T) {
	for _, fps := range [][]imagehash.Fingerprint{
		nil,
		{imagehash.New(42, imagehash.HashBits)},
	} {
		stats, err := DeriveThreshold(fps)
		require.NoError(t, err)
		require.Equal(t, FallbackThreshold, stats.Threshold)
		require.True(t, stats.Derived)
		require.Zero(t, stats.Mean)
	}
}

func TestDeriveThresholdHalfMean(t *testing.T) {
	fps := chainFingerprints(t, 4, 6)

	stats, err := DeriveThreshold(fps)
	require.NoError(t, err)
	require.InDelta(t, 5.0, stats.Mean, 1e-9)
	require.InDelta(t, 1.4142, stats.Stdev, 1e-3)
	require.Equal(t, 2, stats.Threshold)
	require.True(t, stats.Derived)
}

func TestDeriveThresholdFloorIsOne(t *testing.T) {
	// Nearly static video: mean below 2 must still yield a threshold of 1.
	fps := chainFingerprints(t, 0, 1, 0)

	stats, err := DeriveThreshold(fps)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Threshold)
}

func TestDeriveThresholdSingleDistanceNoStdev(t *testing.T) {
	fps := chainFingerprints(t, 8)

	stats, err := DeriveThreshold(fps)
	require.NoError(t, err)
	require.Equal(t, 4, stats.Threshold)
	require.Zero(t, stats.Stdev)
}

func TestDeriveThresholdIncompatibleWidths(t *testing.T) {
	fps := []imagehash.Fingerprint{
		imagehash.New(0, imagehash.HashBits),
		imagehash.New(0, 32),
	}

	_, err := DeriveThreshold(fps)
	require.ErrorIs(t, err, imagehash.ErrIncompatibleFingerprint)
}
