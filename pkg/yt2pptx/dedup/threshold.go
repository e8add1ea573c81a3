package dedup

import (
	"math"

	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/imagehash"
)

// FallbackThreshold is used when fewer than two frames exist, leaving no
// consecutive distances to average.
const FallbackThreshold = 5

// ThresholdStats describes the similarity threshold for one run and the
// distance statistics behind it. Mean and Stdev are diagnostic only; the
// threshold formula uses just the mean.
type ThresholdStats struct {
	Threshold int
	Derived   bool
	Mean      float64
	Stdev     float64
}

// DeriveThreshold computes the adaptive similarity threshold from the
// distribution of consecutive-frame Hamming distances: max(1, floor(mean/2)).
// Small distances are expected even between visually identical frames due to
// compression noise; scene changes sit well above the mean of that
// noise-dominated distribution, so half the mean separates the two.
func DeriveThreshold(fps []imagehash.Fingerprint) (ThresholdStats, error) {
	if len(fps) < 2 {
		return ThresholdStats{Threshold: FallbackThreshold, Derived: true}, nil
	}

	diffs := make([]float64, 0, len(fps)-1)
	for i := 1; i < len(fps); i++ {
		d, err := imagehash.Distance(fps[i], fps[i-1])
		if err != nil {
			return ThresholdStats{}, err
		}
		diffs = append(diffs, float64(d))
	}

	mean := 0.0
	for _, d := range diffs {
		mean += d
	}
	mean /= float64(len(diffs))

	stdev := 0.0
	if len(diffs) > 1 {
		var ss float64
		for _, d := range diffs {
			ss += (d - mean) * (d - mean)
		}
		stdev = math.Sqrt(ss / float64(len(diffs)-1))
	}

	threshold := int(mean / 2)
	if threshold < 1 {
		threshold = 1
	}

	return ThresholdStats{Threshold: threshold, Derived: true, Mean: mean, Stdev: stdev}, nil
}
