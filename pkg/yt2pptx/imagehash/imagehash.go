// Package imagehash implements the average perceptual hash used to compare
// video frames: an 8x8 area-averaged grayscale reduction packed into a
// 64-bit fingerprint, compared by Hamming distance.
package imagehash

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math/bits"
	"os"
	"strconv"

	_ "image/jpeg"
	_ "image/png"
)

const (
	gridSize = 8
	// HashBits is the fingerprint width produced by AverageHash.
	HashBits = gridSize * gridSize
)

// ErrIncompatibleFingerprint signals a Hamming distance request between
// fingerprints of different bit widths. Within one run all frames share the
// same format, so hitting this is a programming defect, not a data problem.
var ErrIncompatibleFingerprint = errors.New("imagehash: fingerprints have different bit widths")

// Fingerprint is a fixed-width binary summary of an image's coarse visual
// structure. The zero value is an empty 0-bit fingerprint.
type Fingerprint struct {
	hash uint64
	bits int
}

// New builds a fingerprint from raw bits. Intended for tests and for
// restoring fingerprints persisted as hex.
func New(hash uint64, bitWidth int) Fingerprint {
	return Fingerprint{hash: hash, bits: bitWidth}
}

// Bits reports the fingerprint's bit width.
func (f Fingerprint) Bits() int { return f.bits }

// Uint64 returns the packed hash bits.
func (f Fingerprint) Uint64() uint64 { return f.hash }

// String renders the fingerprint as fixed-width hex, suitable for logs and
// manifest rows.
func (f Fingerprint) String() string {
	width := (f.bits + 3) / 4
	return fmt.Sprintf("%0*x", width, f.hash)
}

// Parse restores a fingerprint from its String form.
func Parse(s string) (Fingerprint, error) {
	h, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("parsing fingerprint %q: %w", s, err)
	}
	return Fingerprint{hash: h, bits: len(s) * 4}, nil
}

// Distance returns the Hamming distance between two fingerprints of equal
// bit width.
func Distance(a, b Fingerprint) (int, error) {
	if a.bits != b.bits {
		return 0, fmt.Errorf("%w: %d vs %d", ErrIncompatibleFingerprint, a.bits, b.bits)
	}
	return bits.OnesCount64(a.hash ^ b.hash), nil
}

// AverageHash computes the 64-bit average hash of an image: the image is
// reduced to an 8x8 grid of area-averaged luminance values, and each bit is
// set iff its cell is at least as bright as the grid mean. Bits are packed
// row-major, most significant bit first. Pure and deterministic.
func AverageHash(img image.Image) Fingerprint {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return Fingerprint{bits: HashBits}
	}

	var cells [HashBits]float64
	var mean float64
	for cy := 0; cy < gridSize; cy++ {
		y0, y1 := cellRange(cy, h)
		for cx := 0; cx < gridSize; cx++ {
			x0, x1 := cellRange(cx, w)
			var sum float64
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					sum += luminance(img.At(bounds.Min.X+x, bounds.Min.Y+y))
				}
			}
			avg := sum / float64((y1-y0)*(x1-x0))
			cells[cy*gridSize+cx] = avg
			mean += avg
		}
	}
	mean /= HashBits

	var hash uint64
	for i, v := range cells {
		if v >= mean {
			hash |= 1 << (HashBits - 1 - i)
		}
	}
	return Fingerprint{hash: hash, bits: HashBits}
}

// HashFile decodes an image file and returns its average hash. Decode
// failures are returned to the caller to classify; the hasher itself never
// inspects frame semantics.
func HashFile(path string) (Fingerprint, error) {
	f, err := os.Open(path)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("opening image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return Fingerprint{}, fmt.Errorf("decoding image %s: %w", path, err)
	}
	return AverageHash(img), nil
}

// cellRange maps grid cell c to its half-open pixel range over a dimension
// of size n. Cells always cover at least one pixel, even for images smaller
// than the grid.
func cellRange(c, n int) (int, int) {
	lo := c * n / gridSize
	hi := (c + 1) * n / gridSize
	if hi <= lo {
		hi = lo + 1
	}
	if hi > n {
		hi = n
	}
	return lo, hi
}

// luminance extracts Rec. 601 luma in [0, 65535].
func luminance(c color.Color) float64 {
	r, g, b, _ := c.RGBA()
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}
