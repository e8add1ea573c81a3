// Package timestamp converts between frame offsets in seconds and the
// human-readable and filename forms used throughout the pipeline.
package timestamp

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders seconds as "h:mm:ss", or "m:ss" when the hour is zero.
// This is the display form used in reports and slide captions.
func Format(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	if h == 0 {
		return fmt.Sprintf("%d:%02d", m, s)
	}
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

// Filename renders seconds as "hh-mm-ss" for use in kept-frame filenames.
// The hour is always present and zero-padded so that a plain lexicographic
// sort of a frame directory is also chronological.
func Filename(seconds int) string {
	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60
	return fmt.Sprintf("%02d-%02d-%02d", h, m, s)
}

// Parse converts a timestamp string back to seconds. It accepts "h:mm:ss",
// "m:ss" and bare "ss" forms, with a configurable separator so filename
// timestamps ("hh-mm-ss") parse with sep="-".
func Parse(ts, sep string) (int, error) {
	parts := strings.Split(ts, sep)
	if len(parts) < 1 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp format: %q", ts)
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp format: %q", ts)
		}
		total = total*60 + n
	}
	return total, nil
}
