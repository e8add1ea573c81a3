package models

import "time"

// Video is a source video known to the manifest.
type Video struct {
	ID         string // YouTube video ID
	Title      string
	SourcePath string
	CreatedAt  time.Time
}

// Run is one deduplication pass over a video's extracted frames at a fixed
// sampling interval. A run with a non-nil CompletedAt is the authoritative
// "already processed at this interval" marker.
type Run struct {
	ID               string
	VideoID          string
	IntervalSeconds  int
	Threshold        int
	ThresholdDerived bool
	KeptCount        int
	DroppedCount     int
	DeckPath         string
	CreatedAt        time.Time
	CompletedAt      *time.Time
}
