package yt2pptx

// ConvertResult summarizes one video-to-deck conversion.
type ConvertResult struct {
	VideoID   string
	Title     string
	VideoPath string
	DeckPath  string

	KeptCount    int
	DroppedCount int

	Threshold        int
	ThresholdDerived bool

	// Reused is true when the frame directory was already deduplicated at
	// this interval and the deck was rebuilt from the surviving frames.
	Reused bool

	// FailedCleanups counts dropped frames whose delete (or kept frames
	// whose rename) failed. Clutter, not an error.
	FailedCleanups int
}
