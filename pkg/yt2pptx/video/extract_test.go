package video

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte{0xFF, 0xD8}, 0644); err != nil {
		t.Fatalf("creating %s: %v", name, err)
	}
}

func TestListProcessedFramesEmpty(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "frame_0001.jpg")
	touch(t, dir, "frame_0002.jpg")

	frames, err := ListProcessedFrames(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 0 {
		t.Errorf("raw frames must not count as processed, got %d", len(frames))
	}
}

func TestListProcessedFramesSorted(t *testing.T) {
	dir := t.TempDir()
	// Written out of order on purpose.
	touch(t, dir, "00-01-30.jpg")
	touch(t, dir, "00-00-00.jpg")
	touch(t, dir, "01-00-00.jpg")
	touch(t, dir, "00-00-06.jpg")
	// Raw leftovers and unrelated files are ignored.
	touch(t, dir, "frame_0007.jpg")
	touch(t, dir, "notes.txt")

	frames, err := ListProcessedFrames(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSeconds := []int{0, 6, 90, 3600}
	if len(frames) != len(wantSeconds) {
		t.Fatalf("expected %d processed frames, got %d", len(wantSeconds), len(frames))
	}
	for i, want := range wantSeconds {
		if frames[i].Seconds != want {
			t.Errorf("frame %d: expected %d seconds, got %d", i, want, frames[i].Seconds)
		}
	}
}

func TestExtractFramesValidatesInterval(t *testing.T) {
	if _, err := ExtractFrames(t.Context(), "in.mp4", t.TempDir(), 0); err == nil {
		t.Error("expected an error for a zero interval")
	}
}
