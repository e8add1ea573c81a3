package utils

import (
	"fmt"
	"regexp"
)

var (
	videoIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	videoURLPattern = regexp.MustCompile(`(?:v=|/)([A-Za-z0-9_-]{11})(?:[&?/]|$)`)
)

// ExtractVideoID returns the YouTube video ID contained in a URL or a bare
// 11-character ID string. It returns an empty string when no ID is found.
func ExtractVideoID(urlOrID string) string {
	if videoIDPattern.MatchString(urlOrID) {
		return urlOrID
	}
	if m := videoURLPattern.FindStringSubmatch(urlOrID); m != nil {
		return m[1]
	}
	return ""
}

// WatchURL builds a YouTube watch URL deep-linked to the given offset.
func WatchURL(videoID string, seconds int) string {
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", videoID, seconds)
}
