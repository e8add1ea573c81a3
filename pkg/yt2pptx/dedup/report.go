package dedup

import (
	"fmt"
	"strings"

	"github.com/patarapolw/yt2pptx/pkg/yt2pptx/timestamp"
)

// runsPerLine is the number of dropped ranges rendered on one report line.
const runsPerLine = 10

// FormatRun renders a single dropped range as "start-end" in display
// timestamp form, using each boundary frame's own timestamp.
func FormatRun(run DuplicateRun, intervalSeconds int) string {
	return fmt.Sprintf("%s-%s",
		timestamp.Format(run.StartSeconds(intervalSeconds)),
		timestamp.Format(run.EndSeconds(intervalSeconds)))
}

// FormatRuns renders the dropped ranges of a run as report lines, ten
// ranges per line joined by " / ". Output is deterministic for a fixed
// input; an empty run list yields no lines.
func FormatRuns(runs []DuplicateRun, intervalSeconds int) []string {
	if len(runs) == 0 {
		return nil
	}

	var lines []string
	for start := 0; start < len(runs); start += runsPerLine {
		end := start + runsPerLine
		if end > len(runs) {
			end = len(runs)
		}
		parts := make([]string, 0, end-start)
		for _, run := range runs[start:end] {
			parts = append(parts, FormatRun(run, intervalSeconds))
		}
		lines = append(lines, strings.Join(parts, " / "))
	}
	return lines
}
