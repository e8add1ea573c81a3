package dedup

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatRun(t *testing.T) {
	run := DuplicateRun{StartIndex: 1, EndIndex: 2}
	require.Equal(t, "0:03-0:06", FormatRun(run, 3))

	long := DuplicateRun{StartIndex: 1200, EndIndex: 1230}
	require.Equal(t, "1:00:00-1:01:30", FormatRun(long, 3))
}

func TestFormatRunsEmpty(t *testing.T) {
	require.Nil(t, FormatRuns(nil, 2))
}

func TestFormatRunsChunking(t *testing.T) {
	runs := make([]DuplicateRun, 23)
	for i := range runs {
		runs[i] = DuplicateRun{StartIndex: i * 10, EndIndex: i*10 + 1}
	}

	lines := FormatRuns(runs, 1)
	require.Len(t, lines, 3)

	// Ten ranges per line, remainder on the last.
	require.Equal(t, 10, 1+countSeparators(lines[0]))
	require.Equal(t, 10, 1+countSeparators(lines[1]))
	require.Equal(t, 3, 1+countSeparators(lines[2]))

	// First range uses the first dropped frame's own timestamp.
	require.Contains(t, lines[0], "0:00-0:01")
}

func TestFormatRunsDeterministic(t *testing.T) {
	runs := []DuplicateRun{{1, 4}, {7, 7}, {12, 20}}
	first := FormatRuns(runs, 2)
	for i := 0; i < 3; i++ {
		require.Equal(t, first, FormatRuns(runs, 2))
	}
}

func countSeparators(line string) int {
	n := 0
	for i := 0; i+3 <= len(line); i++ {
		if line[i:i+3] == " / " {
			n++
		}
	}
	return n
}
