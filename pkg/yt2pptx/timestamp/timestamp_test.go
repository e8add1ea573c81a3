package timestamp

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{12, "0:12"},
		{59, "0:59"},
		{60, "1:00"},
		{754, "12:34"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3723, "1:02:03"},
		{36610, "10:10:10"},
	}
	for _, tt := range tests {
		if got := Format(tt.seconds); got != tt.want {
			t.Errorf("Format(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00-00-00"},
		{12, "00-00-12"},
		{3723, "01-02-03"},
		{36610, "10-10-10"},
	}
	for _, tt := range tests {
		if got := Filename(tt.seconds); got != tt.want {
			t.Errorf("Filename(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestFilenameSortsLexicographically(t *testing.T) {
	prev := ""
	for _, sec := range []int{0, 5, 59, 60, 3599, 3600, 7322, 36000} {
		name := Filename(sec)
		if name <= prev {
			t.Errorf("Filename(%d) = %q does not sort after %q", sec, name, prev)
		}
		prev = name
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		ts   string
		sep  string
		want int
	}{
		{"1:02:03", ":", 3723},
		{"12:34", ":", 754},
		{"42", ":", 42},
		{"00-00-12", "-", 12},
		{"01-02-03", "-", 3723},
	}
	for _, tt := range tests {
		got, err := Parse(tt.ts, tt.sep)
		if err != nil {
			t.Errorf("Parse(%q) returned error: %v", tt.ts, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %d, want %d", tt.ts, got, tt.want)
		}
	}
}

func TestParseInvalid(t *testing.T) {
	for _, ts := range []string{"", "a:b", "1:2:3:4", "-5", "1:-2"} {
		if _, err := Parse(ts, ":"); err == nil {
			t.Errorf("Parse(%q) should have failed", ts)
		}
	}
}
