package utils

import (
	"fmt"
	"os"
	"strings"
)

// MakeDir creates a directory with all parent directories.
func MakeDir(path string) error {
	return os.MkdirAll(path, 0755)
}

// DeleteFile removes a file.
func DeleteFile(path string) error {
	return os.Remove(path)
}

// MoveFile moves or renames a file.
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to move file from %s to %s: %w", src, dst, err)
	}
	return nil
}

// SanitizeFilename replaces characters that are invalid in filenames on
// common filesystems (Windows and Unix-like) with underscores.
func SanitizeFilename(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', '*', '?', ':', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
}
