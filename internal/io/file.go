package ioutils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// maxFileNameBytes caps sanitized name bases so that the base plus
	// a version suffix and extension stays well inside common
	// filesystem limits (255 bytes per component).
	maxFileNameBytes = 200

	// fallbackFileName replaces names that sanitize down to nothing.
	fallbackFileName = "untitled"
)

var (
	// invalidFileChars matches characters rejected by at least one of
	// Windows, macOS or Linux, plus ASCII control characters.
	invalidFileChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

	// multiWhitespace collapses runs of whitespace into single spaces.
	multiWhitespace = regexp.MustCompile(`\s+`)

	// reservedDeviceName matches Windows reserved device names, bare or
	// with an extension (CON, con.txt, COM1, ...).
	reservedDeviceName = regexp.MustCompile(`(?i)^(con|prn|aux|nul|com[1-9]|lpt[1-9])(\..*)?$`)
)

// SanitizeFileName converts an arbitrary title into a string that is
// safe as a single filename component on Windows, macOS and Linux.
//
// The following transformations are applied, in order:
//   - Invalid characters (<>:"/\|?* and control chars 0x00-0x1f) → underscore
//   - Runs of whitespace → single space
//   - Leading/trailing spaces and dots → removed
//   - Windows reserved device names (CON, NUL, COM1, ...) → suffixed with "_"
//   - Length capped at 200 bytes, cutting at a word boundary when one
//     exists and never splitting a UTF-8 sequence
//   - Empty result → "untitled"
//
// The result carries no extension; callers append ".mp3" or a version
// suffix afterwards.
//
// Example:
//
//	SanitizeFileName("Song: Part 1/2") // "Song_ Part 1_2"
//	SanitizeFileName("Track...")       // "Track"
//	SanitizeFileName("   ")            // "untitled"
func SanitizeFileName(name string) string {
	name = invalidFileChars.ReplaceAllString(name, "_")
	name = multiWhitespace.ReplaceAllString(name, " ")
	name = strings.Trim(name, " .")

	if reservedDeviceName.MatchString(name) {
		name += "_"
	}

	name = truncateAtWord(name, maxFileNameBytes)
	name = strings.TrimRight(name, " .")

	if name == "" {
		return fallbackFileName
	}
	return name
}

// truncateAtWord shortens s to at most max bytes, preferring to cut at
// the last space inside the limit. Multi-byte runes are never split.
func truncateAtWord(s string, max int) string {
	if len(s) <= max {
		return s
	}

	cut := s[:max]
	for len(cut) > 0 && !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}

	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return cut
}

// WriteFile writes data to a file, creating it if necessary.
//
// The file is created with mode 0644 and truncated if it already
// exists. The context is accepted for symmetry with the download call
// sites; the write itself is not interruptible.
func WriteFile(ctx context.Context, path string, data []byte) error {
	return os.WriteFile(path, data, 0644)
}

// WriteFileAtomic writes data to path so that concurrent readers and a
// mid-write crash can never observe a partial file: the bytes go to a
// temporary file in the same directory, which is then renamed over the
// destination.
//
// Used for the download state file, where a torn write would corrupt
// the resume record of every completed item.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// EnsureDir creates a directory and all parent directories if they don't exist.
//
// Directories are created with mode 0755. If the directory already
// exists, no error is returned.
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
