// Package fsutil provides file and path utility functions for pdf-to-audio.
//
// This package focuses on platform-agnostic ways to handle document paths,
// format data for display, and sanitize filenames, adhering to Go's best
// practices for clarity, error handling, and maintainability.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// File extension constants.
const (
	ExtPDF  = ".pdf"
	ExtTXT  = ".txt"
	ExtMP3  = ".mp3"
	ExtWAV  = ".wav"
	ExtOGG  = ".ogg"
	ExtFLAC = ".flac"
)

const (
	defaultDirPermissions  = 0o750
	invalidCharReplacement = "_"
)

// Time formatting constants.
const (
	secondsInMinute = 60
	secondsInHour   = 3600
	formatSeconds   = "%.1fs"
	formatMinutes   = "%dm %.1fs"
	formatHours     = "%dh %dm"
)

// EnsureDir ensures a directory exists at the given path, creating it if it
// doesn't.
func EnsureDir(path string) error {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		// MkdirAll is used to create parent directories as needed.
		mkdirErr := os.MkdirAll(path, defaultDirPermissions)
		if mkdirErr != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, mkdirErr)
		}
	}

	return nil
}

// IsPDFFile checks if a filename has a PDF extension, case-insensitively.
func IsPDFFile(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ExtPDF)
}

// IsValidAudioFile checks if a filename has a common audio file extension.
func IsValidAudioFile(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ExtMP3, ExtWAV, ExtFLAC, ExtOGG:
		return true
	default:
		return false
	}
}

// Stem returns the filename without its directory or extension.
func Stem(path string) string {
	base := filepath.Base(path)

	return strings.TrimSuffix(base, filepath.Ext(base))
}

// FormatDuration formats a duration in a human-readable string (e.g.
// "1h 15m", "5m 30.5s", "45.2s").
func FormatDuration(duration time.Duration) string {
	seconds := duration.Seconds()

	if seconds < secondsInMinute {
		return fmt.Sprintf(formatSeconds, seconds)
	}

	if seconds < secondsInHour {
		minutes := int(seconds / secondsInMinute)
		remainingSeconds := seconds - float64(minutes*secondsInMinute)

		return fmt.Sprintf(formatMinutes, minutes, remainingSeconds)
	}

	hours := int(seconds / secondsInHour)
	remainingSeconds := seconds - float64(hours*secondsInHour)
	remainingMinutes := int(remainingSeconds / secondsInMinute)

	return fmt.Sprintf(formatHours, hours, remainingMinutes)
}

// FormatFileSize formats a byte count in a human-readable string
// (e.g. "1.2 MB", "500 kB").
func FormatFileSize(bytes int) string {
	if bytes < 0 {
		bytes = 0
	}

	return humanize.Bytes(uint64(bytes))
}

// SanitizeFilename removes or replaces characters that are invalid in most
// filesystems.
func SanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"<", invalidCharReplacement,
		">", invalidCharReplacement,
		":", invalidCharReplacement,
		"\"", invalidCharReplacement,
		"/", invalidCharReplacement,
		"\\", invalidCharReplacement,
		"|", invalidCharReplacement,
		"?", invalidCharReplacement,
		"*", invalidCharReplacement,
	)

	return replacer.Replace(filename)
}
