package fsutil_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/pdf-to-audio/internal/fsutil"
)

func TestIsPDFFile(t *testing.T) {
	t.Parallel()

	assert.True(t, fsutil.IsPDFFile("report.pdf"))
	assert.True(t, fsutil.IsPDFFile("REPORT.PDF"))
	assert.True(t, fsutil.IsPDFFile("mixed.Pdf"))
	assert.False(t, fsutil.IsPDFFile("report.txt"))
	assert.False(t, fsutil.IsPDFFile("pdf"))
	assert.False(t, fsutil.IsPDFFile(""))
}

func TestIsValidAudioFile(t *testing.T) {
	t.Parallel()

	assert.True(t, fsutil.IsValidAudioFile("speech.mp3"))
	assert.True(t, fsutil.IsValidAudioFile("speech.WAV"))
	assert.False(t, fsutil.IsValidAudioFile("speech.pdf"))
	assert.False(t, fsutil.IsValidAudioFile("speech"))
}

func TestStem(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "report", fsutil.Stem("/books/report.pdf"))
	assert.Equal(t, "archive.tar", fsutil.Stem("archive.tar.gz"))
	assert.Equal(t, "plain", fsutil.Stem("plain"))
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a_b_c", fsutil.SanitizeFilename(`a/b\c`))
	assert.Equal(t, "what_", fsutil.SanitizeFilename("what?"))
	assert.Equal(t, "untouched-name", fsutil.SanitizeFilename("untouched-name"))
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "45.2s", fsutil.FormatDuration(45200*time.Millisecond))
	assert.Equal(t, "5m 30.5s", fsutil.FormatDuration(5*time.Minute+30500*time.Millisecond))
	assert.Equal(t, "1h 15m", fsutil.FormatDuration(time.Hour+15*time.Minute))
}

func TestFormatFileSize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512 B", fsutil.FormatFileSize(512))
	assert.NotEmpty(t, fsutil.FormatFileSize(2_500_000))
	// Negative sizes clamp to zero rather than panic.
	assert.Equal(t, "0 B", fsutil.FormatFileSize(-1))
}

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "dir")

	err := fsutil.EnsureDir(path)
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent on an existing directory.
	require.NoError(t, fsutil.EnsureDir(path))
}
