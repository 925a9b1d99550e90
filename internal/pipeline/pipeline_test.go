// Package pipeline_test tests the per-file conversion pipeline.
package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/pdf-to-audio/internal/pipeline"
)

var (
	errMockExtract = errors.New("mock extract error")
	errMockSynth   = errors.New("mock synthesis error")
	errMockSave    = errors.New("mock save error")
)

// mockExtractor is a mock implementation of the TextExtractor interface.
// Texts maps a PDF path to its extracted text; missing paths fail.
type mockExtractor struct {
	texts map[string]string
}

func (m *mockExtractor) ExtractFile(_ context.Context, path string) (string, error) {
	text, ok := m.texts[path]
	if !ok {
		return "", errMockExtract
	}

	return text, nil
}

// mockSynthesizer is a mock implementation of the SpeechSynthesizer interface.
type mockSynthesizer struct {
	shouldFail bool
	calls      int
	mu         sync.Mutex
}

func (m *mockSynthesizer) Synthesize(_ context.Context, text string) ([]byte, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.shouldFail {
		return nil, errMockSynth
	}

	return []byte("audio:" + text), nil
}

func (m *mockSynthesizer) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.calls
}

// mockStore is a mock implementation of the ArtifactStore interface.
type mockStore struct {
	saveShouldFail bool
	preloaded      map[string][]byte
	saved          map[string][]byte
	mu             sync.Mutex
}

func newMockStore() *mockStore {
	return &mockStore{
		preloaded: make(map[string][]byte),
		saved:     make(map[string][]byte),
	}
}

func (m *mockStore) Save(_ context.Context, key string, data []byte) error {
	if m.saveShouldFail {
		return errMockSave
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.saved[key] = data

	return nil
}

func (m *mockStore) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if data, ok := m.saved[key]; ok {
		return data, nil
	}

	if data, ok := m.preloaded[key]; ok {
		return data, nil
	}

	return nil, errors.New("not found")
}

func (m *mockStore) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, inSaved := m.saved[key]
	_, inPreloaded := m.preloaded[key]

	return inSaved || inPreloaded, nil
}

func (m *mockStore) savedKeys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.saved))
	for key := range m.saved {
		keys = append(keys, key)
	}

	return keys
}

func createTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "pipeline-test.log")
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = log.Close()
	})

	return log
}

func TestNewJobDerivesKeys(t *testing.T) {
	t.Parallel()

	job := pipeline.NewJob("/books/My Report?.pdf")

	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "/books/My Report?.pdf", job.PDFPath)
	assert.Equal(t, "My Report_.txt", job.TextKey)
	assert.Equal(t, "My Report_.mp3", job.AudioKey)
}

func TestProcessFileSuccess(t *testing.T) {
	t.Parallel()

	extractor := &mockExtractor{texts: map[string]string{"/in/book.pdf": "page text"}}
	synthesizer := &mockSynthesizer{}
	textStore := newMockStore()
	audioStore := newMockStore()

	p := pipeline.New(extractor, synthesizer, textStore, audioStore, 1, createTestLogger(t))

	result := p.ProcessFile(context.Background(), pipeline.NewJob("/in/book.pdf"))
	require.NoError(t, result.Err)

	assert.Equal(t, len("page text"), result.TextBytes)
	assert.Positive(t, result.AudioBytes)
	assert.False(t, result.NoText)
	assert.False(t, result.Cached)

	assert.Equal(t, []string{"book.txt"}, textStore.savedKeys())
	assert.Equal(t, []string{"book.mp3"}, audioStore.savedKeys())
}

func TestProcessFileNoText(t *testing.T) {
	t.Parallel()

	extractor := &mockExtractor{texts: map[string]string{"/in/scan.pdf": "  \n "}}
	synthesizer := &mockSynthesizer{}

	p := pipeline.New(extractor, synthesizer, newMockStore(), newMockStore(), 1, createTestLogger(t))

	result := p.ProcessFile(context.Background(), pipeline.NewJob("/in/scan.pdf"))
	require.NoError(t, result.Err)

	assert.True(t, result.NoText)
	assert.Zero(t, synthesizer.callCount())
}

func TestProcessFileCachedAudio(t *testing.T) {
	t.Parallel()

	extractor := &mockExtractor{texts: map[string]string{"/in/book.pdf": "page text"}}
	synthesizer := &mockSynthesizer{}
	audioStore := newMockStore()
	audioStore.preloaded["book.mp3"] = []byte("existing audio")

	p := pipeline.New(extractor, synthesizer, newMockStore(), audioStore, 1, createTestLogger(t))

	result := p.ProcessFile(context.Background(), pipeline.NewJob("/in/book.pdf"))
	require.NoError(t, result.Err)

	assert.True(t, result.Cached)
	assert.Zero(t, synthesizer.callCount())
}

func TestProcessFileSynthesisFailure(t *testing.T) {
	t.Parallel()

	extractor := &mockExtractor{texts: map[string]string{"/in/book.pdf": "page text"}}
	synthesizer := &mockSynthesizer{shouldFail: true}

	p := pipeline.New(extractor, synthesizer, newMockStore(), newMockStore(), 1, createTestLogger(t))

	result := p.ProcessFile(context.Background(), pipeline.NewJob("/in/book.pdf"))
	require.ErrorIs(t, result.Err, errMockSynth)
}

func TestRunIsolatesFailures(t *testing.T) {
	t.Parallel()

	// bad.pdf has no extractable text registered, so its job fails.
	extractor := &mockExtractor{texts: map[string]string{
		"/in/a.pdf": "text of a",
		"/in/c.pdf": "text of c",
	}}
	synthesizer := &mockSynthesizer{}
	textStore := newMockStore()
	audioStore := newMockStore()

	p := pipeline.New(extractor, synthesizer, textStore, audioStore, 1, createTestLogger(t))

	results, err := p.Run(context.Background(), []string{"/in/a.pdf", "/in/bad.pdf", "/in/c.pdf"})
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Results arrive in input order, and the failure is contained.
	require.NoError(t, results[0].Err)
	require.ErrorIs(t, results[1].Err, errMockExtract)
	require.NoError(t, results[2].Err)

	assert.Equal(t, 1, pipeline.FailureCount(results))
	assert.ElementsMatch(t, []string{"a.mp3", "c.mp3"}, audioStore.savedKeys())
}

func TestRunParallel(t *testing.T) {
	t.Parallel()

	texts := make(map[string]string)
	paths := make([]string, 0, 8)

	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		path := "/in/" + name + ".pdf"
		texts[path] = "text of " + name
		paths = append(paths, path)
	}

	extractor := &mockExtractor{texts: texts}
	synthesizer := &mockSynthesizer{}
	audioStore := newMockStore()

	p := pipeline.New(extractor, synthesizer, newMockStore(), audioStore, 4, createTestLogger(t))

	results, err := p.Run(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, results, len(paths))

	for index, result := range results {
		require.NoError(t, result.Err)
		// Result order matches input order even with parallel workers.
		assert.Equal(t, paths[index], result.Job.PDFPath)
	}

	assert.Equal(t, len(paths), synthesizer.callCount())
	assert.Len(t, audioStore.savedKeys(), len(paths))
}

func TestRunNoInput(t *testing.T) {
	t.Parallel()

	p := pipeline.New(
		&mockExtractor{},
		&mockSynthesizer{},
		newMockStore(),
		newMockStore(),
		1,
		createTestLogger(t),
	)

	_, err := p.Run(context.Background(), nil)
	require.ErrorIs(t, err, pipeline.ErrNoInputFiles)
}

func TestFailureCount(t *testing.T) {
	t.Parallel()

	results := []pipeline.Result{
		{Err: nil},
		{Err: errMockSynth},
		{Err: errMockExtract},
	}

	assert.Equal(t, 2, pipeline.FailureCount(results))
}

func TestReportDoesNotPanic(t *testing.T) {
	t.Parallel()

	p := pipeline.New(
		&mockExtractor{},
		&mockSynthesizer{},
		newMockStore(),
		newMockStore(),
		1,
		createTestLogger(t),
	)

	p.Report([]pipeline.Result{
		{},
		{NoText: true},
		{Cached: true},
		{Err: errMockSynth},
	})
}
