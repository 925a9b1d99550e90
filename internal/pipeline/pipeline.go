// Package pipeline runs the per-file conversion pipeline: extract text,
// persist it, synthesize speech, persist the audio. Files are independent
// units of work; a failure in one never affects the others.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/book-expert/pdf-to-audio/internal/core"
	"github.com/book-expert/pdf-to-audio/internal/fsutil"
)

// Static errors.
var (
	ErrNoInputFiles = errors.New("no input files to process")
)

// Log formats.
const (
	logFmtProcessing    = "Processing %s (job %s)"
	logFmtNoText        = "No text found in %s, skipping synthesis"
	logFmtCachedAudio   = "Using existing audio for %s"
	logFmtProcessed     = "Processed %s in %s (text %s, audio %s)"
	logFmtFailed        = "Failed to process %s: %v"
	logFmtRunSummary    = "Converted %d/%d files, %d skipped (no text), %d from cache"
	errFmtExtractFailed = "failed to extract text from %s: %w"
	errFmtSaveText      = "failed to save text for %s: %w"
	errFmtSynthFailed   = "failed to synthesize audio for %s: %w"
	errFmtSaveAudio     = "failed to save audio for %s: %w"
	errFmtCheckAudio    = "failed to check audio cache for %s: %w"
)

// Job describes one input file's unit of work.
type Job struct {
	ID       string
	PDFPath  string
	TextKey  string
	AudioKey string
}

// NewJob builds a job for a PDF path. Artifact keys are derived from the
// sanitized file stem.
func NewJob(pdfPath string) Job {
	stem := fsutil.SanitizeFilename(fsutil.Stem(pdfPath))

	return Job{
		ID:       uuid.NewString(),
		PDFPath:  pdfPath,
		TextKey:  stem + fsutil.ExtTXT,
		AudioKey: stem + fsutil.ExtMP3,
	}
}

// Result records the outcome of one job.
type Result struct {
	Job        Job
	TextBytes  int
	AudioBytes int
	Duration   time.Duration
	NoText     bool
	Cached     bool
	Err        error
}

// Pipeline wires the extractor, synthesizer, and artifact stores together.
type Pipeline struct {
	extractor   core.TextExtractor
	synthesizer core.SpeechSynthesizer
	textStore   core.ArtifactStore
	audioStore  core.ArtifactStore
	log         *logger.Logger
	workers     int
}

// New creates a pipeline. Workers of one or less selects sequential
// processing.
func New(
	extractor core.TextExtractor,
	synthesizer core.SpeechSynthesizer,
	textStore core.ArtifactStore,
	audioStore core.ArtifactStore,
	workers int,
	log *logger.Logger,
) *Pipeline {
	if workers < 1 {
		workers = 1
	}

	return &Pipeline{
		extractor:   extractor,
		synthesizer: synthesizer,
		textStore:   textStore,
		audioStore:  audioStore,
		log:         log,
		workers:     workers,
	}
}

// Run processes every input file and returns one result per file, in input
// order. Jobs share no mutable state; each runs to completion regardless of
// other jobs' failures. With more than one worker, jobs fan out across a
// fixed-size pool.
func (p *Pipeline) Run(ctx context.Context, pdfPaths []string) ([]Result, error) {
	if len(pdfPaths) == 0 {
		return nil, ErrNoInputFiles
	}

	results := make([]Result, len(pdfPaths))

	var waitGroup sync.WaitGroup

	// Buffered channel acts as the worker-slot semaphore.
	workerPool := make(chan struct{}, p.workers)

	for jobIndex, pdfPath := range pdfPaths {
		waitGroup.Add(1)

		go func(index int, path string) {
			defer waitGroup.Done()

			workerPool <- struct{}{}

			defer func() { <-workerPool }()

			results[index] = p.ProcessFile(ctx, NewJob(path))
		}(jobIndex, pdfPath)
	}

	waitGroup.Wait()
	close(workerPool)

	return results, nil
}

// ProcessFile runs the full pipeline for a single job: extract, persist
// text, synthesize, persist audio. The audio step is skipped when the
// extracted text is blank or when the audio artifact already exists.
func (p *Pipeline) ProcessFile(ctx context.Context, job Job) Result {
	started := time.Now()

	p.log.Info(logFmtProcessing, job.PDFPath, job.ID)

	result := Result{Job: job}
	result.Err = p.runJob(ctx, job, &result)
	result.Duration = time.Since(started)

	if result.Err != nil {
		p.log.Error(logFmtFailed, job.PDFPath, result.Err)

		return result
	}

	p.log.Info(
		logFmtProcessed,
		job.PDFPath,
		fsutil.FormatDuration(result.Duration),
		fsutil.FormatFileSize(result.TextBytes),
		fsutil.FormatFileSize(result.AudioBytes),
	)

	return result
}

// runJob performs the job steps, filling size and skip fields on the result.
func (p *Pipeline) runJob(ctx context.Context, job Job, result *Result) error {
	extracted, err := p.extractor.ExtractFile(ctx, job.PDFPath)
	if err != nil {
		return fmt.Errorf(errFmtExtractFailed, job.PDFPath, err)
	}

	if strings.TrimSpace(extracted) == "" {
		p.log.Warn(logFmtNoText, job.PDFPath)

		result.NoText = true

		return nil
	}

	err = p.textStore.Save(ctx, job.TextKey, []byte(extracted))
	if err != nil {
		return fmt.Errorf(errFmtSaveText, job.PDFPath, err)
	}

	result.TextBytes = len(extracted)

	cached, err := p.audioStore.Exists(ctx, job.AudioKey)
	if err != nil {
		return fmt.Errorf(errFmtCheckAudio, job.PDFPath, err)
	}

	if cached {
		p.log.Info(logFmtCachedAudio, job.PDFPath)

		result.Cached = true

		return nil
	}

	audioData, err := p.synthesizer.Synthesize(ctx, extracted)
	if err != nil {
		return fmt.Errorf(errFmtSynthFailed, job.PDFPath, err)
	}

	err = p.audioStore.Save(ctx, job.AudioKey, audioData)
	if err != nil {
		return fmt.Errorf(errFmtSaveAudio, job.PDFPath, err)
	}

	result.AudioBytes = len(audioData)

	return nil
}

// FailureCount returns how many results carry an error.
func FailureCount(results []Result) int {
	failures := 0

	for _, result := range results {
		if result.Err != nil {
			failures++
		}
	}

	return failures
}

// Report logs a per-run summary after all jobs complete.
func (p *Pipeline) Report(results []Result) {
	var converted, skipped, cached int

	for _, result := range results {
		switch {
		case result.Err != nil:
		case result.NoText:
			skipped++
		case result.Cached:
			cached++
		default:
			converted++
		}
	}

	p.log.System(logFmtRunSummary, converted, len(results), skipped, cached)
}
