package tts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/pdf-to-audio/internal/tts/audio"
	"github.com/book-expert/pdf-to-audio/internal/tts/text"
)

// Default values for the retry policy and chunking.
const (
	DefaultMaxAttempts     = 10
	DefaultBaseDelay       = 5 * time.Second
	DefaultRetryMultiplier = 2.0

	// DefaultMaxChunkChars is the longest text the speech endpoint accepts
	// in a single request.
	DefaultMaxChunkChars = 100
)

// Static errors.
var (
	ErrNoSpeakableText  = errors.New("no speakable text after normalization")
	ErrRetriesExhausted = errors.New("all synthesis attempts failed")
)

// Log formats.
const (
	logFmtRetrying        = "Transient synthesis failure (attempt %d/%d), retrying in %v: %v"
	logFmtChunkDone       = "Synthesized chunk %d/%d (%d bytes)"
	errFmtChunkFailed     = "chunk %d of %d failed: %w"
	errFmtAttemptExceeded = "%w after %d attempts: %w"
)

// RetryPolicy describes the exponential backoff applied to transient
// synthesis failures: delay starts at BaseDelay and multiplies by Multiplier
// after each failed attempt, up to MaxAttempts attempts in total.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
}

// DefaultRetryPolicy returns the stock policy: ten attempts, five-second base
// delay, doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		Multiplier:  DefaultRetryMultiplier,
	}
}

// Engine orchestrates synthesis of a full document: normalize the text,
// split it into request-sized chunks, synthesize each chunk with retries,
// and assemble the resulting MPEG segments into one stream.
//
// Engine implements core.SpeechSynthesizer.
type Engine struct {
	client        *Client
	normalizer    *text.Normalizer
	policy        RetryPolicy
	maxChunkChars int
	log           *logger.Logger
}

// NewEngine creates a synthesis engine. A zero-valued policy field or chunk
// size selects its default.
func NewEngine(client *Client, policy RetryPolicy, maxChunkChars int, log *logger.Logger) *Engine {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}

	if policy.BaseDelay <= 0 {
		policy.BaseDelay = DefaultBaseDelay
	}

	if policy.Multiplier <= 1.0 {
		policy.Multiplier = DefaultRetryMultiplier
	}

	if maxChunkChars <= 0 {
		maxChunkChars = DefaultMaxChunkChars
	}

	return &Engine{
		client:        client,
		normalizer:    text.NewNormalizer(),
		policy:        policy,
		maxChunkChars: maxChunkChars,
		log:           log,
	}
}

// Synthesize converts the given text into a single MPEG audio stream.
func (e *Engine) Synthesize(ctx context.Context, input string) ([]byte, error) {
	normalized := e.normalizer.Normalize(input)

	chunks := text.SplitChunks(normalized, e.maxChunkChars)
	if len(chunks) == 0 {
		return nil, ErrNoSpeakableText
	}

	segments := make([][]byte, 0, len(chunks))

	for chunkIndex, chunk := range chunks {
		segment, err := e.synthesizeWithRetry(ctx, chunk, chunkIndex, len(chunks))
		if err != nil {
			return nil, fmt.Errorf(errFmtChunkFailed, chunkIndex+1, len(chunks), err)
		}

		e.log.Info(logFmtChunkDone, chunkIndex+1, len(chunks), len(segment))

		segments = append(segments, segment)
	}

	combined, err := audio.Concat(segments)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble audio segments: %w", err)
	}

	return combined, nil
}

// synthesizeWithRetry requests one chunk, retrying transient failures with
// exponential backoff. Non-retryable errors fail immediately.
func (e *Engine) synthesizeWithRetry(ctx context.Context, chunk string, index, total int) ([]byte, error) {
	var lastErr error

	delay := e.policy.BaseDelay

	for attempt := 1; attempt <= e.policy.MaxAttempts; attempt++ {
		if attempt > 1 {
			e.log.Warn(logFmtRetrying, attempt-1, e.policy.MaxAttempts, delay, lastErr)

			err := sleepContext(ctx, delay)
			if err != nil {
				return nil, err
			}

			delay = time.Duration(float64(delay) * e.policy.Multiplier)
		}

		segment, err := e.client.SynthesizeChunk(ctx, chunk, index, total)
		if err == nil {
			return segment, nil
		}

		if !IsRetryable(err) {
			return nil, err
		}

		lastErr = err
	}

	return nil, fmt.Errorf(errFmtAttemptExceeded, ErrRetriesExhausted, e.policy.MaxAttempts, lastErr)
}

// sleepContext sleeps for the given duration unless the context is cancelled
// first.
func sleepContext(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("synthesis cancelled during backoff: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}
