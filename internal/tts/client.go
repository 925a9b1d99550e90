// Package tts provides text-to-speech synthesis against the Google Translate
// speech endpoint, with chunking and exponential-backoff retries.
package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// API endpoint path.
const apiTranslateTTS = "/translate_tts"

// Query parameters for the speech endpoint.
const (
	paramEncoding = "ie"
	paramClient   = "client"
	paramLanguage = "tl"
	paramQuery    = "q"
	paramTotal    = "total"
	paramIndex    = "idx"
	paramTextLen  = "textlen"
)

// Fixed parameter values the endpoint expects.
const (
	encodingUTF8   = "UTF-8"
	clientTokenWeb = "tw-ob"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	contentTypeMPEG   = "audio/mpeg"
)

// Default values.
const (
	DefaultBaseURL  = "https://translate.google.com"
	DefaultLanguage = "en"
)

// Static errors.
var (
	ErrTextEmpty     = errors.New("text cannot be empty")
	ErrEmptyAudio    = errors.New("received empty audio data")
	ErrRateLimited   = errors.New("rate limited by TTS endpoint")
	ErrServerFailure = errors.New("TTS endpoint server failure")
	ErrRejected      = errors.New("TTS endpoint rejected request")
)

// Client is an HTTP client for the Google Translate speech endpoint. Each
// request carries one text chunk; the response body is an MPEG audio stream.
type Client struct {
	httpClient *http.Client
	baseURL    string
	language   string
}

// NewClient creates and configures a client for the speech endpoint. The
// baseURL should include the protocol (e.g. "https://translate.google.com").
// The timeout applies to every request made by this client.
func NewClient(baseURL, language string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if language == "" {
		language = DefaultLanguage
	}

	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		language: language,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SynthesizeChunk requests speech audio for a single text chunk. The index
// and total describe the chunk's position in the full document, which the
// endpoint uses for prosody across chunk boundaries.
//
// Rate-limit responses are returned as ErrRateLimited and server failures as
// ErrServerFailure so callers can classify them as retryable.
func (c *Client) SynthesizeChunk(ctx context.Context, chunk string, index, total int) ([]byte, error) {
	if strings.TrimSpace(chunk) == "" {
		return nil, ErrTextEmpty
	}

	requestURL := c.buildURL(chunk, index, total)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to TTS endpoint at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyStatus(resp)
	}

	contentType := resp.Header.Get(headerContentType)
	if !strings.HasPrefix(contentType, contentTypeMPEG) {
		return nil, fmt.Errorf("%w: unexpected content type %q", ErrRejected, contentType)
	}

	audioData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}

	if len(audioData) == 0 {
		return nil, ErrEmptyAudio
	}

	return audioData, nil
}

// buildURL constructs the request URL for one chunk.
func (c *Client) buildURL(chunk string, index, total int) string {
	values := url.Values{}
	values.Set(paramEncoding, encodingUTF8)
	values.Set(paramClient, clientTokenWeb)
	values.Set(paramLanguage, c.language)
	values.Set(paramQuery, chunk)
	values.Set(paramTotal, strconv.Itoa(total))
	values.Set(paramIndex, strconv.Itoa(index))
	values.Set(paramTextLen, strconv.Itoa(len(chunk)))

	return c.baseURL + apiTranslateTTS + "?" + values.Encode()
}

// classifyStatus maps a non-OK response onto the retryability sentinels.
func (c *Client) classifyStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, resp.Status)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s", ErrServerFailure, resp.Status)
	default:
		return fmt.Errorf("%w: %s, body: %s", ErrRejected, resp.Status, string(body))
	}
}

// IsRetryable reports whether an error from SynthesizeChunk is worth
// retrying. Rate limits, server failures, and transport errors are
// transient; anything the endpoint explicitly rejected is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServerFailure) {
		return true
	}

	if errors.Is(err, ErrRejected) ||
		errors.Is(err, ErrTextEmpty) ||
		errors.Is(err, ErrEmptyAudio) {
		return false
	}

	// Transport-level failures (connection reset, DNS, timeouts) surface as
	// wrapped url.Error values.
	var urlErr *url.Error

	return errors.As(err, &urlErr)
}
