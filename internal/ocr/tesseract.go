// Package ocr provides optical character recognition for rasterized PDF
// pages using the Tesseract engine via gosseract.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/otiai10/gosseract/v2"
)

// Static errors.
var (
	ErrEmptyImage = errors.New("image data cannot be empty")
)

// Pages rasterized below this width are upscaled before recognition.
// Tesseract accuracy drops sharply on low-resolution rasters.
const minRecognitionWidth = 1200

// DefaultLanguage is the Tesseract language pack used when none is configured.
const DefaultLanguage = "eng"

// Engine defines the interface for an OCR provider.
type Engine interface {
	Recognize(ctx context.Context, imageData []byte) (string, error)
	Close() error
}

// TesseractEngine implements Engine using the gosseract client. A fresh
// client is created per recognition so the engine is safe for concurrent use
// across pipeline workers.
type TesseractEngine struct {
	language      string
	clientFactory func() *gosseract.Client
}

// NewTesseractEngine constructs a Tesseract-backed OCR engine for the given
// language pack (e.g. "eng").
func NewTesseractEngine(language string) *TesseractEngine {
	if language == "" {
		language = DefaultLanguage
	}

	return &TesseractEngine{
		language:      language,
		clientFactory: gosseract.NewClient,
	}
}

// Recognize performs OCR on a single PNG-encoded image and returns the
// trimmed recognized text.
func (e *TesseractEngine) Recognize(ctx context.Context, imageData []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("recognition cancelled: %w", ctx.Err())
	default:
	}

	if len(imageData) == 0 {
		return "", ErrEmptyImage
	}

	client := e.clientFactory()
	defer client.Close()

	err := client.SetImageFromBytes(imageData)
	if err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	err = client.SetLanguage(e.language)
	if err != nil {
		return "", fmt.Errorf("failed to set language %q: %w", e.language, err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to recognize text: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Close performs cleanup for the engine. Clients are per-call, so this is a
// no-op kept for interface consistency.
func (e *TesseractEngine) Close() error {
	return nil
}

// PrepareImage converts a rasterized page into PNG bytes suitable for
// recognition: grayscale to drop color noise, upscaled when the raster is too
// small for reliable recognition.
func PrepareImage(img image.Image) ([]byte, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}

	prepared := imaging.Grayscale(img)

	if prepared.Bounds().Dx() < minRecognitionWidth {
		prepared = imaging.Resize(prepared, minRecognitionWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer

	err := png.Encode(&buf, prepared)
	if err != nil {
		return nil, fmt.Errorf("failed to encode page image: %w", err)
	}

	return buf.Bytes(), nil
}
