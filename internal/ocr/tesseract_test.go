package ocr_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/pdf-to-audio/internal/ocr"
)

func TestRecognizeEmptyImage(t *testing.T) {
	t.Parallel()

	engine := ocr.NewTesseractEngine("eng")

	_, err := engine.Recognize(context.Background(), nil)
	require.ErrorIs(t, err, ocr.ErrEmptyImage)
}

func TestRecognizeCancelledContext(t *testing.T) {
	t.Parallel()

	engine := ocr.NewTesseractEngine("eng")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Recognize(ctx, []byte{0x89, 0x50})
	require.ErrorIs(t, err, context.Canceled)
}

func TestEngineClose(t *testing.T) {
	t.Parallel()

	engine := ocr.NewTesseractEngine("")

	require.NoError(t, engine.Close())
}

func TestPrepareImageNil(t *testing.T) {
	t.Parallel()

	_, err := ocr.PrepareImage(nil)
	require.ErrorIs(t, err, ocr.ErrEmptyImage)
}

func TestPrepareImageGrayscaleAndUpscale(t *testing.T) {
	t.Parallel()

	// A small color image: must come back grayscale and upscaled.
	src := image.NewRGBA(image.Rect(0, 0, 300, 400))

	for y := range 400 {
		for x := range 300 {
			src.Set(x, y, color.RGBA{R: uint8(x % 256), G: 40, B: 200, A: 255})
		}
	}

	data, err := ocr.PrepareImage(src)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, decoded.Bounds().Dx(), 1200)

	// Grayscale pixels have equal color channels.
	r, g, b, _ := decoded.At(decoded.Bounds().Dx()/2, decoded.Bounds().Dy()/2).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestPrepareImageKeepsLargeWidth(t *testing.T) {
	t.Parallel()

	src := image.NewGray(image.Rect(0, 0, 2000, 100))

	data, err := ocr.PrepareImage(src)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, 2000, decoded.Bounds().Dx())
}
