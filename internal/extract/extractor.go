// Package extract provides PDF text extraction with an OCR fallback for
// image-only pages.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/book-expert/logger"
	"github.com/gen2brain/go-fitz"

	"github.com/book-expert/pdf-to-audio/internal/ocr"
)

// DefaultMinTextLength is the threshold below which a page's text layer is
// considered empty and the page is sent through OCR instead.
const DefaultMinTextLength = 16

const pageSeparator = "\n\n"

// Extractor extracts text from PDF documents. For each page the direct text
// layer is attempted first; pages whose text layer is missing or too short
// are rasterized and recognized with the configured OCR engine.
type Extractor struct {
	ocrEngine     ocr.Engine
	minTextLength int
	log           *logger.Logger
}

// New creates an Extractor. A minTextLength of zero or less selects the
// default threshold.
func New(ocrEngine ocr.Engine, minTextLength int, log *logger.Logger) *Extractor {
	if minTextLength <= 0 {
		minTextLength = DefaultMinTextLength
	}

	return &Extractor{
		ocrEngine:     ocrEngine,
		minTextLength: minTextLength,
		log:           log,
	}
}

// ExtractFile extracts the text of every page of the PDF at path,
// concatenated in page order. Individual page failures are logged and
// skipped; the call fails only if the document itself cannot be opened.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer doc.Close()

	var builder strings.Builder

	pageCount := doc.NumPage()

	for pageIndex := range pageCount {
		select {
		case <-ctx.Done():
			return "", fmt.Errorf("extraction cancelled: %w", ctx.Err())
		default:
		}

		pageText, pageErr := e.extractPage(ctx, doc, pageIndex)
		if pageErr != nil {
			e.log.Warn("Skipping page %d of %s: %v", pageIndex+1, path, pageErr)

			continue
		}

		if pageText == "" {
			continue
		}

		if builder.Len() > 0 {
			builder.WriteString(pageSeparator)
		}

		builder.WriteString(pageText)
	}

	return builder.String(), nil
}

// extractPage returns the text of a single page, applying the OCR fallback
// when the direct text layer is below the configured threshold. An OCR
// failure degrades to the text-layer result rather than failing the page.
func (e *Extractor) extractPage(ctx context.Context, doc *fitz.Document, pageIndex int) (string, error) {
	layerText, err := doc.Text(pageIndex)
	if err != nil {
		return "", fmt.Errorf("failed to read text layer: %w", err)
	}

	layerText = strings.TrimSpace(layerText)
	if len(layerText) >= e.minTextLength {
		return layerText, nil
	}

	ocrText, ocrErr := e.recognizePage(ctx, doc, pageIndex)
	if ocrErr != nil {
		e.log.Warn("OCR fallback failed for page %d: %v", pageIndex+1, ocrErr)

		return layerText, nil
	}

	return ocrText, nil
}

// recognizePage rasterizes a page and runs it through the OCR engine.
func (e *Extractor) recognizePage(ctx context.Context, doc *fitz.Document, pageIndex int) (string, error) {
	img, err := doc.Image(pageIndex)
	if err != nil {
		return "", fmt.Errorf("failed to rasterize page: %w", err)
	}

	imageData, err := ocr.PrepareImage(img)
	if err != nil {
		return "", fmt.Errorf("failed to prepare page image: %w", err)
	}

	text, err := e.ocrEngine.Recognize(ctx, imageData)
	if err != nil {
		return "", fmt.Errorf("failed to recognize page image: %w", err)
	}

	return text, nil
}
