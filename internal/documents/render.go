package documents

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"

	"github.com/gen2brain/go-fitz"
)

// ErrPageOutOfRange indicates a render request for a page the document does
// not have.
var ErrPageOutOfRange = errors.New("page out of range")

// PageRenderer rasterizes one page of a stored document for client-side
// citation overlays.
type PageRenderer interface {
	RenderPage(filePath string, page int) ([]byte, error)
}

// FitzRenderer renders PDF pages to PNG using go-fitz
type FitzRenderer struct{}

// NewFitzRenderer creates a new page renderer
func NewFitzRenderer() *FitzRenderer {
	return &FitzRenderer{}
}

// RenderPage renders the given 1-based page as PNG bytes
func (r *FitzRenderer) RenderPage(filePath string, page int) ([]byte, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	defer doc.Close()

	if page < 1 || page > doc.NumPage() {
		return nil, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, page, doc.NumPage())
	}

	img, err := doc.Image(page - 1)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", page, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode page %d: %w", page, err)
	}
	return buf.Bytes(), nil
}
