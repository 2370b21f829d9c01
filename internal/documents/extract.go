package documents

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// ErrUnparsable indicates the document could not be opened or read as a PDF.
// A document that parses but contains no text is not an error; the extractor
// reports that as an empty block slice.
var ErrUnparsable = errors.New("document cannot be parsed")

// TextBlock is a located unit of extracted text. Page numbers are 1-based and
// the bounding box is expressed in the page's native coordinate space (points).
type TextBlock struct {
	Text string
	Page int
	BBox BBox
}

// BBox is an axis-aligned rectangle (x0, y0, x1, y1) in page coordinates.
// It marshals as a four-element JSON array.
type BBox struct {
	X0, Y0, X1, Y1 float64
}

// MarshalJSON emits the box as [x0, y0, x1, y1]
func (b BBox) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf("[%g,%g,%g,%g]", b.X0, b.Y0, b.X1, b.Y1)), nil
}

// UnmarshalJSON accepts the [x0, y0, x1, y1] form
func (b *BBox) UnmarshalJSON(data []byte) error {
	var vals []float64
	if err := json.Unmarshal(data, &vals); err != nil {
		return fmt.Errorf("invalid bbox: %w", err)
	}
	if len(vals) != 4 {
		return fmt.Errorf("invalid bbox: expected 4 elements, got %d", len(vals))
	}
	b.X0, b.Y0, b.X1, b.Y1 = vals[0], vals[1], vals[2], vals[3]
	return nil
}

// PageDimensions stores the size of one page so bounding boxes can be
// rescaled onto a rendered view.
type PageDimensions struct {
	Page   int
	Width  float64
	Height float64
}

// Extractor turns a document file into located text blocks plus page sizes
type Extractor interface {
	Extract(filePath string) ([]TextBlock, map[int]PageDimensions, error)
}

// FitzExtractor extracts text blocks from PDF files using go-fitz
type FitzExtractor struct{}

// NewFitzExtractor creates a new PDF extractor
func NewFitzExtractor() *FitzExtractor {
	return &FitzExtractor{}
}

// Extract walks every page of the document, recording page dimensions and one
// TextBlock per positioned text line. Image regions are skipped.
func (e *FitzExtractor) Extract(filePath string) ([]TextBlock, map[int]PageDimensions, error) {
	doc, err := fitz.New(filePath)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrUnparsable, err)
	}
	defer doc.Close()

	var blocks []TextBlock
	pages := make(map[int]PageDimensions, doc.NumPage())

	for i := 0; i < doc.NumPage(); i++ {
		pageHTML, err := doc.HTML(i, false)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: page %d: %v", ErrUnparsable, i+1, err)
		}

		dims, ok := parsePageDimensions(pageHTML, i+1)
		if !ok {
			bound, err := doc.Bound(i)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: page %d bounds: %v", ErrUnparsable, i+1, err)
			}
			dims = PageDimensions{Page: i + 1, Width: float64(bound.Dx()), Height: float64(bound.Dy())}
		}
		pages[i+1] = dims

		blocks = append(blocks, parsePageBlocks(pageHTML, i+1)...)
	}

	return blocks, pages, nil
}

var (
	pageDivPattern  = regexp.MustCompile(`<div[^>]*id="page\d+"[^>]*style="([^"]*)"`)
	linePattern     = regexp.MustCompile(`(?s)<p\s+style="([^"]*)">(.*?)</p>`)
	tagPattern      = regexp.MustCompile(`<[^>]+>`)
	styleValPattern = regexp.MustCompile(`(top|left|line-height|width|height|font-size):([0-9.]+)pt`)
)

// parsePageDimensions reads width/height from the page div's inline style
func parsePageDimensions(pageHTML string, page int) (PageDimensions, bool) {
	m := pageDivPattern.FindStringSubmatch(pageHTML)
	if m == nil {
		return PageDimensions{}, false
	}
	vals := styleValues(m[1])
	w, wok := vals["width"]
	h, hok := vals["height"]
	if !wok || !hok {
		return PageDimensions{}, false
	}
	return PageDimensions{Page: page, Width: w, Height: h}, true
}

// parsePageBlocks converts mupdf's positioned HTML lines into TextBlocks.
// Each <p> carries its origin and line height; the horizontal extent is not
// present in the output, so x1 is estimated from the glyph count at half the
// font size.
func parsePageBlocks(pageHTML string, page int) []TextBlock {
	var blocks []TextBlock

	for _, m := range linePattern.FindAllStringSubmatch(pageHTML, -1) {
		style, inner := m[1], m[2]

		fontSize := firstFontSize(inner)
		text := strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(inner, "")))
		if text == "" {
			continue
		}

		vals := styleValues(style)
		left := vals["left"]
		top := vals["top"]
		lineHeight, ok := vals["line-height"]
		if !ok {
			lineHeight = fontSize * 1.2
		}

		blocks = append(blocks, TextBlock{
			Text: text,
			Page: page,
			BBox: BBox{
				X0: left,
				Y0: top,
				X1: left + 0.5*fontSize*float64(len([]rune(text))),
				Y1: top + lineHeight,
			},
		})
	}

	return blocks
}

func firstFontSize(inner string) float64 {
	if v, ok := styleValues(inner)["font-size"]; ok && v > 0 {
		return v
	}
	return 12
}

func styleValues(style string) map[string]float64 {
	vals := make(map[string]float64)
	for _, m := range styleValPattern.FindAllStringSubmatch(style, -1) {
		if v, err := strconv.ParseFloat(m[2], 64); err == nil {
			if _, seen := vals[m[1]]; !seen {
				vals[m[1]] = v
			}
		}
	}
	return vals
}
