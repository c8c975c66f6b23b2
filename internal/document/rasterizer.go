package document

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// Rasterizer renders the first page of a PDF to a PNG image
type Rasterizer interface {
	FirstPagePNG(pdf []byte) ([]byte, error)
}

// FitzRasterizer rasterizes with MuPDF
type FitzRasterizer struct {
	dpi      float64
	maxWidth int
}

// NewFitzRasterizer creates a MuPDF backed rasterizer
func NewFitzRasterizer(dpi float64, maxWidth int) *FitzRasterizer {
	if dpi <= 0 {
		dpi = 110
	}
	return &FitzRasterizer{dpi: dpi, maxWidth: maxWidth}
}

// FirstPagePNG implements Rasterizer
func (r *FitzRasterizer) FirstPagePNG(pdf []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdf)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("PDF has no pages")
	}

	img, err := doc.ImageDPI(0, r.dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	var out = imaging.Clone(img)
	if r.maxWidth > 0 && out.Bounds().Dx() > r.maxWidth {
		out = imaging.Resize(out, r.maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode preview: %w", err)
	}
	return buf.Bytes(), nil
}
