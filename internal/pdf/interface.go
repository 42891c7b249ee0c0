package pdf

import (
	"image"

	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

// Rasterizer decodes document bytes. It is the boundary to the page
// rendering library.
type Rasterizer interface {
	Open(data []byte) (Document, error)
}

// Document is one decoded source document. Page numbers are 1-based.
type Document interface {
	NumPage() int
	// PageSize is the page at its natural display scale, 72 pixels per inch.
	PageSize(pageNumber int) (models.PageDimensions, error)
	Render(pageNumber int, dpi float64) (image.Image, error)
	Close() error
}
