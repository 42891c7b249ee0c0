package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"
	"sync"

	"github.com/gen2brain/go-fitz"
	"github.com/kpauljoseph/sheetdeck/pkg/logger"
	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

var (
	ErrPageOutOfRange = errors.New("page out of range")
	ErrEmptyDocument  = errors.New("document is empty")
)

// FitzRasterizer renders with MuPDF through go-fitz. Page sizes are the
// visible page boxes read by pdfcpu, checked against the bounds MuPDF
// renders; MuPDF wins when they disagree.
type FitzRasterizer struct {
	logger *logger.Logger
}

func NewFitzRasterizer(log *logger.Logger) *FitzRasterizer {
	if log == nil {
		log = logger.Discard()
	}
	return &FitzRasterizer{logger: log}
}

func (r *FitzRasterizer) Open(data []byte) (Document, error) {
	if len(data) == 0 {
		return nil, ErrEmptyDocument
	}

	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	fd := &fitzDocument{doc: doc, logger: r.logger}

	info, err := Inspect(bytes.NewReader(data))
	if err != nil {
		r.logger.Debug("pdfcpu could not read page dimensions, using MuPDF bounds: %v", err)
	} else if info.PageCount == doc.NumPage() {
		fd.dims = fd.reconcile(info.Pages)
	} else {
		r.logger.Debug("pdfcpu reports %d pages, MuPDF %d; using MuPDF bounds", info.PageCount, doc.NumPage())
	}

	return fd, nil
}

// fitzDocument serializes access to the MuPDF context, which is not safe for
// concurrent use.
type fitzDocument struct {
	mu     sync.Mutex
	doc    *fitz.Document
	dims   []models.PageDimensions
	logger *logger.Logger
}

// reconcile replaces any size that does not match the rendered bounds.
// MuPDF bounds are whole points, so a difference below one point is kept.
func (d *fitzDocument) reconcile(dims []models.PageDimensions) []models.PageDimensions {
	for i := range dims {
		bounds, err := d.doc.Bound(i)
		if err != nil {
			d.logger.Debug("Failed to get bounds for page %d: %v", i+1, err)
			continue
		}
		w, h := float64(bounds.Dx()), float64(bounds.Dy())
		if math.Abs(w-dims[i].Width) > 1 || math.Abs(h-dims[i].Height) > 1 {
			d.logger.Debug("Page %d: pdfcpu size %.2fx%.2f, MuPDF renders %.0fx%.0f", i+1, dims[i].Width, dims[i].Height, w, h)
			dims[i] = models.PageDimensions{Width: w, Height: h}
		}
	}
	return dims
}

func (d *fitzDocument) NumPage() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.NumPage()
}

func (d *fitzDocument) PageSize(pageNumber int) (models.PageDimensions, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkPage(pageNumber); err != nil {
		return models.PageDimensions{}, err
	}
	if d.dims != nil {
		return d.dims[pageNumber-1], nil
	}

	//Page numbers are zero indexed in the fitz package.
	bounds, err := d.doc.Bound(pageNumber - 1)
	if err != nil {
		return models.PageDimensions{}, fmt.Errorf("failed to get bounds for page %d: %w", pageNumber, err)
	}
	return models.PageDimensions{Width: float64(bounds.Dx()), Height: float64(bounds.Dy())}, nil
}

func (d *fitzDocument) Render(pageNumber int, dpi float64) (image.Image, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.checkPage(pageNumber); err != nil {
		return nil, err
	}

	d.logger.Trace("Rendering page %d at %.0f dpi", pageNumber, dpi)
	img, err := d.doc.ImageDPI(pageNumber-1, dpi)
	if err != nil {
		return nil, fmt.Errorf("failed to render page %d: %w", pageNumber, err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.Close()
}

func (d *fitzDocument) checkPage(pageNumber int) error {
	if pageNumber < 1 || pageNumber > d.doc.NumPage() {
		return fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, pageNumber, d.doc.NumPage())
	}
	return nil
}
