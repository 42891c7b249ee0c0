package extract

import (
	"bytes"
	"errors"
	"fmt"
	"image"

	"github.com/kpauljoseph/sheetdeck/internal/imageformat"
	"github.com/kpauljoseph/sheetdeck/pkg/logger"
	"github.com/kpauljoseph/sheetdeck/pkg/models"
	"github.com/kpauljoseph/sheetdeck/pkg/units"
)

var (
	ErrNoPage     = errors.New("no rasterized page")
	ErrEmptyCrop  = errors.New("cell lies outside the rendered page")
	ErrNoEncoder  = errors.New("no image encoder")
	ErrBadTurn    = errors.New("rotation must be 0, 90, 180 or 270 degrees")
	ErrEncodeFail = errors.New("encoding failed")
)

// Extractor crops card cells out of rendered pages.
type Extractor struct {
	encoder  imageformat.Encoder
	rotation int
	logger   *logger.Logger
}

type Option func(*Extractor)

// WithRotation turns every extracted face clockwise by degrees.
func WithRotation(degrees int) Option {
	return func(e *Extractor) {
		e.rotation = degrees
	}
}

func WithLogger(log *logger.Logger) Option {
	return func(e *Extractor) {
		e.logger = log
	}
}

func New(encoder imageformat.Encoder, options ...Option) (*Extractor, error) {
	if encoder == nil {
		return nil, ErrNoEncoder
	}
	e := &Extractor{encoder: encoder, logger: logger.Discard()}
	for _, opt := range options {
		opt(e)
	}
	e.rotation = normalizeRotation(e.rotation)
	if e.rotation%90 != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrBadTurn, e.rotation)
	}
	return e, nil
}

func (e *Extractor) Encoder() imageformat.Encoder {
	return e.encoder
}

func (e *Extractor) Rotation() int {
	return e.rotation
}

// Extract crops cell, given in display-space pixels, from a page rendered at
// exportDPI and encodes it. Failures are per-face and never fatal for a job.
func (e *Extractor) Extract(page image.Image, cell models.Cell, exportDPI float64) ([]byte, error) {
	img, err := e.Crop(page, cell, exportDPI)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := e.encoder.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrEncodeFail, e.encoder.Format(), err)
	}
	return buf.Bytes(), nil
}

// Crop returns the rotated cell region as a new image.
func (e *Extractor) Crop(page image.Image, cell models.Cell, exportDPI float64) (image.Image, error) {
	if page == nil {
		return nil, ErrNoPage
	}

	scaled := cell.Scale(units.ExportScale(exportDPI))
	if scaled.Width <= 0 || scaled.Height <= 0 {
		return nil, fmt.Errorf("%w: cell (%d,%d) has size %.2f x %.2f", ErrEmptyCrop, cell.Row, cell.Col, scaled.Width, scaled.Height)
	}
	bounds := page.Bounds()
	// Cell coordinates are relative to the page origin.
	r := scaled.Bounds().Add(bounds.Min).Intersect(bounds)
	if r.Empty() {
		return nil, fmt.Errorf("%w: cell (%d,%d) at %v, page %v", ErrEmptyCrop, cell.Row, cell.Col, scaled.Bounds(), bounds)
	}
	e.logger.Trace("Cropping cell (%d,%d) to %v", cell.Row, cell.Col, r)

	return turn(page, r, e.rotation), nil
}

func normalizeRotation(degrees int) int {
	degrees %= 360
	if degrees < 0 {
		degrees += 360
	}
	return degrees
}
