package models

import (
	"fmt"
	"image"
	"math"
	"strings"
)

// PageDimensions is the size of a rendered page in display-space pixels
// (72 per inch).
type PageDimensions struct {
	Width  float64
	Height float64
}

// GridSpec describes how a sheet is divided into card cells. Margins and
// spacings are in millimeters.
type GridSpec struct {
	Columns       int
	Rows          int
	MarginLeft    float64
	MarginRight   float64
	MarginTop     float64
	MarginBottom  float64
	ColumnSpacing float64
	RowSpacing    float64
	DPI           float64
}

// PerSheet is the number of cards on one sheet.
func (g GridSpec) PerSheet() int {
	return g.Columns * g.Rows
}

type LayoutMode string

const (
	// LayoutSingle is one document with alternating front and back pages.
	LayoutSingle LayoutMode = "single"
	// LayoutSeparate is one document of fronts and a second of backs.
	LayoutSeparate LayoutMode = "separate"
)

func ParseLayoutMode(s string) (LayoutMode, error) {
	switch LayoutMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", LayoutSingle:
		return LayoutSingle, nil
	case LayoutSeparate:
		return LayoutSeparate, nil
	default:
		return "", fmt.Errorf("unknown layout mode %q (must be single or separate)", s)
	}
}

// DocumentID identifies one of the two source documents.
type DocumentID int

const (
	// DocumentFront holds the fronts, or both faces in single mode.
	DocumentFront DocumentID = 1
	DocumentBack  DocumentID = 2
)

func (d DocumentID) String() string {
	return fmt.Sprintf("document %d", int(d))
}

type Face string

const (
	FaceFront Face = "front"
	FaceBack  Face = "back"
)

// Sheet is one rendered page holding a grid of cells.
type Sheet struct {
	DocumentID DocumentID
	PageNumber int
	Size       PageDimensions
}

// Cell is one grid rectangle in pixels, origin top-left.
type Cell struct {
	Row    int
	Col    int
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Scale returns the cell in a pixel space factor times larger.
func (c Cell) Scale(factor float64) Cell {
	return Cell{
		Row:    c.Row,
		Col:    c.Col,
		X:      c.X * factor,
		Y:      c.Y * factor,
		Width:  c.Width * factor,
		Height: c.Height * factor,
	}
}

// Bounds rounds both corners independently so that adjacent cells share an
// edge instead of overlapping or leaving a one pixel seam.
func (c Cell) Bounds() image.Rectangle {
	return image.Rect(
		int(math.Round(c.X)),
		int(math.Round(c.Y)),
		int(math.Round(c.X+c.Width)),
		int(math.Round(c.Y+c.Height)),
	)
}

// Overlaps reports whether two cells share interior area. Edges that touch
// within floating point noise do not count.
func (c Cell) Overlaps(o Cell) bool {
	const eps = 1e-9
	return c.X+eps < o.X+o.Width && o.X+eps < c.X+c.Width &&
		c.Y+eps < o.Y+o.Height && o.Y+eps < c.Y+c.Height
}

// FaceRef locates one face of a card.
type FaceRef struct {
	Face       Face
	DocumentID DocumentID
	PageNumber int
	Row        int
	Col        int
	Mirrored   bool
}

type CardFaces struct {
	CardNumber int
	Front      FaceRef
	Back       FaceRef
}

// Faces returns front then back.
func (c CardFaces) Faces() []FaceRef {
	return []FaceRef{c.Front, c.Back}
}

// PageRange is an inclusive, 1-based page range.
type PageRange struct {
	Start  int
	Finish int
}

func (r PageRange) Len() int {
	if r.Finish < r.Start {
		return 0
	}
	return r.Finish - r.Start + 1
}
