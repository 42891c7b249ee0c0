package geometry

import (
	"github.com/kpauljoseph/sheetdeck/pkg/models"
	"github.com/kpauljoseph/sheetdeck/pkg/units"
)

// ComputeCells lays the grid over a page given in display-space pixels.
//
// The display scale is assumed to be exactly one pixel per PDF point. Pages
// reported at any other scale must be renormalized by the caller.
func ComputeCells(page models.PageDimensions, grid models.GridSpec) [][]models.Cell {
	return ComputeCellsAt(page, grid, units.ReferenceDPI)
}

// ComputeCellsAt lays the grid over a page whose size is in pixels at dpi.
// Margins and spacings are converted to the same pixel space. Degenerate
// grids produce zero or negative cell sizes; Validate reports those.
func ComputeCellsAt(page models.PageDimensions, grid models.GridSpec, dpi float64) [][]models.Cell {
	if grid.Columns < 1 || grid.Rows < 1 {
		return nil
	}

	marginLeft := units.MMToPx(grid.MarginLeft, dpi)
	marginTop := units.MMToPx(grid.MarginTop, dpi)
	colSpacing := units.MMToPx(grid.ColumnSpacing, dpi)
	rowSpacing := units.MMToPx(grid.RowSpacing, dpi)

	cellWidth, cellHeight := cellSize(page, grid, dpi)

	cells := make([][]models.Cell, grid.Rows)
	for row := 0; row < grid.Rows; row++ {
		cells[row] = make([]models.Cell, grid.Columns)
		for col := 0; col < grid.Columns; col++ {
			cells[row][col] = models.Cell{
				Row:    row,
				Col:    col,
				X:      marginLeft + float64(col)*(cellWidth+colSpacing),
				Y:      marginTop + float64(row)*(cellHeight+rowSpacing),
				Width:  cellWidth,
				Height: cellHeight,
			}
		}
	}
	return cells
}

// CellAt returns the display-space cell at (row, col).
func CellAt(page models.PageDimensions, grid models.GridSpec, row, col int) (models.Cell, bool) {
	if row < 0 || row >= grid.Rows || col < 0 || col >= grid.Columns {
		return models.Cell{}, false
	}
	cells := ComputeCells(page, grid)
	return cells[row][col], true
}

// PrintableArea is the page minus margins, in pixels at dpi. Spacing between
// cells is still part of it.
func PrintableArea(page models.PageDimensions, grid models.GridSpec, dpi float64) (width, height float64) {
	width = page.Width - units.MMToPx(grid.MarginLeft, dpi) - units.MMToPx(grid.MarginRight, dpi)
	height = page.Height - units.MMToPx(grid.MarginTop, dpi) - units.MMToPx(grid.MarginBottom, dpi)
	return width, height
}

// CardSizeMM is the physical size of one cell.
func CardSizeMM(page models.PageDimensions, grid models.GridSpec) (width, height float64) {
	w, h := cellSize(page, grid, units.ReferenceDPI)
	return units.PxToMM(w, units.ReferenceDPI), units.PxToMM(h, units.ReferenceDPI)
}

func cellSize(page models.PageDimensions, grid models.GridSpec, dpi float64) (width, height float64) {
	printableWidth, printableHeight := PrintableArea(page, grid, dpi)
	availableWidth := printableWidth - units.MMToPx(grid.ColumnSpacing, dpi)*float64(grid.Columns-1)
	availableHeight := printableHeight - units.MMToPx(grid.RowSpacing, dpi)*float64(grid.Rows-1)
	return availableWidth / float64(grid.Columns), availableHeight / float64(grid.Rows)
}

// ValidateGrid checks the page-independent parts of a grid.
func ValidateGrid(grid models.GridSpec) error {
	if grid.Columns < 1 {
		return invalidf("columns", "must be at least 1, got %d", grid.Columns)
	}
	if grid.Rows < 1 {
		return invalidf("rows", "must be at least 1, got %d", grid.Rows)
	}
	if grid.DPI < units.MinDPI {
		return invalidf("dpi", "must be at least %.0f, got %.2f", units.MinDPI, grid.DPI)
	}
	lengths := []struct {
		name  string
		value float64
	}{
		{"margin_left", grid.MarginLeft},
		{"margin_right", grid.MarginRight},
		{"margin_top", grid.MarginTop},
		{"margin_bottom", grid.MarginBottom},
		{"column_spacing", grid.ColumnSpacing},
		{"row_spacing", grid.RowSpacing},
	}
	for _, l := range lengths {
		if l.value < 0 {
			return invalidf(l.name, "must not be negative, got %.2f", l.value)
		}
	}
	return nil
}

// Validate checks that grid yields usable cells on page.
func Validate(page models.PageDimensions, grid models.GridSpec) error {
	if err := ValidateGrid(grid); err != nil {
		return err
	}
	if page.Width <= 0 || page.Height <= 0 {
		return invalidf("", "page has no area (%.2f x %.2f)", page.Width, page.Height)
	}
	w, h := cellSize(page, grid, units.ReferenceDPI)
	if w <= 0 || h <= 0 {
		return invalidf("", "margins and spacing leave no room for cells on a %.2f x %.2f page (cell %.2f x %.2f px)",
			page.Width, page.Height, w, h)
	}
	return nil
}
