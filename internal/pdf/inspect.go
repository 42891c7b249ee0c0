package pdf

import (
	"fmt"
	"io"
	"math"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

func init() {
	// pdfcpu would otherwise create a config directory under the user's home.
	api.DisableConfigDir()
}

// DocumentInfo is the page layout of a document as reported by pdfcpu.
type DocumentInfo struct {
	PageCount int
	// Pages holds the visible size of page n at index n-1, in points: the
	// crop box clipped to the media box, with the page rotation applied.
	// This is the area a renderer draws.
	Pages []models.PageDimensions
	// Media holds the rotated media box sizes.
	Media []models.PageDimensions
}

// Inspect reads the page count and page dimensions without rendering.
func Inspect(rs io.ReadSeeker) (*DocumentInfo, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadAndValidate(rs, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to read page dimensions: %w", err)
	}
	boundaries, err := ctx.PageBoundaries(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read page boundaries: %w", err)
	}
	if len(boundaries) == 0 {
		return nil, ErrEmptyDocument
	}

	info := &DocumentInfo{
		PageCount: len(boundaries),
		Pages:     make([]models.PageDimensions, len(boundaries)),
		Media:     make([]models.PageDimensions, len(boundaries)),
	}
	for i, pb := range boundaries {
		media := pb.MediaBox()
		if media == nil {
			return nil, fmt.Errorf("page %d has no media box", i+1)
		}
		info.Media[i] = rotated(normalize(*media), pb.Rot)
		info.Pages[i] = rotated(visibleBox(*media, pb.CropBox()), pb.Rot)
	}
	return info, nil
}

// visibleBox is the crop box clipped to the media box. A crop box that
// misses the media box entirely is ignored.
func visibleBox(media types.Rectangle, crop *types.Rectangle) types.Rectangle {
	media = normalize(media)
	if crop == nil {
		return media
	}
	c := normalize(*crop)
	r := types.Rectangle{
		LL: types.Point{X: math.Max(media.LL.X, c.LL.X), Y: math.Max(media.LL.Y, c.LL.Y)},
		UR: types.Point{X: math.Min(media.UR.X, c.UR.X), Y: math.Min(media.UR.Y, c.UR.Y)},
	}
	if r.Width() <= 0 || r.Height() <= 0 {
		return media
	}
	return r
}

// normalize orders the corners of a box written as [urx ury llx lly].
func normalize(r types.Rectangle) types.Rectangle {
	return types.Rectangle{
		LL: types.Point{X: math.Min(r.LL.X, r.UR.X), Y: math.Min(r.LL.Y, r.UR.Y)},
		UR: types.Point{X: math.Max(r.LL.X, r.UR.X), Y: math.Max(r.LL.Y, r.UR.Y)},
	}
}

func rotated(r types.Rectangle, rot int) models.PageDimensions {
	dim := models.PageDimensions{Width: r.Width(), Height: r.Height()}
	if rot%180 != 0 {
		dim.Width, dim.Height = dim.Height, dim.Width
	}
	return dim
}

// Page returns the visible size of a 1-based page.
func (i *DocumentInfo) Page(pageNumber int) (models.PageDimensions, error) {
	if pageNumber < 1 || pageNumber > len(i.Pages) {
		return models.PageDimensions{}, fmt.Errorf("%w: page %d of %d", ErrPageOutOfRange, pageNumber, len(i.Pages))
	}
	return i.Pages[pageNumber-1], nil
}
