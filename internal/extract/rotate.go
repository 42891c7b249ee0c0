package extract

import (
	"image"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Rotate turns src clockwise by a multiple of 90 degrees. Any other angle
// returns an unrotated copy.
func Rotate(src image.Image, degrees int) *image.RGBA {
	return turn(src, src.Bounds(), degrees)
}

// turn copies sr out of src into a new image rooted at the origin, rotated
// clockwise by degrees.
func turn(src image.Image, sr image.Rectangle, degrees int) *image.RGBA {
	degrees = normalizeRotation(degrees)
	if degrees%90 != 0 {
		degrees = 0
	}

	w, h := sr.Dx(), sr.Dy()
	if degrees == 0 {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Copy(dst, image.Point{}, src, sr, draw.Src, nil)
		return dst
	}

	if degrees != 180 {
		w, h = h, w
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Transform(dst, quarterTurn(sr, degrees), src, sr, draw.Src, nil)
	return dst
}

// quarterTurn maps source coordinates inside sr to destination coordinates.
// Pixel centers land on pixel centers, so nearest neighbor sampling moves
// every pixel exactly.
func quarterTurn(sr image.Rectangle, degrees int) f64.Aff3 {
	x0, y0 := float64(sr.Min.X), float64(sr.Min.Y)
	w, h := float64(sr.Dx()), float64(sr.Dy())
	switch degrees {
	case 90:
		return f64.Aff3{0, -1, y0 + h, 1, 0, -x0}
	case 180:
		return f64.Aff3{-1, 0, x0 + w, 0, -1, y0 + h}
	default:
		return f64.Aff3{0, 1, -y0, -1, 0, x0 + w}
	}
}

// RotatedSize is the size of a w×h image after Rotate.
func RotatedSize(w, h float64, degrees int) (float64, float64) {
	switch normalizeRotation(degrees) {
	case 90, 270:
		return h, w
	default:
		return w, h
	}
}
