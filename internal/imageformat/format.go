// Package imageformat selects the encoder used for card face images.
//
// Every format a user can ask for is recognised, but only some have an
// encoder available to this build. Negotiate picks the encoder once per
// export run and falls back to PNG when the preferred format cannot be
// written.
package imageformat

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	TIFF Format = "tiff"
	BMP  Format = "bmp"
	WebP Format = "webp"
	AVIF Format = "avif"

	// Default is the preferred distribution format.
	Default = JPEG
	// Fallback is lossless and always available.
	Fallback = PNG

	DefaultJPEGQuality = 92
)

var known = []Format{PNG, JPEG, TIFF, BMP, WebP, AVIF}

func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	switch name {
	case "":
		return Default, nil
	case "jpg":
		return JPEG, nil
	case "tif":
		return TIFF, nil
	}
	for _, f := range known {
		if string(f) == name {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown image format %q", s)
}

// Encoder writes one image in a fixed format.
type Encoder interface {
	Format() Format
	// Extension is used in file names, without the dot.
	Extension() string
	Encode(w io.Writer, img image.Image) error
}

type Options struct {
	JPEGQuality int
}

// Lookup returns the encoder for f, or false when this build cannot write f.
func Lookup(f Format, opts Options) (Encoder, bool) {
	switch f {
	case PNG:
		return pngEncoder{enc: &png.Encoder{CompressionLevel: png.DefaultCompression}}, true
	case JPEG:
		quality := opts.JPEGQuality
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		return jpegEncoder{quality: quality}, true
	case TIFF:
		return tiffEncoder{}, true
	case BMP:
		return bmpEncoder{}, true
	default:
		return nil, false
	}
}

// Negotiate returns the encoder for preferred, or the fallback encoder with
// substituted set when preferred is not writable.
func Negotiate(preferred Format, opts Options) (enc Encoder, substituted bool) {
	if enc, ok := Lookup(preferred, opts); ok {
		return enc, false
	}
	enc, _ = Lookup(Fallback, opts)
	return enc, true
}

// Supported lists the formats that have an encoder.
func Supported() []Format {
	var out []Format
	for _, f := range known {
		if _, ok := Lookup(f, Options{}); ok {
			out = append(out, f)
		}
	}
	return out
}

type pngEncoder struct {
	enc *png.Encoder
}

func (pngEncoder) Format() Format    { return PNG }
func (pngEncoder) Extension() string { return "png" }
func (e pngEncoder) Encode(w io.Writer, img image.Image) error {
	return e.enc.Encode(w, img)
}

type jpegEncoder struct {
	quality int
}

func (jpegEncoder) Format() Format    { return JPEG }
func (jpegEncoder) Extension() string { return "jpg" }
func (e jpegEncoder) Encode(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: e.quality})
}

type tiffEncoder struct{}

func (tiffEncoder) Format() Format    { return TIFF }
func (tiffEncoder) Extension() string { return "tiff" }
func (tiffEncoder) Encode(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

type bmpEncoder struct{}

func (bmpEncoder) Format() Format    { return BMP }
func (bmpEncoder) Extension() string { return "bmp" }
func (bmpEncoder) Encode(w io.Writer, img image.Image) error {
	return bmp.Encode(w, img)
}
