// Package units converts physical lengths to pixels and back.
//
// Two pixel spaces are in play. Display space is the page at its natural
// size, ReferenceDPI pixels per inch (one PDF point per pixel). Export space
// is the page rasterized at the export DPI. ExportScale converts between
// them. Grid geometry is always computed in display space.
package units

import (
	"fmt"
	"strings"
)

const (
	MillimetersPerInch  = 25.4
	MillimetersPerMeter = 1000.0

	// ReferenceDPI is the resolution of a page rendered at its natural
	// display scale.
	ReferenceDPI = 72.0

	// MinDPI is the lowest export resolution accepted.
	MinDPI = ReferenceDPI
)

type Unit string

const (
	Millimeters Unit = "mm"
	Inches      Unit = "inches"
)

func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mm", "millimeters", "millimetres":
		return Millimeters, nil
	case "in", "inch", "inches":
		return Inches, nil
	default:
		return "", fmt.Errorf("unknown length unit %q", s)
	}
}

// ToMM converts v, expressed in u, to millimeters.
func (u Unit) ToMM(v float64) float64 {
	if u == Inches {
		return InchToMM(v)
	}
	return v
}

// FromMM converts millimeters to u.
func (u Unit) FromMM(mm float64) float64 {
	if u == Inches {
		return MMToInch(mm)
	}
	return mm
}

func MMToPx(mm, dpi float64) float64 {
	return mm / MillimetersPerInch * dpi
}

func PxToMM(px, dpi float64) float64 {
	return px / dpi * MillimetersPerInch
}

func MMToInch(mm float64) float64 {
	return mm / MillimetersPerInch
}

func InchToMM(in float64) float64 {
	return in * MillimetersPerInch
}

func MMToMeter(mm float64) float64 {
	return mm / MillimetersPerMeter
}

func MeterToMM(m float64) float64 {
	return m * MillimetersPerMeter
}

// ExportScale is the factor from display-space pixels to pixels of a page
// rendered at dpi.
func ExportScale(dpi float64) float64 {
	return dpi / ReferenceDPI
}
