// Package resolver maps card numbers to the sheet, page and cell holding
// each face. Everything here is pure.
package resolver

import (
	"fmt"

	"github.com/kpauljoseph/sheetdeck/pkg/models"
)

// Resolve locates both faces of cardNumber. Card startingCardNumber is the
// first cell of the sheet at startPage.
//
// The back face sits in the mirrored column of the same row: the sheet is
// flipped along its vertical axis when printed double sided.
func Resolve(cardNumber, startingCardNumber int, mode models.LayoutMode, grid models.GridSpec, startPage int) models.CardFaces {
	perSheet := grid.PerSheet()
	offset := cardNumber - startingCardNumber
	localIndex := offset % perSheet
	sheetOffset := offset / perSheet

	row := localIndex / grid.Columns
	col := localIndex % grid.Columns
	backCol := grid.Columns - col - 1

	front := models.FaceRef{
		Face: models.FaceFront,
		Row:  row,
		Col:  col,
	}
	back := models.FaceRef{
		Face:     models.FaceBack,
		Row:      row,
		Col:      backCol,
		Mirrored: true,
	}

	switch mode {
	case models.LayoutSeparate:
		front.DocumentID = models.DocumentFront
		front.PageNumber = startPage + sheetOffset
		back.DocumentID = models.DocumentBack
		back.PageNumber = startPage + sheetOffset
	default:
		front.DocumentID = models.DocumentFront
		front.PageNumber = startPage + sheetOffset*2
		back.DocumentID = models.DocumentFront
		back.PageNumber = startPage + sheetOffset*2 + 1
	}

	return models.CardFaces{CardNumber: cardNumber, Front: front, Back: back}
}

// TotalCards is the number of cards in a page range of the given length.
// In single mode a trailing unpaired page is ignored.
func TotalCards(mode models.LayoutMode, grid models.GridSpec, pageRangeLength int) int {
	if pageRangeLength <= 0 {
		return 0
	}
	if mode == models.LayoutSeparate {
		return pageRangeLength * grid.PerSheet()
	}
	return (pageRangeLength / 2) * grid.PerSheet()
}

// CardNumbers lists total card numbers in ascending order.
func CardNumbers(startingCardNumber, total int) []int {
	numbers := make([]int, total)
	for i := range numbers {
		numbers[i] = startingCardNumber + i
	}
	return numbers
}

// FaceFileName is the image file name of one face, e.g. "mycard-007-front.png".
func FaceFileName(templateName string, cardNumber int, face models.Face, ext string) string {
	return fmt.Sprintf("%s-%03d-%s.%s", templateName, cardNumber, face, ext)
}
