package utils

import (
	"path/filepath"
	"strings"
	"unicode"
)

// TemplateNameFromPath derives a template name from a document file name,
// e.g. "decks/Monster Cards.pdf" becomes "monster-cards".
func TemplateNameFromPath(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(base) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteRune('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
