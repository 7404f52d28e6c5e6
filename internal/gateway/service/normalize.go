package service

import (
	"strings"

	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// NormalizeText folds character widths: half-width katakana become
// full-width, full-width ASCII letters, digits and symbols become half-width.
// Voiced sound marks are recomposed so "ｶﾞ" becomes "ガ".
func NormalizeText(s string) string {
	s = width.Fold.String(s)
	s = norm.NFC.String(s)
	s = strings.ReplaceAll(s, "　", " ")
	return strings.TrimSpace(s)
}
