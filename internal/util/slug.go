// Package util provides common utility functions.
package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	// Matches spaces, underscores, and slashes (for replacement with dashes).
	wordSeparatorRe = regexp.MustCompile(`[\s_/]+`)
	// Matches non-alphanumeric characters (except dashes).
	nonAlphanumericRe = regexp.MustCompile(`[^a-z0-9-]`)
	// Matches multiple consecutive dashes.
	multipleDashRe = regexp.MustCompile(`-+`)

	// đ has no decomposition, so stripping marks leaves it alone.
	letterReplacer = strings.NewReplacer("đ", "d", "Đ", "d")
)

// CategorySlug converts a category name to the slug the catalog routes use.
// Slugs pass through unchanged, so callers may give either.
//
// Normalization rules:
//  1. Trim whitespace, drop diacritics and lowercase
//  2. Replace spaces, underscores and slashes with dashes
//  3. Remove non-alphanumeric characters (except dashes)
//  4. Collapse multiple dashes
//  5. Trim leading/trailing dashes
//
// Examples:
//
//	"Văn học"           → "van-hoc"
//	"Tiểu thuyết"       → "tieu-thuyet"
//	"Phát triển bản thân" → "phat-trien-ban-than"
//	"Đời sống"          → "doi-song"
//	"tieu-thuyet"       → "tieu-thuyet"
func CategorySlug(input string) string {
	// 1. Trim, strip marks and lowercase
	s := strings.ToLower(stripMarks(strings.TrimSpace(input)))

	// 2. Replace word separators (spaces, underscores, slashes) with dashes
	s = wordSeparatorRe.ReplaceAllString(s, "-")

	// 3. Remove non-alphanumeric (except dashes)
	s = nonAlphanumericRe.ReplaceAllString(s, "")

	// 4. Collapse multiple dashes
	s = multipleDashRe.ReplaceAllString(s, "-")

	// 5. Trim leading/trailing dashes
	return strings.Trim(s, "-")
}

func stripMarks(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return letterReplacer.Replace(out)
}
