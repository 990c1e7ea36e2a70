package analysis

import (
	"strconv"
	"strings"
	"unicode"
)

// ParsePrice converts a localized price string into a numeric value.
//
// It assumes the es-AR convention: "." is a thousands separator and "," is
// the decimal separator ("$1.234,56" → 1234.56). Currency symbols, letters
// and whitespace are stripped. Invalid or empty input yields 0.
//
// Known limitation: prices formatted with "." as decimal separator are
// misparsed. The heuristic is deliberately locale-specific and lossy.
func ParsePrice(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}

	cleaned := b.String()
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || val < 0 {
		return 0
	}
	return val
}

// ParseRating parses a numeric rating string into the 0–5 range. Absent or
// invalid input yields 0 (treated as "no rating").
func ParseRating(raw string) float64 {
	val, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || val < 0 || val > 5 {
		return 0
	}
	return val
}

// ParseReviews parses a review count, stripping any non-digit characters
// ("1.500 reseñas" → 1500). Absent or invalid input yields 0.
func ParseReviews(raw string) int {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return 0
	}

	val, err := strconv.Atoi(b.String())
	if err != nil {
		return 0
	}
	return val
}
