package extract

import (
	"strings"
	"unicode"

	"github.com/avforge/catalogstd/internal/schema"
)

// headerKeywords are cell fragments that strongly suggest a section header
// row inside the data region, beyond the manufacturer keywords from the
// brand registry.
var headerKeywords = []string{"Network Series", "DANTE", "RAVENNA", "MILAN", "Series", "Range"}

// DetectMarkers scans data rows for structural cues. It is deliberately
// conservative: false positives cost an excluded data row, false negatives
// only cost the downstream inference a hint.
func DetectMarkers(rows [][]string) []Marker {
	var markers []Marker
	for i, row := range rows {
		n := nonEmptyCount(row)
		if n == 0 {
			continue
		}

		text := joinNonEmpty(row)

		if strings.Contains(text, "#VALUE!") {
			markers = append(markers, Marker{
				RowIndex: i, Text: text,
				Kind: MarkerCategoryChange, Confidence: 0.9,
			})
			continue
		}

		if n <= 2 && len(row) > 2 {
			markers = append(markers, Marker{
				RowIndex: i, Text: text,
				Kind: MarkerSectionDivider, Confidence: 0.8,
			})
			continue
		}

		if capsCells(row) > 1 || containsKeyword(text) {
			markers = append(markers, Marker{
				RowIndex: i, Text: text,
				Kind: MarkerHeader, Confidence: 0.7,
			})
		}
	}
	return markers
}

// capsCells counts cells written entirely in upper-case letters, a common
// style for inline section headings. Cells containing digits are ignored so
// that SKU and price columns do not trip the count.
func capsCells(row []string) int {
	n := 0
	for _, c := range row {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		hasLetter := false
		allUpper := true
		for _, r := range c {
			if unicode.IsDigit(r) {
				allUpper = false
				break
			}
			if unicode.IsLetter(r) {
				hasLetter = true
				if !unicode.IsUpper(r) {
					allUpper = false
					break
				}
			}
		}
		if hasLetter && allUpper {
			n++
		}
	}
	return n
}

func containsKeyword(text string) bool {
	for _, kw := range headerKeywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	for _, kw := range schema.ManufacturerKeywords() {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
