// Package extract turns source catalog files (CSV, XLSX, PDF) into a
// rectangular-ish grid of raw cell strings plus coarse structure markers.
// It is a pure I/O layer: no field inference happens here. Empty cells are
// preserved as empty strings and short rows are returned as-is so that row
// indices always line up with the source file.
package extract

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat indicates the file extension is not one of
// csv/xlsx/xls/pdf.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrParse indicates no viable interpretation of the file was found
// (no working encoding/delimiter for delimited text, no extractable
// content for PDF).
var ErrParse = errors.New("could not parse file")

// MarkerKind classifies a detected structure marker row.
type MarkerKind string

const (
	MarkerHeader         MarkerKind = "header"
	MarkerSectionDivider MarkerKind = "section_divider"
	MarkerCategoryChange MarkerKind = "category_change"
)

// Marker is a row-level structure annotation detected heuristically in the
// raw grid: a candidate header, section divider, or category-change cue.
type Marker struct {
	RowIndex   int        `json:"row_index"`
	Text       string     `json:"text"`
	Kind       MarkerKind `json:"kind"`
	Confidence float64    `json:"confidence"`
}

// Meta records format-specific diagnostics about the extraction.
type Meta struct {
	FileName string `json:"file_name"`
	Format   string `json:"format"` // "csv", "excel" or "pdf"

	// CSV
	Encoding  string `json:"encoding,omitempty"`
	Delimiter string `json:"delimiter,omitempty"`

	// Excel
	MainSheet string   `json:"main_sheet,omitempty"`
	Sheets    []string `json:"sheets,omitempty"`

	// PDF
	PageCount  int `json:"page_count,omitempty"`
	TableCount int `json:"table_count,omitempty"`
}

// Result is the output of grid extraction: headers, data rows in source
// order, heuristic markers, and format metadata.
type Result struct {
	Headers []string
	Rows    [][]string
	Markers []Marker
	Meta    Meta
}

// ForPath extracts a grid from the file at path, dispatching on extension.
func ForPath(path string) (*Result, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))

	var (
		res *Result
		err error
	)
	switch ext {
	case "csv":
		res, err = ExtractCSV(path)
	case "xlsx", "xls":
		res, err = ExtractExcel(path)
	case "pdf":
		res, err = ExtractPDF(path)
	default:
		return nil, fmt.Errorf("%w: .%s", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}
	res.Meta.FileName = filepath.Base(path)
	res.Markers = DetectMarkers(res.Rows)
	return res, nil
}

// CleanCell removes common spreadsheet artifacts from a raw cell value:
// surrounding whitespace, Excel formula prefixes (="value"), and stray
// surrounding quotes.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// nonEmptyCount returns the number of cells with non-whitespace content.
func nonEmptyCount(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

// joinNonEmpty concatenates the trimmed non-empty cells of a row with
// single spaces, preserving cell order.
func joinNonEmpty(row []string) string {
	parts := make([]string, 0, len(row))
	for _, c := range row {
		if t := strings.TrimSpace(c); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
