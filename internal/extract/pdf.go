package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gen2brain/go-fitz"
)

var colSplit = regexp.MustCompile(`\t+| {2,}`)

// ExtractPDF pulls tabular text out of a PDF page by page. Lines are split
// into columns on tabs or runs of two or more spaces. The first multi-column
// line is taken as the header row if it contains no digits; otherwise
// Column1..N headers are synthesized and every line is data.
func ExtractPDF(path string) (*Result, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	var lines [][]string
	tableCount := 0
	for n := 0; n < doc.NumPage(); n++ {
		text, err := doc.Text(n)
		if err != nil {
			continue
		}
		pageLines := splitPageColumns(text)
		if len(pageLines) > 0 {
			tableCount++
		}
		lines = append(lines, pageLines...)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("%w: no tabular text in pdf", ErrParse)
	}

	width := 0
	for _, l := range lines {
		if len(l) > width {
			width = len(l)
		}
	}
	for i, l := range lines {
		lines[i] = padRow(l, width)
	}

	var headers []string
	var data [][]string
	if looksLikeHeader(lines[0]) {
		headers = lines[0]
		data = lines[1:]
	} else {
		headers = make([]string, width)
		for i := range headers {
			headers[i] = fmt.Sprintf("Column%d", i+1)
		}
		data = lines
	}

	return &Result{
		Headers: headers,
		Rows:    data,
		Meta: Meta{
			Format:     "pdf",
			PageCount:  doc.NumPage(),
			TableCount: tableCount,
		},
	}, nil
}

// splitPageColumns breaks a page's raw text into column slices, keeping only
// lines that split into at least two columns.
func splitPageColumns(text string) [][]string {
	var out [][]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, " \r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		cols := colSplit.Split(strings.TrimLeft(line, " \t"), -1)
		if len(cols) < 2 {
			continue
		}
		for i, c := range cols {
			cols[i] = CleanCell(c)
		}
		out = append(out, cols)
	}
	return out
}

// looksLikeHeader reports whether a column slice reads as a header row:
// every non-empty cell is free of digits.
func looksLikeHeader(row []string) bool {
	any := false
	for _, c := range row {
		if c == "" {
			continue
		}
		any = true
		if strings.ContainsAny(c, "0123456789") {
			return false
		}
	}
	return any
}
