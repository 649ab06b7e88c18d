package extract

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTemp(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestExtractCSVComma(t *testing.T) {
	path := writeTemp(t, "catalog.csv", []byte("Product Code,Description,Price\nSKU-100,Wireless Speaker,299.99\nSKU-101,Soundbar,549.00\n"))

	res, err := ForPath(path)
	if err != nil {
		t.Fatalf("ForPath: %v", err)
	}
	if res.Meta.Delimiter != "," || res.Meta.Encoding != "utf-8" {
		t.Errorf("meta = %q/%q, want comma/utf-8", res.Meta.Delimiter, res.Meta.Encoding)
	}
	if len(res.Headers) != 3 || res.Headers[0] != "Product Code" {
		t.Errorf("headers = %v", res.Headers)
	}
	if len(res.Rows) != 2 || res.Rows[1][1] != "Soundbar" {
		t.Errorf("rows = %v", res.Rows)
	}
}

func TestExtractCSVSemicolon(t *testing.T) {
	path := writeTemp(t, "catalog.csv", []byte("Code;Name;Price\nA1;Amp;100\n"))

	res, err := ExtractCSV(path)
	if err != nil {
		t.Fatalf("ExtractCSV: %v", err)
	}
	if res.Meta.Delimiter != ";" {
		t.Errorf("delimiter = %q, want ;", res.Meta.Delimiter)
	}
	if len(res.Headers) != 3 {
		t.Errorf("headers = %v", res.Headers)
	}
}

func TestExtractCSVLatin1(t *testing.T) {
	// 0xE9 is é in latin-1 and invalid as standalone UTF-8.
	path := writeTemp(t, "catalog.csv", []byte("Code,Name\nA1,Caf\xe9 Speaker\n"))

	res, err := ExtractCSV(path)
	if err != nil {
		t.Fatalf("ExtractCSV: %v", err)
	}
	if res.Meta.Encoding != "latin-1" {
		t.Errorf("encoding = %q, want latin-1", res.Meta.Encoding)
	}
	if res.Rows[0][1] != "Café Speaker" {
		t.Errorf("cell = %q", res.Rows[0][1])
	}
}

func TestExtractCSVUTF8BOM(t *testing.T) {
	path := writeTemp(t, "catalog.csv", []byte("\xef\xbb\xbfCode,Name\nA1,Amp\n"))

	res, err := ExtractCSV(path)
	if err != nil {
		t.Fatalf("ExtractCSV: %v", err)
	}
	if res.Meta.Encoding != "utf-8" {
		t.Errorf("encoding = %q, want utf-8", res.Meta.Encoding)
	}
	if res.Headers[0] != "Code" {
		t.Errorf("first header = %q, want BOM stripped", res.Headers[0])
	}
}

func TestExtractCSVNoColumns(t *testing.T) {
	path := writeTemp(t, "notes.csv", []byte("just a single paragraph of text\nwith no structure\n"))

	_, err := ExtractCSV(path)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestForPathUnsupported(t *testing.T) {
	path := writeTemp(t, "catalog.docx", []byte("x"))

	_, err := ForPath(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestCleanCell(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{`  plain  `, "plain"},
		{`="SKU-001"`, "SKU-001"},
		{`=A1+B1`, "A1+B1"},
		{`"quoted"`, "quoted"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCell(tt.in); got != tt.want {
			t.Errorf("CleanCell(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDetectMarkers(t *testing.T) {
	rows := [][]string{
		{"SKU-100", "Wireless Speaker", "299.99", "EA"},
		{"PREMIUM RANGE", "", "", ""},
		{"#VALUE!", "Network Audio", "", ""},
		{"SKU-101", "Soundbar", "549.00", "EA"},
	}

	markers := DetectMarkers(rows)

	byRow := map[int]Marker{}
	for _, m := range markers {
		byRow[m.RowIndex] = m
	}
	if m, ok := byRow[1]; !ok || m.Kind != MarkerSectionDivider || m.Confidence != 0.8 {
		t.Errorf("row 1 marker = %+v, want section_divider @0.8", byRow[1])
	}
	if m, ok := byRow[2]; !ok || m.Kind != MarkerCategoryChange || m.Confidence != 0.9 {
		t.Errorf("row 2 marker = %+v, want category_change @0.9", byRow[2])
	}
}

func TestDetectMarkersHeaderKeyword(t *testing.T) {
	rows := [][]string{
		{"Brand: Glensound", "DANTE Network Series", "x", "y"},
	}
	markers := DetectMarkers(rows)
	if len(markers) != 1 || markers[0].Kind != MarkerHeader || markers[0].Confidence != 0.7 {
		t.Fatalf("markers = %+v, want one header @0.7", markers)
	}
}
