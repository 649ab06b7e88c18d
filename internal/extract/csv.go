package extract

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"
)

// Probe order mirrors how vendor exports show up in practice: UTF-8 exports
// from modern tools first, then the Windows legacy encodings.
var (
	csvEncodings  = []string{"utf-8", "latin-1", "cp1252"}
	csvDelimiters = []rune{',', ';', '\t', '|'}
)

// ExtractCSV reads a delimited text file, probing encodings and delimiters
// until one interpretation yields at least two columns. The first row becomes
// the header row; everything after it is data.
func ExtractCSV(path string) (*Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	for _, enc := range csvEncodings {
		text, ok := decode(raw, enc)
		if !ok {
			continue
		}
		for _, delim := range csvDelimiters {
			rows, err := parseDelimited(text, delim)
			if err != nil || len(rows) == 0 {
				continue
			}
			if len(rows[0]) < 2 {
				continue
			}
			headers := make([]string, len(rows[0]))
			for i, h := range rows[0] {
				headers[i] = CleanCell(h)
			}
			data := make([][]string, 0, len(rows)-1)
			for _, r := range rows[1:] {
				row := make([]string, len(r))
				for i, c := range r {
					row[i] = CleanCell(c)
				}
				data = append(data, row)
			}
			return &Result{
				Headers: headers,
				Rows:    data,
				Meta: Meta{
					Format:    "csv",
					Encoding:  enc,
					Delimiter: string(delim),
				},
			}, nil
		}
	}
	return nil, fmt.Errorf("%w: no encoding/delimiter combination produced columns", ErrParse)
}

func parseDelimited(text string, delim rune) ([][]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

// decode converts raw bytes to a string in the named encoding. UTF-8 input is
// validated; latin-1 and cp1252 are single-byte codes decoded by table, so
// they always succeed.
func decode(raw []byte, enc string) (string, bool) {
	switch enc {
	case "utf-8":
		s := strings.TrimPrefix(string(raw), "\uFEFF")
		if !utf8.ValidString(s) {
			return "", false
		}
		return s, true
	case "latin-1":
		runes := make([]rune, len(raw))
		for i, b := range raw {
			runes[i] = rune(b)
		}
		return string(runes), true
	case "cp1252":
		runes := make([]rune, len(raw))
		for i, b := range raw {
			if r, ok := cp1252High[b]; ok {
				runes[i] = r
			} else {
				runes[i] = rune(b)
			}
		}
		return string(runes), true
	}
	return "", false
}

// cp1252High maps the 0x80–0x9F range where Windows-1252 departs from
// latin-1. Positions 0x81, 0x8D, 0x8F, 0x90 and 0x9D are undefined and fall
// through to the latin-1 interpretation.
var cp1252High = map[byte]rune{
	0x80: '€', 0x82: '‚', 0x83: 'ƒ', 0x84: '„', 0x85: '…',
	0x86: '†', 0x87: '‡', 0x88: 'ˆ', 0x89: '‰', 0x8A: 'Š',
	0x8B: '‹', 0x8C: 'Œ', 0x8E: 'Ž', 0x91: '‘', 0x92: '’',
	0x93: '“', 0x94: '”', 0x95: '•', 0x96: '–', 0x97: '—',
	0x98: '˜', 0x99: '™', 0x9A: 'š', 0x9B: '›', 0x9C: 'œ',
	0x9E: 'ž', 0x9F: 'Ÿ',
}
