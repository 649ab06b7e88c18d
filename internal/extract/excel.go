package extract

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// minSheetRows is the cutoff below which a sheet is treated as a cover page
// or notes tab rather than catalog data.
const minSheetRows = 5

// ExtractExcel opens an XLSX workbook and extracts the grid from its main
// data sheet. Sheets with minSheetRows rows or fewer are skipped; of the
// remainder the sheet with the most rows wins. The first row of the winning
// sheet is the header row.
func ExtractExcel(path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", ErrParse)
	}

	var (
		mainSheet string
		mainRows  [][]string
	)
	for _, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if len(rows) <= minSheetRows {
			continue
		}
		if len(rows) > len(mainRows) {
			mainSheet = name
			mainRows = rows
		}
	}
	if mainSheet == "" {
		// Fall back to the largest sheet of any size rather than failing
		// outright on small catalogs.
		for _, name := range sheets {
			rows, err := f.GetRows(name)
			if err != nil {
				continue
			}
			if len(rows) > len(mainRows) {
				mainSheet = name
				mainRows = rows
			}
		}
	}
	if len(mainRows) == 0 {
		return nil, fmt.Errorf("%w: no sheet with data", ErrParse)
	}

	width := 0
	for _, r := range mainRows {
		if len(r) > width {
			width = len(r)
		}
	}

	headers := padRow(mainRows[0], width)
	for i, h := range headers {
		headers[i] = CleanCell(h)
	}
	data := make([][]string, 0, len(mainRows)-1)
	for _, r := range mainRows[1:] {
		row := padRow(r, width)
		for i, c := range row {
			row[i] = CleanCell(c)
		}
		data = append(data, row)
	}

	return &Result{
		Headers: headers,
		Rows:    data,
		Meta: Meta{
			Format:    "excel",
			MainSheet: mainSheet,
			Sheets:    sheets,
		},
	}, nil
}

// padRow extends row with empty cells to width. excelize trims trailing
// empties, which would otherwise shift column indices between rows.
func padRow(row []string, width int) []string {
	out := make([]string, width)
	copy(out, row)
	return out
}
