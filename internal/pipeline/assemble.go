package pipeline

import (
	"strings"

	"github.com/avforge/catalogstd/internal/schema"
)

// ChunkSize bounds how many rows are assembled per batch. Batching exists to
// cap peak memory on very large catalogs; boundaries never affect output.
const ChunkSize = 10

// DataRows returns the indices of rows that hold product data: at or after
// the data start row, not excluded by structure inference, and with more
// than one non-empty cell.
func DataRows(rows [][]string, st *Structure) []int {
	var out []int
	for i := st.DataStartRow; i < len(rows); i++ {
		if st.Excluded(i) {
			continue
		}
		if countNonEmpty(rows[i]) <= 1 {
			continue
		}
		out = append(out, i)
	}
	return out
}

func countNonEmpty(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

// Assemble builds canonical records for the selected data rows, applying the
// field mapping, category rules and normalizer. Mapped fields win over
// category defaults; the detected manufacturer fills Manufacturer only when
// no mapped column set it; Unit_Of_Measure falls back to the default unit.
func Assemble(rows [][]string, st *Structure, fm *FieldMapping, ci *CategoryInfo, norm *Normalizer) []Record {
	dataRows := DataRows(rows, st)
	records := make([]Record, 0, len(dataRows))

	for start := 0; start < len(dataRows); start += ChunkSize {
		end := start + ChunkSize
		if end > len(dataRows) {
			end = len(dataRows)
		}
		for _, idx := range dataRows[start:end] {
			records = append(records, assembleRow(idx, rows[idx], st, fm, ci, norm))
		}
	}
	return records
}

func assembleRow(idx int, row []string, st *Structure, fm *FieldMapping, ci *CategoryInfo, norm *Normalizer) Record {
	raw := make(map[string]string, len(st.Headers))
	for c, h := range st.Headers {
		if h == "" {
			continue
		}
		if c < len(row) {
			raw[h] = row[c]
		} else {
			raw[h] = ""
		}
	}

	rec := make(Record, len(schema.Fields))

	// Iterate headers in column order so output is deterministic even
	// though the mapping itself is a map.
	for _, h := range st.Headers {
		cm, ok := fm.Columns[h]
		if !ok {
			continue
		}
		v := raw[h]
		if strings.TrimSpace(v) == "" {
			continue
		}
		if _, set := rec[cm.StandardField]; set {
			continue
		}
		if nv := norm.Normalize(v, cm.StandardField); nv != nil {
			rec[cm.StandardField] = nv
		}
	}

	if pair := ResolveCategory(idx, raw, fm, ci); pair != nil {
		if _, set := rec[schema.FieldCategory]; !set && pair.Category != "" {
			if nv := norm.Normalize(pair.Category, schema.FieldCategory); nv != nil {
				rec[schema.FieldCategory] = nv
			}
		}
		if _, set := rec[schema.FieldCategoryGroup]; !set && pair.CategoryGroup != "" {
			if nv := norm.Normalize(pair.CategoryGroup, schema.FieldCategoryGroup); nv != nil {
				rec[schema.FieldCategoryGroup] = nv
			}
		}
	}

	if _, set := rec[schema.FieldManufacturer]; !set && fm.Manufacturer != nil {
		rec[schema.FieldManufacturer] = fm.Manufacturer.Name
	}

	if _, set := rec[schema.FieldUnitOfMeasure]; !set {
		rec[schema.FieldUnitOfMeasure] = schema.DefaultUnit
	}

	return rec
}
