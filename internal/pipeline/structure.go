package pipeline

import (
	"context"
	"log/slog"

	"github.com/avforge/catalogstd/internal/extract"
	"github.com/avforge/catalogstd/internal/oracle"
)

// InferStructure merges heuristic extraction markers with oracle-supplied
// layout hints. Oracle values take precedence when present and well-typed;
// everything is bounds-checked after the merge. A degraded oracle leaves the
// heuristic baseline in place.
func InferStructure(ctx context.Context, client *oracle.Client, res *extract.Result, log *slog.Logger) *Structure {
	st := &Structure{
		Headers:      res.Headers,
		SheetType:    "single",
		DataStartRow: 0,
		NonDataRows:  make(map[int]bool),
		Markers:      res.Markers,
		Meta:         res.Meta,
	}
	if len(res.Meta.Sheets) > 1 {
		st.SheetType = "multi"
	}

	if len(res.Rows) == 0 {
		st.Markers = nil
		return st
	}

	sample := SampleRows(res.Rows, 5)
	hints, err := client.GenerateJSON(ctx, oracle.StructurePrompt(res.Headers, sample, res.Markers))
	if err != nil {
		log.Warn("structure hints unavailable, using heuristics only", "error", err)
		validateStructure(st, len(res.Rows))
		return st
	}

	if v, ok := hints["sheet_type"].(string); ok && v != "" {
		st.SheetType = v
	}
	if v, ok := asInt(hints["data_start_row"]); ok {
		st.DataStartRow = v
	}
	if raw, ok := hints["non_data_rows"].([]any); ok {
		for _, e := range raw {
			if i, ok := asInt(e); ok {
				st.NonDataRows[i] = true
			}
		}
	}
	if raw, ok := hints["markers"].([]any); ok {
		merged := mergeMarkers(st.Markers, raw)
		st.Markers = merged
	}

	validateStructure(st, len(res.Rows))
	return st
}

// validateStructure clamps and drops out-of-range values in place.
func validateStructure(st *Structure, rows int) {
	if rows == 0 {
		st.DataStartRow = 0
		st.NonDataRows = make(map[int]bool)
		st.Markers = nil
		return
	}
	if st.DataStartRow < 0 {
		st.DataStartRow = 0
	}
	if st.DataStartRow > rows-1 {
		st.DataStartRow = 0
	}
	for i := range st.NonDataRows {
		if i < 0 || i >= rows {
			delete(st.NonDataRows, i)
		}
	}
	// Copy rather than compact in place: st.Markers may still alias the
	// extraction result's marker slice.
	kept := make([]extract.Marker, 0, len(st.Markers))
	for _, m := range st.Markers {
		if m.RowIndex < 0 || m.RowIndex >= rows || m.Text == "" || m.Kind == "" {
			continue
		}
		kept = append(kept, m)
	}
	st.Markers = kept
}

// mergeMarkers overlays oracle markers on the heuristic ones: an oracle
// marker for a row replaces the heuristic marker at that row, others are
// appended in row order.
func mergeMarkers(heuristic []extract.Marker, raw []any) []extract.Marker {
	byRow := make(map[int]int, len(heuristic))
	out := make([]extract.Marker, len(heuristic))
	copy(out, heuristic)
	for i, m := range out {
		byRow[m.RowIndex] = i
	}
	for _, e := range raw {
		obj, ok := e.(map[string]any)
		if !ok {
			continue
		}
		idx, ok := asInt(obj["row_index"])
		if !ok {
			continue
		}
		text, _ := obj["text"].(string)
		kind, _ := obj["kind"].(string)
		if text == "" || kind == "" {
			continue
		}
		m := extract.Marker{
			RowIndex:   idx,
			Text:       text,
			Kind:       extract.MarkerKind(kind),
			Confidence: 1,
		}
		if c, ok := obj["confidence"].(float64); ok {
			m.Confidence = c
		}
		if at, exists := byRow[idx]; exists {
			out[at] = m
		} else {
			byRow[idx] = len(out)
			out = append(out, m)
		}
	}
	return out
}

// SampleRows returns the first, middle and last rows of the grid,
// deduplicated and in index order.
func SampleRows(rows [][]string, max int) [][]string {
	if len(rows) == 0 {
		return nil
	}
	idx := []int{0, len(rows) / 2, len(rows) - 1}
	seen := make(map[int]bool)
	var out [][]string
	for _, i := range idx {
		if seen[i] {
			continue
		}
		seen[i] = true
		out = append(out, rows[i])
		if len(out) >= max {
			break
		}
	}
	return out
}

// asInt accepts the numeric shapes JSON decoding produces.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}
