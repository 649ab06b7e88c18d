package pipeline

import (
	"context"
	"testing"

	"github.com/avforge/catalogstd/internal/extract"
	"github.com/avforge/catalogstd/internal/schema"
)

func TestProcessGridEndToEnd(t *testing.T) {
	gen := scriptedGenerator{
		structure: `{"sheet_type": "single", "data_start_row": 0, "non_data_rows": [], "markers": []}`,
		fieldMap: `{
			"mappings": {
				"SKU": {"standard_field": "SKU", "confidence": 0.95},
				"Desc": {"standard_field": "Short_Description", "confidence": 0.9},
				"Price": {"standard_field": "MSRP_USD", "confidence": 0.9}
			},
			"manufacturer_detection": {"name": "Acme", "confidence": 0.8}
		}`,
		category: `{}`,
	}
	res := &extract.Result{
		Headers: []string{"SKU", "Desc", "Price"},
		Rows: [][]string{
			{"A100", "Widget", "$10.00"},
			{"A101", "Gadget", "$20.00"},
		},
		Meta: extract.Meta{FileName: "acme.csv", Format: "csv"},
	}

	p := NewProcessor(newTestClient(gen), testLogger())
	out := p.ProcessGrid(context.Background(), res)

	if out.Report.ValidCount != 2 || out.Report.InvalidCount != 0 {
		t.Fatalf("counts = %d/%d, want 2/0", out.Report.ValidCount, out.Report.InvalidCount)
	}
	if len(out.Records) != 2 {
		t.Fatalf("got %d records, want 2", len(out.Records))
	}

	first := out.Records[0]
	if first[schema.FieldSKU] != "A100" {
		t.Errorf("SKU = %v", first[schema.FieldSKU])
	}
	if first[schema.FieldShortDescription] != "Widget" {
		t.Errorf("Short_Description = %v", first[schema.FieldShortDescription])
	}
	if first[schema.FieldManufacturer] != "Acme" {
		t.Errorf("Manufacturer = %v", first[schema.FieldManufacturer])
	}
	if first[schema.FieldMSRPUSD] != 10.0 {
		t.Errorf("MSRP_USD = %v", first[schema.FieldMSRPUSD])
	}
	if first[schema.FieldUnitOfMeasure] != "EA" {
		t.Errorf("Unit_Of_Measure = %v, want defaulted EA", first[schema.FieldUnitOfMeasure])
	}

	second := out.Records[1]
	if second[schema.FieldSKU] != "A101" || second[schema.FieldMSRPUSD] != 20.0 {
		t.Errorf("second record = %v", second)
	}
}

func TestProcessGridEmptyGrid(t *testing.T) {
	p := NewProcessor(newTestClient(scriptedGenerator{}), testLogger())
	out := p.ProcessGrid(context.Background(), &extract.Result{
		Headers: []string{"A", "B"},
		Rows:    nil,
	})

	if len(out.Records) != 0 {
		t.Errorf("records = %v, want none", out.Records)
	}
	if out.Report.ValidCount != 0 || out.Report.InvalidCount != 0 {
		t.Errorf("counts = %d/%d, want 0/0", out.Report.ValidCount, out.Report.InvalidCount)
	}
	if len(out.Report.Errors) != 0 || len(out.Report.Warnings) != 0 {
		t.Errorf("issues = %v / %v", out.Report.Errors, out.Report.Warnings)
	}
	if len(out.Mapping.Columns) != 0 {
		t.Errorf("mappings = %v, want empty", out.Mapping.Columns)
	}
}

func TestProcessGridDropsIncompleteRows(t *testing.T) {
	gen := scriptedGenerator{
		fieldMap: `{
			"mappings": {
				"SKU": {"standard_field": "SKU", "confidence": 0.95},
				"Desc": {"standard_field": "Short_Description", "confidence": 0.9}
			},
			"manufacturer_detection": {"name": "Acme", "confidence": 0.8}
		}`,
	}
	res := &extract.Result{
		Headers: []string{"SKU", "Desc", "Price"},
		Rows: [][]string{
			{"A100", "Widget", "5.00"},
			{"", "No sku here", "9.00"},
			{"A102", "Gizmo", "7.00"},
		},
	}

	p := NewProcessor(newTestClient(gen), testLogger())
	out := p.ProcessGrid(context.Background(), res)

	if len(out.Records) != 2 {
		t.Fatalf("got %d records, want 2: %v", len(out.Records), out.Records)
	}
	for _, r := range out.Records {
		if r[schema.FieldSKU] == nil || r[schema.FieldSKU] == "" {
			t.Errorf("record without SKU survived: %v", r)
		}
	}
	if out.Report.InvalidCount != 1 {
		t.Errorf("invalid = %d, want 1", out.Report.InvalidCount)
	}
}

func TestProcessGridChunkBoundariesInvisible(t *testing.T) {
	gen := scriptedGenerator{
		fieldMap: `{
			"mappings": {
				"SKU": {"standard_field": "SKU", "confidence": 0.95},
				"Desc": {"standard_field": "Short_Description", "confidence": 0.9}
			},
			"manufacturer_detection": {"name": "Acme", "confidence": 0.8}
		}`,
	}
	// 25 rows spans three chunks at the default chunk size.
	var rows [][]string
	for i := 0; i < 25; i++ {
		rows = append(rows, []string{
			"SKU-" + string(rune('A'+i%26)) + "00",
			"Product description line",
		})
	}
	res := &extract.Result{Headers: []string{"SKU", "Desc"}, Rows: rows}

	p := NewProcessor(newTestClient(gen), testLogger())
	out := p.ProcessGrid(context.Background(), res)

	if len(out.Records) != 25 {
		t.Fatalf("got %d records, want 25", len(out.Records))
	}
	for i, r := range out.Records {
		wantSKU := "SKU-" + string(rune('A'+i%26)) + "00"
		if r[schema.FieldSKU] != wantSKU {
			t.Errorf("record %d SKU = %v, want %s (order must survive chunking)", i, r[schema.FieldSKU], wantSKU)
		}
	}
}
