package pipeline

import (
	"testing"

	"github.com/avforge/catalogstd/internal/extract"
	"github.com/avforge/catalogstd/internal/schema"
)

func skuMapping() *FieldMapping {
	return &FieldMapping{Columns: map[string]ColumnMapping{
		"Code": {StandardField: schema.FieldSKU, Confidence: 0.9},
		"Name": {StandardField: schema.FieldShortDescription, Confidence: 0.9},
	}}
}

func TestResolveCategoryRowRangeWins(t *testing.T) {
	ci := &CategoryInfo{
		RowCategories: []RowRange{
			{StartRow: 0, EndRow: 5, CategoryGroup: "Audio", Category: "Speakers"},
		},
		ContentPatterns: []ContentPattern{
			{Field: schema.FieldSKU, Pattern: "A1", CategoryGroup: "Audio", Category: "Amplifiers"},
		},
	}
	raw := map[string]string{"Code": "A100", "Name": "Something"}

	got := ResolveCategory(2, raw, skuMapping(), ci)
	if got == nil || got.Category != "Speakers" {
		t.Fatalf("got %+v, want row-range category Speakers", got)
	}
}

func TestResolveCategoryContentPattern(t *testing.T) {
	ci := &CategoryInfo{
		ContentPatterns: []ContentPattern{
			{Field: schema.FieldSKU, Pattern: "AT-LP", CategoryGroup: "Audio-Technica", Category: "Turntables"},
			{Field: schema.FieldSKU, Pattern: "AT", CategoryGroup: "Audio-Technica", Category: "General"},
		},
		DefaultCategory: &CategoryPair{CategoryGroup: "Audio-Technica", Category: "Fallback"},
	}
	raw := map[string]string{"Code": "AT-LP120X", "Name": "Turntable"}

	got := ResolveCategory(0, raw, skuMapping(), ci)
	if got == nil || got.Category != "Turntables" {
		t.Fatalf("got %+v, want first pattern match Turntables", got)
	}
}

func TestResolveCategoryDefaultFallback(t *testing.T) {
	ci := &CategoryInfo{DefaultCategory: &CategoryPair{CategoryGroup: "KEF", Category: "General"}}
	got := ResolveCategory(0, map[string]string{"Code": "X"}, skuMapping(), ci)
	if got == nil || got.CategoryGroup != "KEF" {
		t.Fatalf("got %+v, want default", got)
	}

	empty := &CategoryInfo{}
	if got := ResolveCategory(0, map[string]string{}, skuMapping(), empty); got != nil {
		t.Errorf("empty info resolved %+v, want nil", got)
	}
}

func TestOverlappingRangesFirstMatchWins(t *testing.T) {
	ci := &CategoryInfo{
		RowCategories: []RowRange{
			{StartRow: 0, EndRow: 10, Category: "First"},
			{StartRow: 5, EndRow: 10, Category: "Second"},
		},
	}
	got := ResolveCategory(7, map[string]string{}, skuMapping(), ci)
	if got == nil || got.Category != "First" {
		t.Fatalf("got %+v, want First (scan order)", got)
	}
}

func TestIngestCategoryStructure(t *testing.T) {
	markers := []extract.Marker{
		{RowIndex: 2, Text: "FLOORSTANDING SPEAKERS", Kind: extract.MarkerHeader, Confidence: 0.7},
		{RowIndex: 8, Text: "SUBWOOFERS", Kind: extract.MarkerHeader, Confidence: 0.7},
	}
	hints := map[string]any{
		"category_structure": []any{
			map[string]any{"start_pattern": "FLOORSTANDING", "category_group": "Speakers", "category": "Floorstanding"},
			map[string]any{"start_pattern": "SUBWOOFER", "category_group": "Speakers", "category": "Subwoofers"},
		},
	}

	ci := &CategoryInfo{}
	ingestCategoryStructure(ci, hints, markers, 12)

	want := []RowRange{
		{StartRow: 3, EndRow: 7, CategoryGroup: "Speakers", Category: "Floorstanding"},
		{StartRow: 9, EndRow: 11, CategoryGroup: "Speakers", Category: "Subwoofers"},
	}
	if len(ci.RowCategories) != len(want) {
		t.Fatalf("got %d ranges, want %d: %+v", len(ci.RowCategories), len(want), ci.RowCategories)
	}
	for i, w := range want {
		if ci.RowCategories[i] != w {
			t.Errorf("range %d = %+v, want %+v", i, ci.RowCategories[i], w)
		}
	}
}

func TestIngestExplicitRulesValidation(t *testing.T) {
	hints := map[string]any{
		"row_categories": []any{
			map[string]any{"start_row": float64(0), "end_row": float64(4), "category": "Ok"},
			map[string]any{"start_row": float64(3), "end_row": float64(99), "category": "OutOfRange"},
		},
		"content_patterns": []any{
			map[string]any{"field": "SKU", "pattern": "X-", "category": "Ok"},
			map[string]any{"field": "NotAField", "pattern": "Y-", "category": "Bad"},
		},
	}

	ci := &CategoryInfo{}
	ingestExplicitRules(ci, hints, 10)

	if len(ci.RowCategories) != 1 || ci.RowCategories[0].Category != "Ok" {
		t.Errorf("row categories = %+v", ci.RowCategories)
	}
	if len(ci.ContentPatterns) != 1 || ci.ContentPatterns[0].Category != "Ok" {
		t.Errorf("content patterns = %+v", ci.ContentPatterns)
	}
}

func TestInferFromManufacturerBrandRules(t *testing.T) {
	ci := &CategoryInfo{}
	inferFromManufacturer(ci, nil, "Audio-Technica", 20, testNormalizer().log)

	if ci.DefaultCategory == nil || ci.DefaultCategory.CategoryGroup != "Audio-Technica" {
		t.Fatalf("default = %+v", ci.DefaultCategory)
	}

	raw := map[string]string{"Code": "AT-LP60X", "Name": "Belt drive turntable"}
	got := ResolveCategory(0, raw, skuMapping(), ci)
	if got == nil || got.Category != "Turntables" {
		t.Errorf("got %+v, want Turntables via sku prefix rule", got)
	}
}

func TestManufacturerFromMarkers(t *testing.T) {
	markers := []extract.Marker{
		{RowIndex: 0, Text: "Brand: KEF Audio Ltd", Kind: extract.MarkerHeader},
	}
	if got := manufacturerFromMarkers(markers); got != "KEF" {
		t.Errorf("got %q, want KEF", got)
	}

	markers = []extract.Marker{
		{RowIndex: 1, Text: "Glensound price list 2025", Kind: extract.MarkerHeader},
	}
	if got := manufacturerFromMarkers(markers); got != "Glensound" {
		t.Errorf("got %q, want Glensound", got)
	}
}
