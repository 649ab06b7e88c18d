package oracle

import (
	"fmt"
	"strings"

	"github.com/avforge/catalogstd/internal/extract"
	"github.com/avforge/catalogstd/internal/schema"
)

// Task tags embedded in every prompt. The mock generator keys on these, and
// they make cached entries greppable by stage.
const (
	TaskStructure = "structure_analysis"
	TaskFieldMap  = "field_mapping"
	TaskCategory  = "category_extraction"
)

// StructurePrompt asks the model where the data region starts, which rows
// are not products, and what the markers mean.
func StructurePrompt(headers []string, sample [][]string, markers []extract.Marker) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\n", TaskStructure)
	b.WriteString("You are analyzing a product catalog spreadsheet. Identify its layout.\n\n")
	writeGrid(&b, headers, sample)
	if len(markers) > 0 {
		b.WriteString("\nDetected structure markers:\n")
		for _, m := range markers {
			fmt.Fprintf(&b, "- row %d (%s, %.1f): %s\n", m.RowIndex, m.Kind, m.Confidence, m.Text)
		}
	}
	b.WriteString(`
Respond with JSON only, no prose:
{
  "sheet_type": "single" | "multi",
  "data_start_row": <0-based index of the first product row>,
  "non_data_rows": [<indices of rows that are not products>],
  "markers": [{"row_index": <n>, "kind": "header"|"section_divider"|"category_change", "text": "..."}]
}
`)
	return b.String()
}

// FieldMappingPrompt asks the model to map source columns onto the canonical
// fields, judging by both header names and sampled cell content.
func FieldMappingPrompt(headers []string, sample [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\n", TaskFieldMap)
	b.WriteString("Map each source column of this product catalog to one of the standard fields, or omit it.\n\n")
	b.WriteString("Standard fields: " + strings.Join(schema.Fields, ", ") + "\n\n")
	writeGrid(&b, headers, sample)
	b.WriteString(`
Respond with JSON only, no prose:
{
  "mappings": {"<source column>": {"standard_field": "<standard field>", "confidence": <0..1>, "reasoning": "..."}},
  "manufacturer_detection": {"name": "...", "confidence": <0..1>, "reasoning": "..."}
}
Omit columns that map to no standard field and omit manufacturer_detection when unsure.
`)
	return b.String()
}

// CategoryPrompt asks the model how product categories are organized in the
// sheet: by row ranges under section markers, per-row values, or a single
// default.
func CategoryPrompt(headers []string, sample [][]string, markers []extract.Marker, manufacturer string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\n", TaskCategory)
	b.WriteString("Determine how product categories are organized in this catalog.\n")
	if manufacturer != "" {
		fmt.Fprintf(&b, "Manufacturer: %s\n", manufacturer)
	}
	b.WriteString("\n")
	writeGrid(&b, headers, sample)
	if len(markers) > 0 {
		b.WriteString("\nSection markers:\n")
		for _, m := range markers {
			fmt.Fprintf(&b, "- row %d: %s\n", m.RowIndex, m.Text)
		}
	}
	b.WriteString(`
Respond with JSON only, no prose:
{
  "category_structure": [{"start_pattern": "<marker text fragment>", "end_pattern": "...", "category_group": "...", "category": "...", "confidence": <0..1>}],
  "row_categories": [{"start_row": <n>, "end_row": <n>, "category_group": "...", "category": "..."}],
  "content_patterns": [{"field": "<standard field>", "pattern": "<substring>", "category_group": "...", "category": "..."}],
  "default_category": {"category_group": "...", "category": "..."}
}
Include only the keys that apply.
`)
	return b.String()
}

// NormalizationPrompt asks for a per-field value-normalization strategy,
// used when a column's raw values resist the built-in rules.
func NormalizationPrompt(field string, samples []string) string {
	var b strings.Builder
	b.WriteString("Task: value_normalization\n\n")
	fmt.Fprintf(&b, "Field: %s\nSample raw values:\n", field)
	for _, s := range samples {
		fmt.Fprintf(&b, "- %q\n", s)
	}
	b.WriteString(`
Respond with JSON only, no prose:
{"value_type": "string"|"numeric"|"boolean", "patterns": [{"match": "<substring>", "replace": "<text>"}], "default_strategy": "keep"|"strip"|"empty"}
`)
	return b.String()
}

// writeGrid renders headers plus sample rows in a compact pipe-delimited
// form the model reads reliably.
func writeGrid(b *strings.Builder, headers []string, sample [][]string) {
	b.WriteString("Columns: " + strings.Join(headers, " | ") + "\n")
	b.WriteString("Sample rows:\n")
	for i, row := range sample {
		fmt.Fprintf(b, "%d: %s\n", i, strings.Join(row, " | "))
	}
}
