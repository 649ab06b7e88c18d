// Package pipeline implements the catalog standardization pipeline: structure
// inference, field mapping, category inference, value normalization, record
// assembly and validation. Each stage consumes the previous stage's output
// plus optional oracle hints; every oracle-dependent stage carries a
// deterministic fallback so a degraded oracle only lowers confidence, never
// fails a run.
package pipeline

import (
	"github.com/avforge/catalogstd/internal/extract"
)

// Structure describes the layout decisions for a grid: where data begins,
// which rows are not products, and the validated structure markers.
type Structure struct {
	Headers      []string         `json:"headers"`
	SheetType    string           `json:"sheet_type"`
	DataStartRow int              `json:"data_start_row"`
	NonDataRows  map[int]bool     `json:"non_data_rows,omitempty"`
	Markers      []extract.Marker `json:"markers"`
	Meta         extract.Meta     `json:"meta"`
}

// Excluded reports whether row index i is marked non-data.
func (s *Structure) Excluded(i int) bool {
	return s.NonDataRows[i]
}

// ColumnMapping assigns one source column to a canonical field.
type ColumnMapping struct {
	StandardField string  `json:"standard_field"`
	Confidence    float64 `json:"confidence"`
	Reasoning     string  `json:"reasoning,omitempty"`
}

// ManufacturerDetection records a manufacturer inferred from content rather
// than a mapped column.
type ManufacturerDetection struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// FieldMapping maps source column names to canonical fields, plus an
// optional detected manufacturer.
type FieldMapping struct {
	Columns      map[string]ColumnMapping `json:"mappings"`
	Manufacturer *ManufacturerDetection   `json:"manufacturer_detection,omitempty"`
}

// SourceColumn returns the source column mapped to a canonical field, or "".
func (m *FieldMapping) SourceColumn(field string) string {
	for col, cm := range m.Columns {
		if cm.StandardField == field {
			return col
		}
	}
	return ""
}

// RowRange assigns a category to a contiguous range of row indices,
// inclusive on both ends.
type RowRange struct {
	StartRow      int    `json:"start_row"`
	EndRow        int    `json:"end_row"`
	CategoryGroup string `json:"category_group"`
	Category      string `json:"category"`
}

// ContentPattern assigns a category to any row whose value for Field
// contains Pattern.
type ContentPattern struct {
	Field         string `json:"field"`
	Pattern       string `json:"pattern"`
	CategoryGroup string `json:"category_group"`
	Category      string `json:"category"`
}

// CategoryPair is a (group, category) assignment.
type CategoryPair struct {
	CategoryGroup string `json:"category_group"`
	Category      string `json:"category"`
}

// CategoryInfo holds the three independently-consulted category rule sets.
// Rule order within each set is preserved from the source; resolution is
// first match wins, row ranges before content patterns before the default.
type CategoryInfo struct {
	RowCategories   []RowRange       `json:"row_categories,omitempty"`
	ContentPatterns []ContentPattern `json:"content_patterns,omitempty"`
	DefaultCategory *CategoryPair    `json:"default_category,omitempty"`
}

// Empty reports whether no rule of any kind exists.
func (c *CategoryInfo) Empty() bool {
	return len(c.RowCategories) == 0 && len(c.ContentPatterns) == 0 && c.DefaultCategory == nil
}

// Record is a canonical product record keyed by the 18 canonical field
// names. Values are string, float64, bool or nil.
type Record map[string]any

// Issue is one validation finding tied to a record index.
type Issue struct {
	Index    int    `json:"index"`
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Severity and issue-type labels used in validation reports.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"

	IssueMissingRequired = "missing_required_field"
	IssueTypeMismatch    = "type_mismatch"
	IssueInvalidEnum     = "invalid_enum_value"
	IssueNegativePrice   = "negative_price"
	IssuePriceOutlier    = "price_outlier"
	IssueOrphanCategory  = "category_without_group"
	IssueShortSKU        = "sku_too_short"
	IssueMalformedSKU    = "sku_not_alphanumeric"
)

// Report is the validation outcome for one processing run.
type Report struct {
	ValidCount   int     `json:"valid_count"`
	InvalidCount int     `json:"invalid_count"`
	Errors       []Issue `json:"errors"`
	Warnings     []Issue `json:"warnings"`
}
