package pipeline

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/avforge/catalogstd/internal/cache"
	"github.com/avforge/catalogstd/internal/oracle"
	"github.com/avforge/catalogstd/internal/schema"
)

// scriptedGenerator answers each pipeline stage with a fixed response,
// selected by the task tag in the prompt.
type scriptedGenerator struct {
	structure string
	fieldMap  string
	category  string
}

func (g scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, oracle.TaskStructure):
		return g.orDefault(g.structure), nil
	case strings.Contains(prompt, oracle.TaskFieldMap):
		return g.orDefault(g.fieldMap), nil
	case strings.Contains(prompt, oracle.TaskCategory):
		return g.orDefault(g.category), nil
	}
	return "{}", nil
}

func (scriptedGenerator) orDefault(s string) string {
	if s == "" {
		return "{}"
	}
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClient(gen oracle.Generator) *oracle.Client {
	return oracle.NewClient(gen, cache.NewMemoryStore(), testLogger())
}

func TestMapFieldsAcceptsOracleProposals(t *testing.T) {
	gen := scriptedGenerator{fieldMap: `{
		"mappings": {
			"Product Code": {"standard_field": "SKU", "confidence": 0.95},
			"Description": {"standard_field": "Short_Description", "confidence": 0.9},
			"RRP": {"standard_field": "MSRP_GBP", "confidence": 0.85},
			"Mystery": {"standard_field": "Not_A_Field", "confidence": 0.9}
		}
	}`}
	headers := []string{"Product Code", "Description", "RRP", "Mystery"}

	fm := MapFields(context.Background(), newTestClient(gen), headers, nil, testLogger())

	if fm.SourceColumn(schema.FieldSKU) != "Product Code" {
		t.Errorf("SKU mapped to %q", fm.SourceColumn(schema.FieldSKU))
	}
	if fm.SourceColumn(schema.FieldMSRPGBP) != "RRP" {
		t.Errorf("MSRP_GBP mapped to %q", fm.SourceColumn(schema.FieldMSRPGBP))
	}
	if _, ok := fm.Columns["Mystery"]; ok {
		t.Error("proposal for unknown standard field must be dropped")
	}
}

func TestMapFieldsHeaderNameFallback(t *testing.T) {
	gen := scriptedGenerator{fieldMap: `{"mappings": {}}`}
	headers := []string{"SKU", "Short Description", "Unit", "Manufacturer"}

	fm := MapFields(context.Background(), newTestClient(gen), headers, nil, testLogger())

	for field, wantCol := range map[string]string{
		schema.FieldSKU:              "SKU",
		schema.FieldShortDescription: "Short Description",
		schema.FieldUnitOfMeasure:    "Unit",
		schema.FieldManufacturer:     "Manufacturer",
	} {
		col := fm.SourceColumn(field)
		if col != wantCol {
			t.Errorf("%s mapped to %q, want %q", field, col, wantCol)
		}
		if col != "" && fm.Columns[col].Confidence != headerMatchConfidence {
			t.Errorf("%s confidence = %v, want %v", field, fm.Columns[col].Confidence, headerMatchConfidence)
		}
	}
}

func TestMapFieldsContentPatternFallback(t *testing.T) {
	gen := scriptedGenerator{fieldMap: `{"mappings": {}}`}
	headers := []string{"Col A", "Col B", "Col C"}
	sample := [][]string{
		{"KEF-R300", "Three way bookshelf speaker", "PAIR"},
		{"KEF-Q150", "Compact standmount speaker", "PAIR"},
		{"KEF-LS50", "Flagship wireless speaker", "EA"},
	}

	fm := MapFields(context.Background(), newTestClient(gen), headers, sample, testLogger())

	if got := fm.SourceColumn(schema.FieldSKU); got != "Col A" {
		t.Errorf("SKU mapped to %q, want Col A", got)
	}
	if c := fm.Columns["Col A"].Confidence; c < strongContentScore {
		t.Errorf("full-score content match should inherit score, got %v", c)
	}
	if got := fm.SourceColumn(schema.FieldShortDescription); got != "Col B" {
		t.Errorf("Short_Description mapped to %q, want Col B", got)
	}
	if got := fm.SourceColumn(schema.FieldUnitOfMeasure); got != "Col C" {
		t.Errorf("Unit_Of_Measure mapped to %q, want Col C", got)
	}
}

func TestMapFieldsManufacturerPrefixDetection(t *testing.T) {
	gen := scriptedGenerator{fieldMap: `{"mappings": {}}`}
	headers := []string{"C1", "C2"}
	sample := [][]string{
		{"ATND971", "Network boundary microphone array unit"},
		{"ATH-M50X", "Closed back studio monitoring headphones"},
		{"AT2020USB", "Cardioid condenser USB microphone unit"},
	}

	fm := MapFields(context.Background(), newTestClient(gen), headers, sample, testLogger())

	if fm.Manufacturer == nil {
		t.Fatal("no manufacturer detected")
	}
	if fm.Manufacturer.Name != "Audio-Technica" {
		t.Errorf("detected %q, want Audio-Technica", fm.Manufacturer.Name)
	}
	if fm.Manufacturer.Confidence != manufacturerConfidence {
		t.Errorf("confidence = %v, want %v", fm.Manufacturer.Confidence, manufacturerConfidence)
	}
}

func TestMapFieldsOracleFailureDegrades(t *testing.T) {
	gen := failingGenerator{}
	headers := []string{"SKU", "Description"}

	fm := MapFields(context.Background(), newFastFailClient(gen), headers, nil, testLogger())

	if fm.SourceColumn(schema.FieldSKU) != "SKU" {
		t.Errorf("header fallback should still run, got %q", fm.SourceColumn(schema.FieldSKU))
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, string) (string, error) {
	return "", context.DeadlineExceeded
}

func newFastFailClient(gen oracle.Generator) *oracle.Client {
	return oracle.NewClient(gen, cache.NewMemoryStore(), testLogger(),
		oracle.WithMaxAttempts(1))
}
