package pipeline

import (
	"strings"
	"testing"

	"github.com/avforge/catalogstd/internal/schema"
)

func validRecord() Record {
	return Record{
		schema.FieldSKU:              "SKU-100",
		schema.FieldShortDescription: "Wireless Speaker",
		schema.FieldManufacturer:     "Acme",
		schema.FieldUnitOfMeasure:    "EA",
	}
}

func TestValidateCleanRecord(t *testing.T) {
	r := Validate([]Record{validRecord()})
	if r.ValidCount != 1 || r.InvalidCount != 0 {
		t.Errorf("counts = %d/%d, want 1/0", r.ValidCount, r.InvalidCount)
	}
	if len(r.Errors) != 0 || len(r.Warnings) != 0 {
		t.Errorf("issues = %v / %v", r.Errors, r.Warnings)
	}
}

func TestMissingSKUNeverSurvivesFiltering(t *testing.T) {
	rec := validRecord()
	delete(rec, schema.FieldSKU)
	rec[schema.FieldLongDescription] = "Fully populated otherwise"
	rec[schema.FieldMSRPUSD] = 99.0

	records := []Record{rec, validRecord()}
	report := Validate(records)
	kept := Filter(records, report)

	if report.InvalidCount != 1 || report.ValidCount != 1 {
		t.Errorf("counts = %d/%d, want 1/1", report.ValidCount, report.InvalidCount)
	}
	if len(kept) != 1 {
		t.Fatalf("kept %d records, want 1", len(kept))
	}
	if kept[0][schema.FieldSKU] != "SKU-100" {
		t.Errorf("wrong record survived: %v", kept[0])
	}
}

func TestValidateTypeMismatchIsCritical(t *testing.T) {
	rec := validRecord()
	rec[schema.FieldMSRPUSD] = "not a number"

	records := []Record{rec}
	report := Validate(records)
	if report.InvalidCount != 1 {
		t.Fatalf("invalid = %d, want 1", report.InvalidCount)
	}
	if len(Filter(records, report)) != 0 {
		t.Error("type-mismatched record must be filtered out")
	}
}

func TestValidateUnitEnum(t *testing.T) {
	rec := validRecord()
	rec[schema.FieldUnitOfMeasure] = "DOZEN"

	report := Validate([]Record{rec})
	if report.InvalidCount != 1 {
		t.Errorf("invalid = %d, want 1", report.InvalidCount)
	}
	found := false
	for _, e := range report.Errors {
		if e.Type == IssueInvalidEnum {
			found = true
		}
	}
	if !found {
		t.Errorf("no enum error in %v", report.Errors)
	}
}

func TestValidateWarningsDoNotExclude(t *testing.T) {
	rec := validRecord()
	rec[schema.FieldSKU] = "A1" // short
	rec[schema.FieldMSRPGBP] = -10.0
	rec[schema.FieldMSRPUSD] = 2_500_000.0
	rec[schema.FieldCategory] = "Speakers" // no group

	records := []Record{rec}
	report := Validate(records)

	if report.ValidCount != 1 || report.InvalidCount != 0 {
		t.Errorf("counts = %d/%d, want 1/0", report.ValidCount, report.InvalidCount)
	}
	if len(Filter(records, report)) != 1 {
		t.Error("warned record must be retained")
	}

	wantTypes := []string{IssueShortSKU, IssueNegativePrice, IssuePriceOutlier, IssueOrphanCategory}
	got := make(map[string]bool)
	for _, w := range report.Warnings {
		got[w.Type] = true
	}
	for _, wt := range wantTypes {
		if !got[wt] {
			t.Errorf("missing warning %s in %v", wt, report.Warnings)
		}
	}
}

func TestValidateMalformedSKUWarning(t *testing.T) {
	rec := validRecord()
	rec[schema.FieldSKU] = "---"

	report := Validate([]Record{rec})
	found := false
	for _, w := range report.Warnings {
		if w.Type == IssueMalformedSKU {
			found = true
		}
	}
	if !found {
		t.Errorf("no malformed-sku warning in %v", report.Warnings)
	}
	if report.ValidCount != 1 {
		t.Errorf("valid = %d, want 1", report.ValidCount)
	}
}

func TestSummaryContents(t *testing.T) {
	rec := validRecord()
	rec[schema.FieldSKU] = "A1"
	report := Validate([]Record{rec, validRecord()})

	s := Summary(report)
	for _, want := range []string{"2 valid", "0 invalid", "100.0% valid", IssueShortSKU} {
		if !strings.Contains(s, want) {
			t.Errorf("summary missing %q:\n%s", want, s)
		}
	}
}
