package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/avforge/catalogstd/internal/schema"
)

// priceOutlierThreshold flags prices that are almost certainly data errors.
const priceOutlierThreshold = 1_000_000

// Validate checks assembled records against the canonical schema. Required
// fields and type conformance produce critical errors; everything else is an
// advisory warning that never disqualifies a record.
func Validate(records []Record) *Report {
	r := &Report{Errors: []Issue{}, Warnings: []Issue{}}
	for i, rec := range records {
		critical := false

		for _, field := range schema.RequiredFields {
			if isEmpty(rec[field]) {
				r.Errors = append(r.Errors, Issue{
					Index:    i,
					Type:     IssueMissingRequired,
					Message:  fmt.Sprintf("required field %s is missing or empty", field),
					Severity: SeverityCritical,
				})
				critical = true
			}
		}

		for field, v := range rec {
			if v == nil {
				continue
			}
			if issue := checkType(i, field, v); issue != nil {
				r.Errors = append(r.Errors, *issue)
				critical = true
			}
		}

		r.Warnings = append(r.Warnings, advisoryChecks(i, rec)...)

		if critical {
			r.InvalidCount++
		} else {
			r.ValidCount++
		}
	}
	return r
}

// Filter returns the records that survive validation: all required fields
// present and no critical error referencing the record's index.
func Filter(records []Record, report *Report) []Record {
	bad := make(map[int]bool)
	for _, e := range report.Errors {
		if e.Severity == SeverityCritical {
			bad[e.Index] = true
		}
	}
	out := make([]Record, 0, len(records))
	for i, rec := range records {
		if bad[i] {
			continue
		}
		keep := true
		for _, field := range schema.RequiredFields {
			if isEmpty(rec[field]) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, rec)
		}
	}
	return out
}

func checkType(idx int, field string, v any) *Issue {
	switch schema.FieldTypes[field] {
	case schema.FieldNumeric:
		if _, ok := v.(float64); !ok {
			return &Issue{
				Index: idx, Type: IssueTypeMismatch,
				Message:  fmt.Sprintf("field %s must be numeric, got %T", field, v),
				Severity: SeverityCritical,
			}
		}
	case schema.FieldBool:
		if _, ok := v.(bool); !ok {
			return &Issue{
				Index: idx, Type: IssueTypeMismatch,
				Message:  fmt.Sprintf("field %s must be boolean, got %T", field, v),
				Severity: SeverityCritical,
			}
		}
	default:
		s, ok := v.(string)
		if !ok {
			return &Issue{
				Index: idx, Type: IssueTypeMismatch,
				Message:  fmt.Sprintf("field %s must be a string, got %T", field, v),
				Severity: SeverityCritical,
			}
		}
		if field == schema.FieldUnitOfMeasure && !validUnit(s) {
			return &Issue{
				Index: idx, Type: IssueInvalidEnum,
				Message:  fmt.Sprintf("unit %q is not in the accepted vocabulary", s),
				Severity: SeverityCritical,
			}
		}
	}
	return nil
}

func validUnit(s string) bool {
	for _, u := range schema.UnitEnum {
		if s == u {
			return true
		}
	}
	return false
}

func advisoryChecks(idx int, rec Record) []Issue {
	var out []Issue

	for _, field := range schema.PriceFields {
		p, ok := rec[field].(float64)
		if !ok {
			continue
		}
		if p < 0 {
			out = append(out, Issue{
				Index: idx, Type: IssueNegativePrice,
				Message:  fmt.Sprintf("%s is negative (%v)", field, p),
				Severity: SeverityWarning,
			})
		}
		if p > priceOutlierThreshold {
			out = append(out, Issue{
				Index: idx, Type: IssuePriceOutlier,
				Message:  fmt.Sprintf("%s exceeds %d (%v)", field, priceOutlierThreshold, p),
				Severity: SeverityWarning,
			})
		}
	}

	if !isEmpty(rec[schema.FieldCategory]) && isEmpty(rec[schema.FieldCategoryGroup]) {
		out = append(out, Issue{
			Index: idx, Type: IssueOrphanCategory,
			Message:  "category present without a category group",
			Severity: SeverityWarning,
		})
	}

	if sku, ok := rec[schema.FieldSKU].(string); ok && sku != "" {
		if len(sku) < 3 {
			out = append(out, Issue{
				Index: idx, Type: IssueShortSKU,
				Message:  fmt.Sprintf("sku %q is shorter than 3 characters", sku),
				Severity: SeverityWarning,
			})
		}
		if !strings.ContainsFunc(sku, func(r rune) bool {
			return unicode.IsLetter(r) || unicode.IsDigit(r)
		}) {
			out = append(out, Issue{
				Index: idx, Type: IssueMalformedSKU,
				Message:  fmt.Sprintf("sku %q has no alphanumeric characters", sku),
				Severity: SeverityWarning,
			})
		}
	}

	return out
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// Summary renders the report as human-readable text with totals, the valid
// percentage, and per-type issue counts.
func Summary(r *Report) string {
	total := r.ValidCount + r.InvalidCount
	var b strings.Builder
	fmt.Fprintf(&b, "Processed %d records: %d valid, %d invalid", total, r.ValidCount, r.InvalidCount)
	if total > 0 {
		fmt.Fprintf(&b, " (%.1f%% valid)", float64(r.ValidCount)/float64(total)*100)
	}
	b.WriteString("\n")

	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "Errors (%d):\n", len(r.Errors))
		writeTypeCounts(&b, r.Errors)
	}
	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "Warnings (%d):\n", len(r.Warnings))
		writeTypeCounts(&b, r.Warnings)
	}
	return b.String()
}

func writeTypeCounts(b *strings.Builder, issues []Issue) {
	counts := make(map[string]int)
	var order []string
	for _, i := range issues {
		if counts[i.Type] == 0 {
			order = append(order, i.Type)
		}
		counts[i.Type]++
	}
	sort.Strings(order)
	for _, typ := range order {
		fmt.Fprintf(b, "  %s: %d\n", typ, counts[typ])
	}
}
