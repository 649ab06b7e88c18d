package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/avforge/catalogstd/internal/oracle"
	"github.com/avforge/catalogstd/internal/schema"
)

// Confidence constants for the deterministic fallbacks. Oracle proposals
// carry their own confidence; fallback assignments are deliberately low so
// reviewers can tell them apart.
const (
	headerMatchConfidence  = 0.3
	weakContentConfidence  = 0.2
	manufacturerConfidence = 0.3

	strongContentScore = 0.7
	weakContentScore   = 0.5
	minPrefixMatches   = 3
)

// MapFields decides which canonical field each source column represents.
// Oracle proposals are validated against the canonical field set; required
// fields left unmapped go through header-name matching, content-pattern
// scoring, and manufacturer prefix detection, in that order. Missing fields
// are never fatal here; validation reports them later.
func MapFields(ctx context.Context, client *oracle.Client, headers []string, sample [][]string, log *slog.Logger) *FieldMapping {
	fm := &FieldMapping{Columns: make(map[string]ColumnMapping)}

	hints, err := client.GenerateJSON(ctx, oracle.FieldMappingPrompt(headers, sample))
	if err != nil {
		log.Warn("field mapping hints unavailable, using fallbacks only", "error", err)
	} else {
		ingestOracleMappings(fm, hints, headers, log)
	}

	completeRequired(fm, headers, sample, log)
	return fm
}

func ingestOracleMappings(fm *FieldMapping, hints map[string]any, headers []string, log *slog.Logger) {
	known := make(map[string]bool, len(headers))
	for _, h := range headers {
		known[h] = true
	}

	if raw, ok := hints["mappings"].(map[string]any); ok {
		for col, v := range raw {
			obj, ok := v.(map[string]any)
			if !ok {
				continue
			}
			field, _ := obj["standard_field"].(string)
			if !schema.ValidField(field) {
				log.Warn("dropping mapping to unknown field", "column", col, "field", field)
				continue
			}
			if !known[col] {
				log.Warn("dropping mapping for unknown column", "column", col)
				continue
			}
			cm := ColumnMapping{StandardField: field}
			if c, ok := obj["confidence"].(float64); ok {
				cm.Confidence = c
			}
			if r, ok := obj["reasoning"].(string); ok {
				cm.Reasoning = r
			}
			fm.Columns[col] = cm
		}
	}

	if raw, ok := hints["manufacturer_detection"].(map[string]any); ok {
		if name, _ := raw["name"].(string); name != "" {
			det := &ManufacturerDetection{Name: name}
			if c, ok := raw["confidence"].(float64); ok {
				det.Confidence = c
			}
			if r, ok := raw["reasoning"].(string); ok {
				det.Reasoning = r
			}
			fm.Manufacturer = det
		}
	}
}

// completeRequired runs the fallback ladder for required fields still
// unmapped after the oracle pass.
func completeRequired(fm *FieldMapping, headers []string, sample [][]string, log *slog.Logger) {
	for _, field := range schema.RequiredFields {
		if fm.SourceColumn(field) != "" {
			continue
		}
		if col := matchHeaderName(fm, headers, field); col != "" {
			fm.Columns[col] = ColumnMapping{
				StandardField: field,
				Confidence:    headerMatchConfidence,
				Reasoning:     "header name match",
			}
		}
	}

	for _, field := range schema.RequiredFields {
		if fm.SourceColumn(field) != "" {
			continue
		}
		pred, ok := contentPredicates[field]
		if !ok {
			continue
		}
		col, score := bestContentColumn(fm, headers, sample, pred)
		switch {
		case col == "":
		case score >= strongContentScore:
			fm.Columns[col] = ColumnMapping{
				StandardField: field,
				Confidence:    score,
				Reasoning:     "content pattern match",
			}
		case score >= weakContentScore:
			fm.Columns[col] = ColumnMapping{
				StandardField: field,
				Confidence:    weakContentConfidence,
				Reasoning:     "weak content pattern match",
			}
		}
	}

	if fm.SourceColumn(schema.FieldManufacturer) == "" && fm.Manufacturer == nil {
		if name := detectManufacturerByPrefix(sample); name != "" {
			fm.Manufacturer = &ManufacturerDetection{
				Name:       name,
				Confidence: manufacturerConfidence,
				Reasoning:  "sku prefix match",
			}
			log.Info("manufacturer inferred from sku prefixes", "name", name)
		}
	}
}

// matchHeaderName finds an unmapped header whose name matches the canonical
// field name, case-insensitively, by equality or containment either way.
func matchHeaderName(fm *FieldMapping, headers []string, field string) string {
	want := normalizeName(field)
	for _, h := range headers {
		if h == "" {
			continue
		}
		if _, taken := fm.Columns[h]; taken {
			continue
		}
		have := normalizeName(h)
		if have == want || strings.Contains(have, want) || strings.Contains(want, have) {
			return h
		}
	}
	return ""
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "_", " ")
}

// contentPredicates judge whether a single raw cell value looks like a value
// of the field.
var contentPredicates = map[string]func(string) bool{
	schema.FieldSKU: func(s string) bool {
		if len(s) < 5 || len(s) > 20 {
			return false
		}
		hasDigit, hasLetter := false, false
		for _, r := range s {
			switch {
			case unicode.IsDigit(r):
				hasDigit = true
			case unicode.IsLetter(r):
				hasLetter = true
			}
		}
		return hasDigit && hasLetter
	},
	schema.FieldShortDescription: func(s string) bool {
		if len(s) < 10 {
			return false
		}
		return strings.Contains(s, " ") && strings.IndexFunc(s, unicode.IsLetter) >= 0
	},
	schema.FieldUnitOfMeasure: func(s string) bool {
		up := strings.ToUpper(strings.TrimSpace(s))
		for _, variants := range schema.UnitSynonyms {
			for _, v := range variants {
				if up == v {
					return true
				}
			}
		}
		return false
	},
	schema.FieldManufacturer: func(s string) bool {
		up := strings.ToUpper(strings.TrimSpace(s))
		for _, b := range schema.Brands() {
			if up == strings.ToUpper(b.Name) {
				return true
			}
		}
		return false
	},
}

// bestContentColumn scores every not-yet-mapped column by the fraction of
// sampled values the predicate accepts and returns the best.
func bestContentColumn(fm *FieldMapping, headers []string, sample [][]string, pred func(string) bool) (string, float64) {
	bestCol := ""
	bestScore := 0.0
	for ci, h := range headers {
		if h == "" {
			continue
		}
		if _, taken := fm.Columns[h]; taken {
			continue
		}
		total, hits := 0, 0
		for _, row := range sample {
			if ci >= len(row) {
				continue
			}
			v := strings.TrimSpace(row[ci])
			if v == "" {
				continue
			}
			total++
			if pred(v) {
				hits++
			}
		}
		if total == 0 {
			continue
		}
		score := float64(hits) / float64(total)
		if score > bestScore {
			bestCol, bestScore = h, score
		}
	}
	return bestCol, bestScore
}

// detectManufacturerByPrefix scans the first column of the sample for known
// brand SKU prefixes; a brand needs minPrefixMatches hits to be declared.
func detectManufacturerByPrefix(sample [][]string) string {
	counts := make(map[string]int)
	for _, row := range sample {
		if len(row) == 0 {
			continue
		}
		v := strings.ToUpper(strings.TrimSpace(row[0]))
		if v == "" {
			continue
		}
		for _, b := range schema.Brands() {
			for _, p := range b.SKUPrefixes {
				if strings.HasPrefix(v, strings.ToUpper(p)) {
					counts[b.Name]++
					break
				}
			}
		}
	}
	best, bestN := "", 0
	for name, n := range counts {
		if n > bestN || (n == bestN && name < best) {
			best, bestN = name, n
		}
	}
	if bestN >= minPrefixMatches {
		return best
	}
	return ""
}
