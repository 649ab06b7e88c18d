package pipeline

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/avforge/catalogstd/internal/extract"
	"github.com/avforge/catalogstd/internal/oracle"
	"github.com/avforge/catalogstd/internal/schema"
)

// ExtractCategories builds the category rule sets for a grid. Oracle output
// is consumed three ways: a category_structure is converted to row ranges by
// scanning structure markers, explicit row_categories and content_patterns
// are ingested after bounds validation, and a default_category is taken
// as-is. If nothing usable comes back, manufacturer-driven inference from
// the brand registry fills in.
func ExtractCategories(ctx context.Context, client *oracle.Client, rows [][]string, st *Structure, manufacturer string, log *slog.Logger) *CategoryInfo {
	ci := &CategoryInfo{}
	if len(rows) == 0 {
		return ci
	}

	sample := SampleRows(rows, 5)
	hints, err := client.GenerateJSON(ctx, oracle.CategoryPrompt(st.Headers, sample, st.Markers, manufacturer))
	if err != nil {
		log.Warn("category hints unavailable", "error", err)
	} else {
		ingestCategoryStructure(ci, hints, st.Markers, len(rows))
		ingestExplicitRules(ci, hints, len(rows))
	}

	if ci.Empty() {
		inferFromManufacturer(ci, st.Markers, manufacturer, len(rows), log)
	}
	return ci
}

// ingestCategoryStructure converts an ordered category_structure into row
// ranges. Markers are scanned in row order; a marker whose text contains a
// structure entry's start_pattern opens that category at the next row and
// closes the previously open one at the previous row. The last open category
// runs to the end of the grid. First matching entry per marker wins.
func ingestCategoryStructure(ci *CategoryInfo, hints map[string]any, markers []extract.Marker, rows int) {
	raw, ok := hints["category_structure"].([]any)
	if !ok || len(raw) == 0 {
		return
	}

	type structEntry struct {
		startPattern string
		pair         CategoryPair
	}
	var entries []structEntry
	for _, e := range raw {
		obj, ok := e.(map[string]any)
		if !ok {
			continue
		}
		sp, _ := obj["start_pattern"].(string)
		if sp == "" {
			continue
		}
		cat, _ := obj["category"].(string)
		grp, _ := obj["category_group"].(string)
		entries = append(entries, structEntry{sp, CategoryPair{CategoryGroup: grp, Category: cat}})
	}
	if len(entries) == 0 {
		return
	}

	ordered := make([]extract.Marker, len(markers))
	copy(ordered, markers)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].RowIndex < ordered[j].RowIndex })

	open := -1 // index into ci.RowCategories of the currently open range
	for _, m := range ordered {
		for _, e := range entries {
			if !strings.Contains(m.Text, e.startPattern) {
				continue
			}
			if open >= 0 {
				ci.RowCategories[open].EndRow = m.RowIndex - 1
			}
			ci.RowCategories = append(ci.RowCategories, RowRange{
				StartRow:      m.RowIndex + 1,
				EndRow:        rows - 1,
				CategoryGroup: e.pair.CategoryGroup,
				Category:      e.pair.Category,
			})
			open = len(ci.RowCategories) - 1
			break
		}
	}
}

// ingestExplicitRules validates and appends oracle-supplied row_categories,
// content_patterns and default_category.
func ingestExplicitRules(ci *CategoryInfo, hints map[string]any, rows int) {
	if raw, ok := hints["row_categories"].([]any); ok {
		for _, e := range raw {
			obj, ok := e.(map[string]any)
			if !ok {
				continue
			}
			start, ok1 := asInt(obj["start_row"])
			end, ok2 := asInt(obj["end_row"])
			if !ok1 || !ok2 || start < 0 || end >= rows || start > end {
				continue
			}
			cat, _ := obj["category"].(string)
			grp, _ := obj["category_group"].(string)
			ci.RowCategories = append(ci.RowCategories, RowRange{
				StartRow: start, EndRow: end, CategoryGroup: grp, Category: cat,
			})
		}
	}
	if raw, ok := hints["content_patterns"].([]any); ok {
		for _, e := range raw {
			obj, ok := e.(map[string]any)
			if !ok {
				continue
			}
			field, _ := obj["field"].(string)
			pattern, _ := obj["pattern"].(string)
			if pattern == "" || !schema.ValidField(field) {
				continue
			}
			cat, _ := obj["category"].(string)
			grp, _ := obj["category_group"].(string)
			ci.ContentPatterns = append(ci.ContentPatterns, ContentPattern{
				Field: field, Pattern: pattern, CategoryGroup: grp, Category: cat,
			})
		}
	}
	if raw, ok := hints["default_category"].(map[string]any); ok {
		cat, _ := raw["category"].(string)
		grp, _ := raw["category_group"].(string)
		if cat != "" || grp != "" {
			ci.DefaultCategory = &CategoryPair{CategoryGroup: grp, Category: cat}
		}
	}
}

// inferFromManufacturer derives category rules from the brand registry when
// the oracle supplied nothing: the manufacturer becomes the default category
// group and the brand's static rules emit targeted patterns and ranges.
func inferFromManufacturer(ci *CategoryInfo, markers []extract.Marker, manufacturer string, rows int, log *slog.Logger) {
	name := manufacturer
	if name == "" {
		name = manufacturerFromMarkers(markers)
	}
	if name == "" {
		return
	}

	ci.DefaultCategory = &CategoryPair{CategoryGroup: name, Category: "General"}
	rules, ok := schema.Brand(name)
	if !ok {
		return
	}
	log.Info("applying brand category rules", "manufacturer", name)

	tiers := make([]string, 0, len(rules.TierKeywords))
	for t := range rules.TierKeywords {
		tiers = append(tiers, t)
	}
	sort.Strings(tiers)
	for _, tier := range tiers {
		for _, kw := range rules.TierKeywords[tier] {
			ci.ContentPatterns = append(ci.ContentPatterns, ContentPattern{
				Field:         schema.FieldShortDescription,
				Pattern:       kw,
				CategoryGroup: name,
				Category:      tier,
			})
		}
	}
	for _, prefix := range orderedKeys(rules.PrefixCategories) {
		ci.ContentPatterns = append(ci.ContentPatterns, ContentPattern{
			Field:         schema.FieldSKU,
			Pattern:       prefix,
			CategoryGroup: name,
			Category:      rules.PrefixCategories[prefix],
		})
	}
	sortPatterns(ci.ContentPatterns)

	if len(rules.HeaderCategories) > 0 {
		ordered := make([]extract.Marker, len(markers))
		copy(ordered, markers)
		sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].RowIndex < ordered[j].RowIndex })
		for i, m := range ordered {
			up := strings.ToUpper(m.Text)
			for _, kw := range orderedKeys(rules.HeaderCategories) {
				if !strings.Contains(up, kw) {
					continue
				}
				end := rows - 1
				if i+1 < len(ordered) {
					end = ordered[i+1].RowIndex - 1
				}
				if end < m.RowIndex+1 {
					continue
				}
				ci.RowCategories = append(ci.RowCategories, RowRange{
					StartRow:      m.RowIndex + 1,
					EndRow:        end,
					CategoryGroup: name,
					Category:      rules.HeaderCategories[kw],
				})
				break
			}
		}
	}
}

// manufacturerFromMarkers looks for a manufacturer name in structure-marker
// text via the registry's keyword list.
func manufacturerFromMarkers(markers []extract.Marker) string {
	for _, m := range markers {
		text := m.Text
		for _, prefix := range []string{"Brand:", "Manufacturer:"} {
			if i := strings.Index(text, prefix); i >= 0 {
				rest := strings.TrimSpace(text[i+len(prefix):])
				if f := strings.Fields(rest); len(f) > 0 {
					// Prefer a registered brand match over the raw token.
					for _, b := range schema.Brands() {
						if strings.HasPrefix(strings.ToUpper(rest), strings.ToUpper(b.Name)) {
							return b.Name
						}
					}
					return f[0]
				}
			}
		}
		up := strings.ToUpper(text)
		for _, b := range schema.Brands() {
			if strings.Contains(up, strings.ToUpper(b.Name)) {
				return b.Name
			}
		}
	}
	return ""
}

// ResolveCategory applies the rule sets to one row: row ranges first (first
// range containing the index wins), then content patterns (first field plus
// substring match), then the default. Returns nil when nothing applies.
func ResolveCategory(rowIdx int, raw map[string]string, fm *FieldMapping, ci *CategoryInfo) *CategoryPair {
	for _, r := range ci.RowCategories {
		if rowIdx >= r.StartRow && rowIdx <= r.EndRow {
			return &CategoryPair{CategoryGroup: r.CategoryGroup, Category: r.Category}
		}
	}
	for _, p := range ci.ContentPatterns {
		col := fm.SourceColumn(p.Field)
		if col == "" {
			continue
		}
		v := raw[col]
		if v == "" {
			continue
		}
		if strings.Contains(strings.ToUpper(v), strings.ToUpper(p.Pattern)) {
			return &CategoryPair{CategoryGroup: p.CategoryGroup, Category: p.Category}
		}
	}
	if ci.DefaultCategory != nil {
		return &CategoryPair{
			CategoryGroup: ci.DefaultCategory.CategoryGroup,
			Category:      ci.DefaultCategory.Category,
		}
	}
	return nil
}

// sortPatterns orders brand-derived patterns longest-pattern-first so a
// specific prefix beats a shorter one that would also match.
func sortPatterns(ps []ContentPattern) {
	sort.SliceStable(ps, func(i, j int) bool { return len(ps[i].Pattern) > len(ps[j].Pattern) })
}

// orderedKeys returns map keys sorted so rule application is deterministic.
func orderedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
