package oracle

import (
	"context"
	"strings"
)

// MockGenerator returns deterministic stub responses keyed on the task tag
// embedded in the prompt. It stands in for the real model in development and
// tests; its answers are deliberately minimal so the pipeline's deterministic
// fallbacks do the real work.
type MockGenerator struct{}

func (MockGenerator) Generate(_ context.Context, prompt string) (string, error) {
	switch {
	case strings.Contains(prompt, TaskStructure):
		return `{"sheet_type": "single", "data_start_row": 0, "non_data_rows": [], "markers": []}`, nil
	case strings.Contains(prompt, TaskFieldMap):
		return `{"mappings": {}}`, nil
	case strings.Contains(prompt, TaskCategory):
		return `{"default_category": {"category": "General AV", "category_group": "Audio Visual"}}`, nil
	default:
		return `{}`, nil
	}
}
