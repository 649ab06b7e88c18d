package oracle

import "testing"

func TestParseJSONRepairs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		key  string
		want string
	}{
		{
			name: "clean object",
			raw:  `{"sheet_type": "single"}`,
			key:  "sheet_type", want: "single",
		},
		{
			name: "fenced with language tag",
			raw:  "```json\n{\"sheet_type\": \"single\"}\n```",
			key:  "sheet_type", want: "single",
		},
		{
			name: "fenced without tag",
			raw:  "```\n{\"a\": \"b\"}\n```",
			key:  "a", want: "b",
		},
		{
			name: "prose around object",
			raw:  `Here is the analysis you asked for: {"a": "b"} Hope that helps!`,
			key:  "a", want: "b",
		},
		{
			name: "trailing comma",
			raw:  `{"a": "b",}`,
			key:  "a", want: "b",
		},
		{
			name: "single quotes",
			raw:  `{'a': 'b'}`,
			key:  "a", want: "b",
		},
		{
			name: "truncated object",
			raw:  `{"a": "b", "nested": {"c": "d"`,
			key:  "a", want: "b",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obj, err := ParseJSON(tt.raw)
			if err != nil {
				t.Fatalf("ParseJSON: %v", err)
			}
			if got, _ := obj[tt.key].(string); got != tt.want {
				t.Errorf("obj[%q] = %v, want %q", tt.key, obj[tt.key], tt.want)
			}
		})
	}
}

func TestParseJSONRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "no json here at all", "[1, 2, 3]"} {
		if _, err := ParseJSON(raw); err == nil {
			t.Errorf("ParseJSON(%q) succeeded, want error", raw)
		}
	}
}

func TestBalanceBracesInsideStrings(t *testing.T) {
	// Braces inside string values must not affect the balance.
	obj, err := ParseJSON(`{"a": "value with } brace", "b": "c"}`)
	if err != nil {
		t.Fatalf("ParseJSON: %v", err)
	}
	if obj["a"] != "value with } brace" {
		t.Errorf("a = %v", obj["a"])
	}
}
