package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var (
	fenceRe         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	singleQuoteKey  = regexp.MustCompile(`'([^']*)'(\s*:)`)
	singleQuoteVal  = regexp.MustCompile(`(:\s*)'([^']*)'`)
)

// ParseJSON parses model output into a JSON object, applying progressively
// aggressive repairs. Each repair stage is tried in order and the first
// variant that unmarshals wins. Top-level arrays and scalars are rejected;
// every prompt in this system asks for an object.
func ParseJSON(raw string) (map[string]any, error) {
	candidates := repairCandidates(raw)
	var lastErr error
	for _, cand := range candidates {
		var obj map[string]any
		if err := json.Unmarshal([]byte(cand), &obj); err == nil {
			return obj, nil
		} else {
			lastErr = err
		}
	}
	return nil, fmt.Errorf("unparseable after %d repair attempts: %w", len(candidates), lastErr)
}

func repairCandidates(raw string) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	add(raw)

	s := StripCodeFences(raw)
	add(s)

	s = extractObject(s)
	add(s)

	s = trailingCommaRe.ReplaceAllString(s, "$1")
	add(s)

	q := normalizeQuotes(s)
	add(q)

	add(balanceBraces(s))
	add(balanceBraces(q))

	return out
}

// StripCodeFences removes a surrounding markdown code fence, with or without
// a language tag.
func StripCodeFences(s string) string {
	if m := fenceRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(s)
}

// extractObject trims everything outside the outermost braces, discarding
// prose the model wrapped around the JSON.
func extractObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	if start >= 0 {
		return s[start:]
	}
	return s
}

// normalizeQuotes rewrites single-quoted keys and string values to double
// quotes. It is deliberately narrow: only 'key': and : 'value' positions are
// touched, so apostrophes inside double-quoted strings survive.
func normalizeQuotes(s string) string {
	s = singleQuoteKey.ReplaceAllString(s, `"$1"$2`)
	return singleQuoteVal.ReplaceAllString(s, `$1"$2"`)
}

// balanceBraces appends the closers a truncated response is missing, in
// last-opened-first-closed order. Brace characters inside string literals
// are skipped.
func balanceBraces(s string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				stack = append(stack, '}')
			}
		case '[':
			if !inString {
				stack = append(stack, ']')
			}
		case '}', ']':
			if !inString && len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
	}
	if inString {
		s += `"`
	}
	for i := len(stack) - 1; i >= 0; i-- {
		s += string(stack[i])
	}
	return s
}
