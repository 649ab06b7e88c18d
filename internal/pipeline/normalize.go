package pipeline

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/avforge/catalogstd/internal/oracle"
	"github.com/avforge/catalogstd/internal/schema"
)

const (
	longDescriptionLimit = 1000
	longDescriptionCut   = 997
)

// Strategy is a learned per-field normalization recipe supplied by the
// oracle for columns whose raw values resist the built-in rules.
type Strategy struct {
	ValueType       string            `json:"value_type"`
	Patterns        []StrategyPattern `json:"patterns"`
	DefaultStrategy string            `json:"default_strategy"`
}

// StrategyPattern is one substring rewrite applied before typed parsing.
type StrategyPattern struct {
	Match   string `json:"match"`
	Replace string `json:"replace"`
}

// Normalizer converts raw cell text into canonical typed values. It is
// stateless apart from learned strategies and safe to reuse across rows.
type Normalizer struct {
	log        *slog.Logger
	strategies map[string]Strategy
}

func NewNormalizer(log *slog.Logger) *Normalizer {
	return &Normalizer{log: log, strategies: make(map[string]Strategy)}
}

// LearnStrategy asks the oracle for a normalization recipe for a field based
// on sampled raw values. Failure leaves the built-in rules in charge.
func (n *Normalizer) LearnStrategy(ctx context.Context, client *oracle.Client, field string, samples []string) {
	obj, err := client.GenerateJSON(ctx, oracle.NormalizationPrompt(field, samples))
	if err != nil {
		n.log.Warn("no learned strategy", "field", field, "error", err)
		return
	}
	s := Strategy{}
	s.ValueType, _ = obj["value_type"].(string)
	s.DefaultStrategy, _ = obj["default_strategy"].(string)
	if raw, ok := obj["patterns"].([]any); ok {
		for _, e := range raw {
			p, ok := e.(map[string]any)
			if !ok {
				continue
			}
			match, _ := p["match"].(string)
			if match == "" {
				continue
			}
			repl, _ := p["replace"].(string)
			s.Patterns = append(s.Patterns, StrategyPattern{Match: match, Replace: repl})
		}
	}
	if s.ValueType != "" {
		n.strategies[field] = s
	}
}

// Normalize converts a raw value to the canonical type of field. Empty input
// always yields nil; parse failures yield nil, never an error.
func (n *Normalizer) Normalize(raw, field string) any {
	v := cleanText(raw)
	if v == "" {
		return nil
	}

	if s, ok := n.strategies[field]; ok {
		v = applyStrategy(v, s)
		if v == "" {
			return nil
		}
	}

	switch schema.FieldTypes[field] {
	case schema.FieldNumeric:
		if schema.IsPriceField(field) {
			return n.normalizePrice(v, field)
		}
		return normalizeNumber(v)
	case schema.FieldBool:
		return normalizeBool(v)
	default:
		return n.normalizeString(v, field)
	}
}

// cleanText trims whitespace and collapses non-breaking-space artifacts.
func cleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\u202f", " ")
	return strings.TrimSpace(s)
}

func applyStrategy(v string, s Strategy) string {
	for _, p := range s.Patterns {
		v = strings.ReplaceAll(v, p.Match, p.Replace)
	}
	if s.DefaultStrategy == "empty" && strings.TrimSpace(v) == "" {
		return ""
	}
	return strings.TrimSpace(v)
}

func (n *Normalizer) normalizeString(v, field string) any {
	switch field {
	case schema.FieldLongDescription:
		// Limits count characters, not bytes, so multi-byte text is
		// neither truncated early nor split mid-rune.
		if runes := []rune(v); len(runes) > longDescriptionLimit {
			return string(runes[:longDescriptionCut]) + "..."
		}
		return v
	case schema.FieldCategory, schema.FieldCategoryGroup:
		return capitalizeCategory(v)
	case schema.FieldUnitOfMeasure:
		return n.normalizeUnit(v)
	}
	return v
}

// capitalizeCategory title-cases each word except the abbreviation
// allow-list, which is forced upper-case regardless of source casing.
func capitalizeCategory(v string) string {
	words := strings.Fields(v)
	for i, w := range words {
		up := strings.ToUpper(w)
		if schema.CategoryAbbreviations[up] {
			words[i] = up
			continue
		}
		words[i] = capitalizeWord(w)
	}
	return strings.Join(words, " ")
}

func capitalizeWord(w string) string {
	runes := []rune(strings.ToLower(w))
	for i, r := range runes {
		if unicode.IsLetter(r) {
			runes[i] = unicode.ToUpper(r)
			break
		}
	}
	return string(runes)
}

// normalizeUnit folds a raw unit into the canonical vocabulary: exact
// membership in a synonym group first, then bidirectional substring
// containment, then the default unit.
func (n *Normalizer) normalizeUnit(v string) string {
	up := strings.ToUpper(strings.TrimSpace(v))
	if up == "" {
		return schema.DefaultUnit
	}
	for _, unit := range canonicalUnits {
		for _, syn := range schema.UnitSynonyms[unit] {
			if up == syn {
				return unit
			}
		}
	}
	for _, unit := range canonicalUnits {
		for _, syn := range schema.UnitSynonyms[unit] {
			if strings.Contains(up, syn) || strings.Contains(syn, up) {
				return unit
			}
		}
	}
	n.log.Warn("unknown unit of measure, defaulting", "raw", v, "default", schema.DefaultUnit)
	return schema.DefaultUnit
}

// canonicalUnits fixes the synonym lookup order so overlapping synonyms
// resolve deterministically.
var canonicalUnits = []string{"PAIR", "EA", "PIECE", "SET", "PACK"}

// normalizeNumber parses a non-price numeric. With both separators present
// the comma is thousands and the period decimal; a lone comma is the decimal
// separator.
func normalizeNumber(v string) any {
	s := stripNonNumeric(v)
	if s == "" {
		return nil
	}
	hasComma := strings.Contains(s, ",")
	hasPeriod := strings.Contains(s, ".")
	switch {
	case hasComma && hasPeriod:
		s = strings.ReplaceAll(s, ",", "")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return f
}

// normalizePrice parses a price, detecting an embedded currency and warning
// on a mismatch with the field's implied currency. Separator rules: with
// both present the rightmost is the decimal separator; a lone comma is
// decimal only when exactly two digits follow the last comma.
func (n *Normalizer) normalizePrice(v, field string) any {
	if detected := detectCurrency(v); detected != "" {
		if implied := schema.ImpliedCurrency(field); implied != "" && implied != detected {
			n.log.Warn("currency mismatch",
				"field", field, "implied", implied, "detected", detected, "raw", v)
		}
	}

	s := stripNonNumeric(v)
	if s == "" {
		return nil
	}

	lastComma := strings.LastIndex(s, ",")
	lastPeriod := strings.LastIndex(s, ".")
	switch {
	case lastComma >= 0 && lastPeriod >= 0:
		if lastComma > lastPeriod {
			// European style: 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// US style: 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if len(s)-lastComma == 3 {
			s = strings.ReplaceAll(s[:lastComma], ",", "") + "." + s[lastComma+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return f
}

// detectCurrency finds the first currency whose symbol or code appears in
// the raw value. Codes are checked against the upper-cased input so "usd"
// and "USD" both register.
func detectCurrency(v string) string {
	up := strings.ToUpper(v)
	for _, code := range []string{"GBP", "USD", "EUR"} {
		for _, sym := range schema.CurrencySymbols[code] {
			if strings.Contains(up, strings.ToUpper(sym)) {
				return code
			}
		}
	}
	return ""
}

// stripNonNumeric keeps digits, separators and the minus sign.
func stripNonNumeric(v string) string {
	var b strings.Builder
	for _, r := range v {
		if unicode.IsDigit(r) || r == ',' || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeBool folds boolean synonyms; anything unrecognized is nil.
func normalizeBool(v string) any {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "yes", "y", "1", "t", "discontinued":
		return true
	case "false", "no", "n", "0", "f", "active":
		return false
	}
	return nil
}
