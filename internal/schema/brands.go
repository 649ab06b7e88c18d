package schema

import (
	"sort"
	"sync"
)

// BrandRules holds the manufacturer-specific inference tables used when the
// oracle supplies no category information. All three rule kinds are optional;
// a brand registers only the variants that apply to its catalogs.
type BrandRules struct {
	// Name is the manufacturer's display name.
	Name string

	// SKUPrefixes are product-code prefixes that identify this brand
	// when scanning the first column of sample rows.
	SKUPrefixes []string

	// TierColumn is the column index examined for tier keywords.
	TierColumn int

	// TierKeywords maps a product tier ("Luxury Audio", ...) to the series
	// keywords that place a row in that tier.
	TierKeywords map[string][]string

	// PrefixCategories maps a SKU prefix to the category it implies.
	PrefixCategories map[string]string

	// HeaderCategories maps a section-header keyword to the category the
	// following rows belong to.
	HeaderCategories map[string]string
}

var (
	brandMu  sync.RWMutex
	brandReg = make(map[string]BrandRules)
)

// RegisterBrand adds a brand rule set to the registry.
// Panics if the brand is already registered.
func RegisterBrand(r BrandRules) {
	brandMu.Lock()
	defer brandMu.Unlock()
	if _, exists := brandReg[r.Name]; exists {
		panic("brand already registered: " + r.Name)
	}
	brandReg[r.Name] = r
}

// Brand returns the rule set for a manufacturer name.
func Brand(name string) (BrandRules, bool) {
	brandMu.RLock()
	defer brandMu.RUnlock()
	r, ok := brandReg[name]
	return r, ok
}

// Brands returns all registered rule sets sorted by name.
func Brands() []BrandRules {
	brandMu.RLock()
	defer brandMu.RUnlock()
	out := make([]BrandRules, 0, len(brandReg))
	for _, r := range brandReg {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ManufacturerKeywords are marker-text fragments that signal a manufacturer
// header line. "Brand:" and "Manufacturer:" prefix an explicit name; the
// remainder are brand names matched literally.
func ManufacturerKeywords() []string {
	kws := []string{"Brand:", "Manufacturer:"}
	for _, r := range Brands() {
		kws = append(kws, r.Name)
	}
	return kws
}

func init() {
	RegisterBrand(BrandRules{
		Name:        "KEF",
		SKUPrefixes: []string{"KEF", "MUON", "LS", "R"},
		TierColumn:  0,
		TierKeywords: map[string][]string{
			"Luxury Audio":   {"MUON", "REFERENCE", "BLADE"},
			"Premium Audio":  {"LS50", "R SERIES"},
			"Standard Audio": {"Q SERIES", "T SERIES"},
		},
	})
	RegisterBrand(BrandRules{
		Name:        "Audio-Technica",
		SKUPrefixes: []string{"AT", "ATND", "ATH"},
		PrefixCategories: map[string]string{
			"AT-LP": "Turntables",
			"ATH-M": "Headphones",
			"AT2":   "Microphones",
			"ATND":  "Network Audio",
		},
	})
	RegisterBrand(BrandRules{
		Name:        "Glensound",
		SKUPrefixes: []string{"DARK", "VITTORIA", "DIVINE"},
		HeaderCategories: map[string]string{
			"DANTE":      "Network Audio",
			"RAVENNA":    "Network Audio",
			"MILAN":      "Network Audio",
			"COMMENTARY": "Commentary Systems",
			"DARK":       "Dark Outside Broadcast",
		},
	})
	RegisterBrand(BrandRules{Name: "Bowers & Wilkins", SKUPrefixes: []string{"B&W", "BW", "600"}})
	RegisterBrand(BrandRules{Name: "Denon", SKUPrefixes: []string{"DENON", "AVR", "HEOS"}})
	RegisterBrand(BrandRules{Name: "Yamaha", SKUPrefixes: []string{"YAM", "YSTX"}})
	RegisterBrand(BrandRules{Name: "Sony", SKUPrefixes: []string{"SONY", "STR", "HT"}})
	RegisterBrand(BrandRules{Name: "Sennheiser", SKUPrefixes: []string{"SENN", "HD", "MX"}})
	RegisterBrand(BrandRules{Name: "Shure", SKUPrefixes: []string{"SHURE", "SM", "BETA"}})
}
