// Package schema defines the canonical product record layout that every
// processed catalog is standardized into, plus the static lookup tables
// (unit synonyms, currency symbols, brand rules) the inference pipeline
// consumes. Nothing here is negotiated at runtime.
package schema

// FieldType classifies a canonical field's semantic type.
type FieldType int

const (
	FieldString FieldType = iota
	FieldNumeric
	FieldBool
)

// Canonical field names. Records are keyed by these exact strings.
const (
	FieldSKU              = "SKU"
	FieldShortDescription = "Short_Description"
	FieldLongDescription  = "Long_Description"
	FieldModel            = "Model"
	FieldCategoryGroup    = "Category_Group"
	FieldCategory         = "Category"
	FieldManufacturer     = "Manufacturer"
	FieldManufacturerSKU  = "Manufacturer_SKU"
	FieldImageURL         = "Image_URL"
	FieldDocumentName     = "Document_Name"
	FieldDocumentURL      = "Document_URL"
	FieldUnitOfMeasure    = "Unit_Of_Measure"
	FieldBuyCost          = "Buy_Cost"
	FieldTradePrice       = "Trade_Price"
	FieldMSRPGBP          = "MSRP_GBP"
	FieldMSRPUSD          = "MSRP_USD"
	FieldMSRPEUR          = "MSRP_EUR"
	FieldDiscontinued     = "Discontinued"
)

// Fields lists all canonical field names in output column order.
var Fields = []string{
	FieldSKU, FieldShortDescription, FieldLongDescription, FieldModel,
	FieldCategoryGroup, FieldCategory, FieldManufacturer, FieldManufacturerSKU,
	FieldImageURL, FieldDocumentName, FieldDocumentURL, FieldUnitOfMeasure,
	FieldBuyCost, FieldTradePrice, FieldMSRPGBP, FieldMSRPUSD, FieldMSRPEUR,
	FieldDiscontinued,
}

// RequiredFields must be present and non-empty for a record to survive
// final filtering.
var RequiredFields = []string{
	FieldSKU, FieldShortDescription, FieldManufacturer, FieldUnitOfMeasure,
}

// FieldTypes maps each canonical field to its semantic type.
var FieldTypes = map[string]FieldType{
	FieldSKU:              FieldString,
	FieldShortDescription: FieldString,
	FieldLongDescription:  FieldString,
	FieldModel:            FieldString,
	FieldCategoryGroup:    FieldString,
	FieldCategory:         FieldString,
	FieldManufacturer:     FieldString,
	FieldManufacturerSKU:  FieldString,
	FieldImageURL:         FieldString,
	FieldDocumentName:     FieldString,
	FieldDocumentURL:      FieldString,
	FieldUnitOfMeasure:    FieldString,
	FieldBuyCost:          FieldNumeric,
	FieldTradePrice:       FieldNumeric,
	FieldMSRPGBP:          FieldNumeric,
	FieldMSRPUSD:          FieldNumeric,
	FieldMSRPEUR:          FieldNumeric,
	FieldDiscontinued:     FieldBool,
}

// PriceFields are the numeric fields that carry currency semantics.
var PriceFields = []string{
	FieldBuyCost, FieldTradePrice, FieldMSRPGBP, FieldMSRPUSD, FieldMSRPEUR,
}

// ValidField reports whether name is one of the canonical fields.
func ValidField(name string) bool {
	_, ok := FieldTypes[name]
	return ok
}

// IsPriceField reports whether the field carries currency semantics.
func IsPriceField(name string) bool {
	for _, f := range PriceFields {
		if f == name {
			return true
		}
	}
	return false
}

// ImpliedCurrency returns the ISO code a price field is denominated in,
// or "" for currency-agnostic price fields (Buy_Cost, Trade_Price).
func ImpliedCurrency(field string) string {
	switch field {
	case FieldMSRPGBP:
		return "GBP"
	case FieldMSRPUSD:
		return "USD"
	case FieldMSRPEUR:
		return "EUR"
	}
	return ""
}

// UnitEnum is the closed set of accepted Unit_Of_Measure values.
var UnitEnum = []string{"PAIR", "EA", "EACH", "PIECE", "SET", "KIT", "PACK", "BOX", "UNIT"}

// UnitSynonyms maps each canonical unit to the raw variants that fold into it.
// Matching is upper-cased exact membership first, then bidirectional
// substring containment.
var UnitSynonyms = map[string][]string{
	"PAIR":  {"PAIR", "PR", "PAIRS", "PRS"},
	"EA":    {"EA", "EACH", "UNIT", "SINGLE", "1PC"},
	"PIECE": {"PIECE", "PC", "PCS", "PIECES"},
	"SET":   {"SET", "SETS", "KIT", "KITS"},
	"PACK":  {"PACK", "PACKAGE", "PKG", "BOX"},
}

// DefaultUnit is assigned when no synonym matches.
const DefaultUnit = "EA"

// CurrencySymbols maps ISO currency codes to the symbols and codes that
// identify them inside raw price strings.
var CurrencySymbols = map[string][]string{
	"GBP": {"£", "GBP", "£GBP"},
	"USD": {"$", "USD", "$USD"},
	"EUR": {"€", "EUR", "€EUR"},
}

// CategoryAbbreviations are force-uppercased during category casing
// regardless of how the source wrote them.
var CategoryAbbreviations = map[string]bool{
	"AV": true, "TV": true, "HDMI": true, "USB": true,
	"PC": true, "IP": true, "HD": true, "4K": true,
}
