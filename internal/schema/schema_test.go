package schema

import "testing"

func TestValidField(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{FieldSKU, true},
		{FieldUnitOfMeasure, true},
		{FieldMSRPEUR, true},
		{"sku", false},
		{"Dealer_Price", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := ValidField(tt.name); got != tt.want {
			t.Errorf("ValidField(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestImpliedCurrency(t *testing.T) {
	tests := []struct {
		field string
		want  string
	}{
		{FieldMSRPGBP, "GBP"},
		{FieldMSRPUSD, "USD"},
		{FieldMSRPEUR, "EUR"},
		{FieldBuyCost, ""},
		{FieldTradePrice, ""},
	}

	for _, tt := range tests {
		if got := ImpliedCurrency(tt.field); got != tt.want {
			t.Errorf("ImpliedCurrency(%q) = %q, want %q", tt.field, got, tt.want)
		}
	}
}

func TestRequiredFieldsAreValid(t *testing.T) {
	for _, f := range RequiredFields {
		if !ValidField(f) {
			t.Errorf("required field %q is not in the canonical set", f)
		}
	}
	for _, f := range PriceFields {
		if FieldTypes[f] != FieldNumeric {
			t.Errorf("price field %q is not numeric", f)
		}
	}
}

func TestBrandRegistry(t *testing.T) {
	r, ok := Brand("Audio-Technica")
	if !ok {
		t.Fatal("Audio-Technica not registered")
	}
	if r.PrefixCategories["AT-LP"] != "Turntables" {
		t.Errorf("AT-LP category = %q, want Turntables", r.PrefixCategories["AT-LP"])
	}

	if _, ok := Brand("Acme"); ok {
		t.Error("Brand(Acme) should not exist")
	}

	all := Brands()
	if len(all) < 9 {
		t.Fatalf("Brands() returned %d entries", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Name >= all[i].Name {
			t.Fatalf("Brands() not sorted: %q before %q", all[i-1].Name, all[i].Name)
		}
	}
}

func TestManufacturerKeywords(t *testing.T) {
	kws := ManufacturerKeywords()
	seen := make(map[string]bool, len(kws))
	for _, k := range kws {
		seen[k] = true
	}
	for _, want := range []string{"Brand:", "Manufacturer:", "KEF", "Glensound"} {
		if !seen[want] {
			t.Errorf("keyword %q missing", want)
		}
	}
}
