package models

import "testing"

func TestPersonFIBOID(t *testing.T) {
	tests := []struct {
		entityID string
		name     string
		want     string
	}{
		{"000C7F-E", "Tim Cook", "fibo:person:000C7F-E:tim-cook"},
		{"000C7F-E", "  Tim   Cook  ", "fibo:person:000C7F-E:tim-cook"},
		{"0FPWZZ-E", "Jean-Luc O'Neil", "fibo:person:0FPWZZ-E:jean-luc-o-neil"},
	}
	for _, tt := range tests {
		got := PersonFIBOID(tt.entityID, tt.name)
		if got != tt.want {
			t.Errorf("PersonFIBOID(%q, %q) = %q, want %q", tt.entityID, tt.name, got, tt.want)
		}
	}
}

func TestFIBOIDConstructors(t *testing.T) {
	if got := CompanyFIBOID("000C7F-E"); got != "fibo:company:000C7F-E" {
		t.Errorf("CompanyFIBOID = %q", got)
	}
	if got := CountryFIBOID("US"); got != "fibo:country:US" {
		t.Errorf("CountryFIBOID = %q", got)
	}
	if got := BondFIBOID("369604103"); got != "fibo:bond:369604103" {
		t.Errorf("BondFIBOID = %q", got)
	}
	if got := StockFIBOID("037833100"); got != "fibo:stock:037833100" {
		t.Errorf("StockFIBOID = %q", got)
	}
}

func TestLookupCountry(t *testing.T) {
	info, ok := LookupCountry("United States")
	if !ok {
		t.Fatal("United States not found in country mapping")
	}
	if info.ISOCode != "US" || info.Region != "North America" {
		t.Errorf("LookupCountry(United States) = %+v", info)
	}

	if _, ok := LookupCountry("Atlantis"); ok {
		t.Error("LookupCountry(Atlantis) = ok, want miss")
	}
}
