package models

// Provider response models. Field tags follow the FactSet JSON wire
// names; absent numerics are pointers so missing and zero stay
// distinguishable.

// CompanyProfile is a company-reports profile row. The profile lookup
// also resolves a ticker to its FactSet entity id.
type CompanyProfile struct {
	FsymID    string          `json:"fsymId"`
	Name      string          `json:"name"`
	Ticker    string          `json:"ticker,omitempty"`
	Sector    string          `json:"sector"`
	Industry  string          `json:"industry"`
	MarketCap float64         `json:"marketCapitalization"`
	CUSIP     string          `json:"cusip,omitempty"`
	Address   *ProfileAddress `json:"address,omitempty"`
}

// ProfileAddress carries the headquarters location block.
type ProfileAddress struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
}

// Officer is a company officer row.
type Officer struct {
	Name      string `json:"name"`
	Title     string `json:"title"`
	StartDate string `json:"startDate,omitempty"`
}

// EntityStructureItem is one parent/subsidiary link.
type EntityStructureItem struct {
	EntityID            string   `json:"entityId"`
	ParentID            string   `json:"parentId"`
	EntityName          string   `json:"entityName,omitempty"`
	ParentName          string   `json:"parentName,omitempty"`
	OwnershipPercentage *float64 `json:"ownershipPercentage,omitempty"`
}

// PriceItem is one last-close price row keyed back to the requested
// identifier.
type PriceItem struct {
	RequestID string   `json:"requestId"`
	Price     *float64 `json:"price"`
	Date      string   `json:"date,omitempty"`
	Currency  string   `json:"currency,omitempty"`
}

// BondReference is the merged price and reference view of a bond.
type BondReference struct {
	RequestID    string   `json:"requestId"`
	Price        *float64 `json:"price"`
	Coupon       *float64 `json:"coupon"`
	Currency     string   `json:"currency,omitempty"`
	MaturityDate string   `json:"maturityDate,omitempty"`
	Issuer       string   `json:"issuer,omitempty"`
}
