package models

import "strings"

// Graph entity types keyed by FIBO-style identifiers. Entities keyed by
// the same FIBO id across imports are merged in the graph; positions
// are created fresh per import.

// RelationshipType enumerates the company relationship edges.
type RelationshipType string

const (
	RelHasSubsidiary   RelationshipType = "HAS_SUBSIDIARY"
	RelSubsidiaryOf    RelationshipType = "SUBSIDIARY_OF"
	RelParentOf        RelationshipType = "PARENT_OF"
	RelSuppliesTo      RelationshipType = "SUPPLIES_TO"
	RelCustomerOf      RelationshipType = "CUSTOMER_OF"
	RelHeadquarteredIn RelationshipType = "HEADQUARTERED_IN"
	RelCEOOf           RelationshipType = "CEO_OF"
	RelIssuedBy        RelationshipType = "ISSUED_BY"
	RelInvestedIn      RelationshipType = "INVESTED_IN"
	RelContains        RelationshipType = "CONTAINS"
)

// Company is a FIBO organization entity.
type Company struct {
	FIBOID    string  `json:"fibo_id"`
	FactSetID string  `json:"factset_id,omitempty"`
	Name      string  `json:"name"`
	Ticker    string  `json:"ticker,omitempty"`
	Sector    string  `json:"sector,omitempty"`
	Industry  string  `json:"industry,omitempty"`
	MarketCap float64 `json:"market_cap,omitempty"`
	Country   string  `json:"country,omitempty"`
}

// Country is a FIBO geographic entity keyed by ISO 3166-1 alpha-2 code.
type Country struct {
	FIBOID  string `json:"fibo_id"`
	Name    string `json:"name"`
	ISOCode string `json:"iso_code"`
	Region  string `json:"region,omitempty"`
}

// Executive is a person entity attached to a company.
type Executive struct {
	FIBOID    string `json:"fibo_id"`
	Name      string `json:"name"`
	Title     string `json:"title,omitempty"`
	StartDate string `json:"start_date,omitempty"`
}

// Stock is an equity security entity.
type Stock struct {
	FIBOID       string `json:"fibo_id"`
	Ticker       string `json:"ticker"`
	SecurityType string `json:"security_type"`
	ISIN         string `json:"isin,omitempty"`
	CUSIP        string `json:"cusip,omitempty"`
	SEDOL        string `json:"sedol,omitempty"`
}

// Bond is a fixed-income security entity. Resolved reports whether the
// reference-data lookup succeeded; an unresolved bond still enters the
// graph with its identifiers so positions remain linked.
type Bond struct {
	FIBOID       string   `json:"fibo_id"`
	ISIN         string   `json:"isin,omitempty"`
	CUSIP        string   `json:"cusip,omitempty"`
	SecurityType string   `json:"security_type"`
	Currency     string   `json:"currency,omitempty"`
	MaturityDate string   `json:"maturity_date,omitempty"`
	Coupon       *float64 `json:"coupon,omitempty"`
	MarketPrice  *float64 `json:"market_price,omitempty"`
	Issuer       string   `json:"issuer,omitempty"`
	Resolved     bool     `json:"resolved"`
}

// Relationship is a generic typed edge between two graph entities.
type Relationship struct {
	Type       RelationshipType `json:"rel_type"`
	SourceID   string           `json:"source_fibo_id"`
	TargetID   string           `json:"target_fibo_id"`
	SourceKind string           `json:"source_type"`
	TargetKind string           `json:"target_type"`
	Properties map[string]any   `json:"properties,omitempty"`
}

// FIBO identifier constructors. Keys embed the entity class so ids are
// unambiguous across tables.

func CompanyFIBOID(entityID string) string {
	return "fibo:company:" + entityID
}

func CountryFIBOID(isoCode string) string {
	return "fibo:country:" + isoCode
}

func StockFIBOID(identifier string) string {
	return "fibo:stock:" + identifier
}

func BondFIBOID(identifier string) string {
	return "fibo:bond:" + identifier
}

// IssuerCompanyFIBOID keys a company known only by its issuer name,
// as reported by bond reference data. Name-derived keys are weaker
// than entity-id keys; see ResolveIssuer.
func IssuerCompanyFIBOID(name string) string {
	return CompanyFIBOID(slugify(name))
}

// PersonFIBOID builds an executive id scoped to the employing entity so
// namesakes at different companies stay distinct.
func PersonFIBOID(entityID, name string) string {
	return "fibo:person:" + entityID + ":" + slugify(name)
}

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastDash := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash && b.Len() > 0 {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
