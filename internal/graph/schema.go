// Package graph builds and templates SurrealDB statements for the
// portfolio graph
package graph

import "github.com/portana/portgraph/internal/models"

// Node tables. Shared entities are keyed by FIBO id (or ISO code for
// countries) and merged across imports; positions are created fresh
// per import.
const (
	TablePortfolio = "portfolio"
	TablePosition  = "position"
	TableCompany   = "company"
	TableCountry   = "country"
	TableExecutive = "executive"
	TableStock     = "stock"
	TableBond      = "bond"
)

// Edge tables.
const (
	EdgeContains        = "contains"
	EdgeInvestedIn      = "invested_in"
	EdgeIssuedBy        = "issued_by"
	EdgeHeadquarteredIn = "headquartered_in"
	EdgeCEOOf           = "ceo_of"
	EdgeHasSubsidiary   = "has_subsidiary"
	EdgeSubsidiaryOf    = "subsidiary_of"
	EdgeParentOf        = "parent_of"
	EdgeSuppliesTo      = "supplies_to"
	EdgeCustomerOf      = "customer_of"
)

// NodeTables lists every node table in creation order.
var NodeTables = []string{
	TablePortfolio,
	TablePosition,
	TableCompany,
	TableCountry,
	TableExecutive,
	TableStock,
	TableBond,
}

// EdgeTables lists every edge table.
var EdgeTables = []string{
	EdgeContains,
	EdgeInvestedIn,
	EdgeIssuedBy,
	EdgeHeadquarteredIn,
	EdgeCEOOf,
	EdgeHasSubsidiary,
	EdgeSubsidiaryOf,
	EdgeParentOf,
	EdgeSuppliesTo,
	EdgeCustomerOf,
}

// AllTables lists node tables followed by edge tables.
func AllTables() []string {
	out := make([]string, 0, len(NodeTables)+len(EdgeTables))
	out = append(out, NodeTables...)
	out = append(out, EdgeTables...)
	return out
}

// edgeTableFor maps relationship types onto edge tables. Unknown types
// are rejected by the builder.
var edgeTableFor = map[models.RelationshipType]string{
	models.RelContains:        EdgeContains,
	models.RelInvestedIn:      EdgeInvestedIn,
	models.RelIssuedBy:        EdgeIssuedBy,
	models.RelHeadquarteredIn: EdgeHeadquarteredIn,
	models.RelCEOOf:           EdgeCEOOf,
	models.RelHasSubsidiary:   EdgeHasSubsidiary,
	models.RelSubsidiaryOf:    EdgeSubsidiaryOf,
	models.RelParentOf:        EdgeParentOf,
	models.RelSuppliesTo:      EdgeSuppliesTo,
	models.RelCustomerOf:      EdgeCustomerOf,
}

// nodeTableFor maps entity kind strings from relationship records onto
// node tables.
var nodeTableFor = map[string]string{
	"portfolio": TablePortfolio,
	"position":  TablePosition,
	"company":   TableCompany,
	"country":   TableCountry,
	"executive": TableExecutive,
	"person":    TableExecutive,
	"stock":     TableStock,
	"bond":      TableBond,
}
