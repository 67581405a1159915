// Package interfaces defines service contracts for Portgraph
package interfaces

import (
	"context"

	"github.com/portana/portgraph/internal/models"
)

// BondIDType selects the identifier family for bond lookups.
type BondIDType string

const (
	BondIDCUSIP BondIDType = "CUSIP"
	BondIDISIN  BondIDType = "ISIN"
)

// FactSetClient provides access to the FactSet content APIs
type FactSetClient interface {
	// GetCompanyProfiles retrieves profile rows for tickers; the
	// profile also resolves each ticker to its entity id
	GetCompanyProfiles(ctx context.Context, tickers []string) ([]models.CompanyProfile, error)

	// GetCompanyOfficers retrieves officers for entity ids
	GetCompanyOfficers(ctx context.Context, entityIDs []string) ([]models.Officer, error)

	// GetEntityStructure retrieves parent/subsidiary links for entity ids
	GetEntityStructure(ctx context.Context, entityIDs []string) ([]models.EntityStructureItem, error)

	// GetLastClosePrices retrieves last-close prices for equity tickers
	GetLastClosePrices(ctx context.Context, tickers []string) ([]models.PriceItem, error)

	// GetBondPrices retrieves last-close bond prices for identifiers
	// of one type
	GetBondPrices(ctx context.Context, identifiers []string, idType BondIDType) ([]models.PriceItem, error)

	// GetBondPricesBatch retrieves prices for a CUSIP batch via the
	// formula API, keyed by requested CUSIP
	GetBondPricesBatch(ctx context.Context, cusips []string) (map[string]float64, error)

	// GetBondReference retrieves the merged price and reference view
	// for one bond identifier
	GetBondReference(ctx context.Context, identifier string, idType BondIDType) (*models.BondReference, error)
}

// QuotesClient provides last-close quotes from a public source,
// used as a fallback when provider pricing is unavailable
type QuotesClient interface {
	// GetCurrentPrices retrieves last-close prices keyed by ticker;
	// tickers without a quote are absent from the map
	GetCurrentPrices(ctx context.Context, tickers []string) (map[string]float64, error)
}
