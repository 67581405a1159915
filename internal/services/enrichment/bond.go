package enrichment

import (
	"context"
	"fmt"

	"github.com/portana/portgraph/internal/clients/factset"
	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/interfaces"
	"github.com/portana/portgraph/internal/models"
)

// BondEnricher resolves CUSIP/ISIN identifiers to bond entities and
// their issuers.
type BondEnricher struct {
	client interfaces.FactSetClient
	logger *common.Logger
}

// NewBondEnricher creates a bond enricher.
func NewBondEnricher(client interfaces.FactSetClient, logger *common.Logger) *BondEnricher {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &BondEnricher{client: client, logger: logger}
}

func bondIdentifier(cusip, isin string) (string, interfaces.BondIDType, error) {
	switch {
	case cusip != "":
		return cusip, interfaces.BondIDCUSIP, nil
	case isin != "":
		return isin, interfaces.BondIDISIN, nil
	default:
		return "", "", fmt.Errorf("bond enrichment requires a CUSIP or ISIN")
	}
}

// EnrichBond resolves reference data for a bond, preferring CUSIP over
// ISIN. When the provider has nothing the bond still comes back, with
// Resolved false and no market price; book value is never substituted
// for a missing price. Only critical provider failures propagate.
func (e *BondEnricher) EnrichBond(ctx context.Context, cusip, isin string) (*models.Bond, error) {
	identifier, idType, err := bondIdentifier(cusip, isin)
	if err != nil {
		return nil, err
	}

	bond := &models.Bond{
		FIBOID:       models.BondFIBOID(identifier),
		ISIN:         isin,
		CUSIP:        cusip,
		SecurityType: "Bond",
		Currency:     "USD",
	}

	ref, err := e.client.GetBondReference(ctx, identifier, idType)
	if err != nil {
		if factset.IsCritical(err) {
			return nil, err
		}
		e.logger.Warn().Err(err).
			Str("id_type", string(idType)).
			Str("identifier", identifier).
			Msg("bond reference unavailable, keeping unresolved bond")
		return bond, nil
	}

	if ref == nil || (ref.Price == nil && ref.Coupon == nil && ref.Issuer == "" && ref.MaturityDate == "") {
		e.logger.Warn().
			Str("id_type", string(idType)).
			Str("identifier", identifier).
			Msg("no bond reference data, keeping unresolved bond")
		return bond, nil
	}

	bond.Resolved = true
	bond.Coupon = ref.Coupon
	bond.MarketPrice = ref.Price
	bond.MaturityDate = ref.MaturityDate
	bond.Issuer = ref.Issuer
	if ref.Currency != "" {
		bond.Currency = ref.Currency
	}

	e.logger.Info().
		Str("id_type", string(idType)).
		Str("identifier", identifier).
		Str("issuer", bond.Issuer).
		Msg("bond enriched")

	return bond, nil
}

// ResolveIssuer builds a minimal company entity from the issuer name
// in bond reference data. The key is derived from the name, a weaker
// guarantee than the entity-id keys equities get. Returns nil when the
// provider reports no issuer.
func (e *BondEnricher) ResolveIssuer(ctx context.Context, cusip, isin string) (*models.Company, error) {
	identifier, idType, err := bondIdentifier(cusip, isin)
	if err != nil {
		return nil, err
	}

	ref, err := e.client.GetBondReference(ctx, identifier, idType)
	if err != nil {
		if factset.IsCritical(err) {
			return nil, err
		}
		e.logger.Warn().Err(err).Str("identifier", identifier).Msg("issuer lookup failed")
		return nil, nil
	}

	if ref == nil || ref.Issuer == "" {
		e.logger.Warn().Str("identifier", identifier).Msg("no issuer on bond reference")
		return nil, nil
	}

	return &models.Company{
		FIBOID: models.IssuerCompanyFIBOID(ref.Issuer),
		Name:   ref.Issuer,
	}, nil
}
