package factset

import (
	"context"
	"fmt"
	"sort"

	"github.com/portana/portgraph/internal/interfaces"
	"github.com/portana/portgraph/internal/models"
)

// bondDetailRow is a fixed-income reference row.
type bondDetailRow struct {
	Coupon       *float64 `json:"coupon"`
	Currency     string   `json:"currency"`
	MaturityDate string   `json:"maturityDate"`
	Issuer       string   `json:"issuer"`
}

// GetBondReference retrieves the merged price and reference view for
// one bond identifier. Each half is best-effort: a missing half leaves
// its fields empty, while critical failures propagate.
func (c *Client) GetBondReference(ctx context.Context, identifier string, idType interfaces.BondIDType) (*models.BondReference, error) {
	if idType != interfaces.BondIDCUSIP && idType != interfaces.BondIDISIN {
		return nil, fmt.Errorf("invalid bond id type: %q", idType)
	}

	ref := &models.BondReference{RequestID: identifier}

	var detail dataEnvelope[bondDetailRow]
	body := map[string]any{"ids": []string{identifier}, "idType": string(idType)}
	err := c.do(ctx, "POST", "/content/factset-fixed-income/v1/bond-details", nil, body, &detail)
	switch {
	case err == nil && len(detail.Data) > 0:
		row := detail.Data[0]
		ref.Coupon = row.Coupon
		ref.Currency = row.Currency
		ref.MaturityDate = row.MaturityDate
		ref.Issuer = row.Issuer
	case err != nil && IsCritical(err):
		return nil, err
	case err != nil && !IsNotFound(err):
		c.logger.Debug().Err(err).Str("identifier", identifier).Msg("bond reference data unavailable, using prices only")
	}

	rows, err := c.GetBondPrices(ctx, []string{identifier}, idType)
	switch {
	case err == nil:
		if latest := latestPrice(rows); latest != nil {
			ref.Price = latest.Price
			if ref.Currency == "" {
				ref.Currency = latest.Currency
			}
		}
	case IsCritical(err):
		return nil, err
	case !IsNotFound(err):
		c.logger.Debug().Err(err).Str("identifier", identifier).Msg("bond price data unavailable")
	}

	return ref, nil
}

// latestPrice picks the most recent priced row.
func latestPrice(rows []models.PriceItem) *models.PriceItem {
	priced := make([]models.PriceItem, 0, len(rows))
	for _, row := range rows {
		if row.Price != nil {
			priced = append(priced, row)
		}
	}
	if len(priced) == 0 {
		return nil
	}
	sort.Slice(priced, func(i, j int) bool { return priced[i].Date > priced[j].Date })
	return &priced[0]
}
