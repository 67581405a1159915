package factset

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/portana/portgraph/internal/interfaces"
	"github.com/portana/portgraph/internal/models"
)

const pricesEndpoint = "/content/factset-global-prices/v1/prices"

// priceWindow returns a start/end range covering the last five days so
// a close is found across weekends and holidays.
func priceWindow() (string, string) {
	now := time.Now()
	return now.AddDate(0, 0, -5).Format("2006-01-02"), now.Format("2006-01-02")
}

// GetLastClosePrices retrieves daily close prices for equity tickers
// over the last five days. Callers pick the most recent row per ticker.
func (c *Client) GetLastClosePrices(ctx context.Context, tickers []string) ([]models.PriceItem, error) {
	start, end := priceWindow()
	body := map[string]any{
		"ids":       tickers,
		"frequency": "D",
		"startDate": start,
		"endDate":   end,
	}

	var resp dataEnvelope[models.PriceItem]
	if err := c.do(ctx, "POST", pricesEndpoint, nil, body, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("rows", len(resp.Data)).Int("tickers", len(tickers)).Msg("FactSet prices returned")
	return resp.Data, nil
}

// GetBondPrices retrieves daily close prices for bond identifiers of
// one type through the global prices endpoint, which accepts CUSIP and
// ISIN ids.
func (c *Client) GetBondPrices(ctx context.Context, identifiers []string, idType interfaces.BondIDType) ([]models.PriceItem, error) {
	if idType != interfaces.BondIDCUSIP && idType != interfaces.BondIDISIN {
		return nil, fmt.Errorf("invalid bond id type: %q", idType)
	}

	start, end := priceWindow()
	body := map[string]any{
		"ids":       identifiers,
		"idType":    string(idType),
		"frequency": "D",
		"startDate": start,
		"endDate":   end,
	}

	var resp dataEnvelope[models.PriceItem]
	if err := c.do(ctx, "POST", pricesEndpoint, nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// formulaRow is a formula-api time-series row.
type formulaRow struct {
	RequestID string   `json:"requestId"`
	Price     *float64 `json:"PRICE"`
}

// GetBondPricesBatch retrieves close prices for a CUSIP batch via the
// formula API. CUSIPs without a price are absent from the result.
func (c *Client) GetBondPricesBatch(ctx context.Context, cusips []string) (map[string]float64, error) {
	if len(cusips) == 0 {
		return nil, fmt.Errorf("at least one CUSIP identifier is required")
	}

	params := url.Values{}
	params.Set("ids", strings.Join(cusips, ","))
	params.Set("formulas", "price,P_PRICE(0)")
	params.Set("flatten", "Y")

	var resp dataEnvelope[formulaRow]
	if err := c.do(ctx, "GET", "/formula-api/v1/time-series", params, nil, &resp); err != nil {
		return nil, err
	}

	prices := make(map[string]float64, len(resp.Data))
	for _, row := range resp.Data {
		if row.RequestID == "" || row.Price == nil {
			continue
		}
		prices[row.RequestID] = *row.Price
	}

	c.logger.Debug().Int("priced", len(prices)).Int("requested", len(cusips)).Msg("formula API bond prices returned")
	return prices, nil
}
