package factset

import (
	"context"
	"net/url"
	"strings"

	"github.com/portana/portgraph/internal/models"
)

// GetCompanyProfiles retrieves company profile rows for tickers. The
// profile endpoint accepts tickers directly and returns the resolved
// fsymId, so no separate symbology call is needed.
func (c *Client) GetCompanyProfiles(ctx context.Context, tickers []string) ([]models.CompanyProfile, error) {
	params := url.Values{}
	params.Set("ids", strings.Join(tickers, ","))

	var resp dataEnvelope[models.CompanyProfile]
	if err := c.do(ctx, "GET", "/content/factset-fundamentals/v2/company-reports/profile", params, nil, &resp); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("profiles", len(resp.Data)).Msg("FactSet company profiles returned")
	return resp.Data, nil
}

// GetCompanyOfficers retrieves officers for entity ids via the people
// profiles endpoint.
func (c *Client) GetCompanyOfficers(ctx context.Context, entityIDs []string) ([]models.Officer, error) {
	var resp dataEnvelope[models.Officer]
	body := map[string]any{"ids": entityIDs}
	if err := c.do(ctx, "POST", "/content/factset-people/v1/profiles", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// GetEntityStructure retrieves parent/subsidiary links for entity ids.
func (c *Client) GetEntityStructure(ctx context.Context, entityIDs []string) ([]models.EntityStructureItem, error) {
	var resp dataEnvelope[models.EntityStructureItem]
	body := map[string]any{"ids": entityIDs}
	if err := c.do(ctx, "POST", "/content/factset-entity/v1/entity-structures", nil, body, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
