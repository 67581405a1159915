package enrichment

import (
	"context"
	"strings"

	"github.com/portana/portgraph/internal/clients/factset"
	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/interfaces"
	"github.com/portana/portgraph/internal/models"
)

// CompanyEnricher resolves tickers to company entities and their
// executives.
type CompanyEnricher struct {
	client interfaces.FactSetClient
	logger *common.Logger
}

// NewCompanyEnricher creates a company enricher.
func NewCompanyEnricher(client interfaces.FactSetClient, logger *common.Logger) *CompanyEnricher {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &CompanyEnricher{client: client, logger: logger}
}

// EnrichCompany resolves a ticker to a company entity via the profile
// endpoint, which also yields the FactSet entity id and, when present,
// the security CUSIP. Not-found conditions return a nil company, not
// an error; only critical provider failures propagate.
func (e *CompanyEnricher) EnrichCompany(ctx context.Context, ticker string) (*models.Company, string, error) {
	profiles, err := e.client.GetCompanyProfiles(ctx, []string{ticker})
	if err != nil {
		if factset.IsNotFound(err) {
			e.logger.Warn().Str("ticker", ticker).Msg("company profile not found")
			return nil, "", nil
		}
		return nil, "", err
	}

	if len(profiles) == 0 {
		e.logger.Warn().Str("ticker", ticker).Msg("empty profile response")
		return nil, "", nil
	}

	profile := profiles[0]
	if profile.FsymID == "" {
		e.logger.Warn().Str("ticker", ticker).Msg("profile carries no entity id")
		return nil, "", nil
	}

	country := ""
	if profile.Address != nil {
		country = profile.Address.Country
	}

	company := &models.Company{
		FIBOID:    models.CompanyFIBOID(profile.FsymID),
		FactSetID: profile.FsymID,
		Name:      profile.Name,
		Ticker:    ticker,
		Sector:    profile.Sector,
		Industry:  profile.Industry,
		MarketCap: profile.MarketCap,
		Country:   country,
	}

	e.logger.Info().
		Str("ticker", ticker).
		Str("entity_id", profile.FsymID).
		Str("sector", company.Sector).
		Str("country", company.Country).
		Msg("company enriched")

	return company, profile.CUSIP, nil
}

// EnrichExecutives retrieves the officers of an entity. Officers
// without a name are dropped.
func (e *CompanyEnricher) EnrichExecutives(ctx context.Context, entityID string) ([]*models.Executive, error) {
	officers, err := e.client.GetCompanyOfficers(ctx, []string{entityID})
	if err != nil {
		if factset.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	executives := make([]*models.Executive, 0, len(officers))
	for _, officer := range officers {
		if officer.Name == "" {
			continue
		}
		executives = append(executives, &models.Executive{
			FIBOID:    models.PersonFIBOID(entityID, officer.Name),
			Name:      officer.Name,
			Title:     officer.Title,
			StartDate: officer.StartDate,
		})
	}

	e.logger.Debug().Str("entity_id", entityID).Int("executives", len(executives)).Msg("executives enriched")
	return executives, nil
}

// GetCEO returns the first executive whose title marks them as chief
// executive, or nil when the company has none on record.
func (e *CompanyEnricher) GetCEO(executives []*models.Executive) *models.Executive {
	for _, exec := range executives {
		if strings.Contains(strings.ToLower(exec.Title), "chief executive") {
			return exec
		}
	}
	return nil
}
