package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portana/portgraph/internal/clients/factset"
	"github.com/portana/portgraph/internal/interfaces"
	"github.com/portana/portgraph/internal/models"
)

type fakeFactSet struct {
	profileFor    map[string]models.CompanyProfile
	profilesErr   error
	officers      []models.Officer
	structure     []models.EntityStructureItem
	lastClose     []models.PriceItem
	lastCloseErr  error
	bondPriceByID map[string]float64
	batchPrices   map[string]float64
	batchErr      error
	bondRefs      map[string]*models.BondReference
	bondRefErr    error

	profileCalls    int
	perIDPriceCalls int
}

func (f *fakeFactSet) GetCompanyProfiles(ctx context.Context, tickers []string) ([]models.CompanyProfile, error) {
	f.profileCalls++
	if f.profilesErr != nil {
		return nil, f.profilesErr
	}
	var out []models.CompanyProfile
	for _, t := range tickers {
		if profile, ok := f.profileFor[t]; ok {
			out = append(out, profile)
		}
	}
	return out, nil
}

func (f *fakeFactSet) GetCompanyOfficers(ctx context.Context, entityIDs []string) ([]models.Officer, error) {
	return f.officers, nil
}

func (f *fakeFactSet) GetEntityStructure(ctx context.Context, entityIDs []string) ([]models.EntityStructureItem, error) {
	return f.structure, nil
}

func (f *fakeFactSet) GetLastClosePrices(ctx context.Context, tickers []string) ([]models.PriceItem, error) {
	return f.lastClose, f.lastCloseErr
}

func (f *fakeFactSet) GetBondPrices(ctx context.Context, identifiers []string, idType interfaces.BondIDType) ([]models.PriceItem, error) {
	f.perIDPriceCalls++
	var out []models.PriceItem
	for _, id := range identifiers {
		if price, ok := f.bondPriceByID[id]; ok {
			p := price
			out = append(out, models.PriceItem{RequestID: id, Price: &p})
		}
	}
	return out, nil
}

func (f *fakeFactSet) GetBondPricesBatch(ctx context.Context, cusips []string) (map[string]float64, error) {
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	return f.batchPrices, nil
}

func (f *fakeFactSet) GetBondReference(ctx context.Context, identifier string, idType interfaces.BondIDType) (*models.BondReference, error) {
	if f.bondRefErr != nil {
		return nil, f.bondRefErr
	}
	return f.bondRefs[identifier], nil
}

var _ interfaces.FactSetClient = (*fakeFactSet)(nil)

type fakeQuotes struct {
	prices map[string]float64
	calls  int
}

func (f *fakeQuotes) GetCurrentPrices(ctx context.Context, tickers []string) (map[string]float64, error) {
	f.calls++
	return f.prices, nil
}

var _ interfaces.QuotesClient = (*fakeQuotes)(nil)

func floatPtr(v float64) *float64 { return &v }

func writePortfolioCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "holdings.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const mixedCSV = `ticker,quantity,book_value,security_type,isin,cusip
AAPL-US,100,19000.00,Common Stock,,
,500,50000.00,Corporate Bond,US037833AA56,037833AA5
`

func newMixedFakeClient() *fakeFactSet {
	return &fakeFactSet{
		profileFor: map[string]models.CompanyProfile{
			"AAPL-US": {
				FsymID:   "000C7F-E",
				Name:     "Apple Inc.",
				Sector:   "Information Technology",
				Industry: "Consumer Electronics",
				CUSIP:    "037833100",
				Address:  &models.ProfileAddress{Country: "United States"},
			},
		},
		officers: []models.Officer{
			{Name: "Tim Cook", Title: "Chief Executive Officer"},
			{Name: "Luca Maestri", Title: "Chief Financial Officer"},
		},
		structure: []models.EntityStructureItem{
			{EntityID: "CHILD-1", ParentID: "000C7F-E", EntityName: "Apple Ireland", ParentName: "Apple Inc.", OwnershipPercentage: floatPtr(100)},
		},
		lastClose: []models.PriceItem{
			{RequestID: "AAPL-US", Price: floatPtr(230.0), Date: "2026-08-20"},
			{RequestID: "AAPL-US", Price: floatPtr(232.5), Date: "2026-08-21"},
		},
		batchPrices: map[string]float64{"037833AA5": 98.5},
		bondRefs: map[string]*models.BondReference{
			"037833AA5": {
				Price:        floatPtr(98.5),
				Coupon:       floatPtr(4.25),
				Currency:     "USD",
				MaturityDate: "2032-05-01",
				Issuer:       "Apple Inc.",
			},
		},
	}
}

func TestExecute_MixedPortfolio(t *testing.T) {
	client := newMixedFakeClient()
	p := New(client, nil, nil, nil, nil)

	path := writePortfolioCSV(t, mixedCSV)
	portfolio, statements, stats, err := p.Execute(context.Background(), path, "mixed")
	require.NoError(t, err)
	require.NotNil(t, portfolio)

	assert.Equal(t, 1, stats.PortfoliosLoaded)
	assert.Equal(t, 2, stats.PositionsLoaded)
	assert.Equal(t, 1, stats.StocksEnriched)
	assert.Equal(t, 1, stats.BondsEnriched)
	// The equity issuer plus the bond issuer resolved by name.
	assert.Equal(t, 2, stats.CompaniesEnriched)
	assert.Equal(t, 2, stats.ExecutivesEnriched)
	assert.Equal(t, 1, stats.CountriesEnriched)
	assert.Zero(t, stats.CompaniesFailed)
	assert.Zero(t, stats.BondsFailed)
	assert.Empty(t, stats.Errors)

	// The latest provider close wins: 100 * 232.5.
	stock := portfolio.Positions[0]
	require.NotNil(t, stock.MarketValue)
	assert.Equal(t, 23250.0, *stock.MarketValue)

	bond := portfolio.Positions[1]
	require.NotNil(t, bond.MarketValue)
	assert.Equal(t, 500*98.5, *bond.MarketValue)

	// Weights recomputed on the market basis after pricing.
	total := 23250.0 + 500*98.5
	assert.InDelta(t, 23250.0/total*100, stock.Weight, 1e-6)

	require.NotEmpty(t, statements)
	assert.True(t, stats.GraphNodesCreated > 0)
	assert.True(t, stats.GraphRelationshipsCreated > 0)

	// Node statements come before any RELATE.
	firstRelate := -1
	lastNode := -1
	for i, st := range statements {
		if strings.Contains(st.Query, "RELATE") {
			if firstRelate == -1 {
				firstRelate = i
			}
		} else {
			lastNode = i
		}
	}
	require.NotEqual(t, -1, firstRelate)
	assert.Less(t, lastNode, firstRelate)
}

func TestExecute_LoadFailureIsFatal(t *testing.T) {
	p := New(newMixedFakeClient(), nil, nil, nil, nil)

	_, statements, stats, err := p.Execute(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "")
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, "load", stageErr.Stage)
	assert.Nil(t, statements)
	assert.Len(t, stats.Errors, 1)
}

func TestExecute_CompanyNotFoundIsNotAnError(t *testing.T) {
	client := newMixedFakeClient()
	delete(client.profileFor, "AAPL-US")

	p := New(client, nil, nil, nil, nil)
	path := writePortfolioCSV(t, mixedCSV)

	portfolio, _, stats, err := p.Execute(context.Background(), path, "")
	require.NoError(t, err)

	// All positions survive; the miss is a counter, not an error.
	assert.Len(t, portfolio.Positions, 2)
	assert.Equal(t, 1, stats.CompaniesFailed)
	assert.Zero(t, stats.StocksEnriched)
	assert.Empty(t, stats.Errors)
}

func TestEnrichPositions_EveryFailureAttemptedAndRecorded(t *testing.T) {
	client := newMixedFakeClient()
	client.profilesErr = &factset.AuthError{Endpoint: "/profile"}

	p := New(client, nil, nil, nil, nil)
	positions := []*models.Position{
		{Ticker: "AAPL-US", Quantity: 100, BookValue: 19000},
		{Ticker: "MSFT-US", Quantity: 50, BookValue: 21000},
		{Ticker: "NVDA-US", Quantity: 20, BookValue: 9000},
	}

	result := p.EnrichPositions(context.Background(), positions)

	// A critical failure aborts that position only; every position is
	// still attempted and leaves its own error.
	assert.Equal(t, 3, client.profileCalls)
	assert.Equal(t, 3, p.Stats().CompaniesFailed)
	require.Len(t, p.Stats().Errors, 3)
	for i, ticker := range []string{"AAPL-US", "MSFT-US", "NVDA-US"} {
		assert.Contains(t, p.Stats().Errors[i], ticker)
	}
	assert.Empty(t, result.Companies)
}

func TestEnrichPrices_BondBatchFallsBackPerIdentifier(t *testing.T) {
	client := newMixedFakeClient()
	client.batchErr = &factset.APIError{StatusCode: 502, Endpoint: "/formula-api"}
	client.bondPriceByID = map[string]float64{"037833AA5": 97.0}

	p := New(client, nil, nil, nil, nil)
	portfolio := models.NewPortfolio("p")
	portfolio.AddPosition(&models.Position{CUSIP: "037833AA5", Quantity: 500, BookValue: 50000, SecurityType: "Corporate Bond"})

	p.EnrichPrices(context.Background(), portfolio)

	require.NotNil(t, portfolio.Positions[0].MarketValue)
	assert.Equal(t, 500*97.0, *portfolio.Positions[0].MarketValue)
	assert.Equal(t, 1, client.perIDPriceCalls)
}

func TestEnrichPrices_QuoteFallbackForUnpricedEquities(t *testing.T) {
	client := newMixedFakeClient()
	client.lastClose = nil
	quotes := &fakeQuotes{prices: map[string]float64{"AAPL-US": 231.0}}

	p := New(client, quotes, nil, nil, nil)
	portfolio := models.NewPortfolio("p")
	portfolio.AddPosition(&models.Position{Ticker: "AAPL-US", Quantity: 10, BookValue: 1900})

	p.EnrichPrices(context.Background(), portfolio)

	assert.Equal(t, 1, quotes.calls)
	require.NotNil(t, portfolio.Positions[0].MarketValue)
	assert.Equal(t, 2310.0, *portfolio.Positions[0].MarketValue)
}

func TestEnrichPrices_UnpricedBondKeepsNoMarketValue(t *testing.T) {
	client := newMixedFakeClient()
	client.batchPrices = nil

	p := New(client, nil, nil, nil, nil)
	portfolio := models.NewPortfolio("p")
	portfolio.AddPosition(&models.Position{CUSIP: "912828Z77", Quantity: 300, BookValue: 30000, SecurityType: "Treasury Bond"})

	p.EnrichPrices(context.Background(), portfolio)

	// Book value is never substituted for a missing market price.
	assert.Nil(t, portfolio.Positions[0].MarketValue)
}

func TestReset(t *testing.T) {
	client := newMixedFakeClient()
	p := New(client, nil, nil, nil, nil)

	path := writePortfolioCSV(t, mixedCSV)
	_, statements, _, err := p.Execute(context.Background(), path, "")
	require.NoError(t, err)
	require.NotEmpty(t, statements)

	p.Reset()
	assert.Zero(t, p.Stats().PositionsLoaded)

	_, statements2, stats2, err := p.Execute(context.Background(), path, "")
	require.NoError(t, err)
	// A fresh run produces a fresh batch, not an accumulation.
	assert.Len(t, statements2, len(statements))
	assert.Equal(t, 2, stats2.PositionsLoaded)
}
