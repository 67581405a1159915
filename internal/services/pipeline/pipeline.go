// Package pipeline orchestrates the portfolio ETL: load, price
// enrichment, entity enrichment and graph statement generation
package pipeline

import (
	"context"

	"github.com/google/uuid"

	"github.com/portana/portgraph/internal/clients/factset"
	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/graph"
	"github.com/portana/portgraph/internal/interfaces"
	"github.com/portana/portgraph/internal/models"
	"github.com/portana/portgraph/internal/services/enrichment"
	"github.com/portana/portgraph/internal/services/loader"
)

const bondPriceBatchSize = 10

// EnrichmentResult is the read-only output of the entity enrichment
// stage, consumed by the graph build. Maps are keyed by security or
// provider identity so the same issuer enriches once.
type EnrichmentResult struct {
	Stocks     map[string]*models.Stock
	Bonds      map[string]*models.Bond
	Companies  map[string]*models.Company
	Countries  map[string]*models.Country
	Executives map[string]*models.Executive

	// SecurityLinks pairs each position with its security node.
	SecurityLinks map[graph.PositionKey]graph.SecurityRef
	// IssuedBy pairs each security node with its issuing company.
	IssuedBy []graph.IssuedByLink
	// CompanyCountries maps company FIBO id to headquarters ISO code.
	CompanyCountries map[string]string
	// CompanyCEOs maps executive FIBO id to company FIBO id.
	CompanyCEOs map[string]string
	// Relationships holds ownership edges from entity structures.
	Relationships []models.Relationship
}

// Pipeline runs the four-stage ETL. Only the load stage is fatal;
// everything after degrades per position and reports through Stats.
type Pipeline struct {
	factset interfaces.FactSetClient
	quotes  interfaces.QuotesClient
	loader  *loader.Loader
	builder *graph.Builder
	logger  *common.Logger

	companies     *enrichment.CompanyEnricher
	bonds         *enrichment.BondEnricher
	relationships *enrichment.RelationshipEnricher

	stats *Stats
}

// New creates a pipeline. The quotes client is optional; without it
// equities missing a provider price simply stay unpriced.
func New(fs interfaces.FactSetClient, quotes interfaces.QuotesClient, ldr *loader.Loader, builder *graph.Builder, logger *common.Logger) *Pipeline {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if ldr == nil {
		ldr = loader.NewLoader(logger)
	}
	if builder == nil {
		builder = graph.NewBuilder(logger)
	}
	return &Pipeline{
		factset:       fs,
		quotes:        quotes,
		loader:        ldr,
		builder:       builder,
		logger:        logger,
		companies:     enrichment.NewCompanyEnricher(fs, logger),
		bonds:         enrichment.NewBondEnricher(fs, logger),
		relationships: enrichment.NewRelationshipEnricher(fs, logger),
		stats:         &Stats{},
	}
}

// Stats returns the counters accumulated so far.
func (p *Pipeline) Stats() *Stats {
	return p.stats
}

// Reset clears counters and accumulated graph statements so the
// pipeline can run again.
func (p *Pipeline) Reset() {
	p.stats = &Stats{}
	p.builder.Clear()
}

// Execute runs the full ETL for one portfolio file. A load failure
// aborts with a StageError; later stages record failures into Stats
// and keep going. The returned statements are nodes first, then
// relationships.
func (p *Pipeline) Execute(ctx context.Context, path, name string) (*models.Portfolio, []graph.Statement, *Stats, error) {
	runID := uuid.NewString()
	log := p.logger.With().Str("run_id", runID).Logger()
	log.Info().Str("path", path).Msg("pipeline started")

	portfolio, err := p.loader.Load(path, name)
	if err != nil {
		p.stats.AddError("failed to load portfolio: %v", err)
		return nil, nil, p.stats, &StageError{Stage: "load", Err: err}
	}
	p.stats.PortfoliosLoaded = 1
	p.stats.PositionsLoaded = len(portfolio.Positions)
	portfolio.CalculateWeights()

	p.EnrichPrices(ctx, portfolio)

	result := p.EnrichPositions(ctx, portfolio.Positions)

	statements := p.BuildGraph(portfolio, result)

	log.Info().
		Int("positions", p.stats.PositionsLoaded).
		Int("nodes", p.stats.GraphNodesCreated).
		Int("relationships", p.stats.GraphRelationshipsCreated).
		Int("errors", len(p.stats.Errors)).
		Msg("pipeline complete")

	return portfolio, statements, p.stats, nil
}

// EnrichPrices fills market values from last-close prices, best
// effort. Equities are fetched in one provider batch with a public
// quote fallback; bonds go in CUSIP batches with per-identifier
// fallback, then ISIN by ISIN. Weights are recomputed regardless of
// partial failure.
func (p *Pipeline) EnrichPrices(ctx context.Context, portfolio *models.Portfolio) {
	prices := make(map[string]float64)

	var tickers []string
	var cusipPositions, isinPositions []*models.Position
	for _, pos := range portfolio.Positions {
		switch {
		case pos.Ticker != "":
			tickers = append(tickers, pos.Ticker)
		case pos.CUSIP != "":
			cusipPositions = append(cusipPositions, pos)
		case pos.ISIN != "":
			isinPositions = append(isinPositions, pos)
		}
	}

	if len(tickers) > 0 {
		p.enrichEquityPrices(ctx, tickers, prices)
	}
	if len(cusipPositions) > 0 {
		p.enrichBondPricesByCUSIP(ctx, cusipPositions, prices)
	}
	for _, pos := range isinPositions {
		p.enrichBondPrice(ctx, pos.ISIN, interfaces.BondIDISIN, prices)
	}

	updated := 0
	for _, pos := range portfolio.Positions {
		key := pos.Ticker
		if key == "" {
			_, key = pos.PrimaryIdentifier()
		}
		if price, ok := prices[key]; ok {
			pos.SetMarketValue(pos.Quantity * price)
			updated++
		}
	}

	portfolio.CalculateWeights()
	p.logger.Info().Int("priced", updated).Int("positions", len(portfolio.Positions)).Msg("price enrichment complete")
}

func (p *Pipeline) enrichEquityPrices(ctx context.Context, tickers []string, prices map[string]float64) {
	dates := make(map[string]string)

	items, err := p.factset.GetLastClosePrices(ctx, tickers)
	if err != nil {
		p.logger.Warn().Err(err).Msg("equity price fetch failed")
		p.stats.AddError("equity price enrichment failed: %v", err)
	}
	for _, item := range items {
		if item.RequestID == "" || item.Price == nil {
			continue
		}
		if prev, ok := dates[item.RequestID]; ok && item.Date <= prev {
			continue
		}
		dates[item.RequestID] = item.Date
		prices[item.RequestID] = *item.Price
	}

	if p.quotes == nil {
		return
	}
	var missing []string
	for _, ticker := range tickers {
		if _, ok := prices[ticker]; !ok {
			missing = append(missing, ticker)
		}
	}
	if len(missing) == 0 {
		return
	}

	p.logger.Info().Int("tickers", len(missing)).Msg("falling back to public quotes")
	fallback, err := p.quotes.GetCurrentPrices(ctx, missing)
	if err != nil {
		p.logger.Warn().Err(err).Msg("quote fallback failed")
		p.stats.AddError("quote fallback failed: %v", err)
		return
	}
	for ticker, price := range fallback {
		prices[ticker] = price
	}
}

func (p *Pipeline) enrichBondPricesByCUSIP(ctx context.Context, positions []*models.Position, prices map[string]float64) {
	for start := 0; start < len(positions); start += bondPriceBatchSize {
		end := start + bondPriceBatchSize
		if end > len(positions) {
			end = len(positions)
		}
		batch := positions[start:end]
		cusips := make([]string, len(batch))
		for i, pos := range batch {
			cusips[i] = pos.CUSIP
		}

		batchPrices, err := p.factset.GetBondPricesBatch(ctx, cusips)
		if err != nil {
			p.logger.Warn().Err(err).Msg("bond price batch failed, falling back to per-identifier lookups")
			for _, cusip := range cusips {
				p.enrichBondPrice(ctx, cusip, interfaces.BondIDCUSIP, prices)
			}
			continue
		}
		for cusip, price := range batchPrices {
			prices[cusip] = price
		}
	}
}

func (p *Pipeline) enrichBondPrice(ctx context.Context, identifier string, idType interfaces.BondIDType, prices map[string]float64) {
	items, err := p.factset.GetBondPrices(ctx, []string{identifier}, idType)
	if err != nil {
		p.logger.Debug().Err(err).Str("identifier", identifier).Msg("bond price lookup failed")
		return
	}
	for _, item := range items {
		if item.Price != nil {
			prices[identifier] = *item.Price
			return
		}
	}
}

// EnrichPositions routes each position to equity or fixed-income
// enrichment and accumulates the resulting entities. Every position is
// attempted; a failure is counted and recorded against that position
// alone and the loop continues.
func (p *Pipeline) EnrichPositions(ctx context.Context, positions []*models.Position) *EnrichmentResult {
	result := &EnrichmentResult{
		Stocks:           make(map[string]*models.Stock),
		Bonds:            make(map[string]*models.Bond),
		Companies:        make(map[string]*models.Company),
		Countries:        make(map[string]*models.Country),
		Executives:       make(map[string]*models.Executive),
		SecurityLinks:    make(map[graph.PositionKey]graph.SecurityRef),
		CompanyCountries: make(map[string]string),
		CompanyCEOs:      make(map[string]string),
	}

	for _, pos := range positions {
		route, err := enrichment.RouteFor(pos)
		if err != nil {
			p.stats.AddError("unroutable position: %v", err)
			continue
		}

		switch route {
		case enrichment.RouteEquity:
			if err := p.enrichEquityPosition(ctx, pos, result); err != nil {
				p.stats.CompaniesFailed++
				p.stats.AddError("equity enrichment failed for %s: %v", pos.Ticker, err)
				if factset.IsCritical(err) {
					p.logger.Error().Err(err).Str("ticker", pos.Ticker).Msg("critical provider failure")
				}
			}
		case enrichment.RouteFixedIncome:
			if err := p.enrichBondPosition(ctx, pos, result); err != nil {
				p.stats.BondsFailed++
				_, id := pos.PrimaryIdentifier()
				p.stats.AddError("bond enrichment failed for %s: %v", id, err)
				if factset.IsCritical(err) {
					p.logger.Error().Err(err).Str("identifier", id).Msg("critical provider failure")
				}
			}
		}
	}

	p.logger.Info().
		Int("stocks", p.stats.StocksEnriched).
		Int("bonds", p.stats.BondsEnriched).
		Int("companies", p.stats.CompaniesEnriched).
		Int("company_failures", p.stats.CompaniesFailed).
		Int("bond_failures", p.stats.BondsFailed).
		Msg("entity enrichment complete")

	return result
}

func (p *Pipeline) enrichEquityPosition(ctx context.Context, pos *models.Position, result *EnrichmentResult) error {
	company, cusip, err := p.companies.EnrichCompany(ctx, pos.Ticker)
	if err != nil {
		return err
	}
	if company == nil {
		// Not found: counted as a failure, never as an error.
		p.stats.CompaniesFailed++
		return nil
	}

	if _, seen := result.Companies[company.FIBOID]; !seen {
		result.Companies[company.FIBOID] = company
		p.stats.CompaniesEnriched++
	}

	stock := &models.Stock{
		FIBOID:       models.StockFIBOID(pos.Ticker),
		Ticker:       pos.Ticker,
		SecurityType: pos.SecurityType,
		ISIN:         pos.ISIN,
		CUSIP:        pos.CUSIP,
	}
	if stock.CUSIP == "" {
		stock.CUSIP = cusip
	}
	if _, seen := result.Stocks[stock.FIBOID]; !seen {
		result.Stocks[stock.FIBOID] = stock
		p.stats.StocksEnriched++
		result.IssuedBy = append(result.IssuedBy, graph.IssuedByLink{
			Security:      graph.SecurityRef{Kind: graph.TableStock, FIBOID: stock.FIBOID},
			CompanyFIBOID: company.FIBOID,
		})
	}
	result.SecurityLinks[graph.KeyForPosition(pos)] = graph.SecurityRef{Kind: graph.TableStock, FIBOID: stock.FIBOID}

	executives, err := p.companies.EnrichExecutives(ctx, company.FactSetID)
	if err != nil {
		p.logger.Warn().Err(err).Str("ticker", pos.Ticker).Msg("executive enrichment failed")
		if factset.IsCritical(err) {
			return err
		}
	}
	for _, exec := range executives {
		if _, seen := result.Executives[exec.FIBOID]; seen {
			continue
		}
		result.Executives[exec.FIBOID] = exec
		p.stats.ExecutivesEnriched++
	}
	if ceo := p.companies.GetCEO(executives); ceo != nil {
		result.CompanyCEOs[ceo.FIBOID] = company.FIBOID
	}

	if country := p.relationships.EnrichGeography(company.FactSetID, company.Country); country != nil {
		if _, seen := result.Countries[country.ISOCode]; !seen {
			result.Countries[country.ISOCode] = country
			p.stats.CountriesEnriched++
		}
		result.CompanyCountries[company.FIBOID] = country.ISOCode
	}

	subsidiaries, err := p.relationships.EnrichSubsidiaries(ctx, company.FactSetID)
	if err != nil {
		p.logger.Warn().Err(err).Str("ticker", pos.Ticker).Msg("subsidiary enrichment failed")
		if factset.IsCritical(err) {
			return err
		}
	}
	result.Relationships = append(result.Relationships, subsidiaries...)

	return nil
}

func (p *Pipeline) enrichBondPosition(ctx context.Context, pos *models.Position, result *EnrichmentResult) error {
	bond, err := p.bonds.EnrichBond(ctx, pos.CUSIP, pos.ISIN)
	if err != nil {
		return err
	}

	_, primaryID := pos.PrimaryIdentifier()
	if _, seen := result.Bonds[primaryID]; !seen {
		result.Bonds[primaryID] = bond
		p.stats.BondsEnriched++
	}
	result.SecurityLinks[graph.KeyForPosition(pos)] = graph.SecurityRef{Kind: graph.TableBond, FIBOID: bond.FIBOID}

	// Issuer matching is by name, a best-effort heuristic; bonds whose
	// reference data names no issuer stay unlinked.
	if bond.Issuer == "" {
		return nil
	}
	issuer, err := p.bonds.ResolveIssuer(ctx, pos.CUSIP, pos.ISIN)
	if err != nil {
		return err
	}
	if issuer == nil {
		return nil
	}
	if _, seen := result.Companies[issuer.FIBOID]; !seen {
		result.Companies[issuer.FIBOID] = issuer
		p.stats.CompaniesEnriched++
	}
	result.IssuedBy = append(result.IssuedBy, graph.IssuedByLink{
		Security:      graph.SecurityRef{Kind: graph.TableBond, FIBOID: bond.FIBOID},
		CompanyFIBOID: issuer.FIBOID,
	})

	return nil
}

// BuildGraph converts the enrichment result into graph statements and
// updates the node/relationship counters.
func (p *Pipeline) BuildGraph(portfolio *models.Portfolio, result *EnrichmentResult) []graph.Statement {
	p.builder.AddPortfolioNode(portfolio)
	p.stats.GraphNodesCreated++

	p.builder.AddPositionNodes(portfolio.Positions, portfolio.Name)
	p.stats.GraphNodesCreated += len(portfolio.Positions)
	p.stats.GraphRelationshipsCreated += len(portfolio.Positions)

	p.builder.AddSecurityNodes(result.Stocks, result.Bonds)
	p.stats.GraphNodesCreated += len(result.Stocks) + len(result.Bonds)

	p.builder.AddCompanyNodes(result.Companies)
	p.stats.GraphNodesCreated += len(result.Companies)

	p.builder.AddCountryNodes(result.Countries)
	p.stats.GraphNodesCreated += len(result.Countries)

	p.builder.AddExecutiveNodes(result.Executives)
	p.stats.GraphNodesCreated += len(result.Executives)

	p.builder.AddInvestedInRelationships(result.SecurityLinks)
	p.stats.GraphRelationshipsCreated += len(result.SecurityLinks)

	p.builder.AddIssuedByRelationships(result.IssuedBy)
	p.stats.GraphRelationshipsCreated += len(result.IssuedBy)

	p.builder.AddHeadquarteredInRelationships(result.CompanyCountries)
	p.stats.GraphRelationshipsCreated += len(result.CompanyCountries)

	p.builder.AddCEOOfRelationships(result.CompanyCEOs)
	p.stats.GraphRelationshipsCreated += len(result.CompanyCEOs)

	p.builder.AddCompanyRelationships(result.Relationships)
	p.stats.GraphRelationshipsCreated += len(result.Relationships)

	statements := p.builder.AllStatements()
	p.logger.Info().
		Int("nodes", p.stats.GraphNodesCreated).
		Int("relationships", p.stats.GraphRelationshipsCreated).
		Int("statements", len(statements)).
		Msg("graph build complete")

	return statements
}
