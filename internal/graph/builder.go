package graph

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/models"
)

// PositionKey identifies a position within one import for linking it
// to the security node built for it. Ticker is empty for identifier-only
// positions.
type PositionKey struct {
	Ticker    string
	Quantity  float64
	BookValue float64
}

// KeyForPosition derives the linking key for a position.
func KeyForPosition(pos *models.Position) PositionKey {
	return PositionKey{
		Ticker:    pos.Ticker,
		Quantity:  pos.Quantity,
		BookValue: pos.BookValue,
	}
}

// SecurityRef points at a stock or bond node.
type SecurityRef struct {
	Kind   string // TableStock or TableBond
	FIBOID string
}

// IssuedByLink connects a security node to its issuing company.
type IssuedByLink struct {
	Security      SecurityRef
	CompanyFIBOID string
}

var propNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Builder accumulates graph statements for one import. Node statements
// are executed as a batch before relationship statements so every
// RELATE finds its endpoints.
type Builder struct {
	logger         *common.Logger
	nodeStatements []Statement
	relStatements  []Statement
	positionIDs    map[PositionKey]string
}

// NewBuilder creates an empty builder.
func NewBuilder(logger *common.Logger) *Builder {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Builder{
		logger:      logger,
		positionIDs: make(map[PositionKey]string),
	}
}

// Clear drops all accumulated statements and position links.
func (b *Builder) Clear() {
	b.nodeStatements = nil
	b.relStatements = nil
	b.positionIDs = make(map[PositionKey]string)
}

// AddPortfolioNode merges the portfolio node, keyed by name.
func (b *Builder) AddPortfolioNode(portfolio *models.Portfolio) {
	createdAt := portfolio.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	b.nodeStatements = append(b.nodeStatements, upsertStatement(TablePortfolio, portfolio.Name, []prop{
		{"name", portfolio.Name},
		{"created_at", createdAt.Format(time.RFC3339)},
		{"total_value", portfolio.TotalValue},
	}))
	b.logger.Debug().Str("portfolio", portfolio.Name).Msg("added portfolio node")
}

// AddPositionNodes creates position nodes and their CONTAINS edges.
// Positions are unique per import, so they are created, never merged.
func (b *Builder) AddPositionNodes(positions []*models.Position, portfolioName string) {
	for _, pos := range positions {
		id := uuid.NewString()
		b.positionIDs[KeyForPosition(pos)] = id

		data := map[string]any{
			"quantity":      pos.Quantity,
			"book_value":    pos.BookValue,
			"security_type": pos.SecurityType,
			"weight":        pos.Weight,
		}
		if pos.Ticker != "" {
			data["ticker"] = pos.Ticker
		}
		if pos.ISIN != "" {
			data["isin"] = pos.ISIN
		}
		if pos.CUSIP != "" {
			data["cusip"] = pos.CUSIP
		}
		if pos.MarketValue != nil {
			data["market_value"] = *pos.MarketValue
		}
		if pos.PurchaseDate != "" {
			data["purchase_date"] = pos.PurchaseDate
		}

		b.nodeStatements = append(b.nodeStatements, Statement{
			Query: "CREATE type::thing('position', $id) CONTENT $data;",
			Vars:  map[string]any{"id": id, "data": data},
		})

		b.relStatements = append(b.relStatements, Statement{
			Query: "RELATE type::thing('portfolio', $portfolio)->contains->type::thing('position', $id) SET weight = $weight;",
			Vars:  map[string]any{"portfolio": portfolioName, "id": id, "weight": pos.Weight},
		})
	}
	b.logger.Debug().Int("count", len(positions)).Msg("added position nodes")
}

// AddCompanyNodes merges company nodes keyed by FIBO id.
func (b *Builder) AddCompanyNodes(companies map[string]*models.Company) {
	for _, key := range sortedKeys(companies) {
		company := companies[key]
		props := []prop{
			{"fibo_id", company.FIBOID},
			{"name", company.Name},
		}
		if company.Ticker != "" {
			props = append(props, prop{"ticker", company.Ticker})
		}
		if company.FactSetID != "" {
			props = append(props, prop{"factset_id", company.FactSetID})
		}
		props = append(props, prop{"market_cap", company.MarketCap})
		if company.Sector != "" {
			props = append(props, prop{"sector", company.Sector})
		}
		if company.Industry != "" {
			props = append(props, prop{"industry", company.Industry})
		}
		if company.Country != "" {
			props = append(props, prop{"country", company.Country})
		}
		b.nodeStatements = append(b.nodeStatements, upsertStatement(TableCompany, company.FIBOID, props))
	}
	b.logger.Debug().Int("count", len(companies)).Msg("added company nodes")
}

// AddCountryNodes merges country nodes keyed by ISO code.
func (b *Builder) AddCountryNodes(countries map[string]*models.Country) {
	for _, key := range sortedKeys(countries) {
		country := countries[key]
		props := []prop{
			{"fibo_id", country.FIBOID},
			{"name", country.Name},
			{"iso_code", country.ISOCode},
		}
		if country.Region != "" {
			props = append(props, prop{"region", country.Region})
		}
		b.nodeStatements = append(b.nodeStatements, upsertStatement(TableCountry, country.ISOCode, props))
	}
	b.logger.Debug().Int("count", len(countries)).Msg("added country nodes")
}

// AddExecutiveNodes merges executive nodes keyed by FIBO id.
func (b *Builder) AddExecutiveNodes(executives map[string]*models.Executive) {
	for _, key := range sortedKeys(executives) {
		exec := executives[key]
		props := []prop{
			{"fibo_id", exec.FIBOID},
			{"name", exec.Name},
		}
		if exec.Title != "" {
			props = append(props, prop{"title", exec.Title})
		}
		if exec.StartDate != "" {
			props = append(props, prop{"start_date", exec.StartDate})
		}
		b.nodeStatements = append(b.nodeStatements, upsertStatement(TableExecutive, exec.FIBOID, props))
	}
	b.logger.Debug().Int("count", len(executives)).Msg("added executive nodes")
}

// AddSecurityNodes merges stock and bond nodes keyed by FIBO id.
// Unresolved bonds still get a node carrying their identifiers and the
// resolved flag, so positions stay linked.
func (b *Builder) AddSecurityNodes(stocks map[string]*models.Stock, bonds map[string]*models.Bond) {
	for _, key := range sortedKeys(stocks) {
		stock := stocks[key]
		props := []prop{
			{"fibo_id", stock.FIBOID},
			{"ticker", stock.Ticker},
			{"security_type", stock.SecurityType},
		}
		if stock.ISIN != "" {
			props = append(props, prop{"isin", stock.ISIN})
		}
		if stock.CUSIP != "" {
			props = append(props, prop{"cusip", stock.CUSIP})
		}
		if stock.SEDOL != "" {
			props = append(props, prop{"sedol", stock.SEDOL})
		}
		b.nodeStatements = append(b.nodeStatements, upsertStatement(TableStock, stock.FIBOID, props))
	}

	for _, key := range sortedKeys(bonds) {
		bond := bonds[key]
		props := []prop{
			{"fibo_id", bond.FIBOID},
			{"security_type", bond.SecurityType},
			{"resolved", bond.Resolved},
		}
		if bond.ISIN != "" {
			props = append(props, prop{"isin", bond.ISIN})
		}
		if bond.CUSIP != "" {
			props = append(props, prop{"cusip", bond.CUSIP})
		}
		if bond.Currency != "" {
			props = append(props, prop{"currency", bond.Currency})
		}
		if bond.MaturityDate != "" {
			props = append(props, prop{"maturity_date", bond.MaturityDate})
		}
		if bond.Coupon != nil {
			props = append(props, prop{"coupon", *bond.Coupon})
		}
		if bond.MarketPrice != nil {
			props = append(props, prop{"market_price", *bond.MarketPrice})
		}
		if bond.Issuer != "" {
			props = append(props, prop{"issuer", bond.Issuer})
		}
		b.nodeStatements = append(b.nodeStatements, upsertStatement(TableBond, bond.FIBOID, props))
	}

	b.logger.Debug().Int("stocks", len(stocks)).Int("bonds", len(bonds)).Msg("added security nodes")
}

// AddInvestedInRelationships links position nodes created in this
// import to their security nodes. Links whose position was never added
// are skipped with a warning.
func (b *Builder) AddInvestedInRelationships(links map[PositionKey]SecurityRef) {
	keys := make([]PositionKey, 0, len(links))
	for k := range links {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Ticker != keys[j].Ticker {
			return keys[i].Ticker < keys[j].Ticker
		}
		if keys[i].Quantity != keys[j].Quantity {
			return keys[i].Quantity < keys[j].Quantity
		}
		return keys[i].BookValue < keys[j].BookValue
	})

	added := 0
	for _, key := range keys {
		ref := links[key]
		posID, ok := b.positionIDs[key]
		if !ok {
			b.logger.Warn().Str("ticker", key.Ticker).Msg("no position node for invested_in link")
			continue
		}
		b.relStatements = append(b.relStatements, Statement{
			Query: fmt.Sprintf("RELATE type::thing('position', $pos)->invested_in->type::thing('%s', $sec);", EscapeString(ref.Kind)),
			Vars:  map[string]any{"pos": posID, "sec": ref.FIBOID},
		})
		added++
	}
	b.logger.Debug().Int("count", added).Msg("added invested_in relationships")
}

// AddIssuedByRelationships links security nodes to their issuers.
func (b *Builder) AddIssuedByRelationships(links []IssuedByLink) {
	for _, link := range links {
		b.relStatements = append(b.relStatements, Statement{
			Query: fmt.Sprintf("RELATE type::thing('%s', $sec)->issued_by->type::thing('company', $company);", EscapeString(link.Security.Kind)),
			Vars:  map[string]any{"sec": link.Security.FIBOID, "company": link.CompanyFIBOID},
		})
	}
	b.logger.Debug().Int("count", len(links)).Msg("added issued_by relationships")
}

// AddHeadquarteredInRelationships links companies to countries. The
// country record is merged first so the edge never dangles.
func (b *Builder) AddHeadquarteredInRelationships(companyToCountry map[string]string) {
	for _, companyID := range sortedKeys(companyToCountry) {
		iso := companyToCountry[companyID]
		b.relStatements = append(b.relStatements, Statement{
			Query: "UPSERT type::thing('country', $iso) SET iso_code = $iso; " +
				"RELATE type::thing('company', $company)->headquartered_in->type::thing('country', $iso);",
			Vars: map[string]any{"company": companyID, "iso": iso},
		})
	}
	b.logger.Debug().Int("count", len(companyToCountry)).Msg("added headquartered_in relationships")
}

// AddCEOOfRelationships links executives to the companies they lead.
func (b *Builder) AddCEOOfRelationships(executiveToCompany map[string]string) {
	for _, execID := range sortedKeys(executiveToCompany) {
		b.relStatements = append(b.relStatements, Statement{
			Query: "RELATE type::thing('executive', $exec)->ceo_of->type::thing('company', $company);",
			Vars:  map[string]any{"exec": execID, "company": executiveToCompany[execID]},
		})
	}
	b.logger.Debug().Int("count", len(executiveToCompany)).Msg("added ceo_of relationships")
}

// AddCompanyRelationships adds generic typed edges between entities.
// Unknown relationship types or entity kinds are skipped with a warning.
func (b *Builder) AddCompanyRelationships(relationships []models.Relationship) {
	for _, rel := range relationships {
		edge, ok := edgeTableFor[rel.Type]
		if !ok {
			b.logger.Warn().Str("type", string(rel.Type)).Msg("unknown relationship type, skipping")
			continue
		}
		srcTable, ok := nodeTableFor[strings.ToLower(rel.SourceKind)]
		if !ok {
			b.logger.Warn().Str("kind", rel.SourceKind).Msg("unknown source entity kind, skipping")
			continue
		}
		dstTable, ok := nodeTableFor[strings.ToLower(rel.TargetKind)]
		if !ok {
			b.logger.Warn().Str("kind", rel.TargetKind).Msg("unknown target entity kind, skipping")
			continue
		}

		vars := map[string]any{"src": rel.SourceID, "dst": rel.TargetID}
		set := ""
		if len(rel.Properties) > 0 {
			parts := make([]string, 0, len(rel.Properties))
			for i, name := range sortedKeys(rel.Properties) {
				val := rel.Properties[name]
				if val == nil || !propNamePattern.MatchString(name) {
					continue
				}
				v := fmt.Sprintf("p%d", i)
				parts = append(parts, fmt.Sprintf("%s = $%s", name, v))
				vars[v] = val
			}
			if len(parts) > 0 {
				set = " SET " + strings.Join(parts, ", ")
			}
		}

		b.relStatements = append(b.relStatements, Statement{
			Query: fmt.Sprintf("RELATE type::thing('%s', $src)->%s->type::thing('%s', $dst)%s;", EscapeString(srcTable), edge, EscapeString(dstTable), set),
			Vars:  vars,
		})
	}
	b.logger.Debug().Int("count", len(relationships)).Msg("added company relationships")
}

// NodeStatements returns the accumulated node batch.
func (b *Builder) NodeStatements() []Statement {
	return b.nodeStatements
}

// RelationshipStatements returns the accumulated relationship batch.
func (b *Builder) RelationshipStatements() []Statement {
	return b.relStatements
}

// AllStatements returns nodes followed by relationships.
func (b *Builder) AllStatements() []Statement {
	out := make([]Statement, 0, len(b.nodeStatements)+len(b.relStatements))
	out = append(out, b.nodeStatements...)
	out = append(out, b.relStatements...)
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
