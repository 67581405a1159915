// Package analysis runs the portfolio query templates against the
// graph store and decodes results into typed rows
package analysis

import (
	"context"
	"fmt"

	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/graph"
	"github.com/portana/portgraph/internal/interfaces"
)

// SectorExposureRow is one sector aggregate.
type SectorExposureRow struct {
	Sector        string  `json:"sector"`
	TotalExposure float64 `json:"total_exposure"`
	TotalWeight   float64 `json:"total_weight"`
	NumPositions  int     `json:"num_positions"`
}

// CountryBreakdownRow is one country aggregate.
type CountryBreakdownRow struct {
	CountryCode   string  `json:"country_code"`
	Country       string  `json:"country"`
	TotalExposure float64 `json:"total_exposure"`
	TotalWeight   float64 `json:"total_weight"`
	NumPositions  int     `json:"num_positions"`
}

// CountryExposureRow is one issuer within a country.
type CountryExposureRow struct {
	Company      string  `json:"company"`
	Exposure     float64 `json:"exposure"`
	NumPositions int     `json:"num_positions"`
}

// PositionRow is one position behind a sector or country aggregate.
// Ticker is empty for fixed-income positions; callers substitute a
// display label.
type PositionRow struct {
	Ticker      string  `json:"ticker"`
	Company     string  `json:"company"`
	Quantity    float64 `json:"quantity"`
	MarketValue float64 `json:"market_value"`
	Weight      float64 `json:"weight"`
}

// CompanyExposureResult is direct plus customer-of indirect exposure
// to one company.
type CompanyExposureResult struct {
	DirectExposure   float64 `json:"direct_exposure"`
	IndirectExposure float64 `json:"indirect_exposure"`
	TotalExposure    float64 `json:"total_exposure"`
}

// TotalCompanyExposureResult is exposure to one ticker. Subsidiary and
// supplier rollups are reported but always zero for now.
type TotalCompanyExposureResult struct {
	Ticker             string  `json:"ticker"`
	DirectExposure     float64 `json:"direct_exposure"`
	SubsidiaryExposure float64 `json:"subsidiary_exposure"`
	SupplierExposure   float64 `json:"supplier_exposure"`
	TotalExposure      float64 `json:"total_exposure"`
}

// ExecutiveRow pairs an issuer company with its CEO and the value held
// against it.
type ExecutiveRow struct {
	Company       string  `json:"company"`
	ExecutiveName string  `json:"executive_name"`
	Title         string  `json:"title"`
	PositionValue float64 `json:"position_value"`
}

// Service executes analysis queries over one or more portfolios.
type Service struct {
	store  interfaces.GraphStore
	logger *common.Logger
}

// NewService creates an analysis service.
func NewService(store interfaces.GraphStore, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{store: store, logger: logger}
}

func normalizePortfolios(portfolios []string) ([]string, error) {
	var out []string
	for _, name := range portfolios {
		if name != "" {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one portfolio name is required")
	}
	return out, nil
}

func (s *Service) run(ctx context.Context, st graph.Statement) ([]map[string]any, error) {
	rows, err := s.store.Execute(ctx, st.Query, st.Vars)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Int("rows", len(rows)).Msg("analysis query executed")
	return rows, nil
}

// SectorExposure aggregates exposure per issuer sector across the
// named portfolios, ordered by exposure descending.
func (s *Service) SectorExposure(ctx context.Context, portfolios []string) ([]SectorExposureRow, error) {
	names, err := normalizePortfolios(portfolios)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, graph.SectorExposure(names))
	if err != nil {
		return nil, err
	}

	out := make([]SectorExposureRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, SectorExposureRow{
			Sector:        asString(row["sector"]),
			TotalExposure: asFloat(row["total_exposure"]),
			TotalWeight:   asFloat(row["total_weight"]),
			NumPositions:  asInt(row["num_positions"]),
		})
	}
	return out, nil
}

// CountryBreakdown aggregates exposure per issuer headquarters country.
func (s *Service) CountryBreakdown(ctx context.Context, portfolios []string) ([]CountryBreakdownRow, error) {
	names, err := normalizePortfolios(portfolios)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, graph.CountryBreakdown(names))
	if err != nil {
		return nil, err
	}

	out := make([]CountryBreakdownRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, CountryBreakdownRow{
			CountryCode:   asString(row["country_code"]),
			Country:       asString(row["country"]),
			TotalExposure: asFloat(row["total_exposure"]),
			TotalWeight:   asFloat(row["total_weight"]),
			NumPositions:  asInt(row["num_positions"]),
		})
	}
	return out, nil
}

// CountryExposure details the issuers behind one country's exposure.
func (s *Service) CountryExposure(ctx context.Context, portfolios []string, countryISO string) ([]CountryExposureRow, error) {
	names, err := normalizePortfolios(portfolios)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, graph.CountryExposure(names, countryISO))
	if err != nil {
		return nil, err
	}

	out := make([]CountryExposureRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, CountryExposureRow{
			Company:      asString(row["company"]),
			Exposure:     asFloat(row["exposure"]),
			NumPositions: asInt(row["num_positions"]),
		})
	}
	return out, nil
}

// SectorPositions lists the positions contributing to one sector.
func (s *Service) SectorPositions(ctx context.Context, portfolios []string, sector string) ([]PositionRow, error) {
	names, err := normalizePortfolios(portfolios)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, graph.SectorPositions(names, sector))
	if err != nil {
		return nil, err
	}
	return decodePositionRows(rows), nil
}

// CountryPositions lists the positions contributing to one country.
func (s *Service) CountryPositions(ctx context.Context, portfolios []string, countryISO string) ([]PositionRow, error) {
	names, err := normalizePortfolios(portfolios)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, graph.CountryPositions(names, countryISO))
	if err != nil {
		return nil, err
	}
	return decodePositionRows(rows), nil
}

// CompanyExposure computes direct plus customer-of indirect exposure
// to one company by name.
func (s *Service) CompanyExposure(ctx context.Context, portfolios []string, companyName string) (*CompanyExposureResult, error) {
	names, err := normalizePortfolios(portfolios)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, graph.CompanyExposure(names, companyName))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &CompanyExposureResult{}, nil
	}

	row := rows[0]
	return &CompanyExposureResult{
		DirectExposure:   asFloat(row["direct_exposure"]),
		IndirectExposure: asFloat(row["indirect_exposure"]),
		TotalExposure:    asFloat(row["total_exposure"]),
	}, nil
}

// TotalCompanyExposure computes exposure to one issuer by ticker.
func (s *Service) TotalCompanyExposure(ctx context.Context, portfolios []string, ticker string) (*TotalCompanyExposureResult, error) {
	names, err := normalizePortfolios(portfolios)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, graph.TotalCompanyExposure(names, ticker))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &TotalCompanyExposureResult{Ticker: ticker}, nil
	}

	row := rows[0]
	return &TotalCompanyExposureResult{
		Ticker:             asString(row["ticker"]),
		DirectExposure:     asFloat(row["direct_exposure"]),
		SubsidiaryExposure: asFloat(row["subsidiary_exposure"]),
		SupplierExposure:   asFloat(row["supplier_exposure"]),
		TotalExposure:      asFloat(row["total_exposure"]),
	}, nil
}

// ExecutiveLookup pairs issuer companies with their CEOs.
func (s *Service) ExecutiveLookup(ctx context.Context, portfolios []string) ([]ExecutiveRow, error) {
	names, err := normalizePortfolios(portfolios)
	if err != nil {
		return nil, err
	}
	rows, err := s.run(ctx, graph.ExecutiveLookup(names))
	if err != nil {
		return nil, err
	}

	out := make([]ExecutiveRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, ExecutiveRow{
			Company:       asString(row["company"]),
			ExecutiveName: asString(row["executive_name"]),
			Title:         asString(row["title"]),
			PositionValue: asFloat(row["position_value"]),
		})
	}
	return out, nil
}

func decodePositionRows(rows []map[string]any) []PositionRow {
	out := make([]PositionRow, 0, len(rows))
	for _, row := range rows {
		out = append(out, PositionRow{
			Ticker:      asString(row["ticker"]),
			Company:     asString(row["company"]),
			Quantity:    asFloat(row["quantity"]),
			MarketValue: asFloat(row["market_value"]),
			Weight:      asFloat(row["weight"]),
		})
	}
	return out
}

// Result cells arrive as loosely typed values; NONE decodes to nil and
// counts may come back as any integer width.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return 0
}

func asInt(v any) int {
	return int(asFloat(v))
}
