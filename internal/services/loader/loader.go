// Package loader reads portfolio holdings from CSV files into domain
// positions, validating headers and rows before anything reaches the
// enrichment pipeline
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/models"
)

// Loader parses portfolio CSV files.
type Loader struct {
	logger *common.Logger
}

// NewLoader creates a loader. A nil logger falls back to a silent one.
func NewLoader(logger *common.Logger) *Loader {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Loader{logger: logger}
}

// Load reads a portfolio from a CSV file. The portfolio name defaults
// to the file name stem when name is empty. Positions come back with
// zero weight; the caller recomputes weights once pricing is known.
func (l *Loader) Load(path, name string) (*models.Portfolio, error) {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return nil, &LoadError{Path: path, Message: fmt.Sprintf("unsupported file format %q, expected .csv", filepath.Ext(path))}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}
	defer f.Close()

	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	l.logger.Info().Str("path", path).Str("portfolio", name).Msg("loading portfolio")
	return l.LoadReader(f, name)
}

// LoadReader reads a portfolio from CSV content. Any row failure
// aborts the whole load; partial tolerance belongs to enrichment, not
// loading.
func (l *Loader) LoadReader(r io.Reader, name string) (*models.Portfolio, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &LoadError{Message: "CSV file is empty"}
	}
	if err != nil {
		return nil, &LoadError{Message: fmt.Sprintf("failed to read header: %v", err)}
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = normalizeHeader(h)
	}
	if err := validateHeaders(columns, l.logger); err != nil {
		return nil, err
	}

	portfolio := models.NewPortfolio(name)
	rowNum := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			return nil, &ValidationError{Row: rowNum, Message: fmt.Sprintf("failed to read row: %v", err)}
		}

		position, err := l.parseRow(columns, record, rowNum)
		if err != nil {
			return nil, err
		}
		portfolio.AddPosition(position)
	}

	if len(portfolio.Positions) == 0 {
		return nil, &LoadError{Message: "no positions found in CSV file"}
	}
	if err := checkDuplicates(portfolio.Positions); err != nil {
		return nil, err
	}

	l.logger.Info().
		Str("portfolio", name).
		Int("positions", len(portfolio.Positions)).
		Msg("portfolio loaded")

	return portfolio, nil
}

func (l *Loader) parseRow(columns, record []string, rowNum int) (*models.Position, error) {
	cells := make(map[string]string, len(columns))
	for i, col := range columns {
		if col == "" || i >= len(record) {
			continue
		}
		cells[col] = normalizeValue(record[i])
	}

	if cells["quantity"] == "" {
		return nil, &ValidationError{Row: rowNum, Column: "quantity", Message: "missing required field"}
	}
	quantity, err := parsePositive(cells["quantity"], "quantity", rowNum)
	if err != nil {
		return nil, err
	}

	var marketValue *float64
	if raw := cells["market_value"]; raw != "" {
		v, err := parseNonNegative(raw, "market_value", rowNum)
		if err != nil {
			return nil, err
		}
		marketValue = &v
	}

	var bookValue float64
	switch {
	case cells["book_value"] != "":
		bookValue, err = parseNonNegative(cells["book_value"], "book_value", rowNum)
		if err != nil {
			return nil, err
		}
	case marketValue != nil:
		bookValue = *marketValue
		l.logger.Info().Int("row", rowNum).Msg("using market_value as book_value")
	default:
		return nil, &ValidationError{Row: rowNum, Message: "must have either book_value or market_value"}
	}

	securityType := cells["security_type"]
	if securityType == "" {
		securityType = "Common Stock"
	}

	position := &models.Position{
		Ticker:       strings.ToUpper(cells["ticker"]),
		ISIN:         cells["isin"],
		CUSIP:        cells["cusip"],
		Quantity:     quantity,
		BookValue:    bookValue,
		MarketValue:  marketValue,
		SecurityType: securityType,
		PurchaseDate: cells["purchase_date"],
	}

	if !position.HasIdentifier() {
		return nil, &ValidationError{Row: rowNum, Message: "position has no ticker, ISIN or CUSIP"}
	}

	idType, idValue := position.PrimaryIdentifier()
	l.logger.Debug().
		Int("row", rowNum).
		Str("identifier", fmt.Sprintf("%s:%s", idType, idValue)).
		Float64("quantity", position.Quantity).
		Float64("book_value", position.BookValue).
		Msg("position parsed")

	return position, nil
}

// checkDuplicates fails the load when two positions share a primary
// identifier. Bond positions keyed by CUSIP or ISIN dedupe correctly
// even though their tickers are all empty.
func checkDuplicates(positions []*models.Position) error {
	seen := make(map[string]bool, len(positions))
	var duplicates []string
	for _, p := range positions {
		idType, idValue := p.PrimaryIdentifier()
		key := fmt.Sprintf("%s:%s", idType, idValue)
		if seen[key] {
			duplicates = append(duplicates, key)
			continue
		}
		seen[key] = true
	}
	if len(duplicates) > 0 {
		return &LoadError{Message: fmt.Sprintf("duplicate positions found: %s", strings.Join(duplicates, ", "))}
	}
	return nil
}

// WriteSampleCSV writes a small example portfolio with stocks and
// bonds, creating parent directories as needed.
func WriteSampleCSV(path string) error {
	rows := [][]string{
		{"ticker", "quantity", "book_value", "security_type", "isin", "cusip"},
		{"AAPL-US", "100", "19000.00", "Common Stock", "US0378331005", "037833100"},
		{"MSFT-US", "50", "21000.00", "Common Stock", "US5949181045", "594918104"},
		{"TSMC-TT", "200", "32000.00", "Common Stock", "US8740391003", "874039100"},
		{"", "500", "50000.00", "Corporate Bond", "US037833AA56", "037833AA5"},
		{"", "300", "30000.00", "Treasury Bond", "US912828Z772", "912828Z77"},
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create sample file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write sample rows: %w", err)
	}
	return nil
}
