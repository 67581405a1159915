package loader

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/portana/portgraph/internal/common"
)

var (
	identifierColumns = []string{"ticker", "isin", "cusip"}
	valueColumns      = []string{"book_value", "market_value"}
	optionalColumns   = []string{"security_type", "purchase_date"}
)

// normalizeHeader folds a raw CSV header to its canonical column name:
// lowercased, trimmed, with internal whitespace collapsed to
// underscores ("Book Value" and "book_value" are the same column).
func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.ReplaceAll(h, "\t", "_")
	return strings.ReplaceAll(h, " ", "_")
}

// normalizeValue trims a cell and maps the usual absence markers to
// the empty string.
func normalizeValue(v string) string {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "n/a", "null":
		return ""
	}
	return v
}

func validColumns() map[string]bool {
	valid := map[string]bool{"quantity": true}
	for _, c := range identifierColumns {
		valid[c] = true
	}
	for _, c := range valueColumns {
		valid[c] = true
	}
	for _, c := range optionalColumns {
		valid[c] = true
	}
	return valid
}

// validateHeaders checks the normalized header set for a quantity
// column, at least one identifier column and at least one value
// column. Unknown columns are ignored with a warning.
func validateHeaders(headers []string, logger *common.Logger) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		if h != "" {
			present[h] = true
		}
	}

	if !present["quantity"] {
		return &ValidationError{Row: 1, Column: "quantity", Message: "missing required column"}
	}

	hasIdentifier := false
	for _, c := range identifierColumns {
		if present[c] {
			hasIdentifier = true
			break
		}
	}
	if !hasIdentifier {
		return &ValidationError{
			Row:     1,
			Message: fmt.Sprintf("missing identifier column, need one of: %s", strings.Join(identifierColumns, ", ")),
		}
	}

	hasValue := false
	for _, c := range valueColumns {
		if present[c] {
			hasValue = true
			break
		}
	}
	if !hasValue {
		return &ValidationError{
			Row:     1,
			Message: fmt.Sprintf("missing value column, need one of: %s", strings.Join(valueColumns, ", ")),
		}
	}

	valid := validColumns()
	for _, h := range headers {
		if h != "" && !valid[h] {
			logger.Warn().Str("column", h).Msg("unknown column ignored")
		}
	}

	return nil
}

// parsePositive parses a required numeric cell that must be strictly
// positive.
func parsePositive(raw, column string, row int) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ValidationError{Row: row, Column: column, Message: fmt.Sprintf("%q is not a number", raw)}
	}
	if v <= 0 {
		return 0, &ValidationError{Row: row, Column: column, Message: fmt.Sprintf("must be positive, got %v", v)}
	}
	return v, nil
}

// parseNonNegative parses an optional numeric cell that must not be
// negative.
func parseNonNegative(raw, column string, row int) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &ValidationError{Row: row, Column: column, Message: fmt.Sprintf("%q is not a number", raw)}
	}
	if v < 0 {
		return 0, &ValidationError{Row: row, Column: column, Message: fmt.Sprintf("cannot be negative, got %v", v)}
	}
	return v, nil
}
