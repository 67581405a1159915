// Package enrichment resolves positions to issuer entities through the
// FactSet content APIs, degrading to partial entities when reference
// data is missing
package enrichment

import (
	"fmt"

	"github.com/portana/portgraph/internal/models"
)

// Route selects the enrichment path for a position.
type Route string

const (
	// RouteEquity enriches through the ticker-based company lookups.
	RouteEquity Route = "equity"
	// RouteFixedIncome enriches through CUSIP/ISIN bond lookups.
	RouteFixedIncome Route = "fixed-income"
)

// RouteFor decides the enrichment path. A ticker always wins, even
// when a CUSIP or ISIN is also present; identifier precedence for
// lookups is a separate concern from routing. Unreachable for
// positions that passed load validation.
func RouteFor(position *models.Position) (Route, error) {
	if position.Ticker != "" {
		return RouteEquity, nil
	}
	if position.CUSIP != "" || position.ISIN != "" {
		return RouteFixedIncome, nil
	}
	return "", fmt.Errorf("position has no ticker, CUSIP or ISIN")
}
