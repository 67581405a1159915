package pipeline

import "fmt"

// Stats accumulates counters and error messages across one pipeline
// execution. Not-found conditions increment failure counters without
// appending to Errors.
type Stats struct {
	PortfoliosLoaded          int      `json:"portfolios_loaded"`
	PositionsLoaded           int      `json:"positions_loaded"`
	StocksEnriched            int      `json:"stocks_enriched"`
	BondsEnriched             int      `json:"bonds_enriched"`
	CompaniesEnriched         int      `json:"companies_enriched"`
	CompaniesFailed           int      `json:"companies_failed"`
	BondsFailed               int      `json:"bonds_failed"`
	ExecutivesEnriched        int      `json:"executives_enriched"`
	CountriesEnriched         int      `json:"countries_enriched"`
	GraphNodesCreated         int      `json:"graph_nodes_created"`
	GraphRelationshipsCreated int      `json:"graph_relationships_created"`
	Errors                    []string `json:"errors,omitempty"`
}

// AddError appends a message to the error list.
func (s *Stats) AddError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// StageError wraps a failure with the pipeline stage it occurred in
// and how many positions had been processed by then.
type StageError struct {
	Stage     string
	Positions int
	Err       error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed after %d positions: %v", e.Stage, e.Positions, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
