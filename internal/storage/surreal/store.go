// Package surreal implements the graph store on SurrealDB
package surreal

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/portana/portgraph/internal/common"
	"github.com/portana/portgraph/internal/graph"
	"github.com/portana/portgraph/internal/interfaces"
)

// Store executes graph statements against SurrealDB. Node and edge
// tables are defined schemaless on startup; record keys carry the FIBO
// identifiers so UPSERT gives merge semantics across imports.
type Store struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewStore connects, authenticates, selects the namespace/database and
// defines the graph tables.
func NewStore(logger *common.Logger, config *common.Config) (*Store, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Storage.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Storage.Username,
		"pass": config.Storage.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Storage.Namespace, config.Storage.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	for _, table := range graph.AllTables() {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	logger.Info().
		Str("address", config.Storage.Address).
		Str("namespace", config.Storage.Namespace).
		Str("database", config.Storage.Database).
		Msg("SurrealDB graph store initialized")

	return &Store{db: db, logger: logger}, nil
}

// Execute runs one statement with bound variables and returns the rows
// of the final result set. Multi-statement queries (LET chains, merge
// plus relate) surface only their last result.
func (s *Store) Execute(ctx context.Context, query string, vars map[string]any) ([]map[string]any, error) {
	results, err := surrealdb.Query[[]map[string]any](ctx, s.db, query, vars)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	return (*results)[len(*results)-1].Result, nil
}

// ExecuteBatch runs statements in order, recording failures without
// stopping the batch. It returns the number executed successfully and
// one message per failed statement.
func (s *Store) ExecuteBatch(ctx context.Context, statements []graph.Statement) (int, []string) {
	executed := 0
	var errs []string
	for i, st := range statements {
		if _, err := s.Execute(ctx, st.Query, st.Vars); err != nil {
			s.logger.Warn().Err(err).Int("statement", i).Msg("graph statement failed")
			errs = append(errs, fmt.Sprintf("statement %d: %v", i, err))
			continue
		}
		executed++
	}
	return executed, errs
}

// ClearGraph removes all records from every graph table.
func (s *Store) ClearGraph(ctx context.Context) error {
	for _, table := range graph.AllTables() {
		sql := fmt.Sprintf("DELETE %s", table)
		if _, err := surrealdb.Query[any](ctx, s.db, sql, nil); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	s.logger.Info().Msg("graph cleared")
	return nil
}

// DatabaseStats returns record counts per graph table.
func (s *Store) DatabaseStats(ctx context.Context) (map[string]int, error) {
	type countRow struct {
		Count int `json:"count"`
	}

	stats := make(map[string]int, len(graph.AllTables()))
	for _, table := range graph.AllTables() {
		sql := fmt.Sprintf("SELECT count() AS count FROM %s GROUP ALL", table)
		results, err := surrealdb.Query[[]countRow](ctx, s.db, sql, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to count table %s: %w", table, err)
		}
		count := 0
		if results != nil && len(*results) > 0 && len((*results)[0].Result) > 0 {
			count = (*results)[0].Result[0].Count
		}
		stats[table] = count
	}
	return stats, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close(context.Background())
}

// Ensure Store implements GraphStore
var _ interfaces.GraphStore = (*Store)(nil)
