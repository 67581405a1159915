package interfaces

import "context"

// GraphStore executes graph statements against the backing database
type GraphStore interface {
	// Execute runs one statement with bound variables and returns the
	// rows of the final result set
	Execute(ctx context.Context, query string, vars map[string]any) ([]map[string]any, error)

	// ClearGraph removes all graph nodes and edges
	ClearGraph(ctx context.Context) error

	// DatabaseStats returns record counts per graph table
	DatabaseStats(ctx context.Context) (map[string]int, error)

	// Close releases the underlying connection
	Close() error
}
