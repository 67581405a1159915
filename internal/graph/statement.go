package graph

import (
	"fmt"
	"strings"
)

// Statement is one SurrealQL statement with bound variables. Values
// always travel through Vars; EscapeString exists only for the rare
// case where a value must be composed into query text.
type Statement struct {
	Query string
	Vars  map[string]any
}

// EscapeString makes a value safe for inlining inside a single-quoted
// SurrealQL string literal. Single quotes are doubled; all other
// characters, including unicode, pass through unchanged. Statement
// composition runs every inlined table name through it; callers
// composing ad-hoc queries for Store.Execute use it the same way.
func EscapeString(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

// prop is an ordered node property for upsert statements.
type prop struct {
	name string
	val  any
}

// upsertStatement builds an UPSERT on a keyed record setting only the
// given properties, so re-imports never blank fields that were present
// before.
func upsertStatement(table, key string, props []prop) Statement {
	vars := map[string]any{"key": key}
	parts := make([]string, 0, len(props))
	for i, p := range props {
		v := fmt.Sprintf("v%d", i)
		parts = append(parts, fmt.Sprintf("%s = $%s", p.name, v))
		vars[v] = p.val
	}
	query := fmt.Sprintf("UPSERT type::thing('%s', $key) SET %s;", EscapeString(table), strings.Join(parts, ", "))
	return Statement{Query: query, Vars: vars}
}
