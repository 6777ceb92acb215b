// Package datasource defines the per-source adapter capability set the
// routing core consumes: schema extraction and bounded read-only query
// execution. One implementation exists per SQL dialect; instances are
// selected by the dialect named in the source catalog.
package datasource

import "context"

// MaxQueryLimit is the hard cap on rows returned by Query methods.
// This protects against unbounded queries that could crash the server.
const MaxQueryLimit = 1000

// SchemaExtractor returns table and column names for a source. Used by the
// detector's table and column phases; results are cached by the schema
// index, not here.
type SchemaExtractor interface {
	// TableNames returns all user table names, lower-cased.
	TableNames(ctx context.Context) ([]string, error)

	// ColumnNames returns the column names of one table, lower-cased.
	ColumnNames(ctx context.Context, table string) ([]string, error)
}

// QueryExecutor executes read-only SQL against a source with bounded
// results. The query is ALWAYS wrapped with a dialect-specific limit:
//   - PostgreSQL: SELECT * FROM (query) AS _q LIMIT n
//   - SQL Server: SELECT TOP (n) * FROM (query) AS _q
//
// Limit behavior: limit <= 0 uses MaxQueryLimit; limit > MaxQueryLimit is
// capped to MaxQueryLimit. Statements that are not a single SELECT are
// rejected before reaching the database.
type QueryExecutor interface {
	// Query runs a SELECT statement and returns bounded results.
	Query(ctx context.Context, sqlQuery string, limit int) (*QueryResult, error)

	// QueryWithParams runs a parameterized SELECT with bounded results.
	// Placeholder syntax is dialect-specific ($1... for PostgreSQL,
	// @p1... for SQL Server); templates in the catalog are authored per
	// dialect so the two never mix.
	QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*QueryResult, error)
}

// Adapter is the full per-source capability set.
// Each instance owns its connection and must be closed when done.
type Adapter interface {
	SchemaExtractor
	QueryExecutor

	// QuoteIdentifier safely quotes a SQL identifier (table or column name)
	// with dialect-specific quoting. Only identifiers that came from the
	// source's own schema metadata are ever interpolated into SQL.
	QuoteIdentifier(name string) string

	// Ping verifies the source is reachable with valid credentials.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// QueryResult holds the results from executing a query.
type QueryResult struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	RowCount int              `json:"row_count"`
}

// ClampLimit applies the Query limit rules.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return limit
}
