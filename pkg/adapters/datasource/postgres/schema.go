package postgres

import (
	"context"
	"fmt"
	"strings"
)

// TableNames returns all user table names, lower-cased.
// System schemas are excluded.
func (a *Adapter) TableNames(ctx context.Context) ([]string, error) {
	query := `
	SELECT table_name
	FROM information_schema.tables
	WHERE table_type = 'BASE TABLE'
	  AND table_schema NOT IN ('pg_catalog', 'information_schema')
	ORDER BY table_name
	`

	rows, err := a.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, strings.ToLower(name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate table names: %w", err)
	}

	return tables, nil
}

// ColumnNames returns the column names of one table, lower-cased.
func (a *Adapter) ColumnNames(ctx context.Context, table string) ([]string, error) {
	query := `
	SELECT column_name
	FROM information_schema.columns
	WHERE table_name = $1
	  AND table_schema NOT IN ('pg_catalog', 'information_schema')
	ORDER BY ordinal_position
	`

	rows, err := a.pool.Query(ctx, query, table)
	if err != nil {
		return nil, fmt.Errorf("query columns for %q: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan column name: %w", err)
		}
		columns = append(columns, strings.ToLower(name))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate column names: %w", err)
	}

	return columns, nil
}
