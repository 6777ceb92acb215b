package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// TableNames returns all user table names, lower-cased.
// System tables are excluded.
func (a *Adapter) TableNames(ctx context.Context) ([]string, error) {
	query := `
	SET NOCOUNT ON;
	SELECT t.name
	FROM sys.tables t
	WHERE t.is_ms_shipped = 0
	ORDER BY t.name
	`

	rows, err := a.db.QueryContext(ctx, query)
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
	SET NOCOUNT ON;
	SELECT c.name
	FROM sys.columns c
	INNER JOIN sys.tables t ON c.object_id = t.object_id
	WHERE t.name = @table AND t.is_ms_shipped = 0
	ORDER BY c.column_id
	`

	rows, err := a.db.QueryContext(ctx, query, sql.Named("table", table))
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
