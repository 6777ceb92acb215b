package mssql

import (
	"context"
	"fmt"
	"strings"

	"github.com/crossquery/crossquery-engine/pkg/adapters/datasource"
	sqlpolicy "github.com/crossquery/crossquery-engine/pkg/sql"
)

// QuoteIdentifier quotes an identifier for interpolation into T-SQL.
func (a *Adapter) QuoteIdentifier(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}

// Query runs a SELECT statement and returns bounded results.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryResult, error) {
	return a.QueryWithParams(ctx, sqlQuery, nil, limit)
}

// QueryWithParams runs a parameterized SELECT with bounded results.
// The SQL uses @p1, @p2, etc. for placeholders; the driver binds positional
// args to them, so values from free text never reach the statement as SQL.
func (a *Adapter) QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*datasource.QueryResult, error) {
	validated := sqlpolicy.ValidateReadOnly(sqlQuery)
	if validated.Error != nil {
		return nil, validated.Error
	}

	limit = datasource.ClampLimit(limit)
	wrapped := fmt.Sprintf("SELECT TOP (%d) * FROM (%s) AS _q", limit, validated.NormalizedSQL)

	rows, err := a.db.QueryContext(ctx, wrapped, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	resultRows := make([]map[string]any, 0)
	values := make([]any, len(columns))
	scanTargets := make([]any, len(columns))
	for i := range values {
		scanTargets[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			// []byte values marshal as base64; surface them as strings.
			if b, ok := values[i].([]byte); ok {
				rowMap[col] = string(b)
			} else {
				rowMap[col] = values[i]
			}
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return &datasource.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: len(resultRows),
	}, nil
}
