package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/crossquery/crossquery-engine/pkg/adapters/datasource"
	sqlpolicy "github.com/crossquery/crossquery-engine/pkg/sql"
)

// QuoteIdentifier quotes an identifier for interpolation into PostgreSQL.
func (a *Adapter) QuoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// Query runs a SELECT statement and returns bounded results.
func (a *Adapter) Query(ctx context.Context, sqlQuery string, limit int) (*datasource.QueryResult, error) {
	return a.QueryWithParams(ctx, sqlQuery, nil, limit)
}

// QueryWithParams runs a parameterized SELECT with bounded results.
// The SQL uses $1, $2, etc. for placeholders; pgx binds parameters natively,
// so values from free text never reach the statement as SQL.
func (a *Adapter) QueryWithParams(ctx context.Context, sqlQuery string, params []any, limit int) (*datasource.QueryResult, error) {
	validated := sqlpolicy.ValidateReadOnly(sqlQuery)
	if validated.Error != nil {
		return nil, validated.Error
	}

	limit = datasource.ClampLimit(limit)
	wrapped := fmt.Sprintf("SELECT * FROM (%s) AS _q LIMIT %d", validated.NormalizedSQL, limit)

	rows, err := a.pool.Query(ctx, wrapped, params...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("failed to read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
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
