// Package sql implements the executor-side read-only safety policy:
// statement normalization, single-statement enforcement, and screening of
// free-text parameter values.
package sql

import (
	"errors"
	"strings"

	"github.com/crossquery/crossquery-engine/pkg/apperrors"
)

var (
	// ErrMultipleStatements indicates the query contains multiple SQL
	// statements; only single statements are permitted.
	ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")

	// ErrEmptyStatement indicates the query is empty after normalization.
	ErrEmptyStatement = errors.New("empty SQL statement")
)

// ValidationResult contains the normalized SQL and any validation error.
type ValidationResult struct {
	NormalizedSQL string
	Error         error
}

// ValidateReadOnly normalizes a statement and enforces the read-only policy:
// exactly one statement, and it must begin with SELECT or WITH. This is the
// whole of the safety contract the raw sql tool relies on; everything else
// (grants, row limits) is enforced by the executor.
func ValidateReadOnly(sqlQuery string) ValidationResult {
	res := ValidateAndNormalize(sqlQuery)
	if res.Error != nil {
		return res
	}
	if res.NormalizedSQL == "" {
		return ValidationResult{Error: ErrEmptyStatement}
	}

	first := strings.ToUpper(firstWord(res.NormalizedSQL))
	if first != "SELECT" && first != "WITH" {
		return ValidationResult{Error: apperrors.ErrNotReadOnly}
	}
	return res
}

// ValidateAndNormalize strips the trailing semicolon and rejects statements
// containing further semicolons outside string literals.
func ValidateAndNormalize(sqlQuery string) ValidationResult {
	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return ValidationResult{NormalizedSQL: sqlQuery}
	}

	normalized := stripTrailingSemicolon(sqlQuery)
	if hasSemicolonOutsideStrings(normalized) {
		return ValidationResult{Error: ErrMultipleStatements}
	}
	return ValidationResult{NormalizedSQL: normalized}
}

func firstWord(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// hasSemicolonOutsideStrings returns true if the SQL contains any semicolon
// outside of string literals.
func hasSemicolonOutsideStrings(sqlQuery string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	prevChar := rune(0)

	for _, char := range sqlQuery {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			// Handle both backslash escape (\') and SQL standard escape ('').
			// A doubled quote exits and immediately re-enters the string,
			// which keeps the scan correct.
			if char == '\'' && prevChar != '\\' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' && prevChar != '\\' {
				state = stateNormal
			}
		}
		prevChar = char
	}

	return false
}

func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimSuffix(sqlQuery, ";")
		sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	}
	return sqlQuery
}
