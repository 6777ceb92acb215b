package tools

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/crossquery/crossquery-engine/pkg/apperrors"
)

// ErrorResponse represents a structured error in tool results.
// Errors the caller can act on (unknown source, unsupported intent, bad SQL)
// come back as successful tool results carrying this payload, so the details
// stay visible instead of being swallowed by the MCP client.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
// Use this for recoverable/actionable errors. System failures (connection
// errors, internal errors) should still return Go errors.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// RoutingErrorCode maps the engine's routing error taxonomy to a tool error
// code. Returns empty string for errors outside the taxonomy.
func RoutingErrorCode(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrUnknownSource):
		return "unknown_source"
	case errors.Is(err, apperrors.ErrUnsupportedIntent):
		return "unsupported_intent"
	case errors.Is(err, apperrors.ErrSourceUnreachable):
		return "source_unreachable"
	case errors.Is(err, apperrors.ErrNotReadOnly):
		return "not_read_only"
	default:
		return ""
	}
}

// NewRoutingErrorResult creates an error result for a routing taxonomy error.
// Returns nil when the error is not part of the taxonomy; callers should then
// return the Go error instead.
func NewRoutingErrorResult(err error) *mcp.CallToolResult {
	code := RoutingErrorCode(err)
	if code == "" {
		return nil
	}
	return NewErrorResult(code, err.Error())
}

// sqlStateRegex matches SQLSTATE codes in error messages like "(SQLSTATE 42601)".
var sqlStateRegex = regexp.MustCompile(`\(SQLSTATE ([0-9A-Z]{5})\)`)

// IsSQLUserError returns true if the error is a SQL user error (bad SQL,
// missing table, bad input) rather than a server error. User errors come back
// as JSON error results because the caller can fix the SQL and retry.
func IsSQLUserError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isSQLStateUserError(pgErr.Code)
	}

	if matches := sqlStateRegex.FindStringSubmatch(err.Error()); len(matches) >= 2 {
		return isSQLStateUserError(matches[1])
	}
	return false
}

// isSQLStateUserError recognizes the SQLSTATE classes caused by user input:
// data exceptions (22), constraint violations (23), and syntax or access
// rule violations (42).
func isSQLStateUserError(code string) bool {
	if len(code) < 2 {
		return false
	}
	switch code[:2] {
	case "22", "23", "42":
		return true
	}
	return false
}

// NewSQLErrorResult creates an error result from a SQL error if it is a user
// error. Returns nil otherwise.
func NewSQLErrorResult(err error) *mcp.CallToolResult {
	if !IsSQLUserError(err) {
		return nil
	}

	msg := err.Error()
	if idx := strings.Index(msg, " (SQLSTATE"); idx != -1 {
		msg = msg[:idx]
	}
	for _, prefix := range []string{"failed to execute query: ", "ERROR: "} {
		msg = strings.TrimPrefix(msg, prefix)
	}
	return NewErrorResult("sql_error", msg)
}
