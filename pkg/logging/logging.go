// Package logging builds the process logger and scrubs credentials from
// anything destined for the log stream.
package logging

import (
	"regexp"

	"go.uber.org/zap"
)

const (
	// MaxQueryLogLength is the maximum length of a query to log.
	MaxQueryLogLength = 120
	// RedactedText is the replacement text for sensitive data.
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx (until next delimiter)
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// user:pass@host credentials embedded in a URL-style connection string
	connStringPattern = regexp.MustCompile(`://[^:]+:[^@]+@[^/\s]+`)
)

// New builds the process logger. The local environment gets the development
// encoder (human-readable console output); anything else gets production
// JSON. When the MCP transport is stdio the log stream must stay off stdout,
// so output goes to stderr in both modes.
func New(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "local" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// SanitizeConnectionString removes credentials from connection strings.
// Use this before logging any connection string.
func SanitizeConnectionString(connStr string) string {
	if connStr == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(connStr, "${1}="+RedactedText)
	return connStringPattern.ReplaceAllString(sanitized, "://"+RedactedText+"@"+RedactedText)
}

// SanitizeQuery truncates a SQL query for logging and scrubs credential
// patterns that may appear in literals.
func SanitizeQuery(query string) string {
	if query == "" {
		return ""
	}
	sanitized := query
	if len(sanitized) > MaxQueryLogLength {
		sanitized = sanitized[:MaxQueryLogLength] + "..."
	}
	return passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
}
