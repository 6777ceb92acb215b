package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// RegisterSQLTools registers the raw sql tool.
func RegisterSQLTools(s *server.MCPServer, deps *RouterToolDeps) {
	tool := mcp.NewTool(
		"sql",
		mcp.WithDescription(
			"Execute a read-only SQL statement against one named data source. "+
				"Only a single SELECT (or WITH) statement is accepted; results are row-capped. "+
				"Use the sources tool to list valid source names and the schema tool to explore tables.",
		),
		mcp.WithString(
			"source",
			mcp.Required(),
			mcp.Description("The source to run the statement against"),
		),
		mcp.WithString(
			"query",
			mcp.Required(),
			mcp.Description("The SELECT statement to execute"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		source, ok := getString(req, "source")
		if !ok || source == "" {
			return NewErrorResult("missing_parameter", "source parameter is required"), nil
		}
		query, ok := getString(req, "query")
		if !ok || query == "" {
			return NewErrorResult("missing_parameter", "query parameter is required"), nil
		}

		result, err := deps.Service.RawSQL(ctx, source, query)
		if err != nil {
			if errResult := NewRoutingErrorResult(err); errResult != nil {
				return errResult, nil
			}
			if errResult := NewSQLErrorResult(err); errResult != nil {
				return errResult, nil
			}
			deps.Logger.Error("raw sql failed",
				zap.String("source", source),
				zap.Error(err))
			return nil, fmt.Errorf("failed to execute sql: %w", err)
		}

		jsonResult, _ := json.Marshal(result)
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
