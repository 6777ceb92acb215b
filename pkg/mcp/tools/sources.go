package tools

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/crossquery/crossquery-engine/pkg/services"
)

// RegisterSourcesTool registers the sources listing tool.
func RegisterSourcesTool(s *server.MCPServer, deps *RouterToolDeps) {
	tool := mcp.NewTool(
		"sources",
		mcp.WithDescription(
			"List the configured data sources with their descriptions. "+
				"Use these names with the query, sql, and schema tools.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		jsonResult, _ := json.Marshal(struct {
			Sources []services.SourceInfo `json:"sources"`
		}{Sources: deps.Service.ListSources()})
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
