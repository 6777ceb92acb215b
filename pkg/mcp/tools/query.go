// Package tools registers the engine's MCP tools. Each tool parses its
// arguments, delegates to the router service, and marshals the response as
// JSON text. Actionable failures come back as structured error results;
// anything else is a Go error.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/services"
)

// RouterToolDeps contains dependencies for the routing tools.
type RouterToolDeps struct {
	Service *services.RouterService
	Logger  *zap.Logger
}

// RegisterRouterTools registers the question-routing tools: query routes one
// question to its best-matching source, cross_source_query fans a question
// out across several sources.
func RegisterRouterTools(s *server.MCPServer, deps *RouterToolDeps) {
	registerQueryTool(s, deps)
	registerCrossSourceQueryTool(s, deps)
}

func registerQueryTool(s *server.MCPServer, deps *RouterToolDeps) {
	tool := mcp.NewTool(
		"query",
		mcp.WithDescription(
			"Ask a natural-language question and have it routed to the best-matching data source and executed there. "+
				"When the question cannot be attributed to one source with enough confidence, the result asks for "+
				"clarification and lists the available sources instead of guessing.",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The natural-language question to route and execute"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, ok := getString(req, "question")
		if !ok || question == "" {
			return NewErrorResult("missing_parameter", "question parameter is required"), nil
		}

		result, err := deps.Service.RouteQuery(ctx, question)
		if err != nil {
			if errResult := NewRoutingErrorResult(err); errResult != nil {
				return errResult, nil
			}
			deps.Logger.Error("query routing failed", zap.Error(err))
			return nil, fmt.Errorf("failed to route question: %w", err)
		}

		jsonResult, _ := json.Marshal(result)
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

func registerCrossSourceQueryTool(s *server.MCPServer, deps *RouterToolDeps) {
	tool := mcp.NewTool(
		"cross_source_query",
		mcp.WithDescription(
			"Run one described query across several data sources concurrently and merge the per-source results. "+
				"Name sources explicitly in the sources parameter, or leave it empty to infer relevant sources from "+
				"the description. A slow or failed source degrades to an error entry; the rest still answer.",
		),
		mcp.WithString(
			"description",
			mcp.Required(),
			mcp.Description("What to ask each source, in natural language"),
		),
		mcp.WithArray(
			"sources",
			mcp.Description("Source names to query; empty means infer from the description"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		description, ok := getString(req, "description")
		if !ok || description == "" {
			return NewErrorResult("missing_parameter", "description parameter is required"), nil
		}
		sources, _ := getStringSlice(req, "sources")

		result, err := deps.Service.CrossSourceQuery(ctx, description, sources)
		if err != nil {
			if errResult := NewRoutingErrorResult(err); errResult != nil {
				return errResult, nil
			}
			deps.Logger.Error("cross-source query failed", zap.Error(err))
			return nil, fmt.Errorf("failed to run cross-source query: %w", err)
		}

		jsonResult, _ := json.Marshal(result)
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
