package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/models"
)

// RegisterSearchTools registers the unified_search tool.
func RegisterSearchTools(s *server.MCPServer, deps *RouterToolDeps) {
	tool := mcp.NewTool(
		"unified_search",
		mcp.WithDescription(
			"Search every data source for one term and return per-source matches plus a grand total. "+
				"Per-source match lists stay separate because source schemas differ; the total counts "+
				"matches across all sources that answered.",
		),
		mcp.WithString(
			"term",
			mcp.Required(),
			mcp.Description("The value to search for"),
		),
		mcp.WithString(
			"kind",
			mcp.Description("What the term is: name, email, title, id, or all (default all)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		term, ok := getString(req, "term")
		if !ok || term == "" {
			return NewErrorResult("missing_parameter", "term parameter is required"), nil
		}
		kind, _ := getString(req, "kind")
		switch kind {
		case "", "name", "email", "title", "id", "all":
		default:
			return NewErrorResult("invalid_parameter",
				fmt.Sprintf("unknown search kind %q: valid kinds are name, email, title, id, all", kind)), nil
		}

		result, err := deps.Service.UnifiedSearch(ctx, term, models.SearchKind(kind))
		if err != nil {
			if errResult := NewRoutingErrorResult(err); errResult != nil {
				return errResult, nil
			}
			deps.Logger.Error("unified search failed", zap.Error(err))
			return nil, fmt.Errorf("failed to run unified search: %w", err)
		}

		jsonResult, _ := json.Marshal(result)
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
