package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// RegisterSchemaTools registers the schema exploration tools.
func RegisterSchemaTools(s *server.MCPServer, deps *RouterToolDeps) {
	registerSchemaTool(s, deps)
	registerRefreshSchemaTool(s, deps)
}

func registerSchemaTool(s *server.MCPServer, deps *RouterToolDeps) {
	tool := mcp.NewTool(
		"schema",
		mcp.WithDescription(
			"Describe a data source: its table names, or the columns of one table when the table "+
				"parameter is set. Reads live metadata from the source.",
		),
		mcp.WithString(
			"source",
			mcp.Required(),
			mcp.Description("The source to describe"),
		),
		mcp.WithString(
			"table",
			mcp.Description("A table whose columns to list; empty lists the source's tables"),
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
		table, _ := getString(req, "table")

		result, err := deps.Service.SchemaInfo(ctx, source, table)
		if err != nil {
			if errResult := NewRoutingErrorResult(err); errResult != nil {
				return errResult, nil
			}
			deps.Logger.Error("schema describe failed",
				zap.String("source", source),
				zap.Error(err))
			return nil, fmt.Errorf("failed to describe schema: %w", err)
		}

		jsonResult, _ := json.Marshal(result)
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

func registerRefreshSchemaTool(s *server.MCPServer, deps *RouterToolDeps) {
	tool := mcp.NewTool(
		"refresh_schema",
		mcp.WithDescription(
			"Drop the cached schema for one source so the next question re-reads it. "+
				"Use after tables or columns change on the source.",
		),
		mcp.WithString(
			"source",
			mcp.Required(),
			mcp.Description("The source whose schema cache to drop"),
		),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		source, ok := getString(req, "source")
		if !ok || source == "" {
			return NewErrorResult("missing_parameter", "source parameter is required"), nil
		}

		if err := deps.Service.RefreshSchema(source); err != nil {
			if errResult := NewRoutingErrorResult(err); errResult != nil {
				return errResult, nil
			}
			return nil, fmt.Errorf("failed to refresh schema: %w", err)
		}

		jsonResult, _ := json.Marshal(struct {
			Source    string `json:"source"`
			Refreshed bool   `json:"refreshed"`
		}{Source: source, Refreshed: true})
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
