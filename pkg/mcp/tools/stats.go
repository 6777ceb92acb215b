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

// RegisterStatsTools registers the aggregate_stats tool.
func RegisterStatsTools(s *server.MCPServer, deps *RouterToolDeps) {
	tool := mcp.NewTool(
		"aggregate_stats",
		mcp.WithDescription(
			"Compute one aggregate metric across every data source and merge the results. "+
				"Totals sum only the sources that answered; failed sources are listed with their error. "+
				"Metrics: total_records (row counts per table), customers, payments, entity_counts.",
		),
		mcp.WithString(
			"metric",
			mcp.Description("The metric to compute: total_records, customers, payments, or entity_counts (default total_records)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		metric, ok := getString(req, "metric")
		if !ok || metric == "" {
			metric = services.MetricTotalRecords
		}
		switch metric {
		case services.MetricTotalRecords, services.MetricCustomers,
			services.MetricPayments, services.MetricEntityCounts:
		default:
			return NewErrorResult("invalid_parameter",
				fmt.Sprintf("unknown metric %q: valid metrics are total_records, customers, payments, entity_counts", metric)), nil
		}

		result, err := deps.Service.AggregateStats(ctx, metric)
		if err != nil {
			if errResult := NewRoutingErrorResult(err); errResult != nil {
				return errResult, nil
			}
			deps.Logger.Error("aggregate stats failed",
				zap.String("metric", metric),
				zap.Error(err))
			return nil, fmt.Errorf("failed to aggregate stats: %w", err)
		}

		jsonResult, _ := json.Marshal(result)
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}
