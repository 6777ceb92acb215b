package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/crossquery/crossquery-engine/pkg/services"
)

// probeTimeout bounds each source's health ping.
const probeTimeout = 3 * time.Second

type healthResult struct {
	Status  string                  `json:"status"`
	Version string                  `json:"version"`
	Sources []services.SourceHealth `json:"sources"`
}

// RegisterHealthTool adds a health check tool to the MCP server. The tool
// pings every source; status is "degraded" when any source is unreachable.
func RegisterHealthTool(s *server.MCPServer, deps *RouterToolDeps, version string) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health, version, and per-source reachability"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		statuses := deps.Service.Health(ctx, probeTimeout)

		status := "ok"
		for _, st := range statuses {
			if !st.Reachable {
				status = "degraded"
				break
			}
		}

		result, err := json.Marshal(healthResult{
			Status:  status,
			Version: version,
			Sources: statuses,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
