package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aerostat-io/aerostat-engine/pkg/logging"
)

// ConnectionTester reports whether the warehouse is reachable.
// *datasource.Manager is the production implementation.
type ConnectionTester interface {
	TestConnection(ctx context.Context) error
}

type healthResult struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Warehouse string `json:"warehouse"`
}

// RegisterHealthTool adds a health check tool to the MCP server.
// The tool returns the server version and warehouse connectivity.
func RegisterHealthTool(s *server.MCPServer, version string, tester ConnectionTester) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status and version"),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		health := healthResult{Status: "ok", Version: version, Warehouse: "connected"}
		if tester != nil {
			if err := tester.TestConnection(ctx); err != nil {
				health.Status = "degraded"
				health.Warehouse = logging.SanitizeError(err)
			}
		}

		result, err := json.Marshal(health)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal health result: %w", err)
		}
		return mcp.NewToolResultText(string(result)), nil
	})
}
