// Package tools provides the MCP tool surface of aerostat-engine.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/aerostat-io/aerostat-engine/pkg/apperrors"
	"github.com/aerostat-io/aerostat-engine/pkg/datasource"
)

// SchemaSource answers warehouse schema questions. *datasource.Introspector
// is the production implementation.
type SchemaSource interface {
	ListTables(ctx context.Context) ([]datasource.TableInfo, error)
	DescribeTable(ctx context.Context, name string, includeIndexes bool) (*datasource.TableSchema, error)
	SampleTable(ctx context.Context, name string, sampleSize int, includeStats bool) (*datasource.TableSample, error)
}

// SchemaToolDeps contains dependencies for schema inspection tools.
type SchemaToolDeps struct {
	Source SchemaSource
	Logger *zap.Logger
}

// RegisterSchemaTools registers the warehouse schema inspection tools.
func RegisterSchemaTools(s *server.MCPServer, deps *SchemaToolDeps) {
	registerListTablesTool(s, deps)
	registerDescribeTableTool(s, deps)
	registerSampleTableTool(s, deps)
}

type listTablesResponse struct {
	Tables []datasource.TableInfo `json:"tables"`
	Count  int                    `json:"count"`
}

func registerListTablesTool(s *server.MCPServer, deps *SchemaToolDeps) {
	tool := mcp.NewTool(
		"list_tables",
		mcp.WithDescription(
			"List all tables in the flight statistics warehouse with approximate row counts. "+
				"Call this first to discover what data is available. "+
				"Results are cached briefly; newly created tables may take a few minutes to appear.",
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tables, err := deps.Source.ListTables(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}

		jsonResult, err := json.Marshal(listTablesResponse{Tables: tables, Count: len(tables)})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

func registerDescribeTableTool(s *server.MCPServer, deps *SchemaToolDeps) {
	tool := mcp.NewTool(
		"describe_table",
		mcp.WithDescription(
			"Describe the columns of a warehouse table: types, nullability, keys and comments. "+
				"Set include_indexes=true to also return index definitions. "+
				"Example: describe_table(table='flight_legs', include_indexes=true)",
		),
		mcp.WithString(
			"table",
			mcp.Required(),
			mcp.Description("Table name to describe (e.g., 'airports', 'flight_legs')"),
		),
		mcp.WithBoolean(
			"include_indexes",
			mcp.Description("Optional - Include index definitions in the response"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table := tableArg(req)
		if table == "" {
			return NewErrorResult("invalid_parameters", "parameter 'table' cannot be empty"), nil
		}

		schema, err := deps.Source.DescribeTable(ctx, table, boolArg(req, "include_indexes"))
		if err != nil {
			if result := schemaErrorResult(table, err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to describe table: %w", err)
		}

		jsonResult, err := json.Marshal(schema)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

func registerSampleTableTool(s *server.MCPServer, deps *SchemaToolDeps) {
	tool := mcp.NewTool(
		"sample_table",
		mcp.WithDescription(
			"Fetch a small sample of rows from a warehouse table to inspect actual values. "+
				"Set include_stats=true to also compute per-column non-null and distinct counts over the sample. "+
				"Example: sample_table(table='carriers', limit=10)",
		),
		mcp.WithString(
			"table",
			mcp.Required(),
			mcp.Description("Table name to sample"),
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Optional - Number of rows to fetch (server-side cap applies)"),
		),
		mcp.WithBoolean(
			"include_stats",
			mcp.Description("Optional - Compute per-column statistics over the sample"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		table := tableArg(req)
		if table == "" {
			return NewErrorResult("invalid_parameters", "parameter 'table' cannot be empty"), nil
		}

		sample, err := deps.Source.SampleTable(ctx, table, intArg(req, 0, limitAliases...), boolArg(req, "include_stats"))
		if err != nil {
			if result := schemaErrorResult(table, err); result != nil {
				return result, nil
			}
			return nil, fmt.Errorf("failed to sample table: %w", err)
		}

		jsonResult, err := json.Marshal(sample)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// schemaErrorResult maps recoverable introspection errors onto structured
// error results. Returns nil for system failures.
func schemaErrorResult(table string, err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperrors.ErrInvalidTableName):
		return NewErrorResult("invalid_table_name",
			fmt.Sprintf("table name %q is not a valid identifier", table))
	case errors.Is(err, apperrors.ErrTableNotFound):
		return NewErrorResult("table_not_found",
			fmt.Sprintf("table %q not found in the warehouse. Call list_tables() to see available tables.", table))
	}
	return nil
}
