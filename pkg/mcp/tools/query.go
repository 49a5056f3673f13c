package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/aerostat-io/aerostat-engine/pkg/audit"
	"github.com/aerostat-io/aerostat-engine/pkg/pipeline"
)

// QueryRunner drives a question or statement through validation, repair and
// execution. *pipeline.Pipeline is the production implementation.
type QueryRunner interface {
	Run(ctx context.Context, req pipeline.Request) *pipeline.ExecutionResult
}

// HistoryStore records pipeline runs. *audit.Recorder is the production
// implementation.
type HistoryStore interface {
	Record(ctx context.Context, question string, result *pipeline.ExecutionResult) uuid.UUID
	RecentFailures(ctx context.Context, limit int) ([]audit.HistoryEntry, error)
}

// QueryToolDeps contains dependencies for query execution tools.
type QueryToolDeps struct {
	Runner  QueryRunner
	History HistoryStore
	Logger  *zap.Logger
}

// RegisterQueryTools registers the query execution and history tools.
func RegisterQueryTools(s *server.MCPServer, deps *QueryToolDeps) {
	registerExecuteQueryTool(s, deps)
	registerAskQuestionTool(s, deps)
	registerRecentFailuresTool(s, deps)
}

// queryResponse is the tool payload for execute_query and ask_question.
type queryResponse struct {
	QueryID string `json:"query_id"`
	*pipeline.ExecutionResult
}

func registerExecuteQueryTool(s *server.MCPServer, deps *QueryToolDeps) {
	tool := mcp.NewTool(
		"execute_query",
		mcp.WithDescription(
			"Validate, repair and execute a SQL statement against the flight statistics warehouse. "+
				"Statements in foreign dialects (ILIKE, ::casts, STRING_AGG, TOP, double-quoted identifiers) "+
				"are rewritten to MySQL automatically; unbounded reads get a LIMIT appended. "+
				"Only read statements are allowed. On validation failure the response carries "+
				"per-error suggestions you can apply and retry. "+
				"Example: execute_query(sql='SELECT carrier, COUNT(*) FROM flight_legs GROUP BY carrier LIMIT 20')",
		),
		mcp.WithString(
			"sql",
			mcp.Required(),
			mcp.Description("The SQL statement to execute"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		statement := statementArg(req)
		if statement == "" {
			return NewErrorResult("invalid_parameters", "parameter 'sql' cannot be empty"), nil
		}

		result := deps.Runner.Run(ctx, pipeline.Request{Statement: statement})
		queryID := deps.History.Record(ctx, "", result)
		return queryToolResult(queryID, result)
	})
}

func registerAskQuestionTool(s *server.MCPServer, deps *QueryToolDeps) {
	tool := mcp.NewTool(
		"ask_question",
		mcp.WithDescription(
			"Answer a natural language question about the flight statistics warehouse. "+
				"The question is turned into SQL, validated, repaired and executed; invalid "+
				"generations are retried with error feedback before giving up. "+
				"The executed statement is returned alongside the rows. "+
				"Example: ask_question(question='Which carrier had the most delayed flights last month?')",
		),
		mcp.WithString(
			"question",
			mcp.Required(),
			mcp.Description("The question to answer, in plain language"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question := questionArg(req)
		if question == "" {
			return NewErrorResult("invalid_parameters", "parameter 'question' cannot be empty"), nil
		}

		result := deps.Runner.Run(ctx, pipeline.Request{Question: question})
		queryID := deps.History.Record(ctx, question, result)
		return queryToolResult(queryID, result)
	})
}

type recentFailuresResponse struct {
	Failures []audit.HistoryEntry `json:"failures"`
	Count    int                  `json:"count"`
}

func registerRecentFailuresTool(s *server.MCPServer, deps *QueryToolDeps) {
	tool := mcp.NewTool(
		"recent_failures",
		mcp.WithDescription(
			"List recently failed queries with their error messages, newest first. "+
				"Useful for spotting recurring schema misunderstandings. "+
				"Requires the state database; returns an empty list when history is disabled.",
		),
		mcp.WithNumber(
			"limit",
			mcp.Description("Optional - Maximum number of entries to return (default 20)"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries, err := deps.History.RecentFailures(ctx, intArg(req, 0, "limit"))
		if err != nil {
			return nil, fmt.Errorf("failed to load query history: %w", err)
		}

		jsonResult, err := json.Marshal(recentFailuresResponse{Failures: entries, Count: len(entries)})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		return mcp.NewToolResultText(string(jsonResult)), nil
	})
}

// queryToolResult renders a pipeline outcome. Failures are still returned as
// structured payloads so the caller sees validation errors and suggestions.
func queryToolResult(queryID uuid.UUID, result *pipeline.ExecutionResult) (*mcp.CallToolResult, error) {
	jsonResult, err := json.Marshal(queryResponse{QueryID: queryID.String(), ExecutionResult: result})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	toolResult := mcp.NewToolResultText(string(jsonResult))
	toolResult.IsError = !result.Success
	return toolResult, nil
}
