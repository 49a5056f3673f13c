package tools

import (
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/aerostat-io/aerostat-engine/pkg/jsonutil"
)

// Argument aliases accepted at the tool boundary. Different MCP clients and
// models phrase the same argument differently; every tool resolves through
// these lists so "table", "table_name" and "name" all work.
var (
	tableAliases     = []string{"table", "table_name", "name"}
	statementAliases = []string{"sql", "query", "statement"}
	questionAliases  = []string{"question", "prompt"}
	limitAliases     = []string{"limit", "sample_size", "rows"}
)

func requestArgs(req mcp.CallToolRequest) map[string]any {
	args, _ := req.Params.Arguments.(map[string]any)
	return args
}

// tableArg resolves the table name argument across its aliases.
func tableArg(req mcp.CallToolRequest) string {
	return stringArg(req, tableAliases...)
}

// statementArg resolves the SQL statement argument across its aliases.
func statementArg(req mcp.CallToolRequest) string {
	return stringArg(req, statementAliases...)
}

// questionArg resolves the natural language question argument.
func questionArg(req mcp.CallToolRequest) string {
	return stringArg(req, questionAliases...)
}

func stringArg(req mcp.CallToolRequest, keys ...string) string {
	v, ok := jsonutil.FirstPresent(requestArgs(req), keys...)
	if !ok {
		return ""
	}
	return strings.TrimSpace(jsonutil.StringValue(v))
}

// intArg resolves an integer argument across aliases, tolerating string and
// float encodings. Returns fallback when absent or unusable.
func intArg(req mcp.CallToolRequest, fallback int, keys ...string) int {
	v, ok := jsonutil.FirstPresent(requestArgs(req), keys...)
	if !ok {
		return fallback
	}
	if n, ok := jsonutil.IntValue(v); ok {
		return n
	}
	return fallback
}

// boolArg resolves a boolean argument, tolerating "true"/"1" strings.
func boolArg(req mcp.CallToolRequest, key string) bool {
	v, ok := jsonutil.FirstPresent(requestArgs(req), key)
	if !ok {
		return false
	}
	return jsonutil.BoolValue(v)
}
