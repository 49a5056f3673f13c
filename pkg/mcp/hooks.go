package mcp

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// ToolAuditor observes every tool call through mcp-go hooks and emits a
// structured log line per call: tool name, sanitized arguments, duration and
// a compact result summary. Statement literals are redacted before logging.
type ToolAuditor struct {
	logger *zap.Logger

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewToolAuditor creates a ToolAuditor with a dedicated logger namespace.
func NewToolAuditor(logger *zap.Logger) *ToolAuditor {
	return &ToolAuditor{logger: logger.Named("mcp-audit")}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *ToolAuditor) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *ToolAuditor) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, time.Now())
}

func (a *ToolAuditor) afterCallTool(_ context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	startTime, _ := a.loadAndDeleteStart(id)

	fields := []zap.Field{
		zap.String("tool", req.Params.Name),
		zap.Int64("duration_ms", time.Since(startTime).Milliseconds()),
		zap.Any("params", sanitizeParams(req.Params.Arguments)),
	}
	summary := summarizeResult(result)
	if summary != nil {
		fields = append(fields, zap.Any("result", summary))
	}

	if result != nil && result.IsError {
		a.logger.Warn("Tool call returned error result", fields...)
		return
	}
	a.logger.Info("Tool call completed", fields...)
}

func (a *ToolAuditor) onError(_ context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}

	startTime, _ := a.loadAndDeleteStart(id)

	a.logger.Error("Tool call failed",
		zap.String("tool", req.Params.Name),
		zap.Int64("duration_ms", time.Since(startTime).Milliseconds()),
		zap.Any("params", sanitizeParams(req.Params.Arguments)),
		zap.Error(err),
	)
}

func (a *ToolAuditor) loadAndDeleteStart(id any) (time.Time, bool) {
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		return v.(time.Time), true
	}
	return time.Now(), false
}

// maxParamSize is the maximum size of a single string argument in audit logs.
const maxParamSize = 10240

// statementLiteralPattern matches SQL string literals, including ones with
// doubled-quote escapes.
var statementLiteralPattern = regexp.MustCompile(`'(?:[^']*(?:'')?)*[^']*'`)

// sanitizeParams prepares tool arguments for logging: long values are
// truncated and string literals in SQL-bearing parameters are redacted.
func sanitizeParams(args any) map[string]any {
	params, ok := args.(map[string]any)
	if !ok || len(params) == 0 {
		return nil
	}

	sanitized := make(map[string]any, len(params))
	for k, v := range params {
		sanitized[k] = sanitizeValue(k, v)
	}
	return sanitized
}

func sanitizeValue(key string, value any) any {
	switch val := value.(type) {
	case string:
		if len(val) > maxParamSize {
			val = val[:maxParamSize] + "...[truncated]"
		}
		if isStatementParam(key) {
			val = statementLiteralPattern.ReplaceAllString(val, "'***'")
		}
		return val
	case map[string]any:
		return sanitizeParams(val)
	default:
		return value
	}
}

// isStatementParam returns true if a parameter key likely carries SQL.
func isStatementParam(key string) bool {
	lower := strings.ToLower(key)
	return lower == "sql" || lower == "query" || lower == "statement" ||
		strings.HasSuffix(lower, "_sql") || strings.HasSuffix(lower, "_query")
}

// summarizeResult creates a compact summary of the tool result.
func summarizeResult(result *mcplib.CallToolResult) map[string]any {
	if result == nil {
		return nil
	}

	summary := map[string]any{
		"is_error": result.IsError,
	}

	for _, c := range result.Content {
		tc, ok := c.(mcplib.TextContent)
		if !ok {
			continue
		}
		text := tc.Text
		extractRowCount(text, summary)
		if len(text) > 200 {
			text = text[:200] + "...[truncated]"
		}
		summary["preview"] = text
		break
	}

	return summary
}

// extractRowCount pulls the row_count field out of a JSON text response so
// large result sets are visible without parsing the full payload.
func extractRowCount(text string, summary map[string]any) {
	var partial struct {
		RowCount *int `json:"row_count"`
	}
	if err := json.Unmarshal([]byte(text), &partial); err == nil && partial.RowCount != nil {
		summary["row_count"] = *partial.RowCount
	}
}
