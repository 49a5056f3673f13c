package mcp

import (
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeParams_RedactsStatementLiterals(t *testing.T) {
	params := sanitizeParams(map[string]any{
		"sql":   "SELECT name FROM airports WHERE city = 'Tunis' LIMIT 5",
		"limit": float64(5),
	})

	require.NotNil(t, params)
	assert.Equal(t, "SELECT name FROM airports WHERE city = '***' LIMIT 5", params["sql"])
	assert.Equal(t, float64(5), params["limit"])
}

func TestSanitizeParams_LeavesNonStatementKeysAlone(t *testing.T) {
	params := sanitizeParams(map[string]any{
		"table": "airports",
		"note":  "contains 'quoted' text",
	})

	assert.Equal(t, "airports", params["table"])
	assert.Equal(t, "contains 'quoted' text", params["note"])
}

func TestSanitizeParams_TruncatesLongValues(t *testing.T) {
	long := strings.Repeat("x", maxParamSize+100)
	params := sanitizeParams(map[string]any{"question": long})

	got, ok := params["question"].(string)
	require.True(t, ok)
	assert.Len(t, got, maxParamSize+len("...[truncated]"))
	assert.True(t, strings.HasSuffix(got, "...[truncated]"))
}

func TestSanitizeParams_NonMapArguments(t *testing.T) {
	assert.Nil(t, sanitizeParams(nil))
	assert.Nil(t, sanitizeParams("not a map"))
	assert.Nil(t, sanitizeParams(map[string]any{}))
}

func TestIsStatementParam(t *testing.T) {
	assert.True(t, isStatementParam("sql"))
	assert.True(t, isStatementParam("Query"))
	assert.True(t, isStatementParam("statement"))
	assert.True(t, isStatementParam("candidate_sql"))
	assert.False(t, isStatementParam("table"))
	assert.False(t, isStatementParam("question"))
}

func TestSummarizeResult(t *testing.T) {
	result := mcplib.NewToolResultText(`{"row_count": 42, "success": true}`)
	summary := summarizeResult(result)

	require.NotNil(t, summary)
	assert.Equal(t, false, summary["is_error"])
	assert.Equal(t, 42, summary["row_count"])
	assert.Contains(t, summary["preview"], "row_count")

	assert.Nil(t, summarizeResult(nil))
}
