package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aerostat-io/aerostat-engine/pkg/audit"
	"github.com/aerostat-io/aerostat-engine/pkg/pipeline"
	enginesql "github.com/aerostat-io/aerostat-engine/pkg/sql"
)

type fakeRunner struct {
	requests []pipeline.Request
	result   *pipeline.ExecutionResult
}

func (f *fakeRunner) Run(_ context.Context, req pipeline.Request) *pipeline.ExecutionResult {
	f.requests = append(f.requests, req)
	return f.result
}

type fakeHistory struct {
	questions []string
	recorded  []*pipeline.ExecutionResult
	queryID   uuid.UUID
	failures  []audit.HistoryEntry
}

func (f *fakeHistory) Record(_ context.Context, question string, result *pipeline.ExecutionResult) uuid.UUID {
	f.questions = append(f.questions, question)
	f.recorded = append(f.recorded, result)
	return f.queryID
}

func (f *fakeHistory) RecentFailures(_ context.Context, _ int) ([]audit.HistoryEntry, error) {
	return f.failures, nil
}

func newQueryServer(runner *fakeRunner, history *fakeHistory) *server.MCPServer {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterQueryTools(s, &QueryToolDeps{Runner: runner, History: history, Logger: zap.NewNop()})
	return s
}

// callTool invokes a tool through the JSON-RPC surface and returns the text
// payload plus the isError flag.
func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) (string, bool) {
	t.Helper()

	argsJSON, err := json.Marshal(args)
	require.NoError(t, err)
	request := fmt.Sprintf(
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":%q,"arguments":%s},"id":1}`,
		name, argsJSON)

	raw := s.HandleMessage(context.Background(), []byte(request))
	rawJSON, err := json.Marshal(raw)
	require.NoError(t, err)

	var response struct {
		Result struct {
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
			IsError bool `json:"isError"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rawJSON, &response))
	require.NotEmpty(t, response.Result.Content)
	return response.Result.Content[0].Text, response.Result.IsError
}

func successResult() *pipeline.ExecutionResult {
	return &pipeline.ExecutionResult{
		Success:   true,
		Statement: "SELECT carrier, COUNT(*) AS flights FROM flight_legs GROUP BY carrier LIMIT 20",
		Columns:   []string{"carrier", "flights"},
		Rows:      []map[string]any{{"carrier": "TU", "flights": float64(120)}},
		RowCount:  1,
	}
}

func TestExecuteQuery(t *testing.T) {
	runner := &fakeRunner{result: successResult()}
	history := &fakeHistory{queryID: uuid.New()}
	s := newQueryServer(runner, history)

	text, isError := callTool(t, s, "execute_query", map[string]any{
		"sql": "SELECT carrier FROM flight_legs LIMIT 20",
	})
	assert.False(t, isError)

	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, history.queryID.String(), resp.QueryID)
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.RowCount)

	require.Len(t, runner.requests, 1)
	assert.Equal(t, "SELECT carrier FROM flight_legs LIMIT 20", runner.requests[0].Statement)
	assert.Empty(t, runner.requests[0].Question)

	// Statement runs are recorded without a question.
	require.Len(t, history.questions, 1)
	assert.Empty(t, history.questions[0])
}

func TestExecuteQuery_ArgumentAliases(t *testing.T) {
	for _, key := range []string{"sql", "query", "statement"} {
		t.Run(key, func(t *testing.T) {
			runner := &fakeRunner{result: successResult()}
			history := &fakeHistory{queryID: uuid.New()}
			s := newQueryServer(runner, history)

			_, isError := callTool(t, s, "execute_query", map[string]any{
				key: "SELECT 1 LIMIT 1",
			})
			assert.False(t, isError)
			require.Len(t, runner.requests, 1)
			assert.Equal(t, "SELECT 1 LIMIT 1", runner.requests[0].Statement)
		})
	}
}

func TestExecuteQuery_EmptyStatement(t *testing.T) {
	runner := &fakeRunner{result: successResult()}
	s := newQueryServer(runner, &fakeHistory{queryID: uuid.New()})

	text, isError := callTool(t, s, "execute_query", map[string]any{"sql": "   "})
	assert.True(t, isError)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, "invalid_parameters", resp.Code)
	assert.Empty(t, runner.requests)
}

func TestExecuteQuery_FailureCarriesValidationErrors(t *testing.T) {
	runner := &fakeRunner{result: &pipeline.ExecutionResult{
		Success:      false,
		Statement:    "DROP TABLE flights",
		ErrorMessage: "statement failed validation",
		Errors: []enginesql.ValidationError{
			{Kind: enginesql.ErrorKindSecurity, Message: "statement type DROP is not allowed", Severity: enginesql.SeverityCritical},
		},
	}}
	s := newQueryServer(runner, &fakeHistory{queryID: uuid.New()})

	text, isError := callTool(t, s, "execute_query", map[string]any{"sql": "DROP TABLE flights"})
	assert.True(t, isError)

	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.False(t, resp.Success)
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, enginesql.ErrorKindSecurity, resp.Errors[0].Kind)
}

func TestAskQuestion(t *testing.T) {
	runner := &fakeRunner{result: successResult()}
	history := &fakeHistory{queryID: uuid.New()}
	s := newQueryServer(runner, history)

	text, isError := callTool(t, s, "ask_question", map[string]any{
		"question": "Which carrier flew the most legs?",
	})
	assert.False(t, isError)

	var resp queryResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Statement, "flight_legs")

	require.Len(t, runner.requests, 1)
	assert.Equal(t, "Which carrier flew the most legs?", runner.requests[0].Question)
	assert.Empty(t, runner.requests[0].Statement)

	require.Len(t, history.questions, 1)
	assert.Equal(t, "Which carrier flew the most legs?", history.questions[0])
}

func TestAskQuestion_EmptyQuestion(t *testing.T) {
	runner := &fakeRunner{result: successResult()}
	s := newQueryServer(runner, &fakeHistory{queryID: uuid.New()})

	text, isError := callTool(t, s, "ask_question", map[string]any{"question": ""})
	assert.True(t, isError)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, "invalid_parameters", resp.Code)
	assert.Empty(t, runner.requests)
}

func TestRecentFailures(t *testing.T) {
	history := &fakeHistory{
		queryID: uuid.New(),
		failures: []audit.HistoryEntry{
			{
				ID:           uuid.New(),
				Question:     "how many flights?",
				Statement:    "SELECT COUNT(*) FROM flighst",
				ErrorMessage: "Table 'stats.flighst' doesn't exist",
				CreatedAt:    time.Now().UTC(),
			},
		},
	}
	s := newQueryServer(&fakeRunner{result: successResult()}, history)

	text, isError := callTool(t, s, "recent_failures", map[string]any{"limit": 5})
	assert.False(t, isError)

	var resp recentFailuresResponse
	require.NoError(t, json.Unmarshal([]byte(text), &resp))
	assert.Equal(t, 1, resp.Count)
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "how many flights?", resp.Failures[0].Question)
}
