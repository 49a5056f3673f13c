package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTester struct {
	err error
}

func (f *fakeTester) TestConnection(_ context.Context) error {
	return f.err
}

func TestHealthTool(t *testing.T) {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterHealthTool(s, "1.2.3", &fakeTester{})

	text, isError := callTool(t, s, "health", nil)
	assert.False(t, isError)

	var health healthResult
	require.NoError(t, json.Unmarshal([]byte(text), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	assert.Equal(t, "connected", health.Warehouse)
}

func TestHealthTool_DegradedWarehouse(t *testing.T) {
	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	RegisterHealthTool(s, "1.2.3", &fakeTester{err: errors.New("dial tcp: connection refused")})

	text, isError := callTool(t, s, "health", nil)
	assert.False(t, isError)

	var health healthResult
	require.NoError(t, json.Unmarshal([]byte(text), &health))
	assert.Equal(t, "degraded", health.Status)
	assert.Contains(t, health.Warehouse, "connection refused")
}
