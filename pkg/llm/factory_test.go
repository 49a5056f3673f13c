package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aerostat-io/aerostat-engine/pkg/config"
)

func TestNewGenerator_NoProvider(t *testing.T) {
	gen, err := NewGenerator(&config.GeneratorConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, gen)
}

func TestNewGenerator_OpenAI(t *testing.T) {
	gen, err := NewGenerator(&config.GeneratorConfig{
		Provider: "openai",
		Model:    "gpt-4o",
		APIKey:   "test-key",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, gen)
	assert.Equal(t, "gpt-4o", gen.Model())
}

func TestNewGenerator_Anthropic(t *testing.T) {
	gen, err := NewGenerator(&config.GeneratorConfig{
		Provider: "anthropic",
		Model:    "claude-sonnet-4-20250514",
		APIKey:   "test-key",
	}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, gen)
	assert.Equal(t, "claude-sonnet-4-20250514", gen.Model())
}

func TestNewGenerator_MissingModel(t *testing.T) {
	_, err := NewGenerator(&config.GeneratorConfig{Provider: "openai"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewGenerator(&config.GeneratorConfig{Provider: "anthropic", APIKey: "k"}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewGenerator_UnknownProvider(t *testing.T) {
	_, err := NewGenerator(&config.GeneratorConfig{Provider: "bard"}, zap.NewNop())
	assert.Error(t, err)
}
