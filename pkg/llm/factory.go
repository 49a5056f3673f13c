package llm

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/aerostat-io/aerostat-engine/pkg/config"
)

// NewGenerator builds a Generator from config. A missing provider returns
// (nil, nil): the engine then runs without generation and tools that need it
// report a structured error instead.
func NewGenerator(cfg *config.GeneratorConfig, logger *zap.Logger) (Generator, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "openai":
		return NewClient(&ClientConfig{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			APIKey:   cfg.APIKey,
		}, logger)
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model, logger)
	default:
		return nil, fmt.Errorf("unsupported generator provider: %q", cfg.Provider)
	}
}
