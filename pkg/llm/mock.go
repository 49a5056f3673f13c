package llm

import (
	"context"
)

// Mock is a configurable Generator for tests.
// Set the function fields to control behavior.
type Mock struct {
	// GenerateFunc is called when Generate is invoked.
	// If nil, returns an empty result and nil error.
	GenerateFunc func(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// RateRelevanceFunc is called when RateRelevance is invoked.
	// If nil, returns 1 and nil error.
	RateRelevanceFunc func(ctx context.Context, question, schemaDescription string) (float64, error)

	// ModelName is returned by Model. Defaults to "mock-model".
	ModelName string

	// Call tracking for verification.
	GenerateCalls      int
	RateRelevanceCalls int

	// Requests records every GenerateRequest seen, in order.
	Requests []GenerateRequest
}

// NewMock creates a mock with sensible defaults.
func NewMock() *Mock {
	return &Mock{ModelName: "mock-model"}
}

// Generate implements Generator.
func (m *Mock) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	m.GenerateCalls++
	m.Requests = append(m.Requests, req)
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, req)
	}
	return &GenerateResult{}, nil
}

// RateRelevance implements Generator.
func (m *Mock) RateRelevance(ctx context.Context, question, schemaDescription string) (float64, error) {
	m.RateRelevanceCalls++
	if m.RateRelevanceFunc != nil {
		return m.RateRelevanceFunc(ctx, question, schemaDescription)
	}
	return 1, nil
}

// Model implements Generator.
func (m *Mock) Model() string {
	if m.ModelName == "" {
		return "mock-model"
	}
	return m.ModelName
}

// Reset clears call tracking.
func (m *Mock) Reset() {
	m.GenerateCalls = 0
	m.RateRelevanceCalls = 0
	m.Requests = nil
}
