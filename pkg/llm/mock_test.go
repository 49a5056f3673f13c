package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_Defaults(t *testing.T) {
	m := NewMock()

	result, err := m.Generate(context.Background(), GenerateRequest{Prompt: "hi"})
	require.NoError(t, err)
	assert.NotNil(t, result)

	score, err := m.RateRelevance(context.Background(), "q", "schema")
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)

	assert.Equal(t, 1, m.GenerateCalls)
	assert.Equal(t, 1, m.RateRelevanceCalls)
	assert.Equal(t, "mock-model", m.Model())

	m.Reset()
	assert.Equal(t, 0, m.GenerateCalls)
	assert.Empty(t, m.Requests)
}

func TestMock_RecordsRequests(t *testing.T) {
	m := NewMock()
	m.GenerateFunc = func(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
		return &GenerateResult{Content: "SELECT 1"}, nil
	}

	_, err := m.Generate(context.Background(), GenerateRequest{System: "sys", Prompt: "p1"})
	require.NoError(t, err)
	_, err = m.Generate(context.Background(), GenerateRequest{Prompt: "p2"})
	require.NoError(t, err)

	require.Len(t, m.Requests, 2)
	assert.Equal(t, "sys", m.Requests[0].System)
	assert.Equal(t, "p2", m.Requests[1].Prompt)
}

func TestRateRelevance_ParsesScore(t *testing.T) {
	tests := []struct {
		name     string
		response string
		expected float64
	}{
		{"bare number", "0.85", 0.85},
		{"number with prose", "The score is 0.4 given the schema.", 0.4},
		{"zero", "0", 0},
		{"one", "1", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMock()
			m.GenerateFunc = func(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
				return &GenerateResult{Content: tt.response}, nil
			}
			score, err := rateRelevance(context.Background(), m, "how many flights?", "flights(...)")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, score)
		})
	}
}

func TestRateRelevance_NoScore(t *testing.T) {
	m := NewMock()
	m.GenerateFunc = func(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
		return &GenerateResult{Content: "sorry, cannot say"}, nil
	}
	_, err := rateRelevance(context.Background(), m, "q", "s")
	assert.Error(t, err)
}

func TestRateRelevance_PropagatesError(t *testing.T) {
	m := NewMock()
	boom := errors.New("boom")
	m.GenerateFunc = func(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
		return nil, boom
	}
	_, err := rateRelevance(context.Background(), m, "q", "s")
	assert.ErrorIs(t, err, boom)
}
