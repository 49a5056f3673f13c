// Package llm provides the text-generation capability consumed by the SQL
// pipeline. The pipeline treats generation as a black box: a prompt goes in,
// text comes out. Provider specifics stay behind the Generator interface.
package llm

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
)

// GenerateRequest is one generation call.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float64
}

// GenerateResult carries the generated text plus usage accounting.
type GenerateResult struct {
	Content          string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Generator defines the interface for text generation.
// Use this interface for dependency injection to enable mocking in tests.
type Generator interface {
	// Generate produces a completion for the given prompt.
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)

	// RateRelevance scores how answerable a question is against the given
	// schema description, from 0 (unrelated) to 1 (directly answerable).
	RateRelevance(ctx context.Context, question, schemaDescription string) (float64, error)

	// Model returns the configured model name.
	Model() string
}

// Compile-time interface checks.
var (
	_ Generator = (*Client)(nil)
	_ Generator = (*AnthropicClient)(nil)
	_ Generator = (*Mock)(nil)
)

var scorePattern = regexp.MustCompile(`[01](?:\.\d+)?`)

const relevanceSystem = "You rate whether a question can be answered from a database. " +
	"Reply with a single number between 0 and 1 and nothing else."

// rateRelevance implements RateRelevance on top of Generate so every backend
// shares the same prompt and score parsing.
func rateRelevance(ctx context.Context, g Generator, question, schemaDescription string) (float64, error) {
	prompt := fmt.Sprintf("Database schema:\n%s\n\nQuestion: %s\n\nScore:", schemaDescription, question)

	result, err := g.Generate(ctx, GenerateRequest{
		System:      relevanceSystem,
		Prompt:      prompt,
		Temperature: 0,
	})
	if err != nil {
		return 0, err
	}

	match := scorePattern.FindString(result.Content)
	if match == "" {
		return 0, fmt.Errorf("no score in response %q", result.Content)
	}
	score, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse score %q: %w", match, err)
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}
