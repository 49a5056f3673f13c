package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/aerostat-io/aerostat-engine/pkg/apperrors"
	"github.com/aerostat-io/aerostat-engine/pkg/config"
	"github.com/aerostat-io/aerostat-engine/pkg/llm"
	"github.com/aerostat-io/aerostat-engine/pkg/logging"
	"github.com/aerostat-io/aerostat-engine/pkg/prompts"
	enginesql "github.com/aerostat-io/aerostat-engine/pkg/sql"
)

// relevanceFloor is the score below which a question is rejected before any
// generation happens. The relevance check is best-effort: if it errors the
// pipeline proceeds rather than blocking on it.
const relevanceFloor = 0.2

// StatementExecutor runs a validated statement. Implemented by Executor;
// tests substitute fakes.
type StatementExecutor interface {
	Execute(ctx context.Context, statement string) *ExecutionResult
}

// Pipeline is the generation/regeneration orchestrator. One Run per request;
// a run is strictly sequential.
type Pipeline struct {
	cfg       *config.Config
	generator llm.Generator // nil when no generation capability is registered
	executor  StatementExecutor
	schema    SchemaProvider
	logger    *zap.Logger
}

// New creates a Pipeline. generator may be nil; statement-only requests
// still work without one.
func New(cfg *config.Config, generator llm.Generator, executor StatementExecutor, schema SchemaProvider, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:       cfg,
		generator: generator,
		executor:  executor,
		schema:    schema,
		logger:    logger.Named("pipeline"),
	}
}

// Run drives one request through the state machine: generate (if needed),
// extract, validate, repair, regenerate up to the bound, execute. An invalid
// statement is never executed.
func (p *Pipeline) Run(ctx context.Context, req Request) *ExecutionResult {
	attempt := &Attempt{}

	var schemaDescription string
	statement := req.Statement

	if statement == "" {
		if req.Question == "" {
			return p.failure(attempt, "request has neither a question nor a statement")
		}
		if p.generator == nil {
			return p.failure(attempt, apperrors.ErrNoGenerator.Error())
		}

		desc, err := p.schema.SchemaDescription(ctx)
		if err != nil {
			return p.failure(attempt, fmt.Sprintf("schema description unavailable: %s", logging.SanitizeError(err)))
		}
		schemaDescription = desc

		if score, err := p.generator.RateRelevance(ctx, req.Question, schemaDescription); err == nil && score < relevanceFloor {
			return p.failure(attempt, fmt.Sprintf("question does not appear answerable from the warehouse (relevance %.2f)", score))
		}

		generated, err := p.generate(ctx, prompts.BuildGenerationPrompt(req.Question, schemaDescription))
		if err != nil {
			return p.failure(attempt, fmt.Sprintf("generation failed: %s", logging.SanitizeError(err)))
		}
		if generated == "" {
			return p.failure(attempt, "generation produced no statement")
		}
		statement = generated
	}

	for {
		final, validation, repair := p.prepare(statement)
		attempt.Statement = final
		attempt.Validation = validation
		attempt.Repair = repair

		if validation.Valid {
			result := p.executor.Execute(ctx, final)
			result.Statement = final
			result.Warnings = validation.Warnings
			result.RepairsApplied = repair.Actions
			result.RegenAttempts = attempt.Regenerations
			return result
		}

		// Security violations are never repaired or regenerated around.
		if validation.HasSecurityError() {
			return p.failureFrom(attempt, "statement rejected for security reasons")
		}

		if !p.canRegenerate(req) {
			return p.failureFrom(attempt, "statement failed validation")
		}
		if attempt.Regenerations >= p.cfg.Pipeline.MaxRegenerationAttempts {
			return p.failureFrom(attempt, apperrors.ErrRegenerationExhausted.Error())
		}

		if schemaDescription == "" {
			desc, err := p.schema.SchemaDescription(ctx)
			if err != nil {
				return p.failureFrom(attempt, fmt.Sprintf("schema description unavailable: %s", logging.SanitizeError(err)))
			}
			schemaDescription = desc
		}

		attempt.Regenerations++
		p.logger.Info("regenerating statement",
			zap.Int("attempt", attempt.Regenerations),
			zap.Int("errors", len(validation.Errors)),
			zap.String("statement", logging.TruncateStatement(attempt.Statement)))

		prompt := prompts.BuildRegenerationPrompt(req.Question, schemaDescription, attempt.Statement, validation.Errors)
		next, err := p.generate(ctx, prompt)
		if err != nil {
			return p.failureFrom(attempt, fmt.Sprintf("regeneration failed: %s", logging.SanitizeError(err)))
		}
		statement = next
	}
}

// prepare takes a raw statement through validate, repair and revalidate.
// Security findings on the raw statement stand as-is; repair never runs on
// them.
func (p *Pipeline) prepare(statement string) (string, enginesql.ValidationResult, enginesql.RepairResult) {
	initial := enginesql.Validate(statement)
	if initial.HasSecurityError() {
		return statement, initial, enginesql.RepairResult{Statement: statement}
	}

	repair := enginesql.RepairWithBound(statement, p.cfg.Pipeline.DefaultRowLimit)
	final := enginesql.Validate(repair.Statement)
	return repair.Statement, final, repair
}

// canRegenerate reports whether the regeneration loop is available for this
// request. A question is required: regeneration prompts are grounded in it.
func (p *Pipeline) canRegenerate(req Request) bool {
	return p.generator != nil && p.cfg.Pipeline.AutoRegenerate && req.Question != ""
}

func (p *Pipeline) generate(ctx context.Context, prompt string) (string, error) {
	result, err := p.generator.Generate(ctx, llm.GenerateRequest{
		System:      prompts.GenerationSystem,
		Prompt:      prompt,
		Temperature: p.cfg.Generator.Temperature,
	})
	if err != nil {
		return "", err
	}
	return enginesql.ExtractStatement(result.Content), nil
}

func (p *Pipeline) failure(attempt *Attempt, message string) *ExecutionResult {
	return &ExecutionResult{
		Success:       false,
		ErrorMessage:  message,
		RegenAttempts: attempt.Regenerations,
	}
}

// failureFrom builds a failure carrying the final attempted statement and
// everything learned about it, sufficient to diagnose without re-running.
func (p *Pipeline) failureFrom(attempt *Attempt, message string) *ExecutionResult {
	return &ExecutionResult{
		Success:        false,
		Statement:      attempt.Statement,
		ErrorMessage:   message,
		Errors:         attempt.Validation.Errors,
		Warnings:       attempt.Validation.Warnings,
		RepairsApplied: attempt.Repair.Actions,
		RegenAttempts:  attempt.Regenerations,
	}
}
