package prompts

import (
	"fmt"
	"strings"

	enginesql "github.com/aerostat-io/aerostat-engine/pkg/sql"
)

// GenerationSystem is the system message for statement generation. It doubles
// as a dialect cheat-sheet: the constructs it forbids are exactly the ones
// the validator flags and the repair engine rewrites.
const GenerationSystem = `You translate analytics questions about flight statistics into MySQL 8 SELECT statements.

Rules:
- MySQL dialect only: no ILIKE, no ::casts, no || concatenation, no $1-style placeholders, no STRING_AGG, no TOP, no TO_CHAR, no NVL.
- Quote identifiers with backticks when needed, never with double quotes or [brackets].
- One read-only statement: SELECT or WITH. No semicolons, no comments, no writes.
- Always include a LIMIT clause.
- Use only tables and columns from the schema provided.
- Reply with a JSON object {"query": "..."} and nothing else.`

// BuildGenerationPrompt creates the first-attempt prompt for a question.
func BuildGenerationPrompt(question, schemaDescription string) string {
	var b strings.Builder
	b.WriteString(schemaDescription)
	b.WriteString("## Question\n\n")
	b.WriteString(question)
	b.WriteString("\n")
	return b.String()
}

// BuildRegenerationPrompt creates a retry prompt after validation failed.
// It carries the failing statement and its specific errors so the generator
// can correct them, not the full history of prior attempts.
func BuildRegenerationPrompt(question, schemaDescription, failedStatement string, errs []enginesql.ValidationError) string {
	var b strings.Builder
	b.WriteString(schemaDescription)
	b.WriteString("## Question\n\n")
	b.WriteString(question)
	b.WriteString("\n\n")

	b.WriteString("## Previous Attempt\n\n")
	b.WriteString("This statement was rejected:\n\n")
	b.WriteString(failedStatement)
	b.WriteString("\n\nProblems:\n")
	for _, e := range errs {
		b.WriteString(fmt.Sprintf("- [%s] %s", e.Kind, e.Message))
		if e.Suggestion != "" {
			b.WriteString(" Fix: " + e.Suggestion)
		}
		b.WriteString("\n")
	}
	b.WriteString("\nGenerate a corrected MySQL statement for the question.\n")
	return b.String()
}
