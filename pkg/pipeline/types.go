// Package pipeline drives a question or candidate statement through
// extraction, validation, repair, bounded regeneration and finally execution
// against the warehouse. No error escapes the pipeline boundary; every path
// ends in a structured ExecutionResult.
package pipeline

import (
	enginesql "github.com/aerostat-io/aerostat-engine/pkg/sql"
)

// Request is one unit of pipeline work. Exactly one of Question or Statement
// drives the run; when Statement is set, generation is skipped.
type Request struct {
	Question  string `json:"question,omitempty"`
	Statement string `json:"statement,omitempty"`
}

// Attempt tracks the state of one pipeline run. Transient, never shared.
type Attempt struct {
	Statement     string
	Validation    enginesql.ValidationResult
	Repair        enginesql.RepairResult
	Regenerations int
}

// ExecutionResult is the single structured outcome of a pipeline run. It is
// returned for success and failure alike; callers branch on Success.
type ExecutionResult struct {
	Success   bool   `json:"success"`
	Statement string `json:"statement,omitempty"`

	Columns         []string         `json:"columns,omitempty"`
	Rows            []map[string]any `json:"rows,omitempty"`
	RowCount        int              `json:"row_count"`
	RowsAffected    int64            `json:"rows_affected,omitempty"`
	Truncated       bool             `json:"truncated,omitempty"`
	ExecutionTimeMs int64            `json:"execution_time_ms,omitempty"`
	Plan            string           `json:"plan,omitempty"`

	ErrorMessage string `json:"error_message,omitempty"`
	SQLErrorCode uint16 `json:"sql_error_code,omitempty"`

	Errors         []enginesql.ValidationError   `json:"errors,omitempty"`
	Warnings       []enginesql.ValidationWarning `json:"warnings,omitempty"`
	RepairsApplied []enginesql.RepairAction      `json:"repairs_applied,omitempty"`
	RegenAttempts  int                           `json:"regeneration_attempts"`
}
