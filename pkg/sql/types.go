// Package sql validates, repairs and extracts SQL statements destined for
// the MySQL analytic warehouse. Detection is pattern-based: the goal is to
// catch common cross-dialect mistakes cheaply, not to parse SQL.
package sql

// ErrorKind classifies a validation error.
type ErrorKind string

const (
	ErrorKindSyntax      ErrorKind = "syntax"
	ErrorKindDialect     ErrorKind = "dialect"
	ErrorKindSecurity    ErrorKind = "security"
	ErrorKindPerformance ErrorKind = "performance"
)

// Severity ranks how serious a validation error is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// WarningKind classifies an advisory validation warning.
type WarningKind string

const (
	WarningKindPerformance   WarningKind = "performance"
	WarningKindStyle         WarningKind = "style"
	WarningKindCompatibility WarningKind = "compatibility"
)

// Confidence expresses how certain a repair rewrite is to preserve semantics.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ValidationError is produced by Validate and never mutated afterwards.
type ValidationError struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	Severity   Severity  `json:"severity"`
	Suggestion string    `json:"suggestion,omitempty"`
}

// ValidationWarning is advisory only; warnings never block execution.
type ValidationWarning struct {
	Kind       WarningKind `json:"kind"`
	Message    string      `json:"message"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// ValidationResult is the outcome of one validation pass.
// Valid is true iff Errors is empty.
type ValidationResult struct {
	Valid    bool                `json:"valid"`
	Errors   []ValidationError   `json:"errors,omitempty"`
	Warnings []ValidationWarning `json:"warnings,omitempty"`
}

// HasSecurityError reports whether any error is a security violation.
// Security violations are never auto-repaired and short-circuit the pipeline.
func (r ValidationResult) HasSecurityError() bool {
	for _, e := range r.Errors {
		if e.Kind == ErrorKindSecurity {
			return true
		}
	}
	return false
}

// RepairAction records one substitution applied during a repair pass.
type RepairAction struct {
	Rule        string     `json:"rule"`
	Original    string     `json:"original"`
	Replacement string     `json:"replacement"`
	Confidence  Confidence `json:"confidence"`
}

// RepairResult is the outcome of one repair pass.
// Repaired is true iff at least one action was taken. An unchanged statement
// still goes through validation again; not every error is repairable.
type RepairResult struct {
	Statement string         `json:"statement"`
	Actions   []RepairAction `json:"actions,omitempty"`
	Repaired  bool           `json:"repaired"`
}
