package sql

import (
	"fmt"
	"regexp"
	"strings"
)

// readStatementKeywords is the allow-list of read-only statement types.
var readStatementKeywords = map[string]bool{
	"SELECT":   true,
	"WITH":     true,
	"SHOW":     true,
	"DESCRIBE": true,
	"DESC":     true,
	"EXPLAIN":  true,
}

var (
	limitPattern = regexp.MustCompile(`(?i)\bLIMIT\s+\d+`)

	// A statement terminator followed by a mutating keyword is the classic
	// statement-splicing injection shape, even when the leading statement
	// parses as read-only.
	splicePattern = regexp.MustCompile(`(?i);\s*(INSERT|UPDATE|DELETE|DROP|ALTER|CREATE|TRUNCATE|REPLACE|GRANT|REVOKE|SET)\b`)

	lineCommentPattern  = regexp.MustCompile(`--`)
	blockCommentPattern = regexp.MustCompile(`/\*`)
)

// LeadingKeyword returns the first word of the statement, uppercased.
func LeadingKeyword(statement string) string {
	trimmed := strings.TrimLeft(strings.TrimSpace(statement), "(")
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToUpper(fields[0])
}

// IsReadStatement reports whether the statement begins with an allow-listed
// read-only keyword.
func IsReadStatement(statement string) bool {
	return readStatementKeywords[LeadingKeyword(statement)]
}

// needsRowBound reports whether the statement is a row-returning read that
// should carry a LIMIT clause. SHOW/DESCRIBE/EXPLAIN output is already small.
func needsRowBound(statement string) bool {
	kw := LeadingKeyword(statement)
	return kw == "SELECT" || kw == "WITH"
}

// Validate scans a statement against the foreign-dialect detector library,
// the query-smell library, the read-only allow-list and the dangerous-pattern
// scan. The result is valid iff no errors of any kind were produced; warnings
// never block.
func Validate(statement string) ValidationResult {
	trimmed := strings.TrimSpace(statement)
	if trimmed == "" {
		return ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Kind:     ErrorKindSyntax,
				Message:  "statement is empty",
				Severity: SeverityCritical,
			}},
		}
	}

	var errs []ValidationError
	var warns []ValidationWarning

	for _, d := range foreignDialectDetectors {
		if d.pattern.MatchString(trimmed) {
			errs = append(errs, ValidationError{
				Kind:       ErrorKindDialect,
				Message:    d.message,
				Severity:   SeverityHigh,
				Suggestion: d.suggestion,
			})
		}
	}

	for _, s := range querySmellDetectors {
		if s.pattern.MatchString(trimmed) {
			warns = append(warns, ValidationWarning{
				Kind:       s.kind,
				Message:    s.message,
				Suggestion: s.suggestion,
			})
		}
	}
	if havingPattern.MatchString(trimmed) && !groupByPattern.MatchString(trimmed) {
		warns = append(warns, ValidationWarning{
			Kind:       WarningKindStyle,
			Message:    "HAVING without GROUP BY filters a single implicit group",
			Suggestion: "use WHERE unless you are filtering an aggregate",
		})
	}

	if kw := LeadingKeyword(trimmed); !readStatementKeywords[kw] {
		errs = append(errs, ValidationError{
			Kind:       ErrorKindSecurity,
			Message:    fmt.Sprintf("statement type %s is not permitted", kw),
			Severity:   SeverityCritical,
			Suggestion: "only read-only statements (SELECT, WITH, SHOW, DESCRIBE, EXPLAIN) are allowed",
		})
	} else if needsRowBound(trimmed) && !limitPattern.MatchString(trimmed) {
		warns = append(warns, ValidationWarning{
			Kind:       WarningKindCompatibility,
			Message:    "statement has no LIMIT clause",
			Suggestion: "a default row bound will be applied",
		})
	}

	// Structural scans run with literal contents blanked: a '--' or '; DROP'
	// inside a string value is data, not statement structure.
	masked := maskLiterals(trimmed)
	if splicePattern.MatchString(masked) {
		errs = append(errs, ValidationError{
			Kind:     ErrorKindSecurity,
			Message:  "statement terminator followed by a mutating keyword",
			Severity: SeverityCritical,
		})
	}
	if lineCommentPattern.MatchString(masked) || blockCommentPattern.MatchString(masked) {
		errs = append(errs, ValidationError{
			Kind:     ErrorKindSecurity,
			Message:  "embedded SQL comments are not allowed",
			Severity: SeverityCritical,
		})
	}
	errs = append(errs, scanLiteralsForInjection(trimmed)...)

	return ValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Warnings: warns,
	}
}
