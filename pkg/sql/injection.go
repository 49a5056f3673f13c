package sql

import (
	"fmt"
	"regexp"

	libinjection "github.com/corazawaf/libinjection-go"
)

var stringLiteralPattern = regexp.MustCompile(`'((?:[^']|'')*)'`)

// maskLiterals blanks the contents of every single-quoted literal. Injection
// payloads inside literals are still caught by scanLiteralsForInjection.
func maskLiterals(statement string) string {
	return stringLiteralPattern.ReplaceAllString(statement, "''")
}

// scanLiteralsForInjection runs libinjection over every single-quoted string
// literal in the statement. The splice and comment scans catch structural
// injection; this catches payloads smuggled inside an otherwise well-formed
// literal. Each flagged literal becomes a critical security error carrying
// the libinjection fingerprint.
func scanLiteralsForInjection(statement string) []ValidationError {
	var errs []ValidationError
	for _, match := range stringLiteralPattern.FindAllStringSubmatch(statement, -1) {
		literal := match[1]
		if literal == "" {
			continue
		}
		if isSQLi, fingerprint := libinjection.IsSQLi(literal); isSQLi {
			errs = append(errs, ValidationError{
				Kind:     ErrorKindSecurity,
				Message:  fmt.Sprintf("string literal matches SQL injection fingerprint %s", fingerprint),
				Severity: SeverityCritical,
			})
		}
	}
	return errs
}
