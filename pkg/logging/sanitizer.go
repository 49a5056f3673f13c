package logging

import (
	"regexp"
)

const (
	// MaxStatementLogLength caps how much of a SQL statement is logged.
	MaxStatementLogLength = 200
	// RedactedText is the replacement text for sensitive data.
	RedactedText = "[REDACTED]"
)

var (
	// password=xxx, pwd=xxx, pass=xxx in DSN-style strings
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// user:pass@host in URL-style and mysql DSN-style connection strings
	credentialsPattern = regexp.MustCompile(`(://)?[^:/@\s]+:[^@\s]+@(tcp\()?[^/\s)]+`)

	// api_key=xxxx style values
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|apikey|token)=[A-Za-z0-9-_]{16,}`)
)

// SanitizeDSN removes credentials from a connection string before logging.
func SanitizeDSN(dsn string) string {
	if dsn == "" {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(dsn, "${1}="+RedactedText)
	sanitized = credentialsPattern.ReplaceAllString(sanitized, "${1}"+RedactedText+"@"+RedactedText)
	return sanitized
}

// SanitizeError scrubs credentials that database drivers sometimes echo back
// in error text. Use before logging any error from the connection layer.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := passwordPattern.ReplaceAllString(err.Error(), "${1}="+RedactedText)
	sanitized = apiKeyPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	sanitized = credentialsPattern.ReplaceAllString(sanitized, "${1}"+RedactedText+"@"+RedactedText)
	return sanitized
}

// TruncateStatement shortens a SQL statement for log lines.
func TruncateStatement(stmt string) string {
	if len(stmt) <= MaxStatementLogLength {
		return stmt
	}
	return stmt[:MaxStatementLogLength] + "..."
}
