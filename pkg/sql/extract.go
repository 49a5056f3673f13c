package sql

import (
	"encoding/json"
	"regexp"
	"strings"
)

// statementEnvelope is the structured shape generators are asked to reply
// with. Older prompt revisions used "sql", so both fields are accepted.
type statementEnvelope struct {
	Query string `json:"query"`
	SQL   string `json:"sql"`
}

var (
	sqlFencePattern = regexp.MustCompile("(?is)```sql\\s*\\n?(.*?)```")
	anyFencePattern = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")
	bareReadPattern = regexp.MustCompile(`(?i)\b(SELECT|WITH|SHOW|DESCRIBE|DESC|EXPLAIN)\b`)
)

// ExtractStatement recovers a candidate SQL statement from unstructured
// generated text. It tries, in order: a {"query": ...} JSON envelope
// (tolerating trailing noise), a fenced block tagged sql, any fenced block
// beginning with a read keyword, and a bare read statement trimmed at a
// trailing terminator. If nothing matches the raw text is returned verbatim
// so validation can still produce an actionable diagnostic.
func ExtractStatement(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return trimmed
	}

	if stmt, ok := extractFromEnvelope(trimmed); ok {
		return stmt
	}

	if m := sqlFencePattern.FindStringSubmatch(trimmed); m != nil {
		if stmt := strings.TrimSpace(m[1]); stmt != "" {
			return stmt
		}
	}

	for _, m := range anyFencePattern.FindAllStringSubmatch(trimmed, -1) {
		stmt := strings.TrimSpace(m[1])
		if IsReadStatement(stmt) {
			return stmt
		}
	}

	if loc := bareReadPattern.FindStringIndex(trimmed); loc != nil {
		stmt := trimmed[loc[0]:]
		if idx := strings.Index(stmt, ";"); idx >= 0 {
			stmt = stmt[:idx]
		}
		return strings.TrimSpace(stmt)
	}

	return trimmed
}

// extractFromEnvelope locates the outermost balanced brace pair and decodes
// it as a statement envelope. Trailing garbage after the closing brace is
// tolerated; generators routinely append commentary.
func extractFromEnvelope(text string) (string, bool) {
	jsonStr, ok := extractBalancedObject(text)
	if !ok {
		return "", false
	}

	var envelope statementEnvelope
	if err := json.Unmarshal([]byte(jsonStr), &envelope); err != nil {
		return "", false
	}
	if stmt := strings.TrimSpace(envelope.Query); stmt != "" {
		return stmt, true
	}
	if stmt := strings.TrimSpace(envelope.SQL); stmt != "" {
		return stmt, true
	}
	return "", false
}

// extractBalancedObject finds the first balanced {...} structure, counting
// brace depth and skipping braces inside JSON strings.
func extractBalancedObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		if c == '{' {
			depth++
		} else if c == '}' {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}
