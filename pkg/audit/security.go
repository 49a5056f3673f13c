// Package audit records executed questions and statements for review,
// and logs security-relevant events in structured JSON for SIEM consumption.
package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventInjectionAttempt is logged when a statement is rejected for
	// injection patterns or disallowed mutating keywords.
	EventInjectionAttempt SecurityEventType = "sql_injection_attempt"
	// EventWriteDenied is logged when a mutating statement hits the read-only gate.
	EventWriteDenied SecurityEventType = "write_statement_denied"
)

// SecurityEvent is an auditable security event with context for SIEM analysis.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	QueryID   uuid.UUID         `json:"query_id"`
	Question  string            `json:"question,omitempty"`
	Statement string            `json:"statement"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"`
}

// SecurityAuditor logs security events under a dedicated logger namespace.
type SecurityAuditor struct {
	logger *zap.Logger
}

// NewSecurityAuditor creates an auditor whose events carry the
// "security_audit" namespace for easy filtering in SIEM systems.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{logger: logger.Named("security_audit")}
}

// LogInjectionAttempt records a rejected statement at ERROR level with
// "critical" severity for immediate alerting. The details slice carries the
// validation messages that triggered the rejection.
func (a *SecurityAuditor) LogInjectionAttempt(queryID uuid.UUID, question, statement string, details []string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventInjectionAttempt,
		QueryID:   queryID,
		Question:  question,
		Statement: statement,
		Details:   details,
		Severity:  "critical",
	}

	// Marshaling known types does not fail.
	eventJSON, _ := json.Marshal(event)

	a.logger.Error("SQL injection attempt detected",
		zap.String("event_json", string(eventJSON)),
		zap.String("query_id", queryID.String()),
		zap.Strings("details", details),
		zap.String("severity", "critical"),
	)
}

// LogWriteDenied records a mutating statement blocked by the read-only gate.
// Logged at WARN level as these are usually misphrased requests, not attacks.
func (a *SecurityAuditor) LogWriteDenied(queryID uuid.UUID, question, statement, keyword string) {
	event := SecurityEvent{
		Timestamp: time.Now().UTC(),
		EventType: EventWriteDenied,
		QueryID:   queryID,
		Question:  question,
		Statement: statement,
		Details:   map[string]string{"keyword": keyword},
		Severity:  "warning",
	}

	eventJSON, _ := json.Marshal(event)

	a.logger.Warn("Write statement denied",
		zap.String("event_json", string(eventJSON)),
		zap.String("query_id", queryID.String()),
		zap.String("keyword", keyword),
		zap.String("severity", "warning"),
	)
}
