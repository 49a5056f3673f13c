package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aerostat-io/aerostat-engine/pkg/database"
	"github.com/aerostat-io/aerostat-engine/pkg/logging"
	"github.com/aerostat-io/aerostat-engine/pkg/pipeline"
	enginesql "github.com/aerostat-io/aerostat-engine/pkg/sql"
)

const insertTimeout = 5 * time.Second

// Recorder persists a row per pipeline run into query_history and raises
// security events for rejected statements. Recording is best-effort: failures
// are logged, never surfaced to the caller.
type Recorder struct {
	db       *database.DB
	security *SecurityAuditor
	model    string
	logger   *zap.Logger
}

// NewRecorder creates a recorder. db may be nil when the state database is
// disabled; security events are still logged in that case.
func NewRecorder(db *database.DB, model string, logger *zap.Logger) *Recorder {
	return &Recorder{
		db:       db,
		security: NewSecurityAuditor(logger),
		model:    model,
		logger:   logger,
	}
}

// Record captures the outcome of a pipeline run. Returns the assigned query ID.
func (r *Recorder) Record(ctx context.Context, question string, result *pipeline.ExecutionResult) uuid.UUID {
	queryID := uuid.New()

	if messages := securityMessages(result.Errors); len(messages) > 0 {
		r.security.LogInjectionAttempt(queryID, question, result.Statement, messages)
	}

	if r.db == nil {
		return queryID
	}

	insertCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), insertTimeout)
	defer cancel()

	var errorMessage *string
	if result.ErrorMessage != "" {
		msg := logging.TruncateStatement(result.ErrorMessage)
		errorMessage = &msg
	}
	var sqlErrorCode *int32
	if result.SQLErrorCode != 0 {
		code := int32(result.SQLErrorCode)
		sqlErrorCode = &code
	}
	var questionValue *string
	if question != "" {
		questionValue = &question
	}

	_, err := r.db.Exec(insertCtx, `
		INSERT INTO query_history (
			id, question, statement, success, row_count, truncated,
			execution_time_ms, repairs_applied, regen_attempts,
			error_message, sql_error_code, model
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		queryID, questionValue, result.Statement, result.Success,
		result.RowCount, result.Truncated, result.ExecutionTimeMs,
		len(result.RepairsApplied), result.RegenAttempts,
		errorMessage, sqlErrorCode, r.model,
	)
	if err != nil {
		r.logger.Warn("Failed to record query history",
			zap.String("query_id", queryID.String()),
			zap.String("error", logging.SanitizeError(err)))
	}

	return queryID
}

// RecentFailures returns the most recent failed runs, newest first.
func (r *Recorder) RecentFailures(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if r.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, question, statement, error_message, created_at
		FROM query_history
		WHERE success = FALSE
		ORDER BY created_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var question, errorMessage *string
		if err := rows.Scan(&entry.ID, &question, &entry.Statement, &errorMessage, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if question != nil {
			entry.Question = *question
		}
		if errorMessage != nil {
			entry.ErrorMessage = *errorMessage
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// HistoryEntry is a persisted pipeline run.
type HistoryEntry struct {
	ID           uuid.UUID `json:"id"`
	Question     string    `json:"question,omitempty"`
	Statement    string    `json:"statement"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func securityMessages(errs []enginesql.ValidationError) []string {
	var messages []string
	for _, e := range errs {
		if e.Kind == enginesql.ErrorKindSecurity {
			messages = append(messages, e.Message)
		}
	}
	return messages
}
