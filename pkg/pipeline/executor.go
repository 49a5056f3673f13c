package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/aerostat-io/aerostat-engine/pkg/apperrors"
	"github.com/aerostat-io/aerostat-engine/pkg/config"
	"github.com/aerostat-io/aerostat-engine/pkg/datasource"
	"github.com/aerostat-io/aerostat-engine/pkg/logging"
	enginesql "github.com/aerostat-io/aerostat-engine/pkg/sql"
)

// Executor runs validated statements against the warehouse. It re-checks the
// read-only allow-list even though the validator already did: the validator
// can be bypassed by callers constructing a Pipeline differently, this gate
// cannot.
type Executor struct {
	mgr    *datasource.Manager
	cfg    *config.Config
	logger *zap.Logger
}

// NewExecutor creates an Executor on top of the connection manager.
func NewExecutor(mgr *datasource.Manager, cfg *config.Config, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{mgr: mgr, cfg: cfg, logger: logger.Named("executor")}
}

var _ StatementExecutor = (*Executor)(nil)

// Execute runs one statement and shapes the outcome. Database failures are
// returned as a structured result, never as an error.
func (e *Executor) Execute(ctx context.Context, statement string) *ExecutionResult {
	isRead := enginesql.IsReadStatement(statement)
	if !isRead && !e.cfg.Warehouse.AllowWrites {
		return &ExecutionResult{
			Success:      false,
			ErrorMessage: fmt.Sprintf("%s: %s", apperrors.ErrStatementNotAllowed, enginesql.LeadingKeyword(statement)),
		}
	}

	result := &ExecutionResult{}

	err := e.mgr.WithConnection(ctx, datasource.ConnectOptions{ReadOnly: isRead}, func(ctx context.Context, tx *sql.Tx) error {
		if isRead && e.cfg.Pipeline.CapturePlan {
			result.Plan = e.capturePlan(ctx, tx, statement)
		}

		start := time.Now()
		var err error
		if isRead {
			err = e.runQuery(ctx, tx, statement, result)
		} else {
			err = e.runExec(ctx, tx, statement, result)
		}
		result.ExecutionTimeMs = time.Since(start).Milliseconds()
		return err
	})
	if err != nil {
		return e.dbFailure(statement, err)
	}

	result.Success = true
	return result
}

// capturePlan requests the execution plan best-effort. Plan failures never
// abort execution.
func (e *Executor) capturePlan(ctx context.Context, tx *sql.Tx, statement string) string {
	rows, err := tx.QueryContext(ctx, "EXPLAIN FORMAT=TREE "+statement)
	if err != nil {
		e.logger.Debug("plan capture failed", zap.String("error", logging.SanitizeError(err)))
		return ""
	}
	defer rows.Close()

	var lines []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return ""
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return ""
	}
	return strings.Join(lines, "\n")
}

func (e *Executor) runQuery(ctx context.Context, tx *sql.Tx, statement string, result *ExecutionResult) error {
	rows, err := tx.QueryContext(ctx, statement)
	if err != nil {
		return err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fmt.Errorf("get columns: %w", err)
	}
	result.Columns = columns

	maxRows := e.cfg.Pipeline.MaxRowLimit
	result.Rows = make([]map[string]any, 0)
	for rows.Next() {
		if len(result.Rows) >= maxRows {
			result.Truncated = true
			break
		}

		values := make([]any, len(columns))
		valuePtrs := make([]any, len(columns))
		for i := range values {
			valuePtrs[i] = &values[i]
		}
		if err := rows.Scan(valuePtrs...); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			val := values[i]
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			rowMap[col] = val
		}
		result.Rows = append(result.Rows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	result.RowCount = len(result.Rows)
	return nil
}

func (e *Executor) runExec(ctx context.Context, tx *sql.Tx, statement string, result *ExecutionResult) error {
	execResult, err := tx.ExecContext(ctx, statement)
	if err != nil {
		return err
	}
	affected, err := execResult.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	result.RowsAffected = affected
	return nil
}

// dbFailure shapes a database error into a structured result, carrying the
// MySQL error code when the driver provides one.
func (e *Executor) dbFailure(statement string, err error) *ExecutionResult {
	result := &ExecutionResult{
		Success:      false,
		Statement:    statement,
		ErrorMessage: logging.SanitizeError(err),
	}
	if code, ok := mysqlErrorCode(err); ok {
		result.SQLErrorCode = code
	}

	e.logger.Warn("statement execution failed",
		zap.String("statement", logging.TruncateStatement(statement)),
		zap.Uint16("sql_error_code", result.SQLErrorCode),
		zap.String("error", result.ErrorMessage))
	return result
}

func mysqlErrorCode(err error) (uint16, bool) {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number, true
	}
	return 0, false
}
