// Package datasource provides connectivity and schema introspection for the
// analytic MySQL warehouse. Connections are pooled and every unit of work
// runs inside a transaction acquired through the Manager.
package datasource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	"go.uber.org/zap"

	"github.com/aerostat-io/aerostat-engine/pkg/config"
	"github.com/aerostat-io/aerostat-engine/pkg/logging"
	"github.com/aerostat-io/aerostat-engine/pkg/retry"
)

// ConnectOptions controls how WithConnection acquires and runs a unit of work.
type ConnectOptions struct {
	// ReadOnly opens the transaction as START TRANSACTION READ ONLY.
	ReadOnly bool

	// Retries overrides the configured connection-retry count when > 0.
	Retries int
}

// Manager owns the warehouse connection pool. The pool is opened lazily on
// first use and recreated after a lost-connection error invalidates it.
type Manager struct {
	cfg    *config.WarehouseConfig
	logger *zap.Logger

	// driverName is overridden in tests to run against a stub driver.
	driverName string

	mu sync.Mutex
	db *sql.DB
}

// NewManager creates a Manager. The pool is not opened until first use.
// If logger is nil, a no-op logger is used.
func NewManager(cfg *config.WarehouseConfig, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cfg: cfg, logger: logger, driverName: "mysql"}
}

// pool returns the shared pool, opening it on first use or after invalidation.
func (m *Manager) pool(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}

	db, err := sql.Open(m.driverName, m.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open warehouse pool: %w", err)
	}

	db.SetMaxOpenConns(m.cfg.PoolSize)
	db.SetMaxIdleConns(m.cfg.PoolSize / 2)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("warehouse unreachable: %w", err)
	}

	m.logger.Info("warehouse pool opened",
		zap.String("dsn", logging.SanitizeDSN(m.cfg.DSN())),
		zap.Int("pool_size", m.cfg.PoolSize))

	m.db = db
	return m.db, nil
}

// WithConnection acquires a pooled connection, runs fn inside a transaction
// and commits on success or rolls back on error. Connection-class errors are
// retried with linear backoff up to the configured retry count; on a lost
// connection the pool is invalidated so the next attempt reconnects.
func (m *Manager) WithConnection(ctx context.Context, opts ConnectOptions, fn func(ctx context.Context, tx *sql.Tx) error) error {
	retries := opts.Retries
	if retries <= 0 {
		retries = m.cfg.ConnRetries
	}

	return retry.DoIfConnectionError(ctx, retry.ConnectionConfig(retries), func() error {
		return m.runInTx(ctx, opts.ReadOnly, fn)
	})
}

func (m *Manager) runInTx(ctx context.Context, readOnly bool, fn func(ctx context.Context, tx *sql.Tx) error) error {
	db, err := m.pool(ctx)
	if err != nil {
		m.noteConnError(err)
		return err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		m.noteConnError(err)
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: readOnly})
	if err != nil {
		m.noteConnError(err)
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			m.logger.Warn("rollback failed", zap.String("error", logging.SanitizeError(rbErr)))
		}
		m.noteConnError(err)
		return err
	}

	if err := tx.Commit(); err != nil {
		m.noteConnError(err)
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// noteConnError invalidates the pool when err indicates the server-side
// connection is gone. Ordinary query errors leave the pool alone.
func (m *Manager) noteConnError(err error) {
	if err == nil || !retry.IsConnectionLost(err) {
		return
	}
	m.logger.Warn("warehouse connection lost, invalidating pool",
		zap.String("error", logging.SanitizeError(err)))
	m.invalidate()
}

func (m *Manager) invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db != nil {
		m.db.Close()
		m.db = nil
	}
}

// TestConnection verifies the warehouse is reachable with valid credentials.
func (m *Manager) TestConnection(ctx context.Context) error {
	db, err := m.pool(ctx)
	if err != nil {
		return err
	}
	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("test query failed: %w", err)
	}
	return nil
}

// Close releases the pool. The Manager can be reused; the next call reopens.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}
