package datasource

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerostat-io/aerostat-engine/pkg/config"
)

// stubDriver is a minimal database/sql driver that records transaction
// outcomes, so Manager behavior can be tested without a warehouse.
type stubDriver struct {
	mu        sync.Mutex
	commits   int
	rollbacks int
}

func (d *stubDriver) Open(name string) (driver.Conn, error) {
	return &stubConn{d: d}, nil
}

func (d *stubDriver) counts() (commits, rollbacks int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.commits, d.rollbacks
}

type stubConn struct{ d *stubDriver }

func (c *stubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("prepare not supported")
}

func (c *stubConn) Close() error { return nil }

func (c *stubConn) Begin() (driver.Tx, error) {
	return &stubTx{d: c.d}, nil
}

func (c *stubConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	return &stubTx{d: c.d}, nil
}

type stubTx struct{ d *stubDriver }

func (tx *stubTx) Commit() error {
	tx.d.mu.Lock()
	tx.d.commits++
	tx.d.mu.Unlock()
	return nil
}

func (tx *stubTx) Rollback() error {
	tx.d.mu.Lock()
	tx.d.rollbacks++
	tx.d.mu.Unlock()
	return nil
}

var stubDriverSeq atomic.Int64

// newStubManager registers a fresh stub driver under a unique name and
// returns a Manager bound to it.
func newStubManager(d *stubDriver) *Manager {
	name := fmt.Sprintf("warehouse-stub-%d", stubDriverSeq.Add(1))
	sql.Register(name, d)

	mgr := NewManager(&config.WarehouseConfig{
		Host:        "stub",
		Database:    "flightstats",
		PoolSize:    1,
		ConnRetries: 1,
	}, nil)
	mgr.driverName = name
	return mgr
}

func TestWithConnection_CommitsAndReleases(t *testing.T) {
	d := &stubDriver{}
	mgr := newStubManager(d)
	defer mgr.Close()

	// PoolSize is 1: a leaked connection would make the second acquisition
	// hang until the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for i := 0; i < 2; i++ {
		err := mgr.WithConnection(ctx, ConnectOptions{ReadOnly: true}, func(ctx context.Context, tx *sql.Tx) error {
			return nil
		})
		require.NoError(t, err)
	}

	commits, rollbacks := d.counts()
	assert.Equal(t, 2, commits)
	assert.Equal(t, 0, rollbacks)
}

func TestWithConnection_RollsBackAndPropagatesQueryErrors(t *testing.T) {
	d := &stubDriver{}
	mgr := newStubManager(d)
	defer mgr.Close()

	calls := 0
	queryErr := errors.New("unknown column 'altitude'")
	err := mgr.WithConnection(context.Background(), ConnectOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		calls++
		return queryErr
	})

	require.ErrorIs(t, err, queryErr)
	assert.Equal(t, 1, calls, "statement errors must not be retried")

	commits, rollbacks := d.counts()
	assert.Equal(t, 0, commits)
	assert.Equal(t, 1, rollbacks)

	// An ordinary query error leaves the pool in place.
	mgr.mu.Lock()
	assert.NotNil(t, mgr.db)
	mgr.mu.Unlock()
}

func TestWithConnection_RetriesConnectionErrors(t *testing.T) {
	d := &stubDriver{}
	mgr := newStubManager(d)
	defer mgr.Close()

	calls := 0
	err := mgr.WithConnection(context.Background(), ConnectOptions{Retries: 1}, func(ctx context.Context, tx *sql.Tx) error {
		calls++
		if calls == 1 {
			return errors.New("read tcp 10.0.0.5:3306: connection reset by peer")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	commits, rollbacks := d.counts()
	assert.Equal(t, 1, commits)
	assert.Equal(t, 1, rollbacks)
}

func TestWithConnection_InvalidatesPoolOnLostConnection(t *testing.T) {
	d := &stubDriver{}
	mgr := newStubManager(d)
	defer mgr.Close()

	calls := 0
	err := mgr.WithConnection(context.Background(), ConnectOptions{Retries: 1}, func(ctx context.Context, tx *sql.Tx) error {
		calls++
		return errors.New("Error 2006: MySQL server has gone away")
	})

	require.Error(t, err)
	assert.Equal(t, 2, calls, "lost connections are connection-class and retried")

	// The pool was discarded so the next unit of work reconnects.
	mgr.mu.Lock()
	assert.Nil(t, mgr.db)
	mgr.mu.Unlock()
}
