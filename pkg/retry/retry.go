// Package retry provides bounded retry helpers for database and LLM calls.
package retry

import (
	"context"
	"math/rand"
	"strings"
	"time"
)

// Config defines retry behavior.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64 // 0.0-1.0, +/- jitter to prevent thundering herd
	Linear       bool    // delay = attempt * InitialDelay instead of geometric growth
}

// DefaultConfig returns sensible defaults for LLM calls:
// 3 retries with 100ms initial delay, capped at 5s, doubling each time, with 10% jitter.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// ConnectionConfig returns the policy for connection-class transient errors:
// 3 retries with linear backoff (attempt x 1s), no jitter.
func ConnectionConfig(retries int) *Config {
	if retries <= 0 {
		retries = 3
	}
	return &Config{
		MaxRetries:   retries,
		InitialDelay: time.Second,
		MaxDelay:     10 * time.Second,
		Linear:       true,
	}
}

// applyJitter adds random jitter to a delay.
func applyJitter(delay time.Duration, jitterFactor float64) time.Duration {
	if jitterFactor <= 0 {
		return delay
	}
	jitter := float64(delay) * jitterFactor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + jitter)
}

// delayFor computes the wait before retry number attempt (1-based).
func (cfg *Config) delayFor(attempt int) time.Duration {
	var delay time.Duration
	if cfg.Linear {
		delay = time.Duration(attempt) * cfg.InitialDelay
	} else {
		delay = cfg.InitialDelay
		for i := 1; i < attempt; i++ {
			delay = time.Duration(float64(delay) * cfg.Multiplier)
		}
	}
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return applyJitter(delay, cfg.JitterFactor)
}

// Do executes fn, retrying up to cfg.MaxRetries times.
// Respects context cancellation during wait periods.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt < cfg.MaxRetries {
			select {
			case <-time.After(cfg.delayFor(attempt + 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// DoWithResult executes fn and returns both result and error.
// Respects context cancellation during wait periods.
func DoWithResult[T any](ctx context.Context, cfg *Config, fn func() (T, error)) (T, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var result T
	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		r, err := fn()
		if err == nil {
			return r, nil
		}
		result = r
		lastErr = err

		if attempt < cfg.MaxRetries {
			select {
			case <-time.After(cfg.delayFor(attempt + 1)):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}
	return result, lastErr
}

// DoIfConnectionError retries fn only for connection-class errors; any other
// error propagates immediately.
func DoIfConnectionError(ctx context.Context, cfg *Config, fn func() error) error {
	if cfg == nil {
		cfg = ConnectionConfig(0)
	}

	var lastErr error
	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !IsConnectionError(err) {
			return err
		}
		lastErr = err

		if attempt < cfg.MaxRetries {
			select {
			case <-time.After(cfg.delayFor(attempt + 1)):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return lastErr
}

// RetryableError is implemented by errors that declare their own retryability.
type RetryableError interface {
	error
	IsRetryable() bool
}

// IsRetryable determines if an error is transient and worth retrying.
// Errors implementing RetryableError are asked directly; everything else is
// pattern-matched against known transient failure strings.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if r, ok := err.(RetryableError); ok {
		return r.IsRetryable()
	}

	errStr := strings.ToLower(err.Error())
	retryablePatterns := []string{
		"connection refused",
		"connection reset",
		"broken pipe",
		"no such host",
		"timeout",
		"timed out",
		"temporary failure",
		"too many connections",
		"deadlock",
		"i/o timeout",
		"network is unreachable",
		"429",
		"500",
		"502",
		"503",
		"504",
		"rate limit",
		"service unavailable",
		"too many requests",
	}
	for _, pattern := range retryablePatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// connectionErrorPatterns match errors caused by the link to the database,
// as opposed to errors in the statement itself.
var connectionErrorPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timed out",
	"broken pipe",
	"i/o timeout",
	"bad connection",         // database/sql driver.ErrBadConn text
	"invalid connection",     // go-sql-driver closed-connection error
	"server has gone away",   // MySQL error 2006
	"lost connection",        // MySQL error 2013
	"network is unreachable",
}

// IsConnectionError reports whether err is a connection-class transient error.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, pattern := range connectionErrorPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}

// IsConnectionLost reports whether err indicates the server dropped the link
// entirely. The connection manager discards its pool when it sees one.
func IsConnectionLost(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "server has gone away") ||
		strings.Contains(errStr, "lost connection") ||
		strings.Contains(errStr, "invalid connection") ||
		strings.Contains(errStr, "bad connection")
}
