package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Shugur-Network/relaydex/internal/constants"
	"github.com/Shugur-Network/relaydex/internal/logger"
	"github.com/Shugur-Network/relaydex/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"go.uber.org/zap"
)

// DBState represents the current state of the database connection
type DBState int

const (
	DBStateInitial DBState = iota
	DBStateConnecting
	DBStateConnected
	DBStateDisconnecting
	DBStateClosed
)

// querier is the subset of *pgxpool.Pool the relay queries need.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// DB represents the CockroachDB connection
type DB struct {
	Pool *pgxpool.Pool

	q          querier
	state      DBState
	stateMu    sync.RWMutex
	errorCount atomic.Int64
}

func newPool(ctx context.Context, dbURI string, maxConns int) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dbURI)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URI: %w", err)
	}

	if maxConns <= 0 {
		maxConns = constants.DBPoolMaxConns
	}
	minConns := constants.DBPoolMinConns
	if minConns > maxConns {
		minConns = maxConns
	}

	config.MaxConns = int32(maxConns)
	config.MinConns = int32(minConns)
	config.MaxConnLifetime = constants.DBConnMaxLifetime
	config.MaxConnIdleTime = constants.DBConnMaxIdleTime
	config.ConnConfig.ConnectTimeout = constants.DBConnAcquireTimeout
	config.HealthCheckPeriod = 30 * time.Second

	logger.Info("Database connection pool configured",
		zap.Int32("db_max_conns", config.MaxConns),
		zap.Int32("db_min_conns", config.MinConns),
		zap.Duration("max_lifetime", constants.DBConnMaxLifetime),
		zap.Duration("max_idle_time", constants.DBConnMaxIdleTime))

	return pgxpool.NewWithConfig(ctx, config)
}

// InitDB initializes the CockroachDB connection with retries
func InitDB(ctx context.Context, dbURI string, maxConns int) (*DB, error) {
	var pool *pgxpool.Pool
	var err error
	backoff := constants.DBConnectBackoff
	attempts := 0

	db := &DB{state: DBStateConnecting}

	for i := 0; i < constants.DBConnectAttempts; i++ {
		attempts++
		pool, err = newPool(ctx, dbURI, maxConns)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				db.Pool = pool
				db.q = pool
				db.setState(DBStateConnected)

				stat := pool.Stat()
				logger.Info("✅ DB Connected Successfully",
					zap.Int("attempts", attempts),
					zap.Int32("db_max_connections", stat.MaxConns()),
					zap.Int32("db_total_connections", stat.TotalConns()))
				metrics.DBConnections.WithLabelValues("success").Inc()
				return db, nil
			}
			pool.Close()
		}

		logger.Warn("Failed to connect to DB, retrying...",
			zap.Error(err),
			zap.Int("attempt", attempts),
			zap.Duration("backoff", backoff))
		metrics.DBConnections.WithLabelValues("failure").Inc()

		select {
		case <-ctx.Done():
			db.setState(DBStateClosed)
			return nil, fmt.Errorf("database connection aborted after %d attempts: %w", attempts, ctx.Err())
		case <-time.After(backoff):
		}
		backoff *= 2 // 2s, 4s, 8s...
	}

	db.setState(DBStateClosed)
	return nil, fmt.Errorf("failed to connect to DB after %d attempts: %w", attempts, err)
}

// CloseDB closes the database connection
func (db *DB) CloseDB() error {
	db.stateMu.Lock()
	if db.state == DBStateDisconnecting || db.state == DBStateClosed {
		db.stateMu.Unlock()
		return nil
	}
	db.state = DBStateDisconnecting
	db.stateMu.Unlock()

	if db.Pool == nil {
		db.setState(DBStateClosed)
		return fmt.Errorf("database pool is nil")
	}

	db.Pool.Close()
	db.setState(DBStateClosed)
	logger.Debug("Database connection closed")
	metrics.DBConnections.WithLabelValues("closed").Inc()
	return nil
}

func (db *DB) setState(s DBState) {
	db.stateMu.Lock()
	db.state = s
	db.stateMu.Unlock()
}

// isConnected checks if the database is in a connected state
func (db *DB) isConnected() bool {
	db.stateMu.RLock()
	defer db.stateMu.RUnlock()
	return db.state == DBStateConnected
}

func (db *DB) recordError(operation string, err error) {
	count := db.errorCount.Add(1)
	metrics.DBErrors.WithLabelValues(operation).Inc()
	logger.Debug("Relay store operation failed",
		zap.String("operation", operation),
		zap.Error(err),
		zap.Int64("error_count", count))
}

// executeWithRetry retries f on CockroachDB contention errors
// (serialization restarts, statement timeouts, deadlocks).
func (db *DB) executeWithRetry(ctx context.Context, f func(context.Context) error) error {
	var lastErr error

	for i := 0; i < constants.MaxDBRetries; i++ {
		err := f(ctx)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(1<<i) * 100 * time.Millisecond):
		}
	}

	return fmt.Errorf("operation failed after %d retries: %w", constants.MaxDBRetries, lastErr)
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "40001" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "statement timeout") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "restart transaction")
}

// Ping checks database connectivity
func (db *DB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
	defer cancel()

	return db.Pool.Ping(ctx)
}

// Stats returns database connection pool statistics
func (db *DB) Stats() DatabaseStats {
	stats := DatabaseStats{Errors: db.errorCount.Load()}
	if db.Pool == nil {
		return stats
	}

	stat := db.Pool.Stat()
	stats.OpenConnections = int(stat.TotalConns())
	stats.InUse = int(stat.AcquiredConns())
	stats.Idle = int(stat.IdleConns())
	stats.MaxOpenConnections = int(stat.MaxConns())
	return stats
}

// DatabaseStats represents database connection pool statistics
type DatabaseStats struct {
	OpenConnections    int   `json:"open_connections"`
	InUse              int   `json:"in_use"`
	Idle               int   `json:"idle"`
	MaxOpenConnections int   `json:"max_open_connections"`
	Errors             int64 `json:"errors"`
}
