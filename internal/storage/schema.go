package storage

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/Shugur-Network/relaydex/internal/constants"
	"github.com/Shugur-Network/relaydex/internal/logger"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaDDL string

// CreateDatabaseIfNotExists creates the specified database if it doesn't exist
func (db *DB) CreateDatabaseIfNotExists(ctx context.Context, dbName string) error {
	if !db.isConnected() {
		return fmt.Errorf("database is not connected")
	}

	logger.Info("Checking if database exists...", zap.String("database", dbName))

	var exists bool
	err := db.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`,
		dbName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check if database exists: %w", err)
	}

	if exists {
		logger.Info("✅ Database already exists", zap.String("database", dbName))
		return nil
	}

	logger.Info("Creating database...", zap.String("database", dbName))
	if _, err = db.Pool.Exec(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", dbName)); err != nil {
		return fmt.Errorf("failed to create database %s: %w", dbName, err)
	}
	logger.Info("✅ Database created successfully", zap.String("database", dbName))
	return nil
}

// InitializeSchema creates the relays table and its indexes if they don't exist
func (db *DB) InitializeSchema(ctx context.Context) error {
	if !db.isConnected() {
		return fmt.Errorf("database is not connected")
	}

	logger.Info("Initializing database schema...")

	if _, err := db.Pool.Exec(ctx, schemaDDL); err != nil {
		logger.Error("Failed to initialize database schema", zap.Error(err))
		return fmt.Errorf("failed to initialize database schema: %w", err)
	}

	logger.Info("✅ Database schema initialized successfully")
	return nil
}

// VerifySchema checks if all required tables exist
func (db *DB) VerifySchema(ctx context.Context) error {
	if !db.isConnected() {
		return fmt.Errorf("database is not connected")
	}

	for _, table := range []string{constants.RelaysTable} {
		var exists bool
		err := db.Pool.QueryRow(ctx,
			`SELECT EXISTS (
				SELECT FROM information_schema.tables
				WHERE table_schema = 'public'
				AND table_name = $1
			)`, table).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check table %s: %w", table, err)
		}
		if !exists {
			return fmt.Errorf("required table %s does not exist", table)
		}

		logger.Debug("✅ Table exists", zap.String("table", table))
	}

	logger.Debug("✅ Database schema verification completed")
	return nil
}

// CountRelays returns the number of stored relays and how many were ever fetched.
func (db *DB) CountRelays(ctx context.Context) (total, seen int64, err error) {
	if !db.isConnected() {
		return 0, 0, fmt.Errorf("database is not connected")
	}
	err = db.q.QueryRow(ctx,
		`SELECT count(*), count(*) FILTER (WHERE seen) FROM relays`).Scan(&total, &seen)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to count relays: %w", err)
	}
	return total, seen, nil
}
