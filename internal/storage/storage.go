// Package storage persists search results and their products to a
// relational store (SQLite for development, Postgres for production).
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Common errors.
var (
	ErrNotFound = errors.New("record not found")
)

// DB represents a database connection interface.
type DB interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Pool holds connection pool limits. Zero values leave the driver default
// in place.
type Pool struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens a database connection for the configured driver and applies
// the pool limits. SQLite callers should cap MaxOpenConns at 1: the file
// driver serializes writers and concurrent connections fail with
// "database is locked".
func Open(driver, dsn string, pool Pool) (*sql.DB, error) {
	driverName := driver
	if driver == "sqlite" {
		driverName = "sqlite3"
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return db, nil
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS searches (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			query TEXT NOT NULL,
			final_recommendation TEXT NOT NULL,
			total_results INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS search_products (
			search_id TEXT NOT NULL REFERENCES searches(id),
			product_id TEXT NOT NULL,
			title TEXT NOT NULL,
			price TEXT NOT NULL DEFAULT '',
			extracted_price TEXT NOT NULL DEFAULT '',
			rating TEXT NOT NULL DEFAULT '',
			reviews TEXT NOT NULL DEFAULT '',
			brand TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			link TEXT NOT NULL DEFAULT '',
			thumbnail TEXT NOT NULL DEFAULT '',
			detail_api_link TEXT NOT NULL DEFAULT '',
			pros TEXT NOT NULL DEFAULT '[]',
			cons TEXT NOT NULL DEFAULT '[]',
			is_recommended BOOLEAN NOT NULL DEFAULT FALSE,
			details TEXT,
			PRIMARY KEY (search_id, product_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_searches_user ON searches(user_id, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
