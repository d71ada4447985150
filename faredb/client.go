// Package faredb keeps a history of calendar fares observed by date searches
// in a SQLite database.
package faredb

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"fli.dev/internal/appconf"
	"fli.dev/internal/logging"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schema.sql
var ddl string

const memoryPath = ":memory:"

// Client is the main entry point for the library
type Client struct {
	config Config
	DB     *sql.DB
}

// NewClient opens the database and applies the schema.
func NewClient(config Config) (*Client, error) {
	config.Logger = logging.Component(config.Logger, "faredb")

	db, err := createDB(config)
	if err != nil {
		return nil, err
	}
	return &Client{config: config, DB: db}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

func createDB(config Config) (*sql.DB, error) {
	if config.DBPath == "" {
		return nil, errors.New("database path is required")
	}
	if config.Env == appconf.Test && config.DBPath != memoryPath {
		return nil, fmt.Errorf("test database must use in-memory storage, got %s", config.DBPath)
	}

	db, err := sql.Open("sqlite", config.DBPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	configurePool(db, config.DBPath)

	if err := performDatabaseMigration(context.Background(), db); err != nil {
		logging.SafeCloseWithLogging(db, config.Logger, "close_after_failed_migration")
		return nil, fmt.Errorf("error performing database migration: %w", err)
	}
	return db, nil
}

// configurePool sizes the pool. Every connection to ":memory:" opens a
// separate database, so in-memory databases use exactly one.
func configurePool(db *sql.DB, path string) {
	if path == memoryPath {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		return
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
}

func performDatabaseMigration(ctx context.Context, db *sql.DB) error {
	statements := strings.Split(ddl, "-- migrate")
	for _, stmt := range statements {
		trimmedStmt := strings.TrimSpace(stmt)
		if trimmedStmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, trimmedStmt); err != nil {
			return fmt.Errorf("error executing DDL statement [%s]: %w", trimmedStmt, err)
		}
	}
	return nil
}

// TableCounts reports the row count of every table.
func (c *Client) TableCounts(ctx context.Context) (map[string]int, error) {
	rows, err := c.DB.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'")
	if err != nil {
		return nil, fmt.Errorf("failed to query table names: %w", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			logging.SafeCloseWithLogging(rows, c.config.Logger, "table_names")
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	logging.SafeCloseWithLogging(rows, c.config.Logger, "table_names")
	if err := rows.Err(); err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(tables))
	for _, table := range tables {
		var count int
		if err := c.DB.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			return nil, err
		}
		counts[table] = count
	}
	return counts, nil
}
