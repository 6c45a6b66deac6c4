// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

// Package store persists activity events, focus sessions, and mood entries in
// DuckDB and serves the window-filtered slices the analyzers consume.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"github.com/focalhq/focalis/internal/config"
	"github.com/focalhq/focalis/internal/logging"
)

// Store wraps the DuckDB connection and provides data access methods.
type Store struct {
	conn   *sql.DB
	cfg    *config.DatabaseConfig
	logger zerolog.Logger
}

// New opens the DuckDB database and initializes the schema.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	numThreads := cfg.Threads
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}

	// Ensure the parent directory exists for file-backed databases.
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("failed to create database directory %s: %w", dbDir, err)
			}
		}
	}

	connStr := fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, numThreads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// DuckDB is an embedded single-writer engine; a single connection avoids
	// write contention across the pool.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	s := &Store{
		conn:   conn,
		cfg:    cfg,
		logger: logging.WithComponent("store"),
	}

	if err := s.createSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	s.logger.Info().Str("path", cfg.Path).Int("threads", numThreads).Msg("Store opened")
	return s, nil
}

// createSchema creates the core tables and indexes.
func (s *Store) createSchema() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	queries := []string{
		`CREATE TABLE IF NOT EXISTS activities (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			app_name TEXT NOT NULL,
			category TEXT NOT NULL,
			duration_minutes DOUBLE NOT NULL,
			timestamp TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS focus_sessions (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			start_time TIMESTAMP NOT NULL,
			end_time TIMESTAMP,
			planned_duration DOUBLE NOT NULL,
			actual_duration DOUBLE NOT NULL,
			completed BOOLEAN NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS mood_entries (
			id UUID PRIMARY KEY,
			user_id TEXT NOT NULL,
			date DATE NOT NULL,
			mood INTEGER NOT NULL,
			energy INTEGER NOT NULL,
			stress INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (user_id, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activities_user_ts ON activities (user_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_start ON focus_sessions (user_id, start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_moods_user_date ON mood_entries (user_id, date)`,
	}

	for _, query := range queries {
		if _, err := s.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute schema query: %w", err)
		}
	}
	return nil
}

// Health verifies the database connection is alive.
func (s *Store) Health(ctx context.Context) error {
	return s.conn.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	s.logger.Debug().Msg("Closing store")
	return s.conn.Close()
}
