// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package results persists participants, tag results and event secrets in
// SQLite.
package results

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"github.com/Thermoquad/foxstat/pkg/logging"
)

// DefaultPath is used when no database path is configured
const DefaultPath = "./foxstat.db"

var (
	// ErrNotFound is returned when a row addressed by id does not exist
	ErrNotFound = errors.New("not found")

	// ErrDuplicateTagID is returned when a tag id is already assigned
	ErrDuplicateTagID = errors.New("tag id already assigned")
)

// Store is the SQLite result store
type Store struct {
	db     *sql.DB
	dbPath string
	log    logrus.FieldLogger
}

// Open opens or creates the store at dbPath
func Open(dbPath string, log logrus.FieldLogger) (*Store, error) {
	if dbPath == "" {
		dbPath = DefaultPath
	}
	s := &Store{dbPath: dbPath, log: logging.OrDiscard(log)}

	if err := s.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize result store: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	if err := os.MkdirAll(filepath.Dir(s.dbPath), 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}

	connectionString := s.dbPath + "?_busy_timeout=10000&_journal_mode=WAL&_foreign_keys=on"

	db, err := sql.Open("sqlite3", connectionString)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.createTables(); err != nil {
		db.Close()
		return fmt.Errorf("failed to create tables: %w", err)
	}

	s.log.WithField("path", s.dbPath).Debug("result store opened")
	return nil
}

func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS participants (
		tag_id INTEGER PRIMARY KEY CHECK (tag_id BETWEEN 1 AND 65535),
		name TEXT NOT NULL,
		tag_created BOOLEAN NOT NULL DEFAULT FALSE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		tag_id INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		fox1 TEXT NOT NULL,
		fox2 TEXT NOT NULL,
		fox3 TEXT NOT NULL,
		fox4 TEXT NOT NULL,
		fox5 TEXT NOT NULL,
		finish TEXT NOT NULL DEFAULT '',
		secrets TEXT NOT NULL,
		detected_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_tag_id ON results(tag_id);

	CREATE TABLE IF NOT EXISTS event_secrets (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		fox1 INTEGER NOT NULL,
		fox2 INTEGER NOT NULL,
		fox3 INTEGER NOT NULL,
		fox4 INTEGER NOT NULL,
		fox5 INTEGER NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Path returns the database file path
func (s *Store) Path() string {
	return s.dbPath
}

func expectOneRow(res sql.Result, what string, id any) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
	}
	return nil
}
