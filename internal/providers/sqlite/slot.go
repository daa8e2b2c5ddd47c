// Package sqlite implements the embedded database capabilities on top of
// database/sql and the pure Go modernc driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite"
)

var (
	// ErrAlreadyOpen is returned when opening while a database is open
	ErrAlreadyOpen = errors.New("database already open")
	// ErrNotOpen is returned when no database is open
	ErrNotOpen = errors.New("no database is open")
)

// Slot holds at most one open database for a view session. Opening while
// occupied fails and leaves the current handle untouched.
type Slot struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// NewSlot creates an empty slot
func NewSlot() *Slot {
	return &Slot{}
}

// Open opens the database file at path and stores it in the slot
func (s *Slot) Open(ctx context.Context, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("database path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return ErrAlreadyOpen
	}

	clean := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(clean), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	db, err := sql.Open("sqlite", clean+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open sqlite db: %w", err)
	}
	// Temp tables and pragmas live on a single connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("ping sqlite db: %w", err)
	}

	s.db = db
	s.path = clean
	return nil
}

// Close closes and clears the open database
func (s *Slot) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrNotOpen
	}
	err := s.db.Close()
	s.db = nil
	s.path = ""
	return err
}

// Shutdown closes the database if one is open. Used at session teardown.
func (s *Slot) Shutdown() error {
	if err := s.Close(); err != nil && !errors.Is(err, ErrNotOpen) {
		return err
	}
	return nil
}

// DB returns the open database
func (s *Slot) DB() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, ErrNotOpen
	}
	return s.db, nil
}

// Path returns the file of the open database, or "" when empty
func (s *Slot) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// Exec runs a statement and returns the number of affected rows
func (s *Slot) Exec(ctx context.Context, query string) (int64, error) {
	db, err := s.DB()
	if err != nil {
		return 0, err
	}
	res, err := db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Query runs a query and returns each row as a column to value map
func (s *Slot) Query(ctx context.Context, query string) ([]map[string]interface{}, error) {
	db, err := s.DB()
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	results := make([]map[string]interface{}, 0)
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
