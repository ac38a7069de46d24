// Package store provides a SQLite-backed archive for named scenarios: a
// plan's settings plus the projection results computed from them.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound is returned when a named scenario does not exist.
var ErrNotFound = errors.New("scenario not found")

// Store archives scenarios in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the scenario database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating scenario db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening scenario db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the scenario database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Scenario is one archived scenario: the plan settings and the projection
// result, both serialized by the caller, plus the archive timestamps.
type Scenario struct {
	Name       string
	Settings   string
	ResultData string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ScenarioInfo is the listing view of an archived scenario.
type ScenarioInfo struct {
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Save inserts a scenario under its name, or replaces the settings and
// result of an existing one while preserving its creation time.
func (s *Store) Save(name, settings, resultData string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339)

	var id int64
	err = tx.QueryRow("SELECT id FROM scenarios WHERE name = ?", name).Scan(&id)
	switch {
	case err == nil:
		_, err = tx.Exec(`UPDATE scenarios
			SET settings = ?, result_data = ?, updated_at = ?
			WHERE id = ?`, settings, resultData, now, id)
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.Exec(`INSERT INTO scenarios (name, settings, result_data, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`, name, settings, resultData, now, now)
	}
	if err != nil {
		return err
	}

	return tx.Commit()
}

// Load reads a scenario by name.
func (s *Store) Load(name string) (*Scenario, error) {
	var sc Scenario
	var createdAt, updatedAt string

	err := s.db.QueryRow(`SELECT name, settings, result_data, created_at, updated_at
		FROM scenarios WHERE name = ?`, name).
		Scan(&sc.Name, &sc.Settings, &sc.ResultData, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	sc.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	sc.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &sc, nil
}

// List returns every archived scenario's listing info, most recently
// updated first.
func (s *Store) List() ([]ScenarioInfo, error) {
	rows, err := s.db.Query(`SELECT name, created_at, updated_at
		FROM scenarios ORDER BY updated_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ScenarioInfo
	for rows.Next() {
		var info ScenarioInfo
		var createdAt, updatedAt string
		if err := rows.Scan(&info.Name, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		info.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		info.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, info)
	}
	return out, rows.Err()
}

// Delete removes a scenario by name.
func (s *Store) Delete(name string) error {
	res, err := s.db.Exec("DELETE FROM scenarios WHERE name = ?", name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Count returns the number of archived scenarios.
func (s *Store) Count() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM scenarios").Scan(&count)
	return count, err
}
