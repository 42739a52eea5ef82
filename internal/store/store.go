// Package store persists the proposal generation log in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Store wraps SQLite access for the proposal log.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS proposals_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			submitted_by TEXT,
			client_name TEXT,
			date_generated TIMESTAMP,
			package_type TEXT,
			locations TEXT,
			total_amount TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_proposals_date ON proposals_log(date_generated);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Entry is one row of the proposal log. Locations and TotalAmount hold
// comma-joined lists so multi-location packages fit one row.
type Entry struct {
	ID            int64     `json:"id"`
	SubmittedBy   string    `json:"submitted_by"`
	ClientName    string    `json:"client_name"`
	DateGenerated time.Time `json:"date_generated"`
	PackageType   string    `json:"package_type"`
	Locations     string    `json:"locations"`
	TotalAmount   string    `json:"total_amount"`
}

func (s *Store) LogProposal(ctx context.Context, e *Entry) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO proposals_log(submitted_by, client_name, date_generated, package_type, locations, total_amount) VALUES(?,?,?,?,?,?)`,
		e.SubmittedBy, e.ClientName, e.DateGenerated, e.PackageType, e.Locations, e.TotalAmount)
	if err != nil {
		return err
	}
	id, _ := res.LastInsertId()
	e.ID = id
	return nil
}

func (s *Store) ListEntries(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, submitted_by, client_name, date_generated, package_type, locations, total_amount FROM proposals_log ORDER BY date_generated DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.SubmittedBy, &e.ClientName, &e.DateGenerated, &e.PackageType, &e.Locations, &e.TotalAmount); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Summary aggregates the log for status reporting.
type Summary struct {
	Total     int            `json:"total"`
	ByPackage map[string]int `json:"by_package"`
	Recent    []Entry        `json:"recent"`
}

func (s *Store) Summarize(ctx context.Context) (*Summary, error) {
	sum := &Summary{ByPackage: map[string]int{}}
	rows, err := s.db.QueryContext(ctx, `SELECT package_type, COUNT(*) FROM proposals_log GROUP BY package_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var pkg string
		var n int
		if err := rows.Scan(&pkg, &n); err != nil {
			return nil, err
		}
		sum.ByPackage[pkg] = n
		sum.Total += n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	recent, err := s.ListEntries(ctx, 5)
	if err != nil {
		return nil, err
	}
	sum.Recent = recent
	return sum, nil
}

// Health returns err if DB not reachable.
func (s *Store) Health(ctx context.Context) error {
	row := s.db.QueryRowContext(ctx, `SELECT 1`)
	var v int
	if err := row.Scan(&v); err != nil {
		return fmt.Errorf("db health: %w", err)
	}
	return nil
}
