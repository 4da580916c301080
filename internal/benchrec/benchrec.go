// Package benchrec records harness run results, as JSON documents and as
// rows in a local sqlite database.
package benchrec

import (
	"database/sql"
	"fmt"
	"io"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"
)

// Result is the outcome of one harness run.
type Result struct {
	Name           string    `json:"name"`
	Keys           int       `json:"keys"`
	WallNanos      int64     `json:"wall_ns"`
	CPUUserNanos   int64     `json:"cpu_user_ns"`
	CPUSystemNanos int64     `json:"cpu_sys_ns"`
	KeysPerSec     float64   `json:"keys_per_sec"`
	FinalSize      int       `json:"final_size"`
	FinalCapacity  int       `json:"final_capacity"`
	Stripes        int       `json:"stripes"`
	StartedAt      time.Time `json:"started_at"`
}

// WriteJSON writes results to w as one indented JSON array.
func WriteJSON(w io.Writer, results []Result) error {
	data, err := sonnet.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	name           TEXT    NOT NULL,
	keys           INTEGER NOT NULL,
	wall_ns        INTEGER NOT NULL,
	cpu_user_ns    INTEGER NOT NULL,
	cpu_sys_ns     INTEGER NOT NULL,
	keys_per_sec   REAL    NOT NULL,
	final_size     INTEGER NOT NULL,
	final_capacity INTEGER NOT NULL,
	stripes        INTEGER NOT NULL,
	started_at     TEXT    NOT NULL
)`

// Store persists results in a sqlite database, one row per run.
type Store struct {
	db *sql.DB
}

// Open opens the database at path, creating it and the runs table when
// they do not exist yet.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts one run.
func (s *Store) Record(r *Result) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (name, keys, wall_ns, cpu_user_ns, cpu_sys_ns,
			keys_per_sec, final_size, final_capacity, stripes, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, r.Keys, r.WallNanos, r.CPUUserNanos, r.CPUSystemNanos,
		r.KeysPerSec, r.FinalSize, r.FinalCapacity, r.Stripes,
		r.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Runs returns all recorded runs with the given name, oldest first.
func (s *Store) Runs(name string) ([]Result, error) {
	rows, err := s.db.Query(
		`SELECT name, keys, wall_ns, cpu_user_ns, cpu_sys_ns, keys_per_sec,
			final_size, final_capacity, stripes, started_at
		FROM runs WHERE name = ? ORDER BY id`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var startedAt string
		if err := rows.Scan(&r.Name, &r.Keys, &r.WallNanos, &r.CPUUserNanos,
			&r.CPUSystemNanos, &r.KeysPerSec, &r.FinalSize, &r.FinalCapacity,
			&r.Stripes, &startedAt); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parse started_at %q: %w", startedAt, err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
