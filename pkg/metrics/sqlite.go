package metrics

import (
	"database/sql"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const metricsSchema = `
CREATE TABLE IF NOT EXISTS metrics (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	iteration INTEGER NOT NULL,
	name TEXT NOT NULL,
	value REAL NOT NULL,
	recorded_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_metrics_iteration ON metrics(iteration);
`

// SQLiteSink stores metrics records in a SQLite database, one row per
// metric value. Useful when runs are inspected with ad-hoc queries.
type SQLiteSink struct {
	mu     sync.Mutex
	db     *sql.DB
	staged []Record
}

// NewSQLiteSink opens the database and ensures the schema exists.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(metricsSchema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteSink{db: db}, nil
}

// Update stages one record.
func (s *SQLiteSink) Update(step map[string]int, values map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.staged = append(s.staged, Record{Step: step, Values: values})
	return nil
}

// Save writes all staged records in one transaction.
func (s *SQLiteSink) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.staged) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare(
		"INSERT INTO metrics (iteration, name, value, recorded_at) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, rec := range s.staged {
		iteration := rec.Step["num_iterations"]
		for name, value := range rec.Values {
			if _, err := stmt.Exec(iteration, name, value, now); err != nil {
				tx.Rollback()
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.staged = s.staged[:0]
	return nil
}

// Close flushes staged records and closes the database.
func (s *SQLiteSink) Close() error {
	if err := s.Save(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}
