package store

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Store wraps the SQL database. It supports the "sqlite" and "postgres"
// drivers; all queries use $N placeholders, which both accept.
type Store struct {
	db     *sql.DB
	driver string
}

// New opens the database, tunes the connection pool and applies the schema.
func New(driver, dsn string) (*Store, error) {
	driver = normalizeDriver(driver)
	if driver == "sqlite" && !strings.Contains(dsn, "?") {
		dsn += "?_journal_mode=WAL&_busy_timeout=5000"
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if driver == "sqlite" {
		// Single writer: keep the pool tiny to avoid busy errors.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetMaxIdleConns(10)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, driver: driver}
	if driver == "sqlite" {
		if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func normalizeDriver(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "", "sqlite", "sqlite3":
		return "sqlite"
	case "postgres", "pg", "pgsql":
		return "postgres"
	default:
		return d
	}
}

func (s *Store) migrate() error {
	timestamp := "DATETIME"
	if s.driver == "postgres" {
		timestamp = "TIMESTAMPTZ"
	}
	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL DEFAULT '',
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at %[1]s NOT NULL
	);

	CREATE TABLE IF NOT EXISTS exams (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		course TEXT NOT NULL DEFAULT '',
		duration_minutes INTEGER NOT NULL,
		created_by TEXT NOT NULL,
		created_at %[1]s NOT NULL
	);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		exam_id TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		kind TEXT NOT NULL,
		marks INTEGER NOT NULL DEFAULT 1,
		options_json TEXT NOT NULL DEFAULT '[]',
		correct_answer TEXT NOT NULL DEFAULT '',
		keywords_json TEXT NOT NULL DEFAULT '[]',
		position INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		student_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		exam_id TEXT NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
		started_at %[1]s,
		submitted_at %[1]s,
		total_score REAL NOT NULL DEFAULT 0,
		is_submitted BOOLEAN NOT NULL DEFAULT FALSE,
		UNIQUE (student_id, exam_id)
	);

	CREATE TABLE IF NOT EXISTS answers (
		id TEXT PRIMARY KEY,
		submission_id TEXT NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
		question_id TEXT NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
		student_answer TEXT NOT NULL DEFAULT '',
		score_awarded REAL NOT NULL DEFAULT 0,
		feedback TEXT NOT NULL DEFAULT '',
		UNIQUE (submission_id, question_id)
	);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`, timestamp)

	if _, err := s.db.Exec(schema); err == nil {
		return nil
	}
	// Some drivers reject multi-statement scripts; fall back to one at a time.
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
