// Package store persists StudyHall's topics, flashcards, and exams in
// SQLite. It is a collaborator of the generation gateway, not part of it:
// storage failures are the callers' to handle and may surface as HTTP
// errors, unlike generation failures which never do.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"studyhall/internal/logging"
)

// Store wraps the SQLite database.
type Store struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
}

// Open initializes the SQLite database at the given path, creating the
// schema when missing.
func Open(path string) (*Store, error) {
	timer := logging.StartTimer(logging.CategoryStore, "store open")
	defer timer.Stop()

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Serialized access plus WAL keeps concurrent request handlers safe.
	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("Opened store at %s", path)
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS topics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		summary TEXT NOT NULL DEFAULT '',
		importance_score INTEGER NOT NULL DEFAULT 5,
		mastery_score INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_topics_user ON topics(user_id);

	CREATE TABLE IF NOT EXISTS flashcards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		topic_id INTEGER NOT NULL,
		front TEXT NOT NULL,
		back TEXT NOT NULL,
		repetitions INTEGER NOT NULL DEFAULT 0,
		ease_factor REAL NOT NULL DEFAULT 2.5,
		interval_days INTEGER NOT NULL DEFAULT 0,
		next_review TIMESTAMP,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_flashcards_user ON flashcards(user_id);

	CREATE TABLE IF NOT EXISTS exams (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		title TEXT NOT NULL,
		exam_type TEXT NOT NULL DEFAULT '',
		total_marks INTEGER NOT NULL DEFAULT 0,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		provenance TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS exam_questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		exam_id INTEGER NOT NULL REFERENCES exams(id) ON DELETE CASCADE,
		question_id TEXT NOT NULL,
		question_type TEXT NOT NULL,
		difficulty TEXT NOT NULL DEFAULT '',
		question TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '[]',
		marks INTEGER NOT NULL DEFAULT 0,
		topic TEXT NOT NULL DEFAULT '',
		hint TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_exam_questions_exam ON exam_questions(exam_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
