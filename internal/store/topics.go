package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Topic is one extracted study topic owned by a user.
type Topic struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Name            string    `json:"name"`
	Summary         string    `json:"summary"`
	ImportanceScore int       `json:"importance_score"`
	MasteryScore    int       `json:"mastery_score"`
	CreatedAt       time.Time `json:"created_at"`
}

// CreateTopic inserts a topic and returns it with its assigned ID.
func (s *Store) CreateTopic(userID int64, name, summary string, importance int) (Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if importance <= 0 {
		importance = 5
	}
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO topics (user_id, name, summary, importance_score, created_at) VALUES (?, ?, ?, ?, ?)`,
		userID, name, summary, importance, now,
	)
	if err != nil {
		return Topic{}, fmt.Errorf("failed to insert topic: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Topic{}, fmt.Errorf("failed to read topic id: %w", err)
	}
	return Topic{
		ID:              id,
		UserID:          userID,
		Name:            name,
		Summary:         summary,
		ImportanceScore: importance,
		CreatedAt:       now,
	}, nil
}

// GetTopic fetches one topic scoped to its owner.
func (s *Store) GetTopic(id, userID int64) (Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT id, user_id, name, summary, importance_score, mastery_score, created_at
		 FROM topics WHERE id = ? AND user_id = ?`, id, userID)

	var t Topic
	err := row.Scan(&t.ID, &t.UserID, &t.Name, &t.Summary, &t.ImportanceScore, &t.MasteryScore, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return Topic{}, fmt.Errorf("topic %d not found", id)
	}
	if err != nil {
		return Topic{}, fmt.Errorf("failed to fetch topic: %w", err)
	}
	return t, nil
}

// ListTopics returns all of a user's topics, newest first.
func (s *Store) ListTopics(userID int64) ([]Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT id, user_id, name, summary, importance_score, mastery_score, created_at
		 FROM topics WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list topics: %w", err)
	}
	defer rows.Close()

	topics := []Topic{}
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.Summary, &t.ImportanceScore, &t.MasteryScore, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	return topics, rows.Err()
}

// DeleteAllTopics removes every topic a user owns and returns the count.
func (s *Store) DeleteAllTopics(userID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM topics WHERE user_id = ?`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete topics: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
