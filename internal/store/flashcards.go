package store

import (
	"database/sql"
	"fmt"
	"time"

	"studyhall/internal/sm2"
)

// Flashcard is one spaced-repetition card tied to a topic.
type Flashcard struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	TopicID    int64      `json:"topic_id"`
	Front      string     `json:"front"`
	Back       string     `json:"back"`
	Review     sm2.Review `json:"review"`
	NextReview *time.Time `json:"next_review,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CreateFlashcard inserts a card with fresh scheduling state.
func (s *Store) CreateFlashcard(userID, topicID int64, front, back string) (Flashcard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev := sm2.NewReview()
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO flashcards (user_id, topic_id, front, back, repetitions, ease_factor, interval_days, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, topicID, front, back, rev.Repetitions, rev.EaseFactor, rev.IntervalDays, now,
	)
	if err != nil {
		return Flashcard{}, fmt.Errorf("failed to insert flashcard: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Flashcard{}, fmt.Errorf("failed to read flashcard id: %w", err)
	}
	return Flashcard{
		ID:        id,
		UserID:    userID,
		TopicID:   topicID,
		Front:     front,
		Back:      back,
		Review:    rev,
		CreatedAt: now,
	}, nil
}

// GetFlashcard fetches one card scoped to its owner.
func (s *Store) GetFlashcard(id, userID int64) (Flashcard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT id, user_id, topic_id, front, back, repetitions, ease_factor, interval_days, next_review, created_at
		 FROM flashcards WHERE id = ? AND user_id = ?`, id, userID)

	var f Flashcard
	var next sql.NullTime
	err := row.Scan(&f.ID, &f.UserID, &f.TopicID, &f.Front, &f.Back,
		&f.Review.Repetitions, &f.Review.EaseFactor, &f.Review.IntervalDays, &next, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return Flashcard{}, fmt.Errorf("flashcard %d not found", id)
	}
	if err != nil {
		return Flashcard{}, fmt.Errorf("failed to fetch flashcard: %w", err)
	}
	if next.Valid {
		f.NextReview = &next.Time
	}
	return f, nil
}

// RecordReview applies one review quality to a card and persists the new
// schedule. The returned card reflects the updated state.
func (s *Store) RecordReview(id, userID int64, quality int, reviewedAt time.Time) (Flashcard, error) {
	card, err := s.GetFlashcard(id, userID)
	if err != nil {
		return Flashcard{}, err
	}

	rev, err := sm2.Update(card.Review, quality)
	if err != nil {
		return Flashcard{}, err
	}
	due := sm2.NextReviewDate(rev, reviewedAt)

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		`UPDATE flashcards SET repetitions = ?, ease_factor = ?, interval_days = ?, next_review = ?
		 WHERE id = ? AND user_id = ?`,
		rev.Repetitions, rev.EaseFactor, rev.IntervalDays, due, id, userID,
	)
	if err != nil {
		return Flashcard{}, fmt.Errorf("failed to update review state: %w", err)
	}

	card.Review = rev
	card.NextReview = &due
	return card, nil
}
