package store

import (
	"encoding/json"
	"fmt"
	"time"

	"studyhall/internal/gen"
)

// Exam is one generated exam with its questions.
type Exam struct {
	ID              int64              `json:"id"`
	UserID          int64              `json:"user_id"`
	Title           string             `json:"title"`
	ExamType        string             `json:"exam_type"`
	TotalMarks      int                `json:"total_marks"`
	DurationMinutes int                `json:"duration_minutes"`
	Provenance      string             `json:"provenance"`
	Questions       []gen.ExamQuestion `json:"questions"`
	CreatedAt       time.Time          `json:"created_at"`
}

// SaveExam persists an exam with its questions in one transaction.
func (s *Store) SaveExam(userID int64, title, examType string, totalMarks, duration int, provenance string, questions []gen.ExamQuestion) (Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return Exam{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.Exec(
		`INSERT INTO exams (user_id, title, exam_type, total_marks, duration_minutes, provenance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, title, examType, totalMarks, duration, provenance, now,
	)
	if err != nil {
		return Exam{}, fmt.Errorf("failed to insert exam: %w", err)
	}
	examID, err := res.LastInsertId()
	if err != nil {
		return Exam{}, fmt.Errorf("failed to read exam id: %w", err)
	}

	for _, q := range questions {
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return Exam{}, fmt.Errorf("failed to encode options for %s: %w", q.ID, err)
		}
		_, err = tx.Exec(
			`INSERT INTO exam_questions (exam_id, question_id, question_type, difficulty, question, options, marks, topic, hint)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			examID, q.ID, q.Type, q.Difficulty, q.Question, string(opts), q.Marks, q.Topic, q.Hint,
		)
		if err != nil {
			return Exam{}, fmt.Errorf("failed to insert question %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Exam{}, fmt.Errorf("failed to commit exam: %w", err)
	}

	return Exam{
		ID:              examID,
		UserID:          userID,
		Title:           title,
		ExamType:        examType,
		TotalMarks:      totalMarks,
		DurationMinutes: duration,
		Provenance:      provenance,
		Questions:       questions,
		CreatedAt:       now,
	}, nil
}

// GetExam loads an exam and its questions, scoped to the owner.
func (s *Store) GetExam(id, userID int64) (Exam, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT id, user_id, title, exam_type, total_marks, duration_minutes, provenance, created_at
		 FROM exams WHERE id = ? AND user_id = ?`, id, userID)

	var e Exam
	if err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.ExamType, &e.TotalMarks, &e.DurationMinutes, &e.Provenance, &e.CreatedAt); err != nil {
		return Exam{}, fmt.Errorf("exam %d not found: %w", id, err)
	}

	rows, err := s.db.Query(
		`SELECT question_id, question_type, difficulty, question, options, marks, topic, hint
		 FROM exam_questions WHERE exam_id = ? ORDER BY id`, id)
	if err != nil {
		return Exam{}, fmt.Errorf("failed to load questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q gen.ExamQuestion
		var opts string
		if err := rows.Scan(&q.ID, &q.Type, &q.Difficulty, &q.Question, &opts, &q.Marks, &q.Topic, &q.Hint); err != nil {
			return Exam{}, fmt.Errorf("failed to scan question: %w", err)
		}
		if err := json.Unmarshal([]byte(opts), &q.Options); err != nil {
			return Exam{}, fmt.Errorf("failed to decode options: %w", err)
		}
		e.Questions = append(e.Questions, q)
	}
	return e, rows.Err()
}
