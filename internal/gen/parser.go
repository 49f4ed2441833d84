package gen

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseError reports why interpreter output could not become an envelope.
// The gateway converts every ParseError into a Degraded fallback; it never
// reaches a caller.
type ParseError struct {
	ContentType ContentType
	Stage       string // "decode" or "validate"
	Detail      string
	Err         error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s output: %s: %s: %v", e.ContentType, e.Stage, e.Detail, e.Err)
	}
	return fmt.Sprintf("parse %s output: %s: %s", e.ContentType, e.Stage, e.Detail)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StripFence removes one leading/trailing markdown code fence from raw model
// output, if present. It is a separate stage from JSON decoding so each can
// be tested alone.
func StripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Drop the opening fence line, including any language tag.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	} else {
		// Opening fence with no body.
		return ""
	}

	s = strings.TrimRight(s, " \t\n\r")
	if strings.HasSuffix(s, "```") {
		s = s[:len(s)-3]
	}
	return strings.TrimSpace(s)
}

// Parse decodes interpreter output into a typed envelope for the given
// content type. Unknown JSON fields are ignored; missing required fields are
// a ParseError. Semantic policy (e.g. MCQ option counts) is not checked here.
func Parse(ct ContentType, raw string) (*ContentEnvelope, error) {
	text := StripFence(raw)
	if text == "" {
		return nil, &ParseError{ContentType: ct, Stage: "decode", Detail: "empty output"}
	}

	switch ct {
	case ContentIngest:
		return parseTopicList(text)
	case ContentLesson:
		return parseLesson(text)
	case ContentExam:
		return parseExam(text)
	case ContentFlashcards:
		return parseFlashcards(text)
	default:
		return nil, &ParseError{ContentType: ct, Stage: "decode", Detail: "unknown content type"}
	}
}

func parseTopicList(text string) (*ContentEnvelope, error) {
	var topics []TopicExtract
	if err := json.Unmarshal([]byte(text), &topics); err != nil {
		return nil, &ParseError{ContentType: ContentIngest, Stage: "decode", Detail: "expected a JSON array of topics", Err: err}
	}
	if len(topics) == 0 {
		return nil, &ParseError{ContentType: ContentIngest, Stage: "validate", Detail: "topic list is empty"}
	}
	for i, t := range topics {
		if strings.TrimSpace(t.Topic) == "" {
			return nil, &ParseError{ContentType: ContentIngest, Stage: "validate", Detail: fmt.Sprintf("topic %d missing name", i)}
		}
	}
	return &ContentEnvelope{Type: ContentIngest, Topics: topics}, nil
}

func parseLesson(text string) (*ContentEnvelope, error) {
	var lesson Lesson
	if err := json.Unmarshal([]byte(text), &lesson); err != nil {
		return nil, &ParseError{ContentType: ContentLesson, Stage: "decode", Detail: "expected a JSON lesson object", Err: err}
	}
	if strings.TrimSpace(lesson.Title) == "" {
		return nil, &ParseError{ContentType: ContentLesson, Stage: "validate", Detail: "missing title"}
	}
	if len(lesson.Sections) == 0 {
		return nil, &ParseError{ContentType: ContentLesson, Stage: "validate", Detail: "lesson has no sections"}
	}
	for i, s := range lesson.Sections {
		if strings.TrimSpace(s.Heading) == "" {
			return nil, &ParseError{ContentType: ContentLesson, Stage: "validate", Detail: fmt.Sprintf("section %d missing heading", i)}
		}
	}
	return &ContentEnvelope{Type: ContentLesson, Lesson: &lesson}, nil
}

func parseExam(text string) (*ContentEnvelope, error) {
	var questions []ExamQuestion
	if err := json.Unmarshal([]byte(text), &questions); err != nil {
		return nil, &ParseError{ContentType: ContentExam, Stage: "decode", Detail: "expected a JSON array of questions", Err: err}
	}
	if len(questions) == 0 {
		return nil, &ParseError{ContentType: ContentExam, Stage: "validate", Detail: "question list is empty"}
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, &ParseError{ContentType: ContentExam, Stage: "validate", Detail: fmt.Sprintf("question %d missing text", i)}
		}
		if q.Marks <= 0 {
			return nil, &ParseError{ContentType: ContentExam, Stage: "validate", Detail: fmt.Sprintf("question %d missing marks", i)}
		}
	}
	return &ContentEnvelope{Type: ContentExam, Exam: questions}, nil
}

func parseFlashcards(text string) (*ContentEnvelope, error) {
	var cards []Flashcard
	if err := json.Unmarshal([]byte(text), &cards); err != nil {
		return nil, &ParseError{ContentType: ContentFlashcards, Stage: "decode", Detail: "expected a JSON array of cards", Err: err}
	}
	if len(cards) == 0 {
		return nil, &ParseError{ContentType: ContentFlashcards, Stage: "validate", Detail: "card list is empty"}
	}
	for i, c := range cards {
		if strings.TrimSpace(c.Front) == "" {
			return nil, &ParseError{ContentType: ContentFlashcards, Stage: "validate", Detail: fmt.Sprintf("card %d missing front", i)}
		}
		if strings.TrimSpace(c.Back) == "" {
			return nil, &ParseError{ContentType: ContentFlashcards, Stage: "validate", Detail: fmt.Sprintf("card %d missing back", i)}
		}
	}
	return &ContentEnvelope{Type: ContentFlashcards, Flashcards: cards}, nil
}
