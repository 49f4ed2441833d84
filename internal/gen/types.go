// Package gen is the generation gateway: it invokes an out-of-process
// AI-capable interpreter for topic extraction, lesson synthesis, and exam
// synthesis, and guarantees every caller receives a schema-valid envelope
// even when the interpreter is missing, times out, crashes, or emits garbage.
//
// The package is the only place in StudyHall that crosses a process boundary.
// Its contract to callers is total: Generate never returns an error, only an
// envelope plus provenance marking whether the envelope came from the
// interpreter (Primary) or the local fallback synthesizer (Degraded).
package gen

import (
	"time"
	"unicode/utf8"
)

// ContentType selects which generation pipeline a request runs through.
type ContentType string

const (
	// ContentIngest extracts topics from uploaded document text.
	ContentIngest ContentType = "ingest"

	// ContentLesson synthesizes a micro-lesson for one topic.
	ContentLesson ContentType = "lesson"

	// ContentExam synthesizes a mock exam question set.
	ContentExam ContentType = "exam"

	// ContentFlashcards synthesizes front/back study cards for one topic.
	ContentFlashcards ContentType = "flashcards"
)

// Provenance marks which tier produced an envelope. It is surfaced for
// observability; callers never see a generation error.
type Provenance string

const (
	// ProvenancePrimary means the envelope came from the interpreter.
	ProvenancePrimary Provenance = "primary"

	// ProvenanceDegraded means the envelope came from the fallback synthesizer.
	ProvenanceDegraded Provenance = "degraded"
)

// MaxContextChars is the hard cap on a request's context payload. Longer
// payloads are prefix-truncated before invocation.
const MaxContextChars = 10000

// Parameters carries the per-content-type inputs of a generation request.
type Parameters struct {
	// SourceName identifies the ingest source (usually the uploaded filename).
	SourceName string

	// TopicName and TopicSummary drive lesson generation.
	TopicName    string
	TopicSummary string

	// Exam inputs.
	ExamType        string
	Difficulty      string
	DurationMinutes int
	TotalMarks      int
	Topics          []string

	// CardCount is how many flashcards to synthesize. Zero means the default.
	CardCount int
}

// GenerationRequest is one immutable request into the gateway.
type GenerationRequest struct {
	// ID correlates logs, transient artifacts, and results. The gateway
	// assigns one when empty.
	ID string

	ContentType    ContentType
	ContextPayload string
	Parameters     Parameters
}

// ExitOutcome classifies how an interpreter invocation ended.
type ExitOutcome string

const (
	// OutcomeSuccess: exit code 0.
	OutcomeSuccess ExitOutcome = "success"

	// OutcomeNonZeroExit: the process ran and returned non-zero. A process
	// killed by the timeout grace escalation is classified as Timeout, not
	// NonZeroExit; any other kill lands here.
	OutcomeNonZeroExit ExitOutcome = "non_zero_exit"

	// OutcomeTimeout: the wall-clock budget expired and the process was
	// terminated.
	OutcomeTimeout ExitOutcome = "timeout"

	// OutcomeSpawnFailure: the process never started (binary missing,
	// permission denied).
	OutcomeSpawnFailure ExitOutcome = "spawn_failure"
)

// InvocationResult is the structured outcome of one interpreter invocation.
// It is owned by the invoker and consumed once by the gateway; invocation
// failures are values here, never Go errors.
type InvocationResult struct {
	Outcome  ExitOutcome
	ExitCode int
	Stdout   string
	Stderr   string

	// Truncated marks that captured output hit the cap. Truncated stdout is
	// treated as unusable by the gateway.
	Truncated bool

	Duration time.Duration
}

// TopicExtract is one extracted topic from ingest generation.
type TopicExtract struct {
	Topic   string `json:"topic"`
	Content string `json:"content"`
}

// LessonSection is one section of a synthesized lesson.
type LessonSection struct {
	Heading string `json:"heading"`
	Content string `json:"content"`
}

// Lesson is a synthesized micro-lesson.
type Lesson struct {
	Title          string          `json:"title"`
	Sections       []LessonSection `json:"sections"`
	CommonMistakes []string        `json:"common_mistakes"`
	Tips           []string        `json:"tips"`
	Confidence     string          `json:"confidence"`
	Citations      []string        `json:"citations"`
}

// ExamQuestion is one question of a synthesized mock exam.
type ExamQuestion struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Difficulty string   `json:"difficulty"`
	Question   string   `json:"question"`
	Options    []string `json:"options,omitempty"`
	Marks      int      `json:"marks"`
	Topic      string   `json:"topic"`
	Hint       string   `json:"hint,omitempty"`
}

// Flashcard is one synthesized front/back study card.
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// ContentEnvelope is the tagged union returned by both generation tiers.
// Exactly one payload field matching Type is populated.
type ContentEnvelope struct {
	Type ContentType `json:"type"`

	Topics     []TopicExtract `json:"topics,omitempty"`
	Lesson     *Lesson        `json:"lesson,omitempty"`
	Exam       []ExamQuestion `json:"exam,omitempty"`
	Flashcards []Flashcard    `json:"flashcards,omitempty"`
}

// clampContext returns the payload prefix-truncated to MaxContextChars
// characters. The limit counts runes, not bytes, and truncation never splits
// a rune, so clamped payloads stay valid UTF-8.
func clampContext(payload string) string {
	if utf8.RuneCountInString(payload) <= MaxContextChars {
		return payload
	}
	seen := 0
	for i := range payload {
		if seen == MaxContextChars {
			return payload[:i]
		}
		seen++
	}
	return payload
}
