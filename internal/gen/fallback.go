package gen

import (
	"fmt"

	"studyhall/internal/logging"
)

// FallbackSynthesizer is tier 2 of the generation pipeline: a pure,
// deterministic, dependency-free generator that always produces a
// schema-valid envelope. It runs whenever the interpreter path fails and must
// never itself fail. Identical inputs yield byte-identical envelopes.
type FallbackSynthesizer struct{}

// Question type and difficulty cycles. Selection is index-modulo so output
// is stable across runs.
var (
	fallbackQuestionTypes = []string{"mcq", "short", "problem"}
	fallbackDifficulties  = []string{"easy", "medium", "hard"}
)

// Synthesize produces a degraded envelope for the request's content type.
func (FallbackSynthesizer) Synthesize(req GenerationRequest) *ContentEnvelope {
	logging.Fallback("Synthesizing degraded %s envelope for request %s", req.ContentType, req.ID)

	switch req.ContentType {
	case ContentIngest:
		return fallbackTopics(req.Parameters)
	case ContentLesson:
		return fallbackLesson(req.Parameters)
	case ContentExam:
		return fallbackExam(req.Parameters)
	case ContentFlashcards:
		return fallbackFlashcards(req.Parameters)
	default:
		// Unknown types degrade to a single-topic extract so the envelope
		// invariant (exactly one payload) still holds.
		return fallbackTopics(req.Parameters)
	}
}

func fallbackTopics(p Parameters) *ContentEnvelope {
	name := p.SourceName
	if name == "" {
		name = "Uploaded Document"
	}
	return &ContentEnvelope{
		Type: ContentIngest,
		Topics: []TopicExtract{{
			Topic: name,
			Content: "Automatic topic extraction was unavailable for this document. " +
				"The content has been saved and can be re-processed later, or you can " +
				"add topics manually.",
		}},
	}
}

func fallbackLesson(p Parameters) *ContentEnvelope {
	topic := p.TopicName
	if topic == "" {
		topic = "Study Topic"
	}
	content := p.TopicSummary
	if content == "" {
		content = "No summary is stored for this topic yet. Review your uploaded materials for details."
	}
	return &ContentEnvelope{
		Type: ContentLesson,
		Lesson: &Lesson{
			Title: topic,
			Sections: []LessonSection{{
				Heading: topic,
				Content: content,
			}},
			CommonMistakes: []string{
				"Memorizing terminology without working through an example.",
			},
			Tips: []string{
				"Re-read the summary, then explain the topic aloud in your own words.",
				"Write down one question you still have and revisit it after practice.",
			},
			Confidence: "medium",
			Citations:  []string{},
		},
	}
}

func fallbackExam(p Parameters) *ContentEnvelope {
	total := p.TotalMarks
	if total <= 0 {
		total = 50
	}

	count := total / 10
	if count < 5 {
		count = 5
	}
	marksPerQuestion := total / count
	// The remainder of total/count is deliberately left unallocated; the sum
	// of question marks may undershoot the requested total.

	topics := p.Topics
	if len(topics) == 0 {
		topics = []string{"General"}
	}

	questions := make([]ExamQuestion, 0, count)
	for i := 0; i < count; i++ {
		qType := fallbackQuestionTypes[i%len(fallbackQuestionTypes)]
		topic := topics[i%len(topics)]
		q := ExamQuestion{
			ID:         fmt.Sprintf("q%d", i+1),
			Type:       qType,
			Difficulty: fallbackDifficulties[i%len(fallbackDifficulties)],
			Question:   fallbackQuestionText(qType, topic),
			Marks:      marksPerQuestion,
			Topic:      topic,
			Hint:       fmt.Sprintf("Review your notes and summary for %s.", topic),
		}
		if qType == "mcq" {
			q.Options = []string{
				fmt.Sprintf("A core definition from %s", topic),
				fmt.Sprintf("A common misconception about %s", topic),
				fmt.Sprintf("An unrelated concept outside %s", topic),
				fmt.Sprintf("A partial statement about %s", topic),
			}
		}
		questions = append(questions, q)
	}

	return &ContentEnvelope{Type: ContentExam, Exam: questions}
}

// fallbackCardFronts are cycled when the card count exceeds the stems.
var fallbackCardFronts = []string{
	"Define %s in your own words.",
	"What problem does %s address?",
	"Give one concrete example involving %s.",
	"What is a common mistake when applying %s?",
	"How would you explain %s to a classmate?",
}

func fallbackFlashcards(p Parameters) *ContentEnvelope {
	topic := p.TopicName
	if topic == "" {
		topic = "Study Topic"
	}
	count := p.CardCount
	if count <= 0 {
		count = 5
	}
	back := p.TopicSummary
	if back == "" {
		back = fmt.Sprintf("Review your uploaded materials for %s and write the answer yourself.", topic)
	}

	cards := make([]Flashcard, 0, count)
	for i := 0; i < count; i++ {
		cards = append(cards, Flashcard{
			Front: fmt.Sprintf(fallbackCardFronts[i%len(fallbackCardFronts)], topic),
			Back:  back,
		})
	}
	return &ContentEnvelope{Type: ContentFlashcards, Flashcards: cards}
}

func fallbackQuestionText(qType, topic string) string {
	switch qType {
	case "mcq":
		return fmt.Sprintf("Which of the following best describes a key concept of %s?", topic)
	case "short":
		return fmt.Sprintf("Briefly explain one important idea from %s in 2-3 sentences.", topic)
	default: // problem
		return fmt.Sprintf("Work through a representative problem applying %s, showing each step.", topic)
	}
}
