package gen

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestFallback_ExamCycles(t *testing.T) {
	var synth FallbackSynthesizer

	env := synth.Synthesize(GenerationRequest{
		ContentType: ContentExam,
		Parameters: Parameters{
			TotalMarks: 47,
			Topics:     []string{"A", "B"},
		},
	})

	if env.Type != ContentExam {
		t.Fatalf("expected exam envelope, got %s", env.Type)
	}
	// max(5, floor(47/10)) = 5
	if len(env.Exam) != 5 {
		t.Fatalf("expected 5 questions, got %d", len(env.Exam))
	}

	wantTypes := []string{"mcq", "short", "problem", "mcq", "short"}
	for i, q := range env.Exam {
		if q.Type != wantTypes[i] {
			t.Errorf("question %d: expected type %s, got %s", i, wantTypes[i], q.Type)
		}
	}

	wantDifficulties := []string{"easy", "medium", "hard", "easy", "medium"}
	for i, q := range env.Exam {
		if q.Difficulty != wantDifficulties[i] {
			t.Errorf("question %d: expected difficulty %s, got %s", i, wantDifficulties[i], q.Difficulty)
		}
	}

	// floor(47/5) = 9 marks per question.
	for i, q := range env.Exam {
		if q.Marks != 9 {
			t.Errorf("question %d: expected 9 marks, got %d", i, q.Marks)
		}
	}

	wantTopics := []string{"A", "B", "A", "B", "A"}
	for i, q := range env.Exam {
		if q.Topic != wantTopics[i] {
			t.Errorf("question %d: expected topic %s, got %s", i, wantTopics[i], q.Topic)
		}
	}
}

func TestFallback_ExamMarksRemainderDropped(t *testing.T) {
	// 47 = 5*9 + 2: the remainder stays unallocated rather than being
	// redistributed. Intentionally preserved behavior.
	var synth FallbackSynthesizer

	env := synth.Synthesize(GenerationRequest{
		ContentType: ContentExam,
		Parameters:  Parameters{TotalMarks: 47, Topics: []string{"A"}},
	})

	sum := 0
	for _, q := range env.Exam {
		sum += q.Marks
	}
	if sum != 45 {
		t.Errorf("expected allocated marks to sum to 45 (47 minus dropped remainder), got %d", sum)
	}
}

func TestFallback_ExamLargeTotal(t *testing.T) {
	var synth FallbackSynthesizer

	env := synth.Synthesize(GenerationRequest{
		ContentType: ContentExam,
		Parameters:  Parameters{TotalMarks: 100, Topics: []string{"X"}},
	})

	// floor(100/10) = 10 questions at 10 marks each.
	if len(env.Exam) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(env.Exam))
	}
	for _, q := range env.Exam {
		if q.Marks != 10 {
			t.Errorf("expected 10 marks, got %d", q.Marks)
		}
	}
}

func TestFallback_Lesson(t *testing.T) {
	var synth FallbackSynthesizer

	env := synth.Synthesize(GenerationRequest{
		ContentType: ContentLesson,
		Parameters: Parameters{
			TopicName:    "Recursion",
			TopicSummary: "Functions calling themselves",
		},
	})

	lesson := env.Lesson
	if lesson == nil {
		t.Fatal("expected lesson payload")
	}
	if len(lesson.Sections) != 1 {
		t.Fatalf("expected exactly one section, got %d", len(lesson.Sections))
	}
	if lesson.Sections[0].Heading != "Recursion" {
		t.Errorf("expected section heading 'Recursion', got %q", lesson.Sections[0].Heading)
	}
	if lesson.Sections[0].Content != "Functions calling themselves" {
		t.Errorf("expected summary verbatim, got %q", lesson.Sections[0].Content)
	}
	if len(lesson.Tips) == 0 {
		t.Errorf("expected non-empty tips")
	}
	if lesson.Confidence != "medium" {
		t.Errorf("expected confidence medium, got %q", lesson.Confidence)
	}
}

func TestFallback_LessonWithoutSummary(t *testing.T) {
	var synth FallbackSynthesizer

	env := synth.Synthesize(GenerationRequest{
		ContentType: ContentLesson,
		Parameters:  Parameters{TopicName: "Entropy"},
	})

	if env.Lesson.Sections[0].Content == "" {
		t.Errorf("expected placeholder content when no summary is stored")
	}
}

func TestFallback_Ingest(t *testing.T) {
	var synth FallbackSynthesizer

	env := synth.Synthesize(GenerationRequest{
		ContentType: ContentIngest,
		Parameters:  Parameters{SourceName: "biology-notes.pdf"},
	})

	if len(env.Topics) != 1 {
		t.Fatalf("expected exactly one topic, got %d", len(env.Topics))
	}
	if env.Topics[0].Topic != "biology-notes.pdf" {
		t.Errorf("expected topic named from source, got %q", env.Topics[0].Topic)
	}
	if env.Topics[0].Content == "" {
		t.Errorf("expected placeholder content")
	}
}

func TestFallback_Flashcards(t *testing.T) {
	var synth FallbackSynthesizer

	env := synth.Synthesize(GenerationRequest{
		ContentType: ContentFlashcards,
		Parameters: Parameters{
			TopicName:    "Recursion",
			TopicSummary: "Functions calling themselves",
			CardCount:    7,
		},
	})

	if env.Type != ContentFlashcards {
		t.Fatalf("expected flashcards envelope, got %s", env.Type)
	}
	if len(env.Flashcards) != 7 {
		t.Fatalf("expected 7 cards, got %d", len(env.Flashcards))
	}
	for i, c := range env.Flashcards {
		if !strings.Contains(c.Front, "Recursion") {
			t.Errorf("card %d front does not mention the topic: %q", i, c.Front)
		}
		if c.Back != "Functions calling themselves" {
			t.Errorf("card %d back should carry the stored summary verbatim, got %q", i, c.Back)
		}
	}
	// Stems cycle past their length.
	if env.Flashcards[5].Front != env.Flashcards[0].Front {
		t.Errorf("expected card 6 to reuse the first stem")
	}
}

func TestFallback_FlashcardsDefaults(t *testing.T) {
	var synth FallbackSynthesizer

	env := synth.Synthesize(GenerationRequest{ContentType: ContentFlashcards})

	if len(env.Flashcards) != 5 {
		t.Fatalf("expected 5 cards by default, got %d", len(env.Flashcards))
	}
	for i, c := range env.Flashcards {
		if c.Front == "" || c.Back == "" {
			t.Errorf("card %d has an empty side: %+v", i, c)
		}
	}
}

func TestFallback_Deterministic(t *testing.T) {
	var synth FallbackSynthesizer

	req := GenerationRequest{
		ContentType: ContentExam,
		Parameters: Parameters{
			TotalMarks: 73,
			Topics:     []string{"Thermodynamics", "Kinetics"},
			ExamType:   "final",
		},
	}

	first := synth.Synthesize(req)
	second := synth.Synthesize(req)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("identical inputs produced different envelopes")
	}

	// Byte-identical when serialized, no unseeded randomness anywhere.
	a, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	b, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(a) != string(b) {
		t.Errorf("serialized envelopes differ:\n%s\n%s", a, b)
	}
}

func TestFallback_AllTypesAreSchemaValid(t *testing.T) {
	// Every fallback envelope must survive the same validation applied to
	// interpreter output.
	var synth FallbackSynthesizer

	reqs := []GenerationRequest{
		{ContentType: ContentIngest},
		{ContentType: ContentLesson},
		{ContentType: ContentExam},
		{ContentType: ContentFlashcards},
	}

	for _, req := range reqs {
		env := synth.Synthesize(req)

		var data []byte
		var err error
		switch req.ContentType {
		case ContentIngest:
			data, err = json.Marshal(env.Topics)
		case ContentLesson:
			data, err = json.Marshal(env.Lesson)
		case ContentExam:
			data, err = json.Marshal(env.Exam)
		case ContentFlashcards:
			data, err = json.Marshal(env.Flashcards)
		}
		if err != nil {
			t.Fatalf("marshal %s failed: %v", req.ContentType, err)
		}

		if _, err := Parse(req.ContentType, string(data)); err != nil {
			t.Errorf("fallback %s envelope failed protocol validation: %v", req.ContentType, err)
		}
	}
}
