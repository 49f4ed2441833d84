package gen

import (
	"strings"
	"testing"
)

func TestBuildScript_Gemini(t *testing.T) {
	script := string(buildScript("gemini", "gemini-1.5-flash", ContentLesson))

	if !strings.Contains(script, "GEMINI_API_KEY") {
		t.Errorf("gemini script should read GEMINI_API_KEY from env")
	}
	if !strings.Contains(script, "gemini-1.5-flash") {
		t.Errorf("script should pin the configured model")
	}
	if !strings.Contains(script, "micro-lesson") {
		t.Errorf("lesson script should carry the lesson prompt")
	}
}

func TestBuildScript_Anthropic(t *testing.T) {
	script := string(buildScript("anthropic", "claude-3-haiku-20240307", ContentExam))

	if !strings.Contains(script, "ANTHROPIC_API_KEY") {
		t.Errorf("anthropic script should read ANTHROPIC_API_KEY from env")
	}
	if !strings.Contains(script, "api.anthropic.com") {
		t.Errorf("anthropic script should call the messages API")
	}
	if strings.Contains(script, "GEMINI_API_KEY") {
		t.Errorf("anthropic script should not reference the gemini key")
	}
}

func TestBuildScript_FlashcardLabels(t *testing.T) {
	script := string(buildScript("gemini", "gemini-1.5-flash", ContentFlashcards))

	if !strings.Contains(script, "flashcards") {
		t.Errorf("flashcard script should carry the flashcard prompt")
	}
	if !strings.Contains(script, `"Number of cards"`) {
		t.Errorf("flashcard script should label the card-count argument")
	}
}

func TestBuildScript_NoCredentialLiteral(t *testing.T) {
	// The script template must never receive the key itself.
	script := string(buildScript("gemini", "gemini-1.5-flash", ContentIngest))
	if strings.Contains(script, "api_key=\"") || strings.Contains(script, "api_key='") {
		t.Errorf("script embeds a credential literal")
	}
}

func TestBuildArgs(t *testing.T) {
	t.Run("ingest carries the document text", func(t *testing.T) {
		args := buildArgs(GenerationRequest{
			ContentType:    ContentIngest,
			ContextPayload: "chapter one",
		})
		if len(args) != 1 || args[0] != "chapter one" {
			t.Errorf("unexpected args: %v", args)
		}
	})

	t.Run("lesson leads with the topic", func(t *testing.T) {
		args := buildArgs(GenerationRequest{
			ContentType:    ContentLesson,
			ContextPayload: "retrieved context",
			Parameters:     Parameters{TopicName: "Recursion"},
		})
		if len(args) != 2 || args[0] != "Recursion" || args[1] != "retrieved context" {
			t.Errorf("unexpected args: %v", args)
		}
	})

	t.Run("flashcards carry the card count", func(t *testing.T) {
		args := buildArgs(GenerationRequest{
			ContentType:    ContentFlashcards,
			ContextPayload: "stored summary",
			Parameters:     Parameters{TopicName: "Osmosis", CardCount: 8},
		})
		want := []string{"Osmosis", "stored summary", "8"}
		if len(args) != len(want) {
			t.Fatalf("unexpected arg count: %v", args)
		}
		for i := range want {
			if args[i] != want[i] {
				t.Errorf("arg %d: got %q, want %q", i, args[i], want[i])
			}
		}
	})

	t.Run("exam includes type-specific fields", func(t *testing.T) {
		args := buildArgs(GenerationRequest{
			ContentType:    ContentExam,
			ContextPayload: "ctx",
			Parameters: Parameters{
				Topics:          []string{"A", "B"},
				ExamType:        "final",
				DurationMinutes: 90,
				TotalMarks:      100,
				Difficulty:      "hard",
			},
		})
		want := []string{"A, B", "ctx", "final", "90", "100", "hard"}
		if len(args) != len(want) {
			t.Fatalf("unexpected arg count: %v", args)
		}
		for i := range want {
			if args[i] != want[i] {
				t.Errorf("arg %d: got %q, want %q", i, args[i], want[i])
			}
		}
	})
}
