// Package ingest turns uploaded study material into persisted topics. A
// cheap heuristic pass always produces topics; the generation gateway then
// gets one chance to improve on them. Degraded generation keeps the
// heuristic result, so ingest succeeds whenever storage does.
package ingest

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"studyhall/internal/gen"
	"studyhall/internal/logging"
	"studyhall/internal/store"
)

// maxFallbackChars caps the content of the single catch-all topic created
// when a document has no recognizable headings.
const maxFallbackChars = 5000

// Generator is the slice of the gateway ingest needs.
type Generator interface {
	Generate(ctx context.Context, req gen.GenerationRequest) (*gen.ContentEnvelope, gen.Provenance)
}

// TopicStore persists extracted topics.
type TopicStore interface {
	CreateTopic(userID int64, name, summary string, importance int) (store.Topic, error)
}

// Document is one uploaded file.
type Document struct {
	Name      string
	MediaType string
	Data      []byte
}

// Result reports what an ingest produced and which tier produced it.
type Result struct {
	Topics     []store.Topic
	Provenance gen.Provenance
}

// Processor runs the ingest pipeline.
type Processor struct {
	gateway Generator
	topics  TopicStore
}

// NewProcessor wires a processor.
func NewProcessor(gateway Generator, topics TopicStore) *Processor {
	return &Processor{gateway: gateway, topics: topics}
}

// Process extracts topics from a document and persists them for the user.
// Generation failures degrade silently; only storage errors are returned.
func (p *Processor) Process(ctx context.Context, userID int64, doc Document) (Result, error) {
	text := extractText(doc)

	extracted := extractTopics(text)
	logging.Ingest("Document %q: %d heuristic topics", doc.Name, len(extracted))

	envelope, provenance := p.gateway.Generate(ctx, gen.GenerationRequest{
		ContentType:    gen.ContentIngest,
		ContextPayload: text,
		Parameters:     gen.Parameters{SourceName: doc.Name},
	})
	if provenance == gen.ProvenancePrimary {
		// The interpreter's extraction replaces the heuristic one.
		extracted = envelope.Topics
	}

	result := Result{Provenance: provenance}
	for _, t := range extracted {
		saved, err := p.topics.CreateTopic(userID, t.Topic, t.Content, 0)
		if err != nil {
			return Result{}, fmt.Errorf("failed to save topic %q: %w", t.Topic, err)
		}
		result.Topics = append(result.Topics, saved)
	}
	return result, nil
}

// extractText reads the document body. Only plain text is parsed in-process;
// binary formats get a descriptive placeholder so the pipeline still yields
// a topic for them.
func extractText(doc Document) string {
	switch {
	case strings.HasPrefix(doc.MediaType, "text/"), doc.MediaType == "application/json":
		return string(doc.Data)
	case doc.MediaType == "application/pdf":
		return fmt.Sprintf("PDF document %q (%d bytes). Text extraction is not available for this upload.", doc.Name, len(doc.Data))
	case strings.HasPrefix(doc.MediaType, "image/"):
		return "Educational Image Content"
	default:
		return string(doc.Data)
	}
}

// extractTopics splits text into topics at heading lines. Documents with no
// headings collapse into one catch-all topic.
func extractTopics(text string) []gen.TopicExtract {
	var topics []gen.TopicExtract
	var current *gen.TopicExtract
	var body strings.Builder

	flush := func() {
		if current != nil {
			current.Content = strings.TrimSpace(body.String())
			topics = append(topics, *current)
		}
		body.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if isHeading(trimmed) {
			flush()
			current = &gen.TopicExtract{Topic: titleCase(trimmed)}
			continue
		}
		if current != nil && trimmed != "" {
			if body.Len() > 0 {
				body.WriteByte('\n')
			}
			body.WriteString(trimmed)
		}
	}
	flush()

	if len(topics) == 0 {
		content := truncateRunes(strings.TrimSpace(text), maxFallbackChars)
		topics = []gen.TopicExtract{{Topic: "Document Content", Content: content}}
	}
	return topics
}

// truncateRunes caps s at max characters without splitting a rune.
func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	seen := 0
	for i := range s {
		if seen == max {
			return s[:i]
		}
		seen++
	}
	return s
}

// isHeading treats short all-caps lines and short Title Case lines as
// section headings.
func isHeading(line string) bool {
	if line == "" {
		return false
	}

	if len(line) > 3 && line == strings.ToUpper(line) && hasLetter(line) {
		return true
	}

	words := strings.Fields(line)
	if len(words) == 0 || len(words) > 8 {
		return false
	}
	for _, w := range words {
		r := []rune(w)
		if !unicode.IsUpper(r[0]) {
			return false
		}
	}
	// Headings don't end like sentences.
	return !strings.HasSuffix(line, ".")
}

// titleCase normalizes an all-caps or mixed heading into Title Case.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}
