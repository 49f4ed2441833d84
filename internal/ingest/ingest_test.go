package ingest

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studyhall/internal/gen"
	"studyhall/internal/store"
)

// stubGateway returns a canned envelope and provenance.
type stubGateway struct {
	envelope   *gen.ContentEnvelope
	provenance gen.Provenance
	lastReq    gen.GenerationRequest
}

func (s *stubGateway) Generate(_ context.Context, req gen.GenerationRequest) (*gen.ContentEnvelope, gen.Provenance) {
	s.lastReq = req
	return s.envelope, s.provenance
}

// memStore records created topics without a database.
type memStore struct {
	created []store.Topic
	nextID  int64
}

func (m *memStore) CreateTopic(userID int64, name, summary string, importance int) (store.Topic, error) {
	m.nextID++
	t := store.Topic{ID: m.nextID, UserID: userID, Name: name, Summary: summary, ImportanceScore: importance}
	m.created = append(m.created, t)
	return t, nil
}

func degradedGateway() *stubGateway {
	fb := gen.FallbackSynthesizer{}
	return &stubGateway{
		envelope:   fb.Synthesize(gen.GenerationRequest{ContentType: gen.ContentIngest}),
		provenance: gen.ProvenanceDegraded,
	}
}

func TestExtractTopics_Headings(t *testing.T) {
	text := "INTRODUCTION\nSome intro text.\nMore intro.\n\nBinary Search Trees\nNodes have two children.\n"

	topics := extractTopics(text)
	require.Len(t, topics, 2)
	assert.Equal(t, "Introduction", topics[0].Topic)
	assert.Equal(t, "Some intro text.\nMore intro.", topics[0].Content)
	assert.Equal(t, "Binary Search Trees", topics[1].Topic)
	assert.Equal(t, "Nodes have two children.", topics[1].Content)
}

func TestExtractTopics_NoHeadingsCollapses(t *testing.T) {
	text := strings.Repeat("plain prose with no structure. ", 300)

	topics := extractTopics(text)
	require.Len(t, topics, 1)
	assert.Equal(t, "Document Content", topics[0].Topic)
	assert.LessOrEqual(t, len(topics[0].Content), maxFallbackChars)
}

func TestExtractTopics_FallbackTruncationCountsCharacters(t *testing.T) {
	// Two-byte characters: byte length is double the character count, and the
	// cap must still land on a character boundary.
	text := strings.Repeat("ü", maxFallbackChars+500)

	topics := extractTopics(text)
	require.Len(t, topics, 1)
	assert.Equal(t, maxFallbackChars, utf8.RuneCountInString(topics[0].Content))
	assert.True(t, utf8.ValidString(topics[0].Content))
}

func TestIsHeading(t *testing.T) {
	assert.True(t, isHeading("CHAPTER ONE"))
	assert.True(t, isHeading("Binary Search Trees"))
	assert.False(t, isHeading("This Sentence Ends With A Period."))
	assert.False(t, isHeading("lowercase start"))
	assert.False(t, isHeading("A Heading That Goes On And On For Far Too Many Words"))
	assert.False(t, isHeading(""))
	assert.False(t, isHeading("123"))
}

func TestProcess_DegradedKeepsHeuristicTopics(t *testing.T) {
	gw := degradedGateway()
	st := &memStore{}
	p := NewProcessor(gw, st)

	doc := Document{
		Name:      "notes.txt",
		MediaType: "text/plain",
		Data:      []byte("SORTING\nQuicksort and mergesort.\n\nGRAPHS\nBFS and DFS.\n"),
	}
	result, err := p.Process(context.Background(), 1, doc)
	require.NoError(t, err)

	assert.Equal(t, gen.ProvenanceDegraded, result.Provenance)
	require.Len(t, result.Topics, 2)
	assert.Equal(t, "Sorting", result.Topics[0].Name)
	assert.Equal(t, "Graphs", result.Topics[1].Name)
}

func TestProcess_PrimaryReplacesHeuristics(t *testing.T) {
	gw := &stubGateway{
		envelope: &gen.ContentEnvelope{
			Type: gen.ContentIngest,
			Topics: []gen.TopicExtract{
				{Topic: "Asymptotic Analysis", Content: "Big-O describes growth rates."},
			},
		},
		provenance: gen.ProvenancePrimary,
	}
	st := &memStore{}
	p := NewProcessor(gw, st)

	doc := Document{Name: "notes.txt", MediaType: "text/plain", Data: []byte("SORTING\nQuicksort.\n")}
	result, err := p.Process(context.Background(), 1, doc)
	require.NoError(t, err)

	assert.Equal(t, gen.ProvenancePrimary, result.Provenance)
	require.Len(t, result.Topics, 1)
	assert.Equal(t, "Asymptotic Analysis", result.Topics[0].Name)
	assert.Equal(t, "Big-O describes growth rates.", result.Topics[0].Summary)
}

func TestProcess_SendsDocumentTextToGateway(t *testing.T) {
	gw := degradedGateway()
	p := NewProcessor(gw, &memStore{})

	doc := Document{Name: "notes.txt", MediaType: "text/plain", Data: []byte("hello world")}
	_, err := p.Process(context.Background(), 1, doc)
	require.NoError(t, err)

	assert.Equal(t, gen.ContentIngest, gw.lastReq.ContentType)
	assert.Equal(t, "hello world", gw.lastReq.ContextPayload)
	assert.Equal(t, "notes.txt", gw.lastReq.Parameters.SourceName)
}

func TestExtractText_Placeholders(t *testing.T) {
	pdf := extractText(Document{Name: "slides.pdf", MediaType: "application/pdf", Data: []byte{1, 2, 3}})
	assert.Contains(t, pdf, "slides.pdf")

	img := extractText(Document{Name: "diagram.png", MediaType: "image/png"})
	assert.Equal(t, "Educational Image Content", img)
}
