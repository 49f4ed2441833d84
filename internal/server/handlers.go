package server

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"studyhall/internal/gen"
	"studyhall/internal/ingest"
	"studyhall/internal/logging"
	"studyhall/internal/store"
)

// defaultMaxUploadBytes bounds document uploads when config leaves the
// limit unset.
const defaultMaxUploadBytes = 20 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) maxUploadBytes() int64 {
	if s.cfg.Server.MaxUploadBytes > 0 {
		return s.cfg.Server.MaxUploadBytes
	}
	return defaultMaxUploadBytes
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	limit := s.maxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	doc := ingest.Document{
		Name:      header.Filename,
		MediaType: mediaTypeOf(header.Filename, header.Header.Get("Content-Type")),
		Data:      data,
	}
	result, err := s.ingest.Process(r.Context(), defaultUserID, doc)
	if err != nil {
		logging.ServerError("Ingest of %q failed: %v", doc.Name, err)
		writeError(w, http.StatusInternalServerError, "failed to store extracted topics")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"provenance": result.Provenance,
		"topics":     result.Topics,
	})
}

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics, err := s.store.ListTopics(defaultUserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list topics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"topics": topics})
}

func (s *Server) handleDeleteTopics(w http.ResponseWriter, r *http.Request) {
	n, err := s.store.DeleteAllTopics(defaultUserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete topics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": n})
}

type lessonRequest struct {
	TopicID int64 `json:"topic_id"`
}

func (s *Server) handleGenerateLesson(w http.ResponseWriter, r *http.Request) {
	var req lessonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	topic, err := s.store.GetTopic(req.TopicID, defaultUserID)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("topic %d not found", req.TopicID))
		return
	}

	envelope, provenance := s.gateway.Generate(r.Context(), gen.GenerationRequest{
		ContentType:    gen.ContentLesson,
		ContextPayload: topic.Summary,
		Parameters: gen.Parameters{
			TopicName:    topic.Name,
			TopicSummary: topic.Summary,
		},
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"provenance": provenance,
		"lesson":     envelope.Lesson,
	})
}

type examRequest struct {
	Title           string  `json:"title"`
	TopicIDs        []int64 `json:"topic_ids"`
	ExamType        string  `json:"exam_type"`
	Difficulty      string  `json:"difficulty"`
	DurationMinutes int     `json:"duration_minutes"`
	TotalMarks      int     `json:"total_marks"`
}

func (s *Server) handleGenerateExam(w http.ResponseWriter, r *http.Request) {
	var req examRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.TopicIDs) == 0 {
		writeError(w, http.StatusBadRequest, "topic_ids is required")
		return
	}
	if req.TotalMarks <= 0 {
		writeError(w, http.StatusBadRequest, "total_marks must be positive")
		return
	}

	var names []string
	var contextParts []string
	for _, id := range req.TopicIDs {
		topic, err := s.store.GetTopic(id, defaultUserID)
		if err != nil {
			writeError(w, http.StatusNotFound, fmt.Sprintf("topic %d not found", id))
			return
		}
		names = append(names, topic.Name)
		if topic.Summary != "" {
			contextParts = append(contextParts, topic.Name+": "+topic.Summary)
		}
	}

	envelope, provenance := s.gateway.Generate(r.Context(), gen.GenerationRequest{
		ContentType:    gen.ContentExam,
		ContextPayload: strings.Join(contextParts, "\n\n"),
		Parameters: gen.Parameters{
			Topics:          names,
			ExamType:        req.ExamType,
			Difficulty:      req.Difficulty,
			DurationMinutes: req.DurationMinutes,
			TotalMarks:      req.TotalMarks,
		},
	})

	title := req.Title
	if title == "" {
		title = strings.Join(names, ", ") + " exam"
	}
	saved, err := s.store.SaveExam(defaultUserID, title, req.ExamType, req.TotalMarks,
		req.DurationMinutes, string(provenance), envelope.Exam)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save exam")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"provenance": provenance,
		"exam":       saved,
	})
}

func (s *Server) handleGetExam(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid exam id")
		return
	}
	exam, err := s.store.GetExam(id, defaultUserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "exam not found")
		return
	}
	writeJSON(w, http.StatusOK, exam)
}

type flashcardRequest struct {
	TopicID int64  `json:"topic_id"`
	Front   string `json:"front"`
	Back    string `json:"back"`
}

func (s *Server) handleCreateFlashcard(w http.ResponseWriter, r *http.Request) {
	var req flashcardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Front == "" || req.Back == "" {
		writeError(w, http.StatusBadRequest, "front and back are required")
		return
	}
	if _, err := s.store.GetTopic(req.TopicID, defaultUserID); err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("topic %d not found", req.TopicID))
		return
	}

	card, err := s.store.CreateFlashcard(defaultUserID, req.TopicID, req.Front, req.Back)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create flashcard")
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

type flashcardGenRequest struct {
	TopicID int64 `json:"topic_id"`
	Count   int   `json:"count"`
}

func (s *Server) handleGenerateFlashcards(w http.ResponseWriter, r *http.Request) {
	var req flashcardGenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	topic, err := s.store.GetTopic(req.TopicID, defaultUserID)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("topic %d not found", req.TopicID))
		return
	}

	envelope, provenance := s.gateway.Generate(r.Context(), gen.GenerationRequest{
		ContentType:    gen.ContentFlashcards,
		ContextPayload: topic.Summary,
		Parameters: gen.Parameters{
			TopicName:    topic.Name,
			TopicSummary: topic.Summary,
			CardCount:    req.Count,
		},
	})

	saved := make([]store.Flashcard, 0, len(envelope.Flashcards))
	for _, c := range envelope.Flashcards {
		card, err := s.store.CreateFlashcard(defaultUserID, topic.ID, c.Front, c.Back)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to save flashcards")
			return
		}
		saved = append(saved, card)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"provenance": provenance,
		"flashcards": saved,
	})
}

type reviewRequest struct {
	Quality int `json:"quality"`
}

func (s *Server) handleReviewFlashcard(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid flashcard id")
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	card, err := s.store.RecordReview(id, defaultUserID, req.Quality, time.Now().UTC())
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			writeError(w, http.StatusNotFound, "flashcard not found")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, card)
}

// mediaTypeOf resolves a media type from the declared header, falling back
// to the filename extension.
func mediaTypeOf(filename, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return mt
		}
	}
	if mt := mime.TypeByExtension(filepath.Ext(filename)); mt != "" {
		if parsed, _, err := mime.ParseMediaType(mt); err == nil {
			return parsed
		}
	}
	return "application/octet-stream"
}
