// Package server exposes the StudyHall HTTP API. Generation routes always
// answer 200 with a provenance field; only input and storage problems map
// to error statuses.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"studyhall/internal/config"
	"studyhall/internal/gen"
	"studyhall/internal/ingest"
	"studyhall/internal/logging"
	"studyhall/internal/store"
)

// defaultUserID stands in until authentication exists.
// TODO: replace with session-derived user IDs once the auth service lands.
const defaultUserID int64 = 1

// Generator is the slice of the gateway the handlers need.
type Generator interface {
	Generate(ctx context.Context, req gen.GenerationRequest) (*gen.ContentEnvelope, gen.Provenance)
}

// Server holds the API's collaborators.
type Server struct {
	cfg     *config.Config
	store   *store.Store
	gateway Generator
	ingest  *ingest.Processor
}

// New wires a server.
func New(cfg *config.Config, st *store.Store, gateway Generator) *Server {
	return &Server{
		cfg:     cfg,
		store:   st,
		gateway: gateway,
		ingest:  ingest.NewProcessor(gateway, st),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /documents", s.handleUploadDocument)
	mux.HandleFunc("GET /topics", s.handleListTopics)
	mux.HandleFunc("DELETE /topics", s.handleDeleteTopics)
	mux.HandleFunc("POST /lessons/generate", s.handleGenerateLesson)
	mux.HandleFunc("POST /exams/generate", s.handleGenerateExam)
	mux.HandleFunc("GET /exams/{id}", s.handleGetExam)
	mux.HandleFunc("POST /flashcards", s.handleCreateFlashcard)
	mux.HandleFunc("POST /flashcards/generate", s.handleGenerateFlashcards)
	mux.HandleFunc("POST /flashcards/{id}/review", s.handleReviewFlashcard)

	return mux
}

// Run serves until ctx is canceled, then drains connections within the
// configured shutdown budget.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logging.Server("Listening on %s", s.cfg.Server.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout())
		defer cancel()
		logging.Server("Shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ServerError("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
