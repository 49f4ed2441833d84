package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"studyhall/internal/logging"
)

// TransientArtifact is an on-disk file whose lifetime is bound to one
// generation request.
type TransientArtifact struct {
	Path            string
	OwningRequestID string
}

// Janitor guarantees cleanup of transient artifacts on every exit path of a
// request. One Janitor serves one request; Release is idempotent and safe to
// defer alongside explicit calls.
type Janitor struct {
	mu        sync.Mutex
	requestID string
	artifacts []TransientArtifact
	released  bool
}

// NewJanitor returns a janitor scoped to one request.
func NewJanitor(requestID string) *Janitor {
	return &Janitor{requestID: requestID}
}

// CreateScript writes content to a request-unique file under dir and
// registers it for cleanup. Filenames embed a UUID so concurrent requests
// sharing the temp directory never collide.
func (j *Janitor) CreateScript(dir string, content []byte) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create script dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("studyhall_%s_%s.py", j.requestID, uuid.NewString()))
	if err := os.WriteFile(path, content, 0600); err != nil {
		return "", fmt.Errorf("failed to write script: %w", err)
	}

	j.Register(path)
	logging.GatewayDebug("Registered transient script %s for request %s", path, j.requestID)
	return path, nil
}

// Register tracks an existing file for cleanup when the request completes.
func (j *Janitor) Register(path string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.artifacts = append(j.artifacts, TransientArtifact{
		Path:            path,
		OwningRequestID: j.requestID,
	})
}

// Artifacts returns a snapshot of the registered artifacts.
func (j *Janitor) Artifacts() []TransientArtifact {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]TransientArtifact, len(j.artifacts))
	copy(out, j.artifacts)
	return out
}

// Release deletes every registered artifact. Calling it more than once is a
// no-op; a file already gone does not count as a failure.
func (j *Janitor) Release() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.released {
		return
	}
	j.released = true

	for _, a := range j.artifacts {
		if err := os.Remove(a.Path); err != nil && !os.IsNotExist(err) {
			logging.GatewayWarn("Failed to remove transient artifact %s: %v", a.Path, err)
		}
	}
}
