package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

const defaultTimeout = 5 * time.Second

// Backend is a durable string key-value store.
type Backend interface {
	// Get returns the value for key; found is false when the key was never written.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Put writes all entries together, replacing prior values.
	Put(ctx context.Context, entries map[string]string) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Store maps Progress onto a Backend. Load never fails; Save and Clear log a warning
// and return an error wrapping ErrStorageUnavailable when the backend does.
type Store struct {
	backend Backend
	timeout time.Duration
}

// NewStore creates a progress store on top of backend.
func NewStore(backend Backend) *Store {
	if backend == nil {
		backend = NewMemoryBackend()
	}
	return &Store{backend: backend, timeout: defaultTimeout}
}

// Load reads persisted progress. Missing, unreadable or corrupt values fall back to
// their first-run defaults key by key.
func (s *Store) Load(ctx context.Context) Progress {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p := Empty()

	var completed []int
	if s.read(ctx, KeyCompletedModules, completedSchema, &completed) {
		p.CompletedModules = completed
	}

	var up UserProgress
	if s.read(ctx, KeyUserProgress, progressSchema, &up) {
		p.UserProgress = up
	}

	return p.normalized()
}

// Save overwrites both keys with p.
func (s *Store) Save(ctx context.Context, p Progress) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p = p.normalized()

	completed, err := json.Marshal(p.CompletedModules)
	if err != nil {
		return s.fail("save", fmt.Errorf("encode %s: %w", KeyCompletedModules, err))
	}
	up, err := json.Marshal(p.UserProgress)
	if err != nil {
		return s.fail("save", fmt.Errorf("encode %s: %w", KeyUserProgress, err))
	}

	if err := s.backend.Put(ctx, map[string]string{
		KeyCompletedModules: string(completed),
		KeyUserProgress:     string(up),
	}); err != nil {
		return s.fail("save", err)
	}
	return nil
}

// Clear removes every persisted key, returning storage to its first-run state.
func (s *Store) Clear(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.backend.Delete(ctx, KeyCompletedModules, KeyUserProgress); err != nil {
		return s.fail("clear", err)
	}
	return nil
}

func (s *Store) read(ctx context.Context, key string, schema *gojsonschema.Schema, dst any) bool {
	raw, found, err := s.backend.Get(ctx, key)
	if err != nil {
		slog.Warn("progress read failed, using defaults", "key", key, "error", err)
		return false
	}
	if !found {
		return false
	}
	if err := checkSchema(schema, raw); err != nil {
		slog.Warn("discarding corrupt progress value", "key", key, "error", err)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		slog.Warn("discarding corrupt progress value", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) fail(op string, err error) error {
	slog.Warn("progress "+op+" failed, keeping in-memory state", "error", err)
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
