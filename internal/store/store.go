package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskstore/internal/models"
	"taskstore/internal/storage"
	"taskstore/pkg/logger"
)

// MaxTextLen is the longest task text accepted, after trimming.
const MaxTextLen = 100

var (
	ErrEmptyText   = errors.New("task text is empty")
	ErrTextTooLong = errors.New("task text exceeds 100 characters")
	ErrBadImport   = errors.New("import document is malformed")
)

// Store owns the ordered task collection (newest first) and mirrors it to a
// storage backend after every successful mutation. A failed persist keeps the
// in-memory state authoritative and comes back wrapped around storage.ErrSave.
type Store struct {
	mu      sync.Mutex
	tasks   []models.Task
	backend storage.Backend
}

// New returns a Store bound to backend. Call Load before serving.
func New(backend storage.Backend) *Store {
	return &Store{backend: backend}
}

// Load reads the persisted collection once at startup. A missing entry means
// an empty collection; a corrupt one is reported and the store starts empty.
func (s *Store) Load(ctx context.Context) error {
	data, found, err := s.backend.Load(ctx)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	var tasks []models.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		return fmt.Errorf("decode persisted tasks: %w", err)
	}
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	return nil
}

// persist writes the collection under the lock. Mutations are already applied
// when this runs, so failures are logged and wrapped, never rolled back.
func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.tasks)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrSave, err)
	}
	if err := s.backend.Save(ctx, data); err != nil {
		logger.Error(ctx, "Persist tasks failed", "error", err, "count", len(s.tasks))
		return fmt.Errorf("%w: %v", storage.ErrSave, err)
	}
	return nil
}

func validateText(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyText
	}
	if len([]rune(text)) > MaxTextLen {
		return "", ErrTextTooLong
	}
	return text, nil
}

// Add creates a task at the front of the collection.
func (s *Store) Add(ctx context.Context, text string, priority models.Priority) (models.Task, error) {
	text, err := validateText(text)
	if err != nil {
		return models.Task{}, err
	}
	if priority == "" {
		priority = models.PriorityMedium
	}
	task := models.Task{
		ID:        uuid.New().String(),
		Text:      text,
		Priority:  priority,
		CreatedAt: time.Now(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]models.Task{task}, s.tasks...)
	return task, s.persist(ctx)
}

// Toggle flips the completion state of the task with the given id. Missing
// ids are a silent no-op reported through found.
func (s *Store) Toggle(ctx context.Context, id string) (models.Task, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		t := &s.tasks[i]
		t.Completed = !t.Completed
		if t.Completed {
			now := time.Now()
			t.CompletedAt = &now
		} else {
			t.CompletedAt = nil
		}
		return *t, true, s.persist(ctx)
	}
	return models.Task{}, false, nil
}

// Edit replaces the task's text in place after the same validation as Add.
func (s *Store) Edit(ctx context.Context, id, newText string) (models.Task, bool, error) {
	newText, err := validateText(newText)
	if err != nil {
		return models.Task{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		s.tasks[i].Text = newText
		return s.tasks[i], true, s.persist(ctx)
	}
	return models.Task{}, false, nil
}

// Delete removes the task with the given id.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
		return true, s.persist(ctx)
	}
	return false, nil
}

// ClearCompleted removes every completed task, preserving the relative order
// of the remainder, and returns how many were removed.
func (s *Store) ClearCompleted(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.tasks[:0]
	removed := 0
	for _, t := range s.tasks {
		if t.Completed {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	if removed == 0 {
		return 0, nil
	}
	return removed, s.persist(ctx)
}

// ClearAll empties the collection and returns how many tasks were removed.
// An already-empty collection is a no-op.
func (s *Store) ClearAll(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := len(s.tasks)
	if removed == 0 {
		return 0, nil
	}
	s.tasks = nil
	return removed, s.persist(ctx)
}

// Query returns the tasks matching the status filter and the case-insensitive
// search term, in collection order. It never mutates.
func (s *Store) Query(status models.Status, term string) []models.Task {
	term = strings.ToLower(term)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		switch status {
		case models.StatusActive:
			if t.Completed {
				continue
			}
		case models.StatusCompleted:
			if !t.Completed {
				continue
			}
		}
		if term != "" && !strings.Contains(strings.ToLower(t.Text), term) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Export serializes the full collection as a pretty-printed versioned document.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	tasks := make([]models.Task, len(s.tasks))
	copy(tasks, s.tasks)
	s.mu.Unlock()
	doc := models.ExportDocument{
		Tasks:      tasks,
		ExportedAt: time.Now(),
		Version:    models.ExportVersion,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Import replaces the whole collection with the document's tasks. The check
// is structural only: the document must parse and carry a tasks array.
// Individual entries are taken as-is, except an empty priority becomes medium.
func (s *Store) Import(ctx context.Context, doc []byte) (int, error) {
	var head struct {
		Tasks json.RawMessage `json:"tasks"`
	}
	if err := json.Unmarshal(doc, &head); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadImport, err)
	}
	if len(head.Tasks) == 0 || string(head.Tasks) == "null" {
		return 0, fmt.Errorf("%w: missing tasks field", ErrBadImport)
	}
	var tasks []models.Task
	if err := json.Unmarshal(head.Tasks, &tasks); err != nil {
		return 0, fmt.Errorf("%w: tasks is not an array of tasks", ErrBadImport)
	}
	for i := range tasks {
		if tasks[i].Priority == "" {
			tasks[i].Priority = models.PriorityMedium
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = tasks
	return len(tasks), s.persist(ctx)
}

// Stats counts the collection by completion state.
func (s *Store) Stats() models.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := models.Stats{Total: len(s.tasks)}
	for _, t := range s.tasks {
		if t.Completed {
			stats.Completed++
		}
	}
	stats.Pending = stats.Total - stats.Completed
	return stats
}
