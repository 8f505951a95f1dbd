package task

import (
	"errors"
	"sync"

	"tasktempo/internal/model"
)

var (
	ErrNotFound        = errors.New("task not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// Store persists the whole task list as a single unit. The service never
// waits on save failures; they are logged and the in-memory list stays
// authoritative.
type Store interface {
	Load() ([]model.Task, error)
	Save(tasks []model.Task) error
}

// MemoryStore is an in-memory Store. Dev/test use.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks []model.Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load() ([]model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Task, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

func (s *MemoryStore) Save(tasks []model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make([]model.Task, len(tasks))
	copy(s.tasks, tasks)
	return nil
}
