package task

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"tasktempo/internal/model"
)

const storeFileName = "tasks.json"

// FileStore persists the task list as one JSON array under a single file,
// the on-disk equivalent of the app's single storage key.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	return &FileStore{path: filepath.Join(dataDir, storeFileName)}, nil
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() ([]model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return []model.Task{}, nil
		}
		return nil, err
	}

	var tasks []model.Task
	if err := json.Unmarshal(b, &tasks); err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	return tasks, nil
}

func (s *FileStore) Save(tasks []model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := json.MarshalIndent(tasks, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o644)
}
