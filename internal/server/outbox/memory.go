package outbox

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore is a process-local Store. Tasks are lost on restart.
type MemoryStore struct {
	mu    sync.Mutex
	tasks []Task
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Enqueue(ctx context.Context, t *Task) error {
	if err := prepare(t, time.Now().UTC()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, *t)
	return nil
}

func (s *MemoryStore) Pending(ctx context.Context, limit int) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.tasks)
	if limit > 0 && limit < n {
		n = limit
	}
	return slices.Clone(s.tasks[:n]), nil
}

func (s *MemoryStore) Ack(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks = slices.DeleteFunc(s.tasks, func(t Task) bool { return t.ID == id })
	return nil
}

func (s *MemoryStore) Fail(ctx context.Context, id string, cause error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.tasks {
		if s.tasks[i].ID != id {
			continue
		}
		s.tasks[i].Attempts++
		if cause != nil {
			s.tasks[i].LastError = cause.Error()
		}
		s.tasks[i].UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s *MemoryStore) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks), nil
}

func (s *MemoryStore) Close() error { return nil }
