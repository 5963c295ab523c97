package contact

import (
	"context"
	"sync"
)

// MemoryStore mantém as últimas max submissões.
type MemoryStore struct {
	mu   sync.Mutex
	max  int
	list []Submission
}

func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 1000
	}
	return &MemoryStore{max: max}
}

func (m *MemoryStore) Save(_ context.Context, s Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.list = append(m.list, s)
	if over := len(m.list) - m.max; over > 0 {
		m.list = append(m.list[:0:0], m.list[over:]...)
	}
	return nil
}
