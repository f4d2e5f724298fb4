// Package memory keeps the last saved snapshot in process memory. It
// backs tests and the "memory" store driver.
package memory

import (
	"context"
	"sync"

	"github.com/fitslotdev/fitslot/internal/domain"
)

type Store struct {
	mu   sync.Mutex
	snap domain.Snapshot
}

func New() *Store {
	return &Store{}
}

func (s *Store) Load(ctx context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snap, nil
}

func (s *Store) Save(ctx context.Context, snap domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snap = snap

	return nil
}
