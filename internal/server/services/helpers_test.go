package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/filekeeper/internal/common"
)

type memStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	n        int
	writeErr error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string][]byte{}}
}

func (s *memStore) Write(_ context.Context, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return "", s.writeErr
	}
	s.n++
	addr := fmt.Sprintf("img-%d.jpg", s.n)
	s.objects[addr] = data
	return addr, nil
}

func (s *memStore) Remove(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[address]; !ok {
		return fmt.Errorf("%w: %w", common.ErrStorage, common.ErrorNotFound)
	}
	delete(s.objects, address)
	return nil
}
