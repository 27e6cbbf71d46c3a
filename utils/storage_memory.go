package utils

import (
	"context"
	"sync"
)

// MemoryBlobStore is a process-local BlobStore used for development and tests.
// FailPut, when set, is consulted before every write and its error returned.
type MemoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    map[string]int
	history []string

	FailPut func(key string) error
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{
		objects: map[string][]byte{},
		puts:    map[string]int{},
	}
}

func (s *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, ErrBlobNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *MemoryBlobStore) Put(_ context.Context, key string, data []byte, _ string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut != nil {
		if err := s.FailPut(key); err != nil {
			return err
		}
	}
	s.objects[key] = append([]byte(nil), data...)
	s.puts[key]++
	s.history = append(s.history, key)
	return nil
}

// PutCount reports how many successful writes key has received.
func (s *MemoryBlobStore) PutCount(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts[key]
}

// PutHistory lists the keys of successful writes in the order they happened.
func (s *MemoryBlobStore) PutHistory() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}
