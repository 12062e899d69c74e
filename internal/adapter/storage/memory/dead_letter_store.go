package memory

import (
	"context"
	"sync"

	"bank-transfer-saga/internal/core/domain"
)

// DeadLetterStore is an append-only in-process dead-letter log.
type DeadLetterStore struct {
	mu      sync.RWMutex
	letters []domain.DeadLetter
}

func NewDeadLetterStore() *DeadLetterStore {
	return &DeadLetterStore{}
}

func (s *DeadLetterStore) Append(_ context.Context, dl domain.DeadLetter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.letters = append(s.letters, dl)
	return nil
}

// List returns the dead letters in the order they were appended.
func (s *DeadLetterStore) List(_ context.Context) ([]domain.DeadLetter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DeadLetter, len(s.letters))
	copy(out, s.letters)
	return out, nil
}

// Len reports how many dead letters were recorded.
func (s *DeadLetterStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.letters)
}
