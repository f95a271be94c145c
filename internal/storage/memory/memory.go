// Package memory is an in-process transaction store used for development
// and tests. Data does not survive a restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"tracker/internal/core"
)

type Store struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]core.Transaction
}

func New() *Store {
	return &Store{nextID: 1, items: make(map[int64]core.Transaction)}
}

// Create stores t under a fresh ID. IDs are never reused.
func (s *Store) Create(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.nextID
	s.nextID++
	s.items[t.ID] = t
	return t, nil
}

func (s *Store) Get(_ context.Context, id int64) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.items[id]
	if !ok {
		return core.Transaction{}, fmt.Errorf("get transaction %d: %w", id, core.ErrNotFound)
	}
	return t, nil
}

func (s *Store) List(_ context.Context, f core.ListFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		if f.Matches(t) {
			out = append(out, t)
		}
	}
	s.mu.Unlock()

	core.SortDefault(out)
	return out, nil
}

// Update replaces the stored transaction, keeping its original CreatedAt.
func (s *Store) Update(_ context.Context, t core.Transaction) (core.Transaction, error) {
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.items[t.ID]
	if !ok {
		return core.Transaction{}, fmt.Errorf("update transaction %d: %w", t.ID, core.ErrNotFound)
	}
	t.CreatedAt = prev.CreatedAt
	s.items[t.ID] = t
	return t, nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("delete transaction %d: %w", id, core.ErrNotFound)
	}
	delete(s.items, id)
	return nil
}

func (s *Store) MonthlyStats(_ context.Context) ([]core.MonthlyStats, error) {
	return core.Aggregate(s.snapshot()), nil
}

func (s *Store) MonthSummary(_ context.Context, year, month int) (core.MonthlyStats, error) {
	return core.Summarize(year, month, s.snapshot()), nil
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() error { return nil }

func (s *Store) snapshot() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, 0, len(s.items))
	for _, t := range s.items {
		out = append(out, t)
	}
	return out
}
