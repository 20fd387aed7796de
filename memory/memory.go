// Package memory provides an in-process flow.Store. Workflows live for the
// lifetime of the Store; nothing is written to disk.
package memory

import (
	"context"
	"sync"

	"github.com/meikuraledutech/flow"
)

// Store implements flow.Store with a map guarded by a RWMutex. Every read
// and write copies the workflow so callers never share slices with it.
type Store struct {
	mu        sync.RWMutex
	workflows map[string]flow.Workflow
	order     []string
}

// New creates an empty Store.
func New() *Store {
	return &Store{workflows: make(map[string]flow.Workflow)}
}

// CreateSchema is a no-op.
func (s *Store) CreateSchema(ctx context.Context) error { return nil }

// DropSchema removes every workflow.
func (s *Store) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workflows = make(map[string]flow.Workflow)
	s.order = nil
	return nil
}

// List returns workflows in insertion order.
func (s *Store) List(ctx context.Context) ([]flow.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]flow.Workflow, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.workflows[id].Clone())
	}
	return out, nil
}

// Get returns nil, nil if the workflow does not exist.
func (s *Store) Get(ctx context.Context, id string) (*flow.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.workflows[id]
	if !ok {
		return nil, nil
	}
	w = w.Clone()
	return &w, nil
}

// Upsert inserts or replaces a workflow. A replaced workflow keeps its
// position in List.
func (s *Store) Upsert(ctx context.Context, w *flow.Workflow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workflows[w.ID]; !ok {
		s.order = append(s.order, w.ID)
	}
	s.workflows[w.ID] = w.Clone()
	return nil
}

// Remove deletes a workflow. No error if it does not exist.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.workflows[id]; !ok {
		return nil
	}
	delete(s.workflows, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
