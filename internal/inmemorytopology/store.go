// Package inmemorytopology provides a thread-safe, in-memory implementation
// of the topologystore.Store interface.
package inmemorytopology

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/vk/stagegrid/internal/stage"
	"github.com/vk/stagegrid/internal/stageid"
	"github.com/vk/stagegrid/internal/topologystore"
)

// Store implements topologystore.Store using maps guarded by a RWMutex.
// Every listing preserves insertion order so that runs are deterministic.
type Store struct {
	mu         sync.RWMutex
	order      []string
	stages     map[string]*stage.Stage
	deps       map[string][]string // Key: stage ID, Value: IDs it depends on
	dependents map[string][]string // Key: stage ID, Value: IDs depending on it
}

// New creates a new, empty in-memory topology store.
func New() topologystore.Store {
	return &Store{
		stages:     make(map[string]*stage.Stage),
		deps:       make(map[string][]string),
		dependents: make(map[string][]string),
	}
}

// AddStage adds a stage to the store. A second stage with the same canonical
// address is rejected with topologystore.ErrDuplicateStage.
func (s *Store) AddStage(ctx context.Context, st *stage.Stage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := st.ID()
	if _, exists := s.stages[key]; exists {
		return fmt.Errorf("stage '%s': %w", key, topologystore.ErrDuplicateStage)
	}
	s.stages[key] = st
	s.order = append(s.order, key)
	return nil
}

// AddDependency creates a dependency link from one stage to another.
func (s *Store) AddDependency(ctx context.Context, from, to stageid.Address) error {
	fromKey := from.String()
	toKey := to.String()
	if fromKey == toKey {
		return fmt.Errorf("stage '%s' cannot depend on itself", fromKey)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.stages[fromKey]; !exists {
		return fmt.Errorf("dependency source '%s': %w", fromKey, topologystore.ErrStageNotFound)
	}
	if _, exists := s.stages[toKey]; !exists {
		return fmt.Errorf("dependency target '%s': %w", toKey, topologystore.ErrStageNotFound)
	}

	if slices.Contains(s.deps[toKey], fromKey) {
		return nil
	}
	s.deps[toKey] = append(s.deps[toKey], fromKey)
	s.dependents[fromKey] = append(s.dependents[fromKey], toKey)
	return nil
}

// Stage retrieves a single stage by its address.
func (s *Store) Stage(ctx context.Context, id stageid.Address) (*stage.Stage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.stages[id.String()]
	return st, ok
}

// AllStages returns every stage in insertion order.
func (s *Store) AllStages(ctx context.Context) []*stage.Stage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*stage.Stage, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.stages[key])
	}
	return out
}

// DependenciesOf returns the addresses of the stages id depends on.
func (s *Store) DependenciesOf(ctx context.Context, id stageid.Address) ([]stageid.Address, error) {
	return s.edges(id, s.deps)
}

// DependentsOf returns the addresses of the stages that depend on id.
func (s *Store) DependentsOf(ctx context.Context, id stageid.Address) ([]stageid.Address, error) {
	return s.edges(id, s.dependents)
}

func (s *Store) edges(id stageid.Address, index map[string][]string) ([]stageid.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := id.String()
	if _, exists := s.stages[key]; !exists {
		return nil, fmt.Errorf("stage '%s': %w", key, topologystore.ErrStageNotFound)
	}

	out := make([]stageid.Address, 0, len(index[key]))
	for _, edgeKey := range index[key] {
		out = append(out, *s.stages[edgeKey].Address())
	}
	return out, nil
}

// DetectCycles runs a depth-first search over the dependents edges.
func (s *Store) DetectCycles(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// permanent: fully visited and not on a cycle.
	// temporary: on the current recursion stack.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(key string) error
	visit = func(key string) error {
		if permanent[key] {
			return nil
		}
		if temporary[key] {
			return fmt.Errorf("%w involving stage '%s'", topologystore.ErrCycle, key)
		}

		temporary[key] = true
		for _, next := range s.dependents[key] {
			if err := visit(next); err != nil {
				return err
			}
		}
		delete(temporary, key)
		permanent[key] = true
		return nil
	}

	for _, key := range s.order {
		if err := visit(key); err != nil {
			return err
		}
	}
	return nil
}
