// Package inmemorystore provides an ephemeral, thread-safe, in-memory
// implementation of the outputstore.Store interface.
//
// # Concurrency Model
//
// The store uses one sync.Map per kind of state. The key space (all stages
// of the execution) is known upfront while the values change as stages run,
// which is the access pattern sync.Map is built for.
package inmemorystore

import (
	"context"
	"maps"
	"sync"

	"github.com/vk/stagegrid/internal/outputstore"
	"github.com/vk/stagegrid/internal/stage"
	"github.com/vk/stagegrid/internal/stageid"
)

// Store is an in-memory outputstore.Store.
type Store struct {
	states  sync.Map // Key: stage ID string, Value: stage.State
	outputs sync.Map // Key: stage ID string, Value: map[string]any
	errors  sync.Map // Key: stage ID string, Value: error
}

// New creates a new, empty in-memory store.
func New() outputstore.Store {
	return &Store{}
}

// SetStatus updates the execution status of a stage.
func (s *Store) SetStatus(ctx context.Context, id stageid.Address, status stage.State) error {
	s.states.Store(id.String(), status)
	return nil
}

// GetStatus retrieves the execution status of a stage.
func (s *Store) GetStatus(ctx context.Context, id stageid.Address) (stage.State, error) {
	status, ok := s.states.Load(id.String())
	if !ok {
		return stage.Pending, nil
	}
	return status.(stage.State), nil
}

// SetOutputs stores a copy of outputs.
func (s *Store) SetOutputs(ctx context.Context, id stageid.Address, outputs map[string]any) error {
	snapshot := maps.Clone(outputs)
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	s.outputs.Store(id.String(), snapshot)
	return nil
}

// GetOutputs returns a copy of the recorded outputs.
func (s *Store) GetOutputs(ctx context.Context, id stageid.Address) (map[string]any, bool, error) {
	outputs, ok := s.outputs.Load(id.String())
	if !ok {
		return nil, false, nil
	}
	return maps.Clone(outputs.(map[string]any)), true, nil
}

// SetError records the failure error of a stage.
func (s *Store) SetError(ctx context.Context, id stageid.Address, stageErr error) error {
	s.errors.Store(id.String(), stageErr)
	return nil
}

// GetError retrieves the recorded error of a failed stage.
func (s *Store) GetError(ctx context.Context, id stageid.Address) (error, error) {
	err, ok := s.errors.Load(id.String())
	if !ok {
		return nil, nil
	}
	return err.(error), nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}
