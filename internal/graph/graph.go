package graph

import (
	"context"
	"fmt"

	"github.com/vk/stagegrid/internal/ctxlog"
	"github.com/vk/stagegrid/internal/outputstore"
	"github.com/vk/stagegrid/internal/stage"
	"github.com/vk/stagegrid/internal/stageid"
	"github.com/vk/stagegrid/internal/topologystore"
)

// Manager composes a topology store and an output store.
type Manager struct {
	topology topologystore.Store
	outputs  outputstore.Store
}

// New creates a new graph manager.
func New(ts topologystore.Store, ns outputstore.Store) *Manager {
	return &Manager{topology: ts, outputs: ns}
}

func (m *Manager) AddStage(ctx context.Context, s *stage.Stage) error {
	return m.topology.AddStage(ctx, s)
}

func (m *Manager) AddDependency(ctx context.Context, from, to stageid.Address) error {
	return m.topology.AddDependency(ctx, from, to)
}

func (m *Manager) Link(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	if err := m.topology.DetectCycles(ctx); err != nil {
		return err
	}

	for _, s := range m.topology.AllStages(ctx) {
		parents, err := m.DependenciesOf(ctx, *s.Address())
		if err != nil {
			return err
		}
		s.SetParents(parents...)
		s.SetDepCount(int32(len(parents)))
		logger.Debug("Linked stage.", "stage", s.ID(), "parents", len(parents))
	}
	return nil
}

func (m *Manager) Stage(ctx context.Context, id stageid.Address) (*stage.Stage, bool) {
	return m.topology.Stage(ctx, id)
}

func (m *Manager) AllStages(ctx context.Context) []*stage.Stage {
	return m.topology.AllStages(ctx)
}

func (m *Manager) DependenciesOf(ctx context.Context, id stageid.Address) ([]*stage.Stage, error) {
	addrs, err := m.topology.DependenciesOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.resolve(ctx, addrs)
}

func (m *Manager) Dependents(ctx context.Context, id stageid.Address) ([]*stage.Stage, error) {
	addrs, err := m.topology.DependentsOf(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.resolve(ctx, addrs)
}

func (m *Manager) resolve(ctx context.Context, addrs []stageid.Address) ([]*stage.Stage, error) {
	out := make([]*stage.Stage, 0, len(addrs))
	for _, addr := range addrs {
		s, ok := m.topology.Stage(ctx, addr)
		if !ok {
			return nil, fmt.Errorf("stage '%s': %w", addr.String(), topologystore.ErrStageNotFound)
		}
		out = append(out, s)
	}
	return out, nil
}

func (m *Manager) StageStatus(ctx context.Context, id stageid.Address) (stage.State, error) {
	return m.outputs.GetStatus(ctx, id)
}

func (m *Manager) RecordedOutputs(ctx context.Context, id stageid.Address) (map[string]any, bool, error) {
	return m.outputs.GetOutputs(ctx, id)
}

func (m *Manager) MarkRunning(ctx context.Context, s *stage.Stage) error {
	s.SetState(stage.Running)
	return m.outputs.SetStatus(ctx, *s.Address(), stage.Running)
}

func (m *Manager) MarkCompleted(ctx context.Context, s *stage.Stage, outputs map[string]any) error {
	if err := m.outputs.SetOutputs(ctx, *s.Address(), outputs); err != nil {
		return err
	}
	if !s.PublishOutputs(outputs) {
		return fmt.Errorf("stage '%s' already published its outputs", s.ID())
	}
	s.SetState(stage.Done)
	return m.outputs.SetStatus(ctx, *s.Address(), stage.Done)
}

func (m *Manager) MarkFailed(ctx context.Context, s *stage.Stage, stageErr error) error {
	s.SetState(stage.Failed)
	s.SetErr(stageErr)
	if err := m.outputs.SetError(ctx, *s.Address(), stageErr); err != nil {
		return err
	}
	return m.outputs.SetStatus(ctx, *s.Address(), stage.Failed)
}

func (m *Manager) MarkSkipped(ctx context.Context, s *stage.Stage, reason error) (bool, error) {
	if !s.Skip(reason) {
		return false, nil
	}
	if err := m.outputs.SetError(ctx, *s.Address(), reason); err != nil {
		return true, err
	}
	return true, m.outputs.SetStatus(ctx, *s.Address(), stage.Failed)
}
