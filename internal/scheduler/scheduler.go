package scheduler

import (
	"context"
	"fmt"

	"github.com/vk/stagegrid/internal/ctxlog"
	"github.com/vk/stagegrid/internal/graph"
	"github.com/vk/stagegrid/internal/stage"
)

// DefaultScheduler is the dependency-counter scheduler.
type DefaultScheduler struct {
	graph graph.Graph
}

// New creates a scheduler over a linked graph.
func New(g graph.Graph) *DefaultScheduler {
	return &DefaultScheduler{graph: g}
}

// Roots implements Scheduler.
func (s *DefaultScheduler) Roots(ctx context.Context) []*stage.Stage {
	logger := ctxlog.FromContext(ctx)
	var roots []*stage.Stage
	for _, st := range s.graph.AllStages(ctx) {
		if st.DepCount() == 0 {
			logger.Debug("Found root stage.", "stage", st.ID())
			roots = append(roots, st)
		}
	}
	return roots
}

// Complete implements Scheduler.
func (s *DefaultScheduler) Complete(ctx context.Context, st *stage.Stage) ([]*stage.Stage, error) {
	logger := ctxlog.FromContext(ctx)
	dependents, err := s.graph.Dependents(ctx, *st.Address())
	if err != nil {
		return nil, fmt.Errorf("finding dependents of '%s': %w", st.ID(), err)
	}

	var ready []*stage.Stage
	for _, dependent := range dependents {
		if dependent.DecrementDepCount() == 0 {
			logger.Debug("Unlocking dependent stage.", "stage", st.ID(), "dependent", dependent.ID())
			ready = append(ready, dependent)
		}
	}
	return ready, nil
}
