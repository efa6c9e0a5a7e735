// Package stage defines a single vertex of the execution graph and the
// per-stage state the scheduler and executor mutate while a run progresses.
package stage

import (
	"fmt"
	"maps"
	"sync"
	"sync/atomic"

	"github.com/vk/stagegrid/internal/execution"
	"github.com/vk/stagegrid/internal/stagecontext"
	"github.com/vk/stagegrid/internal/stageid"
)

// State represents the execution state of a stage.
type State int32

const (
	// Pending indicates the stage is waiting for its dependencies to complete.
	Pending State = iota
	// Running indicates the stage is currently being executed by a worker.
	Running
	// Done indicates the stage has completed and published its outputs.
	Done
	// Failed indicates the stage failed or was skipped.
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Stage is one unit of work in a pipeline run.
type Stage struct {
	// id is the unique, structured identifier of the stage.
	id *stageid.Address
	// Type names the handler that runs the stage, e.g. "emit".
	Type string

	exec    *execution.Execution
	context *stagecontext.View

	// parents are the direct upstream stages in declaration order.
	parents       []*Stage
	ancestorsOnce sync.Once
	ancestors     []stagecontext.Ancestor

	// outputs holds an immutable snapshot once the stage completes.
	outputs atomic.Pointer[stagecontext.Map]

	mu  sync.Mutex
	err error

	// depCount is the number of unmet dependencies, used by the scheduler.
	depCount atomic.Int32
	state    atomic.Int32
	skipOnce sync.Once
}

// New creates a pending stage whose context holds a copy of local.
func New(id *stageid.Address, typ string, exec *execution.Execution, local map[string]any) *Stage {
	s := &Stage{
		id:   id,
		Type: typ,
		exec: exec,
	}
	s.context = stagecontext.NewWithLocal(s, local)
	return s
}

// ID returns the canonical string form of the stage's address.
func (s *Stage) ID() string {
	return s.id.String()
}

// Address returns the structured address of the stage.
func (s *Stage) Address() *stageid.Address {
	return s.id
}

// Name returns the stage name, the last segment of its address.
func (s *Stage) Name() string {
	return s.id.Name()
}

// Context returns the stage's context view.
func (s *Stage) Context() *stagecontext.View {
	return s.context
}

// Execution implements stagecontext.Stage.
func (s *Stage) Execution() stagecontext.Execution {
	if s.exec == nil {
		return nil
	}
	return s.exec
}

// SetParents records the direct upstream stages. It must be called before
// the first call to Ancestors.
func (s *Stage) SetParents(parents ...*Stage) {
	s.parents = parents
}

// Ancestors implements stagecontext.Stage. It walks the upstream graph
// breadth first so that nearer stages come first; a stage reachable through
// several paths appears once, at its shortest distance.
func (s *Stage) Ancestors() []stagecontext.Ancestor {
	s.ancestorsOnce.Do(func() {
		seen := map[*Stage]struct{}{s: {}}
		queue := append([]*Stage(nil), s.parents...)
		for len(queue) > 0 {
			next := queue[0]
			queue = queue[1:]
			if _, ok := seen[next]; ok {
				continue
			}
			seen[next] = struct{}{}
			s.ancestors = append(s.ancestors, next)
			queue = append(queue, next.parents...)
		}
	})
	return s.ancestors
}

// Outputs implements stagecontext.Ancestor. It is empty until the stage
// publishes.
func (s *Stage) Outputs() stagecontext.Values {
	if p := s.outputs.Load(); p != nil {
		return *p
	}
	return stagecontext.Empty
}

// PublishOutputs makes a copy of outputs visible to downstream stages. Only
// the first call has an effect; it reports whether this call published.
func (s *Stage) PublishOutputs(outputs map[string]any) bool {
	snapshot := stagecontext.Map(maps.Clone(outputs))
	if snapshot == nil {
		snapshot = stagecontext.Map{}
	}
	return s.outputs.CompareAndSwap(nil, &snapshot)
}

// Err returns the error recorded for a failed stage.
func (s *Stage) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SetErr records the error of a failed stage.
func (s *Stage) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SetDepCount sets the number of unmet dependencies.
func (s *Stage) SetDepCount(count int32) {
	s.depCount.Store(count)
}

// DepCount atomically returns the number of unmet dependencies.
func (s *Stage) DepCount() int32 {
	return s.depCount.Load()
}

// DecrementDepCount atomically decrements the dependency counter and returns
// the new value.
func (s *Stage) DecrementDepCount() int32 {
	return s.depCount.Add(-1)
}

// SetState atomically sets the execution state.
func (s *Stage) SetState(st State) {
	s.state.Store(int32(st))
}

// GetState atomically retrieves the execution state.
func (s *Stage) GetState() State {
	return State(s.state.Load())
}

// Skip marks the stage as failed with err exactly once. It returns true if
// this call did the marking.
func (s *Stage) Skip(err error) bool {
	var skipped bool
	s.skipOnce.Do(func() {
		s.SetState(Failed)
		s.SetErr(err)
		skipped = true
	})
	return skipped
}

// ParseState is the inverse of State.String.
func ParseState(s string) (State, error) {
	for _, st := range []State{Pending, Running, Done, Failed} {
		if st.String() == s {
			return st, nil
		}
	}
	return Pending, fmt.Errorf("unknown stage state %q", s)
}

// OutputMap returns a copy of the published outputs, or nil before the stage
// publishes.
func (s *Stage) OutputMap() map[string]any {
	if p := s.outputs.Load(); p != nil {
		return maps.Clone(map[string]any(*p))
	}
	return nil
}
