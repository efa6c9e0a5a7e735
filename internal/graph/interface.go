// Package graph provides a unified, high-level interface for managing the
// execution graph of one pipeline run.
//
// # Why Graph Package Exists
//
// The Graph interface is a facade over the topology (structure) and output
// (state) stores, so that the scheduler and executor talk to one API instead
// of coordinating two stores.
//
// It is also the only place where a stage's outputs become visible to its
// descendants: MarkCompleted first records the outputs in the output store
// and then publishes an immutable snapshot on the stage, which is what
// stagecontext.View reads during resolution.
//
// # Lifecycle
//
//  1. **Created** by the session factory with both stores injected
//  2. **Populated** by the builder, then **linked** (parents wired on stages)
//  3. **Queried and updated** while the executor runs stages
//  4. **Discarded** when the session ends
package graph

import (
	"context"

	"github.com/vk/stagegrid/internal/stage"
	"github.com/vk/stagegrid/internal/stageid"
)

// Graph is the executor's and scheduler's view of a pipeline run.
//
// Implementations MUST be safe for concurrent use.
type Graph interface {
	// AddStage registers a stage in the topology.
	AddStage(ctx context.Context, s *stage.Stage) error

	// AddDependency records that 'to' depends on 'from'.
	AddDependency(ctx context.Context, from, to stageid.Address) error

	// Link validates the topology (no cycles) and wires each stage's parents
	// from its dependencies. It must be called once, after all stages and
	// dependencies were added and before any stage runs.
	Link(ctx context.Context) error

	// Stage retrieves a stage by address.
	Stage(ctx context.Context, id stageid.Address) (*stage.Stage, bool)

	// AllStages returns every stage in insertion order.
	AllStages(ctx context.Context) []*stage.Stage

	// DependenciesOf returns the direct upstream stages of id.
	DependenciesOf(ctx context.Context, id stageid.Address) ([]*stage.Stage, error)

	// Dependents returns the direct downstream stages of id.
	Dependents(ctx context.Context, id stageid.Address) ([]*stage.Stage, error)

	// StageStatus returns the recorded status of a stage.
	StageStatus(ctx context.Context, id stageid.Address) (stage.State, error)

	// RecordedOutputs returns outputs recorded for the stage by an earlier
	// attempt of the same execution, if any.
	RecordedOutputs(ctx context.Context, id stageid.Address) (map[string]any, bool, error)

	// MarkRunning transitions a stage to Running.
	MarkRunning(ctx context.Context, s *stage.Stage) error

	// MarkCompleted records outputs, publishes them on the stage and
	// transitions it to Done.
	MarkCompleted(ctx context.Context, s *stage.Stage, outputs map[string]any) error

	// MarkFailed records the error and transitions the stage to Failed.
	MarkFailed(ctx context.Context, s *stage.Stage, stageErr error) error

	// MarkSkipped marks a stage that will never run as Failed with reason.
	// It reports whether this call did the marking.
	MarkSkipped(ctx context.Context, s *stage.Stage, reason error) (bool, error)
}
