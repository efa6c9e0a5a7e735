// Package topologystore defines the interface for storing and retrieving the
// static structure of a stage graph.
//
// # Why Topology Store Exists
//
// The topology store separates the **immutable DAG structure** (stages and
// their dependency edges) from the **mutable execution state** (status,
// outputs, errors) managed by outputstore. The structure is written while the
// pipeline is built and only read while it runs, so it can use read locks
// without contending with the frequent state writes of the executor.
//
// # Lifecycle and Usage
//
// The topology store is:
//  1. **Created** once per execution session
//  2. **Populated** by the builder (stages + dependencies added, cycles checked)
//  3. **Read-only** while stages run (scheduler and graph query it)
//  4. **Discarded** when the session ends
package topologystore

import (
	"context"
	"errors"

	"github.com/vk/stagegrid/internal/stage"
	"github.com/vk/stagegrid/internal/stageid"
)

var (
	// ErrStageNotFound is returned when an address is not in the topology.
	ErrStageNotFound = errors.New("stage not found in topology")
	// ErrCycle is returned when the dependency edges form a cycle.
	ErrCycle = errors.New("dependency cycle")
	// ErrDuplicateStage is returned when an address is added twice.
	ErrDuplicateStage = errors.New("stage already exists in topology")
)

// Store is the interface for managing the static topology of a stage DAG.
//
// # Thread-Safety Requirements
//
// Implementations MUST be safe for concurrent use; the topology is queried
// from every worker goroutine.
type Store interface {
	// AddStage registers a stage. Adding the same address twice fails with
	// ErrDuplicateStage.
	AddStage(ctx context.Context, s *stage.Stage) error

	// AddDependency records that 'to' depends on 'from', i.e. 'from' must
	// complete before 'to' can start. Both stages must already exist.
	// Self-references are rejected.
	AddDependency(ctx context.Context, from, to stageid.Address) error

	// Stage retrieves a single stage by address.
	Stage(ctx context.Context, id stageid.Address) (*stage.Stage, bool)

	// AllStages returns every stage in insertion order.
	AllStages(ctx context.Context) []*stage.Stage

	// DependenciesOf returns the direct upstream stages of id, in the order
	// the dependencies were added. Wraps ErrStageNotFound for unknown ids.
	DependenciesOf(ctx context.Context, id stageid.Address) ([]stageid.Address, error)

	// DependentsOf returns the direct downstream stages of id, in the order
	// the dependencies were added. Wraps ErrStageNotFound for unknown ids.
	DependentsOf(ctx context.Context, id stageid.Address) ([]stageid.Address, error)

	// DetectCycles returns an error wrapping ErrCycle if the edges do not
	// form a DAG.
	DetectCycles(ctx context.Context) error
}
