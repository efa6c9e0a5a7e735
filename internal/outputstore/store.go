// Package outputstore defines the interface for recording the mutable
// execution state of stages: status, published outputs and errors.
//
// # Why Output Store Exists
//
// The output store keeps **execution state** apart from the **immutable
// DAG structure** held by topologystore. Stage outputs are also published on
// the stages themselves for lock-free context resolution; the store is the
// record of a run, and a persistent implementation lets a later attempt of
// the same execution reuse outputs instead of re-running stages.
//
// # Lifecycle and Usage
//
// An output store is scoped to one execution:
//  1. **Created** by the session factory for the execution ID
//  2. **Written** by the graph as stages start, complete or fail
//  3. **Read** by the executor before running a stage, to resume
//  4. **Closed** when the session ends
package outputstore

import (
	"context"

	"github.com/vk/stagegrid/internal/stage"
	"github.com/vk/stagegrid/internal/stageid"
)

// Store records the execution state of the stages of one execution.
//
// Implementations MUST be safe for concurrent use; every worker writes to
// the store.
type Store interface {
	// SetStatus records the execution status of a stage.
	SetStatus(ctx context.Context, id stageid.Address, status stage.State) error

	// GetStatus returns the recorded status, or stage.Pending if none.
	GetStatus(ctx context.Context, id stageid.Address) (stage.State, error)

	// SetOutputs records the outputs a stage produced on completion.
	SetOutputs(ctx context.Context, id stageid.Address, outputs map[string]any) error

	// GetOutputs returns the recorded outputs and whether any were recorded.
	// A stage that completed with no outputs reports an empty map and true.
	GetOutputs(ctx context.Context, id stageid.Address) (map[string]any, bool, error)

	// SetError records the failure of a stage.
	SetError(ctx context.Context, id stageid.Address, stageErr error) error

	// GetError returns the recorded failure, or nil.
	GetError(ctx context.Context, id stageid.Address) (error, error)

	// Close releases any resources held by the store.
	Close() error
}
