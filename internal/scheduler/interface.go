// Package scheduler decides which stages are ready to run.
//
// # How It Works
//
// Every stage carries a counter of unmet dependencies, set when the graph is
// linked. Stages whose counter is zero are roots. When a stage completes,
// the scheduler decrements the counter of each dependent; the dependents
// that reach zero are ready. A failed stage never decrements, so its
// dependents never become ready and are skipped by the executor instead.
//
// The scheduler separates "what can run" from "how to run it": the executor
// owns the workers, the scheduler only answers these two questions.
package scheduler

import (
	"context"

	"github.com/vk/stagegrid/internal/stage"
)

// Scheduler tracks dependency satisfaction for a linked graph.
//
// Implementations MUST be safe for concurrent use; Complete is called from
// every worker.
type Scheduler interface {
	// Roots returns the stages with no dependencies, in graph order.
	Roots(ctx context.Context) []*stage.Stage

	// Complete records that s finished successfully and returns the
	// dependents that became ready as a result.
	Complete(ctx context.Context, s *stage.Stage) ([]*stage.Stage, error)
}
