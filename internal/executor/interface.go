// Package executor runs the stages of a linked graph.
package executor

import "context"

// Executor is responsible for orchestrating the end-to-end execution of a
// graph. It manages concurrency, interacts with the scheduler, and dispatches
// stages to their handlers.
type Executor interface {
	Execute(ctx context.Context) error
}
