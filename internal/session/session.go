// Package session defines the core interfaces for creating and managing an
// execution session. It abstracts away where stage state is kept.
package session

import (
	"context"

	"github.com/vk/stagegrid/internal/config"
	"github.com/vk/stagegrid/internal/execution"
	"github.com/vk/stagegrid/internal/executor"
	"github.com/vk/stagegrid/internal/registry"
)

// SessionFactory creates an execution Session. Different implementations can
// support various backends, such as in-memory or Redis-backed state.
type SessionFactory interface {
	NewSession(
		ctx context.Context,
		p *config.Pipeline,
		exec *execution.Execution,
		reg *registry.Registry,
	) (Session, error)
}

// Session represents a single execution run and manages its lifecycle.
type Session interface {
	GetExecutor() (executor.Executor, error)
	// Report returns the outcome of the run once the executor has finished.
	Report() *executor.Report
	// Close releases any resources held by the session. It accepts a context
	// to allow for graceful cleanup operations.
	Close(ctx context.Context) error
}
