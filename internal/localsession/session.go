// Package localsession provides a concrete implementation of the
// session.Session and session.SessionFactory interfaces for in-process
// execution.
package localsession

import (
	"context"
	"fmt"
	"time"

	"github.com/vk/stagegrid/internal/builder"
	"github.com/vk/stagegrid/internal/config"
	"github.com/vk/stagegrid/internal/ctxlog"
	"github.com/vk/stagegrid/internal/execution"
	"github.com/vk/stagegrid/internal/executor"
	"github.com/vk/stagegrid/internal/graph"
	"github.com/vk/stagegrid/internal/inmemorystore"
	"github.com/vk/stagegrid/internal/inmemorytopology"
	"github.com/vk/stagegrid/internal/outputstore"
	"github.com/vk/stagegrid/internal/redisstore"
	"github.com/vk/stagegrid/internal/registry"
	"github.com/vk/stagegrid/internal/scheduler"
	"github.com/vk/stagegrid/internal/session"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// SessionFactory implements session.SessionFactory for local runs.
type SessionFactory struct {
	Workers int
	// Store selects the output store backend. Empty means StoreMemory.
	Store       string
	RedisAddr   string
	RedisPrefix string
	RedisTTL    time.Duration
}

// NewSession creates and configures a new local session.
func (f *SessionFactory) NewSession(
	ctx context.Context,
	p *config.Pipeline,
	exec *execution.Execution,
	reg *registry.Registry,
) (session.Session, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Creating local session.", "execution_id", exec.ID(), "store", f.Store)

	outputs, err := f.newOutputStore(ctx, exec.ID())
	if err != nil {
		return nil, err
	}

	// --- This is where the dependency injection wiring happens ---
	g := graph.New(inmemorytopology.New(), outputs)
	if err := builder.New().Build(ctx, p, exec, g); err != nil {
		_ = outputs.Close()
		return nil, fmt.Errorf("failed to build dependency graph: %w", err)
	}
	sched := scheduler.New(g)
	pool := executor.New(g, sched, reg, f.Workers)
	// --- End of dependency injection ---

	return &Session{executor: pool, outputs: outputs}, nil
}

func (f *SessionFactory) newOutputStore(ctx context.Context, executionID string) (outputstore.Store, error) {
	switch f.Store {
	case "", StoreMemory:
		return inmemorystore.New(), nil
	case StoreRedis:
		return redisstore.Dial(ctx, f.RedisAddr, executionID, redisstore.Options{
			Prefix: f.RedisPrefix,
			TTL:    f.RedisTTL,
		})
	default:
		return nil, fmt.Errorf("unknown store %q", f.Store)
	}
}

// Session implements session.Session for local runs.
type Session struct {
	executor *executor.WorkerPool
	outputs  outputstore.Store
}

// GetExecutor returns the executor that was created and wired up by the factory.
func (s *Session) GetExecutor() (executor.Executor, error) {
	return s.executor, nil
}

// Report returns the executor's last report.
func (s *Session) Report() *executor.Report {
	return s.executor.Report()
}

// Close releases the output store.
func (s *Session) Close(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Closing local session.")
	return s.outputs.Close()
}
