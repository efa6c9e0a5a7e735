package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vk/stagegrid/internal/registry"
	"github.com/vk/stagegrid/internal/stagecontext"
)

// ExecutionRecord holds the start and end times for a single stage's execution.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// MockSleeperModule is a shared, self-contained module for concurrency tests.
// Its "sleeper" stages record their execution time under their 'id' value.
type MockSleeperModule struct {
	ExecutionTimes map[string]*ExecutionRecord
	mu             sync.Mutex
	sleepDuration  time.Duration
}

// NewMockSleeperModule creates a new sleeper module for testing.
func NewMockSleeperModule(sleep time.Duration) *MockSleeperModule {
	return &MockSleeperModule{
		ExecutionTimes: make(map[string]*ExecutionRecord),
		sleepDuration:  sleep,
	}
}

// Record returns the execution record for id.
func (m *MockSleeperModule) Record(id string) (*ExecutionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.ExecutionTimes[id]
	return rec, ok
}

// Register registers the "sleeper" stage handler.
func (m *MockSleeperModule) Register(r *registry.Registry) {
	r.Register("sleeper", func(ctx context.Context, view *stagecontext.View) (map[string]any, error) {
		raw, _ := view.Get("id")
		id := fmt.Sprint(raw)

		startTime := time.Now()
		select {
		case <-time.After(m.sleepDuration):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		endTime := time.Now()

		m.mu.Lock()
		m.ExecutionTimes[id] = &ExecutionRecord{Start: startTime, End: endTime}
		m.mu.Unlock()
		return map[string]any{"id": id}, nil
	})
}
