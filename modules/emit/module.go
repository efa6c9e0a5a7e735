package emit

import (
	"context"
	"fmt"

	"github.com/vk/stagegrid/internal/ctxlog"
	"github.com/vk/stagegrid/internal/registry"
	"github.com/vk/stagegrid/internal/stagecontext"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnRunEmit publishes the stage's local 'outputs' map as its outputs. Only
// the local value is used so that a stage never re-emits an ancestor's map.
func OnRunEmit(ctx context.Context, view *stagecontext.View) (map[string]any, error) {
	raw, ok := view.Local()["outputs"]
	if !ok || raw == nil {
		return map[string]any{}, nil
	}
	outputs, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("'outputs' must be a map, got %T", raw)
	}
	ctxlog.FromContext(ctx).Debug("Emitting outputs.", "count", len(outputs))
	return outputs, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("emit", OnRunEmit)
}
