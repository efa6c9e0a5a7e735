package fail

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/stagegrid/internal/registry"
	"github.com/vk/stagegrid/internal/stagecontext"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// OnRunFail always returns an error, built from the 'message' context key.
func OnRunFail(ctx context.Context, view *stagecontext.View) (map[string]any, error) {
	msg, ok := view.Get("message")
	if !ok || msg == nil {
		return nil, errors.New("stage failed")
	}
	return nil, fmt.Errorf("%v", msg)
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("fail", OnRunFail)
}
