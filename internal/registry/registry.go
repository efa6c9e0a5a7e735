// Package registry holds the Go handlers that run stages, keyed by the stage
// type named in the pipeline definition.
package registry

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/vk/stagegrid/internal/ctxlog"
	"github.com/vk/stagegrid/internal/stagecontext"
)

// ErrUnknownHandler is returned when no handler is registered for a type.
var ErrUnknownHandler = errors.New("no handler registered")

// Handler runs one stage. It reads its configuration from the stage's
// context view and returns the outputs to publish for descendants.
type Handler func(ctx context.Context, view *stagecontext.View) (map[string]any, error)

// Module is the interface that all built-in modules implement.
type Module interface {
	Register(r *Registry)
}

// Registry maps stage types to handlers for a single application instance.
type Registry struct {
	handlers map[string]Handler
}

// New creates a registry populated by the given modules.
func New(modules ...Module) *Registry {
	r := &Registry{handlers: make(map[string]Handler)}
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// Register binds a handler to a stage type. Registering the same type twice
// is a programmer error and panics.
func (r *Registry) Register(stageType string, h Handler) {
	if _, exists := r.handlers[stageType]; exists {
		panic(fmt.Sprintf("handler for stage type '%s' already registered", stageType))
	}
	r.handlers[stageType] = h
}

// Lookup returns the handler for a stage type.
func (r *Registry) Lookup(stageType string) (Handler, error) {
	h, ok := r.handlers[stageType]
	if !ok {
		return nil, fmt.Errorf("stage type '%s': %w", stageType, ErrUnknownHandler)
	}
	return h, nil
}

// Names returns the registered stage types in sorted order.
func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.handlers))
}

// Validate checks that every stage type used by a pipeline has a handler,
// reporting all missing types at once.
func (r *Registry) Validate(ctx context.Context, stageTypes []string) error {
	logger := ctxlog.FromContext(ctx)
	var missing []string
	for _, t := range stageTypes {
		if _, ok := r.handlers[t]; !ok && !slices.Contains(missing, t) {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("stage types [%s]: %w (registered: %s)",
			strings.Join(missing, ", "), ErrUnknownHandler, strings.Join(r.Names(), ", "))
	}
	logger.Debug("Registry validation passed.", "stage_types", len(stageTypes))
	return nil
}
