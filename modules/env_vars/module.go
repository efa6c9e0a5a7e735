package env_vars

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/vk/stagegrid/internal/registry"
	"github.com/vk/stagegrid/internal/stagecontext"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Environ overrides os.Environ, mainly for tests.
	Environ func() []string
}

func (m *Module) environ() []string {
	if m.Environ != nil {
		return m.Environ()
	}
	return os.Environ()
}

// OnRunEnvVars publishes environment variables as outputs. When the context
// holds a 'prefix', only matching variables are kept, with the prefix
// stripped and the remaining name lower-cased.
func (m *Module) OnRunEnvVars(ctx context.Context, view *stagecontext.View) (map[string]any, error) {
	prefix := ""
	if raw, ok := view.Get("prefix"); ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("'prefix' must be a string, got %T", raw)
		}
		prefix = s
	}

	out := make(map[string]any)
	for _, e := range m.environ() {
		name, value, found := strings.Cut(e, "=")
		if !found {
			continue
		}
		if prefix == "" {
			out[name] = value
			continue
		}
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || rest == "" {
			continue
		}
		out[strings.ToLower(rest)] = value
	}
	return out, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("env_vars", m.OnRunEnvVars)
}
