package print

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/vk/stagegrid/internal/ctxlog"
	"github.com/vk/stagegrid/internal/registry"
	"github.com/vk/stagegrid/internal/stagecontext"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Out receives the printed lines. Defaults to os.Stdout.
	Out io.Writer

	mu sync.Mutex
}

// OnRunPrint writes the resolution of every key listed in 'keys': one line
// with the nearest value and one with every visible value. The nearest
// values are published under 'resolved'.
func (m *Module) OnRunPrint(ctx context.Context, view *stagecontext.View) (map[string]any, error) {
	logger := ctxlog.FromContext(ctx)

	keys, err := stringList(view, "keys")
	if err != nil {
		return nil, err
	}
	logger.Info("Printing context values", "keys", len(keys))

	w := m.Out
	if w == nil {
		w = os.Stdout
	}

	resolved := make(map[string]any, len(keys))
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		if v, ok := view.Get(k); ok {
			resolved[k] = v
			fmt.Fprintf(w, "%s = %v\n", k, v)
		} else {
			fmt.Fprintf(w, "%s = (unset)\n", k)
		}
		fmt.Fprintf(w, "%s[*] = %v\n", k, view.GetAll(k))
	}

	return map[string]any{"resolved": resolved}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register("print", m.OnRunPrint)
}

func stringList(view *stagecontext.View, key string) ([]string, error) {
	raw, ok := view.Get(key)
	if !ok || raw == nil {
		return nil, nil
	}
	switch list := raw.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for i, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("'%s[%d]' must be a string, got %T", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("'%s' must be a list of strings, got %T", key, raw)
	}
}
