package testutil

import "github.com/vk/stagegrid/internal/registry"

// SimpleModule is a test helper for easily creating a mock module that
// registers a single stage handler.
type SimpleModule struct {
	Type    string
	Handler registry.Handler
}

// Register implements the registry.Module interface.
func (m *SimpleModule) Register(r *registry.Registry) {
	if m.Type != "" && m.Handler != nil {
		r.Register(m.Type, m.Handler)
	}
}
