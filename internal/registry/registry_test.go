package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stagegrid/internal/stagecontext"
)

type echoModule struct{}

func (echoModule) Register(r *Registry) {
	r.Register("echo", func(ctx context.Context, view *stagecontext.View) (map[string]any, error) {
		return view.Local(), nil
	})
}

func TestNew_RegistersModules(t *testing.T) {
	r := New(echoModule{})
	assert.Equal(t, []string{"echo"}, r.Names())

	h, err := r.Lookup("echo")
	require.NoError(t, err)

	out, err := h(context.Background(), stagecontext.NewWithLocal(nil, map[string]any{"a": 1}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1}, out)
}

func TestLookup_Unknown(t *testing.T) {
	_, err := New().Lookup("missing")
	assert.ErrorIs(t, err, ErrUnknownHandler)
}

func TestRegister_DuplicatePanics(t *testing.T) {
	r := New(echoModule{})
	assert.Panics(t, func() { echoModule{}.Register(r) })
}

func TestValidate(t *testing.T) {
	r := New(echoModule{})
	ctx := context.Background()

	assert.NoError(t, r.Validate(ctx, []string{"echo", "echo"}))

	err := r.Validate(ctx, []string{"echo", "deploy", "bake", "deploy"})
	require.ErrorIs(t, err, ErrUnknownHandler)
	assert.Contains(t, err.Error(), "[deploy, bake]")
}
