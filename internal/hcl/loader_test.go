package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stagegrid/internal/config"
)

func writeHCL(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newTestLoader() *Loader {
	return &Loader{Environ: func() []string { return []string{"DEPLOY_ENV=staging"} }}
}

func TestLoad_FullPipeline(t *testing.T) {
	dir := t.TempDir()
	writeHCL(t, dir, "main.hcl", `
pipeline "deploy" {
  type    = "pipeline"
  trigger = { region = "eu-west-1" }
}

stage "root" {
  type    = "emit"
  context = { outputs = { region = "us-east-1", replicas = 3 } }
}

stage "leaf" {
  type       = "print"
  depends_on = ["root"]
  context    = {
    size    = "small"
    keys    = ["region", "size"]
    env     = upper(env.DEPLOY_ENV)
    enabled = true
    missing = null
  }
}
`)

	p, err := newTestLoader().Load(context.Background(), dir)
	require.NoError(t, err)

	want := &config.Pipeline{
		Name:    "deploy",
		Type:    "pipeline",
		Trigger: map[string]any{"region": "eu-west-1"},
		Stages: []*config.Stage{
			{
				Name:    "root",
				Type:    "emit",
				Context: map[string]any{"outputs": map[string]any{"region": "us-east-1", "replicas": float64(3)}},
			},
			{
				Name:      "leaf",
				Type:      "print",
				DependsOn: []string{"root"},
				Context: map[string]any{
					"size":    "small",
					"keys":    []any{"region", "size"},
					"env":     "STAGING",
					"enabled": true,
					"missing": nil,
				},
			},
		},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Errorf("pipeline mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_NoPipelineBlock(t *testing.T) {
	dir := t.TempDir()
	path := writeHCL(t, dir, "nightly.hcl", `
stage "only" {
  type = "emit"
}
`)

	p, err := newTestLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "nightly", p.Name)
	assert.Empty(t, p.Type)
	assert.Empty(t, p.Trigger)
	require.Len(t, p.Stages, 1)
	assert.Empty(t, p.Stages[0].Context)
}

func TestLoad_MultipleFiles(t *testing.T) {
	dir := t.TempDir()
	writeHCL(t, dir, "a.hcl", `stage "a" { type = "emit" }`)
	writeHCL(t, dir, "sub/b.hcl", `stage "b" {
  type       = "emit"
  depends_on = ["a"]
}`)

	p, err := newTestLoader().Load(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, p.Stages, 2)
	assert.Equal(t, "a", p.Stages[0].Name)
	assert.Equal(t, []string{"a"}, p.Stages[1].DependsOn)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "syntax",
			content: `stage "a" {`,
			wantErr: "failed to parse",
		},
		{
			name:    "missing type",
			content: `stage "a" {}`,
			wantErr: "failed to decode",
		},
		{
			name:    "unknown block",
			content: `runner "a" {}`,
			wantErr: "failed to decode",
		},
		{
			name:    "context not an object",
			content: `stage "a" {
  type    = "emit"
  context = "nope"
}`,
			wantErr: "must be an object",
		},
		{
			name: "duplicate pipeline",
			content: `pipeline "a" {}
pipeline "b" {}`,
			wantErr: "duplicate pipeline block",
		},
		{
			name:    "unknown variable",
			content: `stage "a" {
  type    = "emit"
  context = { x = var.nope }
}`,
			wantErr: "context",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeHCL(t, t.TempDir(), "p.hcl", tc.content)
			_, err := newTestLoader().Load(context.Background(), path)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoad_NoFiles(t *testing.T) {
	_, err := newTestLoader().Load(context.Background(), t.TempDir())
	assert.ErrorContains(t, err, "no .hcl files")
}
