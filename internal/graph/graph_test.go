package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stagegrid/internal/execution"
	"github.com/vk/stagegrid/internal/inmemorystore"
	"github.com/vk/stagegrid/internal/inmemorytopology"
	"github.com/vk/stagegrid/internal/stage"
	"github.com/vk/stagegrid/internal/stageid"
	"github.com/vk/stagegrid/internal/topologystore"
)

// createTestGraph creates a graph manager with in-memory stores.
func createTestGraph() *Manager {
	return New(inmemorytopology.New(), inmemorystore.New())
}

func addStage(t *testing.T, g Graph, exec *execution.Execution, id string, local map[string]any) *stage.Stage {
	t.Helper()
	s := stage.New(stageid.MustParse(id), "emit", exec, local)
	require.NoError(t, g.AddStage(context.Background(), s))
	return s
}

func addDependency(t *testing.T, g Graph, from, to string) {
	t.Helper()
	require.NoError(t, g.AddDependency(context.Background(), *stageid.MustParse(from), *stageid.MustParse(to)))
}

func stageIDs(stages []*stage.Stage) []string {
	out := make([]string, 0, len(stages))
	for _, s := range stages {
		out = append(out, s.ID())
	}
	return out
}

func ancestorIDs(s *stage.Stage) []string {
	var out []string
	for _, a := range s.Ancestors() {
		out = append(out, a.(*stage.Stage).ID())
	}
	return out
}

func TestLink_WiresParentsAndDepCounts(t *testing.T) {
	g := createTestGraph()
	ctx := context.Background()
	root := addStage(t, g, nil, "root", nil)
	left := addStage(t, g, nil, "left", nil)
	right := addStage(t, g, nil, "right", nil)
	join := addStage(t, g, nil, "join", nil)
	addDependency(t, g, "root", "left")
	addDependency(t, g, "root", "right")
	addDependency(t, g, "left", "join")
	addDependency(t, g, "right", "join")

	require.NoError(t, g.Link(ctx))

	assert.Empty(t, root.Ancestors())
	assert.EqualValues(t, 0, root.DepCount())
	assert.Equal(t, []string{"root"}, ancestorIDs(left))
	assert.Equal(t, []string{"root"}, ancestorIDs(right))
	assert.Equal(t, []string{"left", "right", "root"}, ancestorIDs(join))
	assert.EqualValues(t, 2, join.DepCount())
}

func TestLink_RejectsCycles(t *testing.T) {
	g := createTestGraph()
	addStage(t, g, nil, "a", nil)
	addStage(t, g, nil, "b", nil)
	addDependency(t, g, "a", "b")
	addDependency(t, g, "b", "a")

	assert.ErrorIs(t, g.Link(context.Background()), topologystore.ErrCycle)
}

func TestDependents(t *testing.T) {
	g := createTestGraph()
	ctx := context.Background()
	addStage(t, g, nil, "bake", nil)
	addStage(t, g, nil, "deploy-us", nil)
	addStage(t, g, nil, "deploy-eu", nil)
	addDependency(t, g, "bake", "deploy-us")
	addDependency(t, g, "bake", "deploy-eu")

	dependents, err := g.Dependents(ctx, *stageid.MustParse("bake"))
	require.NoError(t, err)
	assert.Equal(t, []string{"deploy-us", "deploy-eu"}, stageIDs(dependents))

	_, err = g.Dependents(ctx, *stageid.MustParse("missing"))
	assert.ErrorIs(t, err, topologystore.ErrStageNotFound)
}

func TestMarkCompleted_PublishesForDescendants(t *testing.T) {
	g := createTestGraph()
	ctx := context.Background()
	exec := execution.New("deploy", execution.Pipeline, map[string]any{"region": "eu-west-1"})
	root := addStage(t, g, exec, "root", nil)
	mid := addStage(t, g, exec, "mid", nil)
	leaf := addStage(t, g, exec, "leaf", map[string]any{"size": "small"})
	addDependency(t, g, "root", "mid")
	addDependency(t, g, "mid", "leaf")
	require.NoError(t, g.Link(ctx))

	_, ok := leaf.Context().Get("region")
	assert.False(t, ok, "nothing published yet")

	require.NoError(t, g.MarkRunning(ctx, root))
	require.NoError(t, g.MarkCompleted(ctx, root, map[string]any{"region": "us-east-1"}))
	require.NoError(t, g.MarkCompleted(ctx, mid, map[string]any{"region": "us-west-2", "size": "large"}))

	region, _ := leaf.Context().Get("region")
	size, _ := leaf.Context().Get("size")
	assert.Equal(t, "us-west-2", region)
	assert.Equal(t, "small", size)
	assert.Equal(t, []any{"us-west-2", "us-east-1", "eu-west-1"}, leaf.Context().GetAll("region"))

	status, err := g.StageStatus(ctx, *root.Address())
	require.NoError(t, err)
	assert.Equal(t, stage.Done, status)
	assert.Equal(t, stage.Done, root.GetState())

	recorded, ok, err := g.RecordedOutputs(ctx, *mid.Address())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "large", recorded["size"])

	err = g.MarkCompleted(ctx, root, map[string]any{"region": "again"})
	assert.Error(t, err, "outputs are published once")
}

func TestMarkFailedAndSkipped(t *testing.T) {
	g := createTestGraph()
	ctx := context.Background()
	deploy := addStage(t, g, nil, "deploy", nil)
	verify := addStage(t, g, nil, "verify", nil)

	boom := errors.New("boom")
	require.NoError(t, g.MarkFailed(ctx, deploy, boom))
	assert.Equal(t, stage.Failed, deploy.GetState())
	assert.ErrorIs(t, deploy.Err(), boom)

	status, err := g.StageStatus(ctx, *deploy.Address())
	require.NoError(t, err)
	assert.Equal(t, stage.Failed, status)

	reason := errors.New("skipped")
	skipped, err := g.MarkSkipped(ctx, verify, reason)
	require.NoError(t, err)
	assert.True(t, skipped)

	skipped, err = g.MarkSkipped(ctx, verify, errors.New("again"))
	require.NoError(t, err)
	assert.False(t, skipped)
	assert.ErrorIs(t, verify.Err(), reason)
}
