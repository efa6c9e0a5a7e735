package integrationtests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stagegrid/internal/registry"
	"github.com/vk/stagegrid/internal/stage"
	"github.com/vk/stagegrid/internal/stagecontext"
	"github.com/vk/stagegrid/internal/testutil"
	"github.com/vk/stagegrid/modules/emit"
)

func TestFailure_SkipsDescendants(t *testing.T) {
	files := map[string]string{"main.hcl": `
stage "build" {
  type = "emit"
}

stage "test" {
  type       = "fail"
  depends_on = ["build"]
  context    = { message = "3 tests failed" }
}

stage "publish" {
  type       = "emit"
  depends_on = ["test"]
}

stage "notify" {
  type       = "print"
  depends_on = ["publish"]
}
`}

	result := testutil.RunIntegrationTest(t, files)
	require.Error(t, result.Err)
	assert.EqualError(t, result.Err, "execution failed: execution failed for test: 3 tests failed")

	testutil.AssertStageRan(t, result, "build")
	assert.Equal(t, stage.Failed, testutil.StageResult(t, result, "test").State)
	testutil.AssertStageSkipped(t, result, "publish")
	testutil.AssertStageSkipped(t, result, "notify")
}

func TestUnknownStageType_FailsAtStartup(t *testing.T) {
	files := map[string]string{"main.hcl": `
stage "a" {
  type = "deploy"
}
`}

	result := testutil.RunIntegrationTest(t, files, &emit.Module{})
	assert.ErrorIs(t, result.Err, registry.ErrUnknownHandler)
	assert.Nil(t, result.App)
}

func TestCycle_FailsBeforeRunning(t *testing.T) {
	files := map[string]string{"main.hcl": `
stage "a" {
  type       = "emit"
  depends_on = ["b"]
}

stage "b" {
  type       = "emit"
  depends_on = ["a"]
}
`}

	result := testutil.RunIntegrationTest(t, files)
	assert.ErrorContains(t, result.Err, "cycle")
	assert.Nil(t, result.Report)
}

func TestConcurrency_IndependentStagesOverlap(t *testing.T) {
	sleeper := testutil.NewMockSleeperModule(100 * time.Millisecond)
	files := map[string]string{"main.hcl": `
stage "a" {
  type    = "sleeper"
  context = { id = "a" }
}

stage "b" {
  type    = "sleeper"
  context = { id = "b" }
}

stage "after" {
  type       = "sleeper"
  depends_on = ["a", "b"]
  context    = { id = "after" }
}
`}

	result := testutil.RunIntegrationTest(t, files, sleeper)
	require.NoError(t, result.Err)

	a, ok := sleeper.Record("a")
	require.True(t, ok)
	b, ok := sleeper.Record("b")
	require.True(t, ok)
	after, ok := sleeper.Record("after")
	require.True(t, ok)

	assert.True(t, a.Start.Before(b.End) && b.Start.Before(a.End), "a and b should overlap")
	assert.False(t, after.Start.Before(a.End), "after must start once a finished")
	assert.False(t, after.Start.Before(b.End), "after must start once b finished")
}

func TestCancellation_StopsRun(t *testing.T) {
	started := make(chan struct{})
	blocker := &testutil.SimpleModule{
		Type: "block",
		Handler: func(ctx context.Context, view *stagecontext.View) (map[string]any, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	files := map[string]string{"main.hcl": `
stage "wait" {
  type = "block"
}

stage "next" {
  type       = "emit"
  depends_on = ["wait"]
}
`}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	result := testutil.RunIntegrationTestWithOptions(ctx, t, files, testutil.Options{}, blocker, &emit.Module{})
	require.Error(t, result.Err)
	assert.True(t, errors.Is(result.Err, context.Canceled))
	testutil.AssertStageSkipped(t, result, "next")
}
