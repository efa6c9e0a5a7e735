package integrationtests

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/stagegrid/internal/testutil"
)

const triggerHCL = `
pipeline "release" {
  trigger = { region = "eu-west-1", channel = "stable", owner = "ops" }
}

stage "show" {
  type    = "print"
  context = { keys = ["region", "channel", "owner"] }
}
`

func TestTrigger_Layering(t *testing.T) {
	result := testutil.RunIntegrationTestWithOptions(context.Background(), t,
		map[string]string{"main.hcl": triggerHCL},
		testutil.Options{
			TriggerFile: "channel: beta\nregion: ap-south-1\n",
			Trigger:     map[string]any{"region": "us-east-2"},
		},
	)
	require.NoError(t, result.Err)

	// Get never sees the trigger; GetAll ends with it.
	assert.Contains(t, result.LogOutput, "region = (unset)\n")
	assert.Contains(t, result.LogOutput, "region[*] = [us-east-2]\n")
	assert.Contains(t, result.LogOutput, "channel[*] = [beta]\n")
	assert.Contains(t, result.LogOutput, "owner[*] = [ops]\n")
}

func TestResume_WithRedisStore(t *testing.T) {
	addr := os.Getenv("STAGEGRID_TEST_REDIS_ADDR")
	if addr == "" {
		addr = miniredis.RunT(t).Addr()
	}

	opts := testutil.Options{
		Store:       "redis",
		RedisAddr:   addr,
		RedisPrefix: "stagegrid-test",
		ExecutionID: uuid.NewString(),
	}
	first := map[string]string{"main.hcl": `
stage "build" {
  type    = "emit"
  context = { outputs = { artifact = "v1" } }
}

stage "ship" {
  type       = "fail"
  depends_on = ["build"]
}
`}
	result := testutil.RunIntegrationTestWithOptions(context.Background(), t, first, opts)
	require.Error(t, result.Err)
	testutil.AssertStageRan(t, result, "build")

	// The second attempt changes build's outputs; the recorded ones win.
	second := map[string]string{"main.hcl": `
stage "build" {
  type    = "emit"
  context = { outputs = { artifact = "v2" } }
}

stage "ship" {
  type       = "print"
  depends_on = ["build"]
  context    = { keys = ["artifact"] }
}
`}
	result = testutil.RunIntegrationTestWithOptions(context.Background(), t, second, opts)
	require.NoError(t, result.Err)
	assert.Contains(t, result.LogOutput, "artifact = v1\n")
	assert.Contains(t, result.LogOutput, "reusing outputs")
}
