package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/stagegrid/internal/executor"
	"github.com/vk/stagegrid/internal/stage"
)

// StageResult fetches a stage's result from the harness report.
func StageResult(t *testing.T, result *HarnessResult, stageID string) executor.StageResult {
	t.Helper()
	require.NotNil(t, result.Report, "run produced no report: %v", result.Err)
	res, ok := result.Report.Result(stageID)
	require.True(t, ok, "stage '%s' not found in report", stageID)
	return res
}

// AssertStageRan checks that a stage completed successfully.
func AssertStageRan(t *testing.T, result *HarnessResult, stageID string) {
	t.Helper()
	res := StageResult(t, result, stageID)
	require.Equal(t, stage.Done, res.State, "stage '%s' did not complete: %v", stageID, res.Err)
}

// AssertStageSkipped checks that a stage never ran because of an upstream
// failure.
func AssertStageSkipped(t *testing.T, result *HarnessResult, stageID string) {
	t.Helper()
	res := StageResult(t, result, stageID)
	require.Equal(t, stage.Failed, res.State)
	require.ErrorIs(t, res.Err, executor.ErrSkipped)
}
