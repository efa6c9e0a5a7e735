package testutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/stagegrid/internal/app"
	"github.com/vk/stagegrid/internal/executor"
	"github.com/vk/stagegrid/internal/hcl"
	"github.com/vk/stagegrid/internal/registry"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Report    *executor.Report
}

// Options tweaks the app configuration used by the harness.
type Options struct {
	Trigger     map[string]any
	TriggerFile string // contents, written next to the pipeline files
	Workers     int
	ExecutionID string
	Store       string
	RedisAddr   string
	RedisPrefix string
}

// RunIntegrationTest writes files into a temporary pipeline directory, builds
// an app with the given modules (the core modules when none are given) and
// runs it once.
func RunIntegrationTest(t *testing.T, files map[string]string, modules ...registry.Module) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithOptions(context.Background(), t, files, Options{}, modules...)
}

// RunIntegrationTestWithOptions is RunIntegrationTest with a caller context
// and configuration overrides.
func RunIntegrationTestWithOptions(ctx context.Context, t *testing.T, files map[string]string, opts Options, modules ...registry.Module) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	pipelineDir := filepath.Join(tmpDir, "pipeline")
	require.NoError(t, os.Mkdir(pipelineDir, 0o755))

	for name, content := range files {
		filePath := filepath.Join(pipelineDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	workers := opts.Workers
	if workers == 0 {
		workers = 4
	}
	cfg := app.Config{
		PipelinePath: pipelineDir,
		Trigger:      opts.Trigger,
		LogLevel:     "debug",
		LogFormat:    "text",
		WorkerCount:  workers,
		ExecutionID:  opts.ExecutionID,
		Store:        opts.Store,
		RedisAddr:    opts.RedisAddr,
		RedisPrefix:  opts.RedisPrefix,
	}
	if opts.TriggerFile != "" {
		cfg.TriggerPath = filepath.Join(tmpDir, "trigger.yaml")
		require.NoError(t, os.WriteFile(cfg.TriggerPath, []byte(opts.TriggerFile), 0o644))
	}

	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &SafeBuffer{}
	t.Cleanup(func() {
		if os.Getenv("STAGEGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
		}
	})

	testApp, err := app.NewApp(logBuffer, appConfig, hcl.NewLoader(), modules...)
	if err != nil {
		return &HarnessResult{LogOutput: logBuffer.String(), Err: err}
	}

	report, runErr := testApp.Run(ctx)
	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		Report:    report,
	}
}
