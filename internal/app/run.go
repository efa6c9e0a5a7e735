package app

import (
	"context"
	"fmt"

	"github.com/vk/stagegrid/internal/ctxlog"
	"github.com/vk/stagegrid/internal/execution"
	"github.com/vk/stagegrid/internal/executor"
	"github.com/vk/stagegrid/internal/trigger"
)

// Run executes the loaded pipeline once and returns the per-stage report.
// The report is returned even when the run fails.
func (a *App) Run(ctx context.Context) (*executor.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx, a.config.HealthcheckPort)
		defer func() { _ = a.closeHealthcheckServer(ctx) }()
	}

	exec, err := a.newExecution()
	if err != nil {
		return nil, err
	}
	logger := a.logger.With("execution_id", exec.ID(), "pipeline", exec.Name())
	ctx = ctxlog.WithLogger(ctx, logger)

	sess, err := a.sessions.NewSession(ctx, a.pipeline, exec, a.registry)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := sess.Close(ctx); err != nil {
			logger.Error("Failed to close session.", "error", err)
		}
	}()

	ex, err := sess.GetExecutor()
	if err != nil {
		return nil, err
	}

	if len(a.pipeline.Stages) == 0 {
		logger.Warn("No stages found in pipeline, execution not required.")
	}

	logger.Info("🚀 Starting concurrent execution...", "type", exec.Type(), "stages", len(a.pipeline.Stages))
	runErr := ex.Execute(ctx)
	report := sess.Report()
	if runErr != nil {
		return report, fmt.Errorf("execution failed: %w", runErr)
	}
	logger.Info("🏁 Execution finished.")
	return report, nil
}

// newExecution resolves the execution type and trigger. The trigger is the
// pipeline's default, overlaid by the trigger file, overlaid by inline values.
func (a *App) newExecution() (*execution.Execution, error) {
	typ, err := execution.ParseType(a.pipeline.Type)
	if err != nil {
		return nil, fmt.Errorf("pipeline '%s': %w", a.pipeline.Name, err)
	}

	payload := a.pipeline.Trigger
	if a.config.TriggerPath != "" {
		fromFile, err := trigger.LoadFile(a.config.TriggerPath)
		if err != nil {
			return nil, err
		}
		payload = trigger.Merge(payload, fromFile)
	}
	payload = trigger.Merge(payload, a.config.Trigger)

	if typ != execution.Pipeline && len(payload) > 0 {
		a.logger.Warn("Trigger values are ignored for non-pipeline executions.", "type", typ)
	}

	if a.config.ExecutionID != "" {
		return execution.NewWithID(a.config.ExecutionID, a.pipeline.Name, typ, payload), nil
	}
	return execution.New(a.pipeline.Name, typ, payload), nil
}
