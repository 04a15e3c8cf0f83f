package app

import (
	"context"
	"errors"

	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/scheduler"
)

// Run executes targets and everything they depend on. The report is
// returned even when the run fails; the error is the first task failure
// verbatim, or the context error on cancellation.
func (a *App) Run(ctx context.Context, targets ...string) (*scheduler.Report, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "targets", targets)

	if a.config.HealthcheckPort > 0 {
		a.startHealthcheckServer(ctx, a.config.HealthcheckPort)
		defer a.closeHealthcheckServer(ctx)
	}

	g, err := a.plan.Select(targets...)
	if err != nil {
		return nil, err
	}

	a.logger.Info("🚀 Starting build...", "targets", targets, "tasks", g.Len(), "workers", a.config.WorkerCount)
	report, runErr := scheduler.Execute(ctx, g,
		scheduler.WithWorkers(a.config.WorkerCount),
		scheduler.WithContinueOnFailure(a.config.ContinueOnFailure),
		scheduler.WithRerun(a.config.RerunTasks),
		scheduler.WithStatusTable(a.status),
	)

	if err := a.store.Save(); err != nil {
		a.logger.Warn("Failed to save fingerprints.", "error", err)
	}

	switch {
	case report == nil:
	case errors.Is(runErr, context.Canceled):
		a.logger.Warn("🛑 Build cancelled.", "skipped", report.Count(scheduler.StatusSkipped))
	case report.Verdict == scheduler.VerdictFailed:
		a.logger.Error("❌ Build failed.", "task", report.FailedTask, "error", report.Err)
	default:
		a.logger.Info("🏁 Build finished.",
			"succeeded", report.Count(scheduler.StatusSucceeded),
			"skipped", report.Count(scheduler.StatusSkipped),
		)
	}
	return report, runErr
}
