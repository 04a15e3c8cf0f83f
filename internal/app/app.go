package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/vk/buildgrid/internal/config"
	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/fingerprint"
	"github.com/vk/buildgrid/internal/gate"
	"github.com/vk/buildgrid/internal/plan"
	"github.com/vk/buildgrid/internal/scheduler"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
	runID  string

	model  *config.Model
	plan   *plan.Plan
	store  *fingerprint.Store
	status *scheduler.StatusTable

	httpServer *http.Server
}

// NewApp is the constructor for the main application. It builds an isolated
// logger, loads the build file and plans every task. Configuration and
// module graph errors are returned unwrapped so callers can classify them.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	runID := uuid.NewString()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW).With("run_id", runID)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.BuildFile)
	if err != nil {
		return nil, err
	}
	logger.Debug("Build file loaded.", "project", model.Project.Name, "modules", len(model.Modules))

	layout := plan.Layout{BuildDir: model.Project.BuildDir}
	store, err := fingerprint.Open(layout.State())
	if err != nil {
		return nil, err
	}

	p, err := plan.Build(ctx, model, plan.WithFingerprints(store), plan.WithRunID(runID))
	if err != nil {
		return nil, err
	}

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
		runID:  runID,
		model:  model,
		plan:   p,
		store:  store,
		status: scheduler.NewStatusTable(),
	}, nil
}

// RunID identifies this invocation in logs and fingerprints.
func (a *App) RunID() string { return a.runID }

// Model returns the loaded build model.
func (a *App) Model() *config.Model { return a.model }

// Plan returns the task plan.
func (a *App) Plan() *plan.Plan { return a.plan }

// GateResults returns the outcomes of the gates run so far.
func (a *App) GateResults() []*gate.Result { return a.plan.GateResults() }

// TaskInfo describes one task for listings.
type TaskInfo struct {
	ID          string
	Group       string
	Description string
}

// Tasks lists every planned task, ordered by id.
func (a *App) Tasks() []TaskInfo {
	g := a.plan.Graph()
	out := make([]TaskInfo, 0, g.Len())
	for _, id := range g.IDs() {
		t, _ := g.Task(id)
		out = append(out, TaskInfo{ID: id, Group: t.Group, Description: t.Description})
	}
	return out
}

func (a *App) String() string {
	return fmt.Sprintf("buildgrid(%s, run %s)", a.model.Project.Name, a.runID)
}
