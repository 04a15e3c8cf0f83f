package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/buildgrid/internal/app"
	"github.com/vk/buildgrid/internal/hcl"
)

type globalFlags struct {
	projectDir      string
	buildFile       string
	logLevel        string
	logFormat       string
	workers         int
	continueOnFail  bool
	rerunTasks      bool
	healthcheckPort int
}

func (f *globalFlags) config() (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		ProjectDir:        f.projectDir,
		BuildFile:         f.buildFile,
		LogFormat:         strings.ToLower(f.logFormat),
		LogLevel:          strings.ToLower(f.logLevel),
		HealthcheckPort:   f.healthcheckPort,
		WorkerCount:       f.workers,
		ContinueOnFailure: f.continueOnFail,
		RerunTasks:        f.rerunTasks,
	})
	if err != nil {
		return nil, &usageError{err: err}
	}
	return cfg, nil
}

func (f *globalFlags) newApp(outW io.Writer) (*app.App, error) {
	cfg, err := f.config()
	if err != nil {
		return nil, err
	}
	a, err := app.NewApp(outW, cfg, hcl.NewLoader())
	if err != nil {
		return nil, &configError{err: err}
	}
	return a, nil
}

// NewRootCommand builds the buildgrid command tree writing to outW.
func NewRootCommand(outW io.Writer) *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:   "buildgrid",
		Short: "Build, check and package multi-module JVM projects",
		Long: `buildgrid plans a task graph from buildgrid.hcl and runs it in parallel:
quality gates per module and source set, module jars, launch scripts,
an install tree and distribution archives.

Examples:
  # Check and package everything
  buildgrid build

  # Run specific tasks, by path or by name
  buildgrid run :app:jar checkstyleMain

  # Keep going past gate failures in unrelated modules
  buildgrid check --continue`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(outW)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.projectDir, "project-dir", "p", ".", "Project root directory.")
	pf.StringVarP(&flags.buildFile, "file", "f", "", "Build file or directory of .hcl files (default <project-dir>/buildgrid.hcl).")
	pf.StringVar(&flags.logLevel, "log-level", "info", "Logging level: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&flags.logFormat, "log-format", "text", "Log output format: 'text' or 'json'.")
	pf.IntVarP(&flags.workers, "workers", "w", 0, "Maximum tasks running at once (default number of CPUs).")
	pf.BoolVar(&flags.continueOnFail, "continue", false, "Keep running independent tasks after a gate failure.")
	pf.BoolVar(&flags.rerunTasks, "rerun-tasks", false, "Ignore up-to-date checks.")
	pf.IntVar(&flags.healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")

	root.AddCommand(
		newRunCommand(flags, outW),
		newLifecycleCommand(flags, outW, "build", "Assemble and check the project"),
		newLifecycleCommand(flags, outW, "check", "Run every quality gate"),
		newLifecycleCommand(flags, outW, "assemble", "Build every jar and distribution archive"),
		newLifecycleCommand(flags, outW, "clean", "Delete the build directory"),
		newExtractTemplateCommand(flags, outW),
		newTasksCommand(flags, outW),
	)
	return root
}

func newRunCommand(flags *globalFlags, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "run TASK...",
		Short: "Run tasks and everything they depend on",
		Long: `Run the named tasks. A name starting with ':' is an exact task path
(:app:jar); a bare name selects every task whose last segment matches (jar).`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return &usageError{err: fmt.Errorf("run requires at least one task")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTargets(cmd.Context(), flags, outW, args...)
		},
	}
}

func newLifecycleCommand(flags *globalFlags, outW io.Writer, target, short string) *cobra.Command {
	return &cobra.Command{
		Use:   target,
		Short: short,
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTargets(cmd.Context(), flags, outW, ":"+target)
		},
	}
}

func newExtractTemplateCommand(flags *globalFlags, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "extract-template",
		Short: "Write the stock unix launch script template into the build directory",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTargets(cmd.Context(), flags, outW, ":extractTemplate")
		},
	}
}

func newTasksCommand(flags *globalFlags, outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List every task of the project",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := flags.newApp(io.Discard)
			if err != nil {
				return err
			}
			fmt.Fprint(outW, renderTasks(a.Tasks()))
			return nil
		},
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return &usageError{err: fmt.Errorf("%s takes no arguments, got %q", cmd.Name(), args)}
	}
	return nil
}

func runTargets(ctx context.Context, flags *globalFlags, outW io.Writer, targets ...string) error {
	a, err := flags.newApp(outW)
	if err != nil {
		return err
	}
	report, err := a.Run(ctx, targets...)
	if report != nil {
		fmt.Fprint(outW, renderSummary(report, a.GateResults()))
	}
	return err
}

// Execute runs the command line in args and returns an *ExitError for any
// failure.
func Execute(ctx context.Context, outW io.Writer, args []string) error {
	root := NewRootCommand(outW)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		err = &usageError{err: err}
	}
	return toExitError(err)
}
