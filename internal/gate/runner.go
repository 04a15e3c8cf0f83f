package gate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/vk/buildgrid/internal/ctxlog"
)

// Runner executes gates. A single Runner may serve many concurrent Run
// calls; it holds no per-run state.
type Runner struct {
	reportsDir  string
	workDir     string
	parallelism int
}

// Option configures a Runner.
type Option func(*Runner)

// WithReportsDir enables HTML reports below dir.
func WithReportsDir(dir string) Option {
	return func(r *Runner) { r.reportsDir = dir }
}

// WithWorkDir places working copies below dir instead of the system temp dir.
func WithWorkDir(dir string) Option {
	return func(r *Runner) { r.workDir = dir }
}

// WithParallelism bounds concurrent file scanning within one run.
func WithParallelism(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.parallelism = n
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{parallelism: runtime.NumCPU()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes gate g against target and applies suppressions and the
// threshold. The returned error is always a *ToolInvocationError; a gate
// that merely fails its threshold is reported through Result.Passed.
func (r *Runner) Run(ctx context.Context, target Target, g Gate) (*Result, error) {
	logger := ctxlog.FromContext(ctx).With("tool", g.Tool, "module", target.Module, "source_set", target.SourceSet)
	ctx = ctxlog.WithLogger(ctx, logger)

	fail := func(err error) (*Result, error) {
		return nil, &ToolInvocationError{Tool: g.Tool, Module: target.Module, Err: err}
	}

	if g.MaxWarnings < 0 {
		return fail(fmt.Errorf("maxWarnings must be >= 0, got %d", g.MaxWarnings))
	}
	if g.Check == nil {
		return fail(errors.New("no check configured"))
	}
	if g.RuleFile == "" {
		return fail(errors.New("no rule file configured"))
	}
	if _, err := os.Stat(g.RuleFile); err != nil {
		return fail(fmt.Errorf("rule file: %w", err))
	}
	suppressions, err := LoadSuppressions(g.SuppressionFile)
	if err != nil {
		return fail(fmt.Errorf("suppression file: %w", err))
	}

	// Rule files are parsed before the copy so that include patterns can
	// come from the rule file itself.
	var (
		staticRules []compiledRule
		format      *formatRules
		includes    = g.Includes
	)
	switch c := g.Check.(type) {
	case StaticAnalysis:
		if len(c.Command) == 0 {
			file, rules, err := loadStaticRules(g.RuleFile)
			if err != nil {
				return fail(err)
			}
			staticRules = rules
			if len(includes) == 0 {
				includes = file.Include
			}
		}
	case FormatCheck:
		if format, err = loadFormatRules(g.RuleFile); err != nil {
			return fail(err)
		}
		if len(includes) == 0 {
			includes = format.Include
		}
	default:
		return fail(fmt.Errorf("unsupported check %T", c))
	}
	if len(includes) == 0 {
		includes = defaultIncludes(g.Check)
	}

	wc, err := newWorkingCopy(r.workDir, target.Dir, includes)
	if err != nil {
		return fail(err)
	}
	defer func() {
		if err := wc.cleanup(); err != nil {
			logger.Warn("Failed to remove gate working copy.", "dir", wc.dir, "error", err)
		}
	}()
	logger.Debug("Gate working copy ready.", "files", len(wc.files))

	var found []Violation
	switch c := g.Check.(type) {
	case StaticAnalysis:
		if len(c.Command) > 0 {
			found, err = runCommand(ctx, wc, c, commandInput{ruleFile: g.RuleFile, module: target.Module, sourceSet: target.SourceSet})
		} else {
			found, err = runRegexRules(ctx, wc, r.parallelism, staticRules)
		}
	case FormatCheck:
		found, err = runFormatRules(ctx, wc, r.parallelism, format)
	}
	if err != nil {
		return fail(err)
	}

	kept, suppressed := suppressions.Apply(found)
	result := &Result{
		Tool:           g.Tool,
		Module:         target.Module,
		SourceSet:      target.SourceSet,
		Files:          len(wc.files),
		ViolationCount: len(kept),
		Violations:     kept,
		Suppressed:     suppressed,
		MaxWarnings:    g.MaxWarnings,
		IgnoreFailures: g.IgnoreFailures,
		Passed:         passed(len(kept), g.RuleSet),
	}

	if r.reportsDir != "" {
		path := reportPath(r.reportsDir, result)
		if err := writeHTMLReport(path, result); err != nil {
			logger.Warn("Failed to write gate report.", "path", path, "error", err)
		} else {
			result.ReportPath = path
		}
	}

	switch {
	case !result.Passed:
		logger.Error("Quality gate failed.", "violations", result.ViolationCount, "max_warnings", g.MaxWarnings, "suppressed", suppressed)
	case result.ViolationCount > g.MaxWarnings:
		logger.Warn("Quality gate over threshold, failures ignored.", "violations", result.ViolationCount, "max_warnings", g.MaxWarnings)
	default:
		logger.Info("Quality gate passed.", "violations", result.ViolationCount, "suppressed", suppressed)
	}
	return result, nil
}
