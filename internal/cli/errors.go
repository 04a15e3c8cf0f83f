package cli

import (
	"context"
	"errors"

	"github.com/vk/buildgrid/internal/gate"
	"github.com/vk/buildgrid/internal/launcher"
	"github.com/vk/buildgrid/internal/modgraph"
	"github.com/vk/buildgrid/internal/scheduler"
)

// Exit codes returned by the buildgrid binary.
const (
	ExitOK                    = 0
	ExitGeneral               = 1
	ExitUsage                 = 2
	ExitConfig                = 3
	ExitToolInvocation        = 4
	ExitThreshold             = 5
	ExitUnresolvedPlaceholder = 6
	ExitTimeout               = 7
	ExitCancelled             = 130
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// usageError marks bad invocations: unknown flags, missing arguments.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// configError marks failures while loading the build file or planning.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// exitCode classifies err. The most specific cause wins, so a threshold
// failure surfaced through a wrapped task error still maps to ExitThreshold.
func exitCode(err error) int {
	var (
		usage       *usageError
		unknownTask *scheduler.UnknownTaskError
		dupModule   *modgraph.DuplicateModuleError
		unknownMod  *modgraph.UnknownModuleError
		cycle       *modgraph.CyclicDependencyError
		tool        *gate.ToolInvocationError
		threshold   *gate.ThresholdError
		placeholder *launcher.UnresolvedPlaceholderError
		timeout     *scheduler.TimeoutError
		cfg         *configError
	)
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &usage), errors.As(err, &unknownTask):
		return ExitUsage
	case errors.As(err, &dupModule), errors.As(err, &unknownMod), errors.As(err, &cycle):
		return ExitConfig
	case errors.As(err, &tool):
		return ExitToolInvocation
	case errors.As(err, &threshold):
		return ExitThreshold
	case errors.As(err, &placeholder):
		return ExitUnresolvedPlaceholder
	case errors.As(err, &timeout):
		return ExitTimeout
	case errors.Is(err, context.Canceled):
		return ExitCancelled
	case errors.As(err, &cfg):
		return ExitConfig
	default:
		return ExitGeneral
	}
}

// toExitError converts any error into an *ExitError carrying its exit code.
func toExitError(err error) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return &ExitError{Code: exitCode(err), Message: err.Error()}
}
