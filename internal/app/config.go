package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ProjectDir string
	// BuildFile defaults to buildgrid.hcl in ProjectDir.
	BuildFile string

	LogFormat       string
	LogLevel        string
	HealthcheckPort int
	WorkerCount     int

	ContinueOnFailure bool
	RerunTasks        bool
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	var errs []error

	if cfg.ProjectDir == "" {
		cfg.ProjectDir = "."
	}
	if cfg.BuildFile == "" {
		cfg.BuildFile = filepath.Join(cfg.ProjectDir, "buildgrid.hcl")
	}

	switch cfg.LogFormat {
	case "":
		cfg.LogFormat = "text"
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat))
	}
	switch cfg.LogLevel {
	case "":
		cfg.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("invalid log level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel))
	}

	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		errs = append(errs, fmt.Errorf("healthcheck port %d out of range", cfg.HealthcheckPort))
	}
	if cfg.WorkerCount < 0 {
		errs = append(errs, errors.New("worker count cannot be negative"))
	}
	if cfg.WorkerCount == 0 {
		cfg.WorkerCount = runtime.NumCPU()
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}
