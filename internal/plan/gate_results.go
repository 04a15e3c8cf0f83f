package plan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/gate"
	"github.com/vk/buildgrid/internal/scheduler"
	"gopkg.in/yaml.v3"
)

// gateCheck restores the stored result of a gate that is skipped as up to
// date, so the run summary still shows its counts. Without a stored result
// the gate runs.
type gateCheck struct {
	scheduler.UpToDateCheck
	plan *Plan
	id   string
	path string
}

func (c *gateCheck) UpToDate(ctx context.Context) (bool, error) {
	upToDate, err := c.UpToDateCheck.UpToDate(ctx)
	if err != nil || !upToDate {
		return upToDate, err
	}
	res, err := readGateResult(c.path)
	if err != nil {
		ctxlog.FromContext(ctx).Debug("No stored gate result, running gate.", "path", c.path, "error", err)
		return false, nil
	}
	res.UpToDate = true
	c.plan.recordResult(c.id, res)
	return true, nil
}

// wrapGateCheck wraps the fingerprint check of gate task id, or returns nil when
// fingerprints are off.
func (p *Plan) wrapGateCheck(id string, check scheduler.UpToDateCheck) scheduler.UpToDateCheck {
	if check == nil {
		return nil
	}
	return &gateCheck{UpToDateCheck: check, plan: p, id: id, path: p.layout.GateResult(id)}
}

func readGateResult(path string) (*gate.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var res gate.Result
	if err := yaml.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &res, nil
}

func writeGateResult(path string, res *gate.Result) error {
	data, err := yaml.Marshal(res)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
