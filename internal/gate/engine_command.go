package gate

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/vk/buildgrid/internal/ctxlog"
)

// defaultProblemPattern matches the `file:line[:col]: [severity:] message [rule]`
// shape most command line analysers print.
const defaultProblemPattern = `^(?P<file>[^:\s][^:]*):(?P<line>\d+)(?::(?P<column>\d+))?:\s*(?:(?P<severity>error|warning|info|note):\s*)?(?P<message>.*?)(?:\s+\[(?P<rule>[A-Za-z0-9_./-]+)\])?\s*$`

type commandInput struct {
	ruleFile  string
	module    string
	sourceSet string
}

// runCommand executes an external analyser inside the working copy and
// parses its standard output into violations.
func runCommand(ctx context.Context, wc *workingCopy, sa StaticAnalysis, in commandInput) ([]Violation, error) {
	logger := ctxlog.FromContext(ctx)

	if len(sa.Command) == 0 {
		return nil, errors.New("no command configured")
	}
	args := expandArgs(sa.Command, map[string]string{
		"{rule_file}":  in.ruleFile,
		"{source_dir}": wc.dir,
		"{module}":     in.module,
		"{source_set}": in.sourceSet,
	})

	var pattern *regexp.Regexp
	if sa.OutputFormat != OutputSARIF {
		expr := sa.Pattern
		if expr == "" {
			expr = defaultProblemPattern
		}
		var err error
		if pattern, err = compileProblemPattern(expr); err != nil {
			return nil, err
		}
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = wc.dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	logger.Debug("Running external analyser.", "command", strings.Join(args, " "))
	runErr := cmd.Run()

	var exitErr *exec.ExitError
	if runErr != nil && !errors.As(runErr, &exitErr) {
		return nil, fmt.Errorf("starting %s: %w", args[0], runErr)
	}

	var violations []Violation
	var parseErr error
	switch sa.OutputFormat {
	case OutputSARIF:
		violations, parseErr = parseSARIF(stdout.Bytes(), wc.dir)
	default:
		violations = parseText(stdout.Bytes(), pattern, wc.dir)
	}

	// Analysers commonly exit non-zero when they report findings. A
	// non-zero exit without any parseable finding means the tool failed.
	if exitErr != nil && (parseErr != nil || len(violations) == 0) {
		return nil, fmt.Errorf("%s exited with status %d: %s", args[0], exitErr.ExitCode(), lastLine(stderr.String()))
	}
	if parseErr != nil {
		return nil, parseErr
	}

	sortViolations(violations)
	return violations, nil
}

func expandArgs(args []string, vars map[string]string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		for k, v := range vars {
			a = strings.ReplaceAll(a, k, v)
		}
		out[i] = a
	}
	return out
}

func compileProblemPattern(expr string) (*regexp.Regexp, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid problem pattern: %w", err)
	}
	for _, group := range []string{"file", "line", "message"} {
		if re.SubexpIndex(group) < 0 {
			return nil, fmt.Errorf("problem pattern lacks the named group %q", group)
		}
	}
	return re, nil
}

func parseText(out []byte, re *regexp.Regexp, root string) []Violation {
	var violations []Violation
	group := func(m []string, name string) string {
		if i := re.SubexpIndex(name); i >= 0 {
			return m[i]
		}
		return ""
	}

	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		m := re.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		line, err := strconv.Atoi(group(m, "line"))
		if err != nil {
			continue
		}
		col, _ := strconv.Atoi(group(m, "column"))
		violations = append(violations, Violation{
			File:     relativeTo(root, group(m, "file")),
			Line:     line,
			Column:   col,
			Severity: ParseSeverity(group(m, "severity")),
			Rule:     group(m, "rule"),
			Message:  strings.TrimSpace(group(m, "message")),
		})
	}
	return violations
}

// parseSARIF reads SARIF 2.1.0 results. Every result becomes one violation
// located at its first physical location.
func parseSARIF(out []byte, root string) ([]Violation, error) {
	if !gjson.ValidBytes(out) {
		return nil, errors.New("analyser output is not valid SARIF JSON")
	}
	doc := gjson.ParseBytes(out)
	runs := doc.Get("runs")
	if !runs.IsArray() {
		return nil, errors.New("SARIF output has no runs array")
	}

	var violations []Violation
	runs.ForEach(func(_, run gjson.Result) bool {
		run.Get("results").ForEach(func(_, res gjson.Result) bool {
			loc := res.Get("locations.0.physicalLocation")
			level := res.Get("level").String()
			violations = append(violations, Violation{
				File:     relativeTo(root, fileFromURI(loc.Get("artifactLocation.uri").String())),
				Line:     int(loc.Get("region.startLine").Int()),
				Column:   int(loc.Get("region.startColumn").Int()),
				Severity: ParseSeverity(level),
				Rule:     res.Get("ruleId").String(),
				Message:  res.Get("message.text").String(),
			})
			return true
		})
		return true
	})
	return violations, nil
}

func fileFromURI(uri string) string {
	if !strings.HasPrefix(uri, "file:") {
		return uri
	}
	u, err := url.Parse(uri)
	if err != nil {
		return strings.TrimPrefix(uri, "file://")
	}
	return u.Path
}

// relativeTo maps a path reported by a tool onto the working copy, so that
// violations refer to source-set-relative files.
func relativeTo(root, p string) string {
	if filepath.IsAbs(p) {
		// Resolve symlinks in the temp root (macOS /var → /private/var).
		for _, r := range []string{root, evalSymlinks(root)} {
			if rel, err := filepath.Rel(r, p); err == nil && !strings.HasPrefix(rel, "..") {
				return filepath.ToSlash(rel)
			}
		}
	}
	return filepath.ToSlash(strings.TrimPrefix(p, "./"))
}

func evalSymlinks(p string) string {
	if r, err := filepath.EvalSymlinks(p); err == nil {
		return r
	}
	return p
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	if s == "" {
		return "no diagnostic output"
	}
	return s
}
