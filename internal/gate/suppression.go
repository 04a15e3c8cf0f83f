package gate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// suppressionFile is the YAML layout of a suppression file.
//
//	suppressions:
//	  - files: '.*Test\.java'
//	    checks: 'NoSystemOut'
//	  - files: 'generated/.*'
//	    lines: '1-40'
type suppressionFile struct {
	Suppressions []suppressionSpec `yaml:"suppressions"`
}

type suppressionSpec struct {
	Files   string `yaml:"files"`
	Checks  string `yaml:"checks"`
	Message string `yaml:"message"`
	Lines   string `yaml:"lines"`
}

type suppression struct {
	files    *regexp.Regexp
	checks   *regexp.Regexp
	message  *regexp.Regexp
	from, to int
}

// Suppressions removes violations before they are counted. Applying the same
// suppressions twice has the same effect as applying them once.
type Suppressions []suppression

// LoadSuppressions parses a suppression file. An empty path yields no
// suppressions.
func LoadSuppressions(path string) (Suppressions, error) {
	if path == "" {
		return nil, nil
	}
	var file suppressionFile
	if err := decodeStrict(path, &file); err != nil {
		return nil, err
	}

	out := make(Suppressions, 0, len(file.Suppressions))
	for i, spec := range file.Suppressions {
		s, err := compileSuppression(spec)
		if err != nil {
			return nil, fmt.Errorf("suppression %d in %s: %w", i+1, path, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func compileSuppression(spec suppressionSpec) (suppression, error) {
	if spec.Files == "" && spec.Checks == "" && spec.Message == "" {
		return suppression{}, fmt.Errorf("needs at least one of files, checks or message")
	}
	var s suppression
	var err error
	if s.files, err = optionalRegexp(`(?:^|/)(?:%s)$`, spec.Files); err != nil {
		return s, fmt.Errorf("files: %w", err)
	}
	if s.checks, err = optionalRegexp(`^(?:%s)$`, spec.Checks); err != nil {
		return s, fmt.Errorf("checks: %w", err)
	}
	if s.message, err = optionalRegexp(`%s`, spec.Message); err != nil {
		return s, fmt.Errorf("message: %w", err)
	}
	if s.from, s.to, err = parseLineRange(spec.Lines); err != nil {
		return s, fmt.Errorf("lines: %w", err)
	}
	return s, nil
}

// optionalRegexp compiles expr inside layout. File expressions match a
// whole trailing path, check expressions the whole rule id, and message
// expressions anywhere.
func optionalRegexp(layout, expr string) (*regexp.Regexp, error) {
	if expr == "" {
		return nil, nil
	}
	return regexp.Compile(fmt.Sprintf(layout, expr))
}

func parseLineRange(s string) (int, int, error) {
	if s == "" {
		return 0, 0, nil
	}
	lo, hi, found := strings.Cut(s, "-")
	from, err := strconv.Atoi(strings.TrimSpace(lo))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid line range %q", s)
	}
	to := from
	if found {
		if to, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil {
			return 0, 0, fmt.Errorf("invalid line range %q", s)
		}
	}
	if from < 1 || to < from {
		return 0, 0, fmt.Errorf("invalid line range %q", s)
	}
	return from, to, nil
}

func (s suppression) matches(v Violation) bool {
	if s.files != nil && !s.files.MatchString(v.File) {
		return false
	}
	if s.checks != nil && !s.checks.MatchString(v.Rule) {
		return false
	}
	if s.message != nil && !s.message.MatchString(v.Message) {
		return false
	}
	if s.from > 0 && (v.Line < s.from || v.Line > s.to) {
		return false
	}
	return true
}

// Apply returns the violations no suppression matches and the number removed.
func (ss Suppressions) Apply(violations []Violation) ([]Violation, int) {
	if len(ss) == 0 {
		return violations, 0
	}
	kept := make([]Violation, 0, len(violations))
	for _, v := range violations {
		if !ss.suppresses(v) {
			kept = append(kept, v)
		}
	}
	return kept, len(violations) - len(kept)
}

func (ss Suppressions) suppresses(v Violation) bool {
	for _, s := range ss {
		if s.matches(v) {
			return true
		}
	}
	return false
}
