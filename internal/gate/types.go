package gate

import "fmt"

// Severity classifies a violation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// ParseSeverity maps tool vocabulary onto a Severity. Unknown or empty
// values default to warning.
func ParseSeverity(s string) Severity {
	switch s {
	case "error", "fatal", "blocker", "critical":
		return SeverityError
	case "info", "note", "none", "hint":
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// Violation is a single finding. File is relative to the source set root,
// slash-separated.
type Violation struct {
	File     string   `json:"file" yaml:"file"`
	Line     int      `json:"line" yaml:"line"`
	Column   int      `json:"column,omitempty" yaml:"column,omitempty"`
	Severity Severity `json:"severity" yaml:"severity"`
	Rule     string   `json:"rule,omitempty" yaml:"rule,omitempty"`
	Message  string   `json:"message" yaml:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s:%d: %s: %s [%s]", v.File, v.Line, v.Severity, v.Message, v.Rule)
}

// RuleSet configures a single gate.
type RuleSet struct {
	Tool            string
	RuleFile        string
	SuppressionFile string
	IgnoreFailures  bool
	MaxWarnings     int
}

// Gate is a RuleSet plus the check that produces its violations.
type Gate struct {
	RuleSet
	Check Check
	// Includes selects the files copied into the working copy. Empty means
	// the check's defaults.
	Includes []string
}

// Target is the source set a gate runs against.
type Target struct {
	Module    string
	SourceSet string
	Dir       string
}

// Result is the outcome of one gate run. UpToDate marks a result restored
// from an earlier run because the gate's inputs did not change.
type Result struct {
	Tool           string      `yaml:"tool"`
	Module         string      `yaml:"module"`
	SourceSet      string      `yaml:"source_set"`
	Files          int         `yaml:"files"`
	ViolationCount int         `yaml:"violation_count"`
	Violations     []Violation `yaml:"violations,omitempty"`
	Suppressed     int         `yaml:"suppressed"`
	MaxWarnings    int         `yaml:"max_warnings"`
	IgnoreFailures bool        `yaml:"ignore_failures"`
	Passed         bool        `yaml:"passed"`
	ReportPath     string      `yaml:"report_path,omitempty"`
	UpToDate       bool        `yaml:"-"`
}

// Err returns a *ThresholdError when the gate did not pass, nil otherwise.
func (r *Result) Err() error {
	if r.Passed {
		return nil
	}
	return &ThresholdError{
		Tool:        r.Tool,
		Module:      r.Module,
		SourceSet:   r.SourceSet,
		Count:       r.ViolationCount,
		MaxWarnings: r.MaxWarnings,
	}
}

// passed applies the threshold law.
func passed(count int, rs RuleSet) bool {
	return count <= rs.MaxWarnings || rs.IgnoreFailures
}
