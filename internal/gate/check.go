package gate

import "fmt"

// Kind names a Check variant in configuration.
type Kind string

const (
	KindStaticAnalysis Kind = "static_analysis"
	KindFormatCheck    Kind = "format_check"
)

// ParseKind validates a configured gate kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindStaticAnalysis, KindFormatCheck:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown gate kind %q (want %q or %q)", s, KindStaticAnalysis, KindFormatCheck)
}

// Check is the closed set of gate variants. The unexported method keeps
// other packages from adding variants the runner cannot dispatch.
type Check interface {
	Kind() Kind
	check()
}

// OutputFormat selects how external analyser output is parsed.
type OutputFormat string

const (
	OutputText  OutputFormat = "text"
	OutputSARIF OutputFormat = "sarif"
)

// StaticAnalysis finds rule violations. With no Command it evaluates the
// regex rules of a YAML rule file; otherwise it runs Command in the working
// copy and parses its standard output.
//
// Command arguments may reference {rule_file}, {source_dir}, {module} and
// {source_set}.
type StaticAnalysis struct {
	Command      []string
	OutputFormat OutputFormat
	// Pattern overrides the text problem matcher. It must define the named
	// groups file, line and message; column, severity and rule are optional.
	Pattern string
}

func (StaticAnalysis) Kind() Kind { return KindStaticAnalysis }
func (StaticAnalysis) check()     {}

// FormatCheck enforces the layout rules of a YAML format file.
type FormatCheck struct{}

func (FormatCheck) Kind() Kind { return KindFormatCheck }
func (FormatCheck) check()     {}

func defaultIncludes(c Check) []string {
	switch c.(type) {
	case FormatCheck:
		return []string{"*.java", "*.kts", "*.gradle"}
	default:
		return []string{"*.java"}
	}
}
