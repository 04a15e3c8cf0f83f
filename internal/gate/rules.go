package gate

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// staticRuleFile is the YAML layout of a built-in static analysis rule file.
//
//	include: ["*.java"]
//	rules:
//	  - id: NoSystemOut
//	    pattern: 'System\.(out|err)\.print'
//	    message: Use a logger instead of System.out
//	    severity: warning
type staticRuleFile struct {
	Include []string     `yaml:"include"`
	Rules   []staticRule `yaml:"rules"`
}

type staticRule struct {
	ID       string `yaml:"id"`
	Pattern  string `yaml:"pattern"`
	Message  string `yaml:"message"`
	Severity string `yaml:"severity"`
	// Files restricts the rule to matching paths; empty means all files.
	Files []string `yaml:"files"`
}

type compiledRule struct {
	id       string
	re       *regexp.Regexp
	message  string
	severity Severity
	files    []string
}

// formatRules is the YAML layout of a format check rule file.
//
//	include: ["*.java", "*.kts"]
//	max_line_length: 120
//	indent: spaces
//	trailing_whitespace: false
//	final_newline: true
//	line_endings: lf
type formatRules struct {
	Include            []string `yaml:"include"`
	MaxLineLength      int      `yaml:"max_line_length"`
	Indent             string   `yaml:"indent"`
	TrailingWhitespace *bool    `yaml:"trailing_whitespace"`
	FinalNewline       *bool    `yaml:"final_newline"`
	LineEndings        string   `yaml:"line_endings"`
}

// decodeStrict reads a YAML document and rejects unknown keys.
func decodeStrict(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%s is empty", path)
		}
		return fmt.Errorf("malformed %s: %w", path, err)
	}
	return nil
}

func loadStaticRules(path string) (*staticRuleFile, []compiledRule, error) {
	var file staticRuleFile
	if err := decodeStrict(path, &file); err != nil {
		return nil, nil, err
	}
	if len(file.Rules) == 0 {
		return nil, nil, fmt.Errorf("rule file %s defines no rules", path)
	}

	seen := make(map[string]bool, len(file.Rules))
	compiled := make([]compiledRule, 0, len(file.Rules))
	for i, r := range file.Rules {
		if r.ID == "" {
			return nil, nil, fmt.Errorf("rule %d in %s has no id", i+1, path)
		}
		if seen[r.ID] {
			return nil, nil, fmt.Errorf("rule %q is defined twice in %s", r.ID, path)
		}
		seen[r.ID] = true
		re, err := regexp.Compile(r.Pattern)
		if err != nil || r.Pattern == "" {
			return nil, nil, fmt.Errorf("rule %q in %s has an invalid pattern: %v", r.ID, path, err)
		}
		msg := r.Message
		if msg == "" {
			msg = fmt.Sprintf("matches forbidden pattern %q", r.Pattern)
		}
		compiled = append(compiled, compiledRule{
			id:       r.ID,
			re:       re,
			message:  msg,
			severity: ParseSeverity(r.Severity),
			files:    r.Files,
		})
	}
	return &file, compiled, nil
}

func loadFormatRules(path string) (*formatRules, error) {
	var rules formatRules
	if err := decodeStrict(path, &rules); err != nil {
		return nil, err
	}
	if rules.MaxLineLength < 0 {
		return nil, fmt.Errorf("max_line_length in %s must not be negative", path)
	}
	switch rules.Indent {
	case "", "spaces", "tabs":
	default:
		return nil, fmt.Errorf("indent in %s must be \"spaces\" or \"tabs\", got %q", path, rules.Indent)
	}
	switch rules.LineEndings {
	case "", "lf", "crlf":
	default:
		return nil, fmt.Errorf("line_endings in %s must be \"lf\" or \"crlf\", got %q", path, rules.LineEndings)
	}
	return &rules, nil
}
