package gate

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"
)

const (
	ruleLineLength         = "LineLength"
	ruleIndentation        = "Indentation"
	ruleTrailingWhitespace = "TrailingWhitespace"
	ruleFinalNewline       = "FinalNewline"
	ruleLineEndings        = "LineEndings"
)

func runFormatRules(ctx context.Context, wc *workingCopy, parallelism int, rules *formatRules) ([]Violation, error) {
	forbidTrailing := rules.TrailingWhitespace != nil && !*rules.TrailingWhitespace
	requireFinalNewline := rules.FinalNewline != nil && *rules.FinalNewline

	return scanFiles(ctx, wc, parallelism, func(rel string, content []byte) []Violation {
		var out []Violation
		add := func(line, col int, rule, msg string) {
			out = append(out, Violation{File: rel, Line: line, Column: col, Severity: SeverityWarning, Rule: rule, Message: msg})
		}

		if rules.LineEndings != "" {
			if crlf, lf := lineEndingCounts(content); rules.LineEndings == "lf" && crlf > 0 {
				add(1, 0, ruleLineEndings, fmt.Sprintf("found %d CRLF line ending(s), expected LF", crlf))
			} else if rules.LineEndings == "crlf" && lf > 0 {
				add(1, 0, ruleLineEndings, fmt.Sprintf("found %d LF line ending(s), expected CRLF", lf))
			}
		}

		lines := splitLines(content)
		for i, line := range lines {
			n := i + 1
			if rules.MaxLineLength > 0 {
				if width := utf8.RuneCount(line); width > rules.MaxLineLength {
					add(n, rules.MaxLineLength+1, ruleLineLength,
						fmt.Sprintf("line is %d characters long, maximum is %d", width, rules.MaxLineLength))
				}
			}
			if indent := leadingWhitespace(line); len(indent) > 0 {
				switch {
				case rules.Indent == "spaces" && bytes.IndexByte(indent, '\t') >= 0:
					add(n, 1, ruleIndentation, "indentation uses tabs, expected spaces")
				case rules.Indent == "tabs" && bytes.IndexByte(indent, ' ') >= 0:
					add(n, 1, ruleIndentation, "indentation uses spaces, expected tabs")
				}
			}
			if forbidTrailing {
				if trimmed := bytes.TrimRight(line, " \t"); len(trimmed) != len(line) {
					add(n, utf8.RuneCount(trimmed)+1, ruleTrailingWhitespace, "line has trailing whitespace")
				}
			}
		}

		if requireFinalNewline && len(content) > 0 && content[len(content)-1] != '\n' {
			add(len(lines), 0, ruleFinalNewline, "file does not end with a newline")
		}
		return out
	})
}

func leadingWhitespace(line []byte) []byte {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

func lineEndingCounts(content []byte) (crlf, lf int) {
	for i, b := range content {
		if b != '\n' {
			continue
		}
		if i > 0 && content[i-1] == '\r' {
			crlf++
		} else {
			lf++
		}
	}
	return crlf, lf
}
