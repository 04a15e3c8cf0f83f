package gate

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/vk/buildgrid/internal/modpath"
)

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Tool}} report for {{.Module}} ({{.SourceSet}})</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; }
td, th { border: 1px solid #ccc; padding: 4px 8px; text-align: left; }
.error { color: #b00020; } .warning { color: #b26a00; } .info { color: #555; }
</style>
</head>
<body>
<h1>{{.Tool}}: {{.Module}} ({{.SourceSet}})</h1>
<p>{{if .Passed}}Passed{{else}}Failed{{end}}: {{.ViolationCount}} violation(s), threshold {{.MaxWarnings}}{{if .IgnoreFailures}} (failures ignored){{end}}. {{.Suppressed}} suppressed, {{.Files}} file(s) inspected.</p>
{{if .Violations}}<table>
<tr><th>File</th><th>Line</th><th>Severity</th><th>Rule</th><th>Message</th></tr>
{{range .Violations}}<tr><td>{{.File}}</td><td>{{.Line}}</td><td class="{{.Severity}}">{{.Severity}}</td><td>{{.Rule}}</td><td>{{.Message}}</td></tr>
{{end}}</table>{{end}}
</body>
</html>
`))

// reportPath returns <dir>/<tool>/<module-slug>-<sourceSet>.html.
func reportPath(dir string, r *Result) string {
	slug := r.Module
	if p, err := modpath.Parse(r.Module); err == nil {
		slug = p.Slug()
	}
	return filepath.Join(dir, r.Tool, fmt.Sprintf("%s-%s.html", slug, r.SourceSet))
}

func writeHTMLReport(path string, r *Result) error {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, r); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
