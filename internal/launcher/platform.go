package launcher

import (
	"fmt"
	"io/fs"
	"sort"
	"strings"
)

// Platform tags a launch script flavour.
type Platform string

const (
	Unix    Platform = "unix"
	Windows Platform = "windows"
)

type platformSpec struct {
	scriptSuffix string
	separator    string
	libPrefix    string
	lineEnding   string
	perm         fs.FileMode
}

// platforms is the closed set of supported script flavours.
var platforms = map[Platform]platformSpec{
	Unix: {
		scriptSuffix: "",
		separator:    ":",
		libPrefix:    "$APP_HOME/lib/",
		lineEnding:   "\n",
		perm:         0o755,
	},
	Windows: {
		scriptSuffix: ".bat",
		separator:    ";",
		libPrefix:    `%APP_HOME%\lib\`,
		lineEnding:   "\r\n",
		perm:         0o644,
	},
}

// Platforms returns every supported platform in lexical order.
func Platforms() []Platform {
	out := make([]Platform, 0, len(platforms))
	for p := range platforms {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParsePlatform validates a platform tag.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := platforms[p]; !ok {
		return "", fmt.Errorf("unsupported platform %q (supported: %v)", s, Platforms())
	}
	return p, nil
}

// ScriptName returns the file name of the launcher for app.
func (p Platform) ScriptName(app string) string {
	return app + platforms[p].scriptSuffix
}

// Classpath joins library file names into the platform's classpath syntax,
// relative to the installed application home.
func (p Platform) Classpath(libs []string) string {
	spec := platforms[p]
	parts := make([]string, len(libs))
	for i, lib := range libs {
		parts[i] = spec.libPrefix + lib
	}
	return strings.Join(parts, spec.separator)
}

// Perm is the file mode generated scripts are written with.
func (p Platform) Perm() fs.FileMode {
	return platforms[p].perm
}

// normalizeLineEndings converts content to the platform's line ending.
func (p Platform) normalizeLineEndings(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if le := platforms[p].lineEnding; le != "\n" {
		content = strings.ReplaceAll(content, "\n", le)
	}
	return content
}
