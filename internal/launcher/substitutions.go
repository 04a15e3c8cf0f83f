package launcher

import (
	"strings"
	"unicode"
)

// Application describes what a launcher starts.
type Application struct {
	Name      string
	MainClass string
	JvmArgs   []string
}

// envPrefix turns an application name into an environment variable stem,
// e.g. `pet-cli` becomes `PET_CLI`.
func envPrefix(name string) string {
	return strings.Map(func(r rune) rune {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, name)
}

// Substitutions builds the standard placeholder set for p.
func Substitutions(app Application, libs []string, p Platform) map[string]string {
	prefix := envPrefix(app.Name)
	return map[string]string{
		"applicationName":     app.Name,
		"mainClass":           app.MainClass,
		"classpath":           p.Classpath(libs),
		"defaultJvmOpts":      jvmOpts(app.JvmArgs, p),
		"optsEnvironmentVar":  prefix + "_OPTS",
		"exitEnvironmentVar":  prefix + "_EXIT_CONSOLE",
		"appHomeRelativePath": "..",
	}
}

// jvmOpts quotes JVM arguments for the platform's shell. On unix the
// whole list is a single-quoted word; embedded single quotes are closed,
// escaped and reopened.
func jvmOpts(args []string, p Platform) string {
	if len(args) == 0 {
		if p == Windows {
			return ""
		}
		return "''"
	}
	joined := strings.Join(args, " ")
	if p == Windows {
		return `"` + strings.ReplaceAll(joined, `"`, `\"`) + `"`
	}
	return "'" + strings.ReplaceAll(joined, "'", `'"'"'`) + "'"
}
