package launcher

import (
	"regexp"
	"sort"
)

// placeholderRe matches `{{name}}`, tolerating inner whitespace.
var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_.-]*)\s*\}\}`)

// Render replaces every placeholder in template with its substitution.
// It fails with *UnresolvedPlaceholderError naming every placeholder that
// has no substitution. Render has no side effects.
func Render(template string, substitutions map[string]string) (string, error) {
	missing := make(map[string]struct{})
	out := placeholderRe.ReplaceAllStringFunc(template, func(token string) string {
		name := placeholderRe.FindStringSubmatch(token)[1]
		value, ok := substitutions[name]
		if !ok {
			missing[name] = struct{}{}
			return token
		}
		return value
	})

	if len(missing) > 0 {
		names := make([]string, 0, len(missing))
		for n := range missing {
			names = append(names, n)
		}
		sort.Strings(names)
		return "", &UnresolvedPlaceholderError{Names: names}
	}
	return out, nil
}

// Placeholders lists the distinct placeholder names used by template, sorted.
func Placeholders(template string) []string {
	seen := make(map[string]struct{})
	for _, m := range placeholderRe.FindAllStringSubmatch(template, -1) {
		seen[m[1]] = struct{}{}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
