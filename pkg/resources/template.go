package resources

import (
	"regexp"
	"strings"
)

// Template compiles an RFC 6570 Level 1 URI template — the "{var}" simple
// string expansion form only (§3, §4.5.2 Non-goals exclude the fuller
// operator grammar). Grounded on the teacher's util/strings.go style of
// small, purpose-built parsers rather than pulling in a templating engine
// for a one-shot substitution.
type Template struct {
	raw     string
	pattern *regexp.Regexp
	varsIn  []string
}

var templateVarRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// CompileTemplate parses uriTemplate, turning each {name} placeholder into
// a capturing group that matches one path segment (no '/').
func CompileTemplate(uriTemplate string) *Template {
	var names []string
	quoted := regexp.QuoteMeta(uriTemplate)

	// QuoteMeta escapes the braces; undo that so templateVarRe still matches,
	// then rebuild the pattern with capture groups in place of the literals.
	quoted = strings.NewReplacer(`\{`, "{", `\}`, "}").Replace(quoted)

	pattern := templateVarRe.ReplaceAllStringFunc(quoted, func(m string) string {
		name := templateVarRe.FindStringSubmatch(m)[1]
		names = append(names, name)
		return `([^/]+)`
	})

	return &Template{
		raw:     uriTemplate,
		pattern: regexp.MustCompile("^" + pattern + "$"),
		varsIn:  names,
	}
}

// Match reports whether uri fits the template, returning the extracted
// variable bindings on success.
func (t *Template) Match(uri string) (map[string]string, bool) {
	m := t.pattern.FindStringSubmatch(uri)
	if m == nil {
		return nil, false
	}
	vars := make(map[string]string, len(t.varsIn))
	for i, name := range t.varsIn {
		vars[name] = m[i+1]
	}
	return vars, true
}

// Expand substitutes vars back into the raw template, for building example
// URIs in resources/templates/list descriptions.
func (t *Template) Expand(vars map[string]string) string {
	result := t.raw
	for name, value := range vars {
		result = strings.ReplaceAll(result, "{"+name+"}", value)
	}
	return result
}
