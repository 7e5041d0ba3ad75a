package template

import (
	"regexp"
	"sort"
)

// Engine expands {{ name }} context variables in command steps.
type Engine struct {
	// Pattern to match template variables like {{ variableName }} or {{ db-host }}
	templatePattern *regexp.Regexp
}

// New creates a new template engine
func New() *Engine {
	return &Engine{
		templatePattern: regexp.MustCompile(`\{\{\s*\.?([^{}\s]+)\s*\}\}`),
	}
}

// Expand replaces every token whose name is present in context. Tokens with
// no matching entry are kept verbatim, since a step may also rely on variables
// the execution backend resolves. The string is scanned once, left to right,
// so replacement values are never expanded again.
func (e *Engine) Expand(step string, context map[string]string) string {
	if len(context) == 0 {
		return step
	}
	return e.templatePattern.ReplaceAllStringFunc(step, func(token string) string {
		match := e.templatePattern.FindStringSubmatch(token)
		if len(match) < 2 {
			return token
		}
		if value, ok := context[match[1]]; ok {
			return value
		}
		return token
	})
}

// ExpandAll expands each step and returns a new slice.
func (e *Engine) ExpandAll(steps []string, context map[string]string) []string {
	out := make([]string, len(steps))
	for i, step := range steps {
		out[i] = e.Expand(step, context)
	}
	return out
}

// Variables returns the sorted, de-duplicated variable names referenced by the steps.
func (e *Engine) Variables(steps ...string) []string {
	seen := make(map[string]bool)
	for _, step := range steps {
		for _, match := range e.templatePattern.FindAllStringSubmatch(step, -1) {
			if len(match) >= 2 {
				seen[match[1]] = true
			}
		}
	}

	result := make([]string, 0, len(seen))
	for name := range seen {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Missing returns the referenced variables that context does not define.
func (e *Engine) Missing(steps []string, context map[string]string) []string {
	var missing []string
	for _, name := range e.Variables(steps...) {
		if _, ok := context[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
