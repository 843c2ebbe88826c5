package services

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

// RenderTemplate replaces {{key}} placeholders with values from variables.
// Dotted keys walk nested maps ({{subscriber.firstName}}). Unknown keys are
// left in place.
func RenderTemplate(template string, variables map[string]interface{}) string {
	if template == "" || len(variables) == 0 {
		return template
	}

	return placeholderRegex.ReplaceAllStringFunc(template, func(match string) string {
		submatch := placeholderRegex.FindStringSubmatch(match)
		if len(submatch) != 2 {
			return match
		}
		if value, ok := lookup(variables, submatch[1]); ok {
			return fmt.Sprint(value)
		}
		return match
	})
}

func lookup(variables map[string]interface{}, path string) (interface{}, bool) {
	if value, ok := variables[path]; ok {
		return value, true
	}
	head, rest, found := strings.Cut(path, ".")
	if !found {
		return nil, false
	}
	nested, ok := variables[head].(map[string]interface{})
	if !ok {
		return nil, false
	}
	return lookup(nested, rest)
}
