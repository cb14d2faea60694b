package connector

import (
	"strconv"
	"strings"

	"github.com/botfluent/botfluent/pkg/models"
)

// MapResponse resolves every enabled mapping against the response document
// and returns the variable bindings to apply. A path that does not resolve
// yields nil for its variable instead of failing the call.
func MapResponse(responseData any, mappings []models.ResponseMapping) map[string]any {
	bindings := make(map[string]any)

	for _, mapping := range mappings {
		if !mapping.Enabled || mapping.VariableName == "" {
			continue
		}

		bindings[mapping.VariableName] = lookupPath(responseData, mapping.JSONPath)
	}

	return bindings
}

// lookupPath walks a dotted path (a.b.c) through maps and arrays. Numeric
// segments index into arrays. Any missing segment resolves to nil.
func lookupPath(document any, path string) any {
	if path == "" {
		return nil
	}

	current := document

	for _, segment := range strings.Split(path, ".") {
		switch value := current.(type) {
		case map[string]any:
			next, ok := value[segment]
			if !ok {
				return nil
			}

			current = next
		case []any:
			index, err := strconv.Atoi(segment)
			if err != nil || index < 0 || index >= len(value) {
				return nil
			}

			current = value[index]
		default:
			return nil
		}
	}

	return current
}
