// Package variables holds the named bindings of one conversation session
// and performs template substitution over them.
package variables

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/botfluent/botfluent/pkg/models"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Store maps variable names to their current values for one session.
// A store is owned by exactly one session and is not safe for concurrent
// use; concurrent sessions each get their own instance.
type Store struct {
	values map[string]any
}

// New seeds a store from flow variable declarations.
func New(seed []models.Variable) *Store {
	values := make(map[string]any, len(seed))
	for _, variable := range seed {
		values[variable.Name] = variable.Value
	}

	return &Store{values: values}
}

// FromSnapshot rebuilds a store from a previously captured snapshot.
func FromSnapshot(snapshot map[string]any) *Store {
	values := make(map[string]any, len(snapshot))
	for name, value := range snapshot {
		values[name] = value
	}

	return &Store{values: values}
}

// Get returns the current value of a variable and whether it is bound.
func (s *Store) Get(name string) (any, bool) {
	value, ok := s.values[name]

	return value, ok
}

// Set binds a value to a name, creating the binding when missing.
func (s *Store) Set(name string, value any) {
	s.values[name] = value
}

// Increment adds 1 to a numeric variable. A missing or non-numeric value
// is treated as 0 before applying.
func (s *Store) Increment(name string) {
	s.values[name] = s.numeric(name) + 1
}

// Decrement subtracts 1 from a numeric variable, with the same coercion
// as Increment.
func (s *Store) Decrement(name string) {
	s.values[name] = s.numeric(name) - 1
}

// Render replaces every {name} occurrence with the stringified value of
// name. Unresolved names render as an empty string. Substitution is a
// single pass: substituted text is never re-expanded. Render never fails.
func (s *Store) Render(template string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]

		value, ok := s.values[name]
		if !ok {
			return ""
		}

		return Stringify(value)
	})
}

// Snapshot copies the current bindings, for persistence and assertions.
func (s *Store) Snapshot() map[string]any {
	snapshot := make(map[string]any, len(s.values))
	for name, value := range s.values {
		snapshot[name] = value
	}

	return snapshot
}

func (s *Store) numeric(name string) float64 {
	value, ok := s.values[name]
	if !ok {
		return 0
	}

	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}

		return parsed
	default:
		return 0
	}
}

// Stringify renders a variable value the way it appears in messages:
// numbers without a trailing ".0", arrays joined with ", ", nil as empty.
func Stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, Stringify(item))
		}

		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(v, ", ")
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(encoded)
	}
}
