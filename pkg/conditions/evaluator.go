// Package conditions evaluates the guards of condition nodes against the
// session store and the last user input.
package conditions

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/variables"
)

// resultTarget is the pseudo-variable name addressing the last user input.
const resultTarget = "result"

// Evaluator decides which guarded edge of a condition node to follow.
type Evaluator struct {
	logger *slog.Logger
}

// NewEvaluator creates an evaluator. A nil logger falls back to the default.
func NewEvaluator(logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}

	return &Evaluator{logger: logger.With("module", "conditions")}
}

// Evaluate reports whether one conditional connection matches. A malformed
// custom expression is a configuration error: it evaluates to false and is
// logged, never raised.
func (e *Evaluator) Evaluate(conn models.ConditionalConnection, store *variables.Store, lastInput string) bool {
	if conn.Operator == models.OperatorCustomExpression {
		expression, err := ParseExpression(conn.Condition)
		if err != nil {
			e.logger.Warn("ignoring malformed condition expression",
				"connection_id", conn.ID,
				"expression", conn.Condition,
				"error", err)

			return false
		}

		return expression.Eval(lastInput)
	}

	actual := e.targetValue(conn, store, lastInput)
	expected := strings.TrimSpace(conn.Condition)

	switch conn.Operator {
	case models.OperatorEquals:
		return strings.EqualFold(strings.TrimSpace(actual), expected)
	case models.OperatorNotEquals:
		return !strings.EqualFold(strings.TrimSpace(actual), expected)
	case models.OperatorContains:
		return strings.Contains(strings.ToLower(actual), strings.ToLower(expected))
	case models.OperatorGreaterThan:
		left, right, ok := parseNumbers(actual, expected)

		return ok && left > right
	case models.OperatorLessThan:
		left, right, ok := parseNumbers(actual, expected)

		return ok && left < right
	default:
		e.logger.Warn("unknown condition operator",
			"connection_id", conn.ID,
			"operator", string(conn.Operator))

		return false
	}
}

// SelectBranch evaluates connections in list order and returns the target
// of the first match. When none match it falls back to defaultNextNodeID;
// an empty return means the session must terminate with "no condition
// matched".
func (e *Evaluator) SelectBranch(
	connections []models.ConditionalConnection,
	defaultNextNodeID string,
	store *variables.Store,
	lastInput string,
) string {
	for _, conn := range connections {
		if e.Evaluate(conn, store, lastInput) {
			return conn.NextNodeID
		}
	}

	return defaultNextNodeID
}

func (e *Evaluator) targetValue(conn models.ConditionalConnection, store *variables.Store, lastInput string) string {
	if conn.Variable == "" || conn.Variable == resultTarget {
		return lastInput
	}

	value, ok := store.Get(conn.Variable)
	if !ok {
		return ""
	}

	return variables.Stringify(value)
}

func parseNumbers(left, right string) (float64, float64, bool) {
	l, err := strconv.ParseFloat(strings.TrimSpace(left), 64)
	if err != nil {
		return 0, 0, false
	}

	r, err := strconv.ParseFloat(strings.TrimSpace(right), 64)
	if err != nil {
		return 0, 0, false
	}

	return l, r, true
}
