package conditions

import (
	"testing"

	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/variables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storeWith(t *testing.T, values map[string]any) *variables.Store {
	t.Helper()

	store := variables.New(nil)
	for name, value := range values {
		store.Set(name, value)
	}

	return store
}

func TestEvaluateStructuredOperators(t *testing.T) {
	evaluator := NewEvaluator(nil)
	store := storeWith(t, map[string]any{"plan": "Premium", "age": float64(21)})

	tests := []struct {
		name string
		conn models.ConditionalConnection
		last string
		want bool
	}{
		{
			name: "equals ignores case",
			conn: models.ConditionalConnection{Variable: "plan", Operator: models.OperatorEquals, Condition: "premium"},
			want: true,
		},
		{
			name: "not_equals",
			conn: models.ConditionalConnection{Variable: "plan", Operator: models.OperatorNotEquals, Condition: "free"},
			want: true,
		},
		{
			name: "contains",
			conn: models.ConditionalConnection{Variable: "plan", Operator: models.OperatorContains, Condition: "REM"},
			want: true,
		},
		{
			name: "greater_than numeric",
			conn: models.ConditionalConnection{Variable: "age", Operator: models.OperatorGreaterThan, Condition: "18"},
			want: true,
		},
		{
			name: "less_than fails",
			conn: models.ConditionalConnection{Variable: "age", Operator: models.OperatorLessThan, Condition: "18"},
			want: false,
		},
		{
			name: "greater_than non numeric is false",
			conn: models.ConditionalConnection{Variable: "plan", Operator: models.OperatorGreaterThan, Condition: "18"},
			want: false,
		},
		{
			name: "empty variable targets last input",
			conn: models.ConditionalConnection{Operator: models.OperatorEquals, Condition: "yes"},
			last: "yes",
			want: true,
		},
		{
			name: "result variable targets last input",
			conn: models.ConditionalConnection{Variable: "result", Operator: models.OperatorContains, Condition: "help"},
			last: "I need HELP now",
			want: true,
		},
		{
			name: "unbound variable compares as empty",
			conn: models.ConditionalConnection{Variable: "missing", Operator: models.OperatorEquals, Condition: ""},
			want: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, evaluator.Evaluate(tc.conn, store, tc.last))
		})
	}
}

func TestEvaluateCustomExpression(t *testing.T) {
	evaluator := NewEvaluator(nil)
	store := variables.New(nil)

	custom := func(expr string) models.ConditionalConnection {
		return models.ConditionalConnection{Operator: models.OperatorCustomExpression, Condition: expr}
	}

	assert.True(t, evaluator.Evaluate(custom("result contains 'hello'"), store, "well HELLO there"))
	assert.False(t, evaluator.Evaluate(custom("result contains 'bye'"), store, "hello"))
	assert.True(t, evaluator.Evaluate(custom("result is number"), store, " 42.5 "))
	assert.False(t, evaluator.Evaluate(custom("result is number"), store, "forty-two"))
	assert.True(t, evaluator.Evaluate(custom("result is text"), store, "forty-two"))
	assert.False(t, evaluator.Evaluate(custom("result is text"), store, "42"))
	assert.True(t, evaluator.Evaluate(custom("result is file"), store, "photo.JPG"))
	assert.False(t, evaluator.Evaluate(custom("result is file"), store, "photo"))
}

func TestCustomExpressionComposition(t *testing.T) {
	evaluator := NewEvaluator(nil)
	store := variables.New(nil)

	conn := models.ConditionalConnection{
		Operator:  models.OperatorCustomExpression,
		Condition: "result contains 'invoice' and result is text or result is file",
	}

	// "and" binds tighter than "or": (contains 'invoice' AND is text) OR is file.
	assert.True(t, evaluator.Evaluate(conn, store, "my invoice please"))
	assert.True(t, evaluator.Evaluate(conn, store, "scan.pdf"))
	assert.False(t, evaluator.Evaluate(conn, store, "something else"))
}

func TestCustomExpressionMalformedEvaluatesFalse(t *testing.T) {
	evaluator := NewEvaluator(nil)
	store := variables.New(nil)

	for _, expr := range []string{
		"",
		"result",
		"result likes 'cats'",
		"result is banana",
		"result contains 'unterminated",
		"contains 'x'",
		"result contains 'a' not result is text",
	} {
		conn := models.ConditionalConnection{Operator: models.OperatorCustomExpression, Condition: expr}
		assert.False(t, evaluator.Evaluate(conn, store, "anything"), "expression %q", expr)
	}
}

func TestParseExpressionErrors(t *testing.T) {
	_, err := ParseExpression("result contains 'a' or")
	require.ErrorIs(t, err, ErrBadExpression)

	_, err = ParseExpression("result is")
	require.ErrorIs(t, err, ErrBadExpression)
}

func TestSelectBranchFirstMatchWins(t *testing.T) {
	evaluator := NewEvaluator(nil)
	store := variables.New(nil)

	connections := []models.ConditionalConnection{
		{ID: "c1", Operator: models.OperatorContains, Condition: "yes", NextNodeID: "node-a"},
		{ID: "c2", Operator: models.OperatorEquals, Condition: "yes", NextNodeID: "node-b"},
	}

	// Both guards match "yes"; list order breaks the tie.
	assert.Equal(t, "node-a", evaluator.SelectBranch(connections, "node-default", store, "yes"))
}

func TestSelectBranchFallsBackToDefault(t *testing.T) {
	evaluator := NewEvaluator(nil)
	store := variables.New(nil)

	connections := []models.ConditionalConnection{
		{ID: "c1", Operator: models.OperatorEquals, Condition: "yes", NextNodeID: "node-a"},
	}

	assert.Equal(t, "node-default", evaluator.SelectBranch(connections, "node-default", store, "no"))
	assert.Empty(t, evaluator.SelectBranch(connections, "", store, "no"))
}
