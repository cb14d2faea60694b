package models

// Operator is the comparison applied by a conditional connection.
type Operator string

const (
	OperatorEquals           Operator = "equals"
	OperatorNotEquals        Operator = "not_equals"
	OperatorContains         Operator = "contains"
	OperatorGreaterThan      Operator = "greater_than"
	OperatorLessThan         Operator = "less_than"
	OperatorCustomExpression Operator = "custom_expression"
)

// ConditionalConnection is a guarded edge out of a condition node.
//
// Variable names the session variable to test; when empty or the literal
// "result" the guard runs against the last user input instead. For the
// custom_expression operator, Condition holds the whole expression and
// Variable is ignored.
type ConditionalConnection struct {
	ID         string   `json:"id"`
	Variable   string   `json:"variable,omitempty"`
	Operator   Operator `json:"operator"`
	Condition  string   `json:"condition"`
	NextNodeID string   `json:"nextNodeId"`
}
