package models

// VariableType constrains the value a flow variable may carry.
type VariableType string

const (
	VariableTypeString  VariableType = "string"
	VariableTypeNumber  VariableType = "number"
	VariableTypeBoolean VariableType = "boolean"
	VariableTypeArray   VariableType = "array"
)

// Variable is a named, typed binding declared on a flow. Declarations seed
// the per-session store; system variables are maintained by the engine and
// cannot be removed through the builder.
type Variable struct {
	Name        string       `json:"name"        validate:"required"`
	Value       any          `json:"value"`
	Type        VariableType `json:"type"        validate:"required,oneof=string number boolean array"`
	IsSystem    bool         `json:"isSystem"`
	Description string       `json:"description,omitempty"`
}
