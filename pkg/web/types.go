package web

import "github.com/botfluent/botfluent/pkg/models"

// SessionInputRequest carries one user event for a suspended session.
// Exactly one of optionId or text must be set.
type SessionInputRequest struct {
	OptionID string `json:"optionId,omitempty"`
	Text     string `json:"text,omitempty"`
}

// ConnectorTestRequest runs a connector configuration against sample
// variables without touching any session.
type ConnectorTestRequest struct {
	Connector       models.ConnectorConfig `json:"connector"                 validate:"required"`
	SampleVariables map[string]any         `json:"sampleVariables,omitempty"`
}

// PublishFormRequest publishes the form of one whatsapp_form node.
type PublishFormRequest struct {
	NodeID string `json:"nodeId" validate:"required"`
}
