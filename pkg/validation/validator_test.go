package validation

import (
	"testing"

	"github.com/botfluent/botfluent/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validFlow() *models.Flow {
	flow := models.NewFlow("partner-1", "Support", "fr")
	start := flow.StartNode()

	message := flow.AddNode(&models.Node{
		Type: models.NodeTypeMessage,
		Data: models.MessageData{Text: "Bonjour {name}"},
	})
	end := flow.AddNode(&models.Node{
		Type: models.NodeTypeEnd,
		Data: models.EndData{Text: "Au revoir"},
	})

	flow.Connect(start.ID, message.ID)
	flow.Connect(message.ID, end.ID)

	return flow
}

func TestValidateAcceptsWellFormedFlow(t *testing.T) {
	result := Validate(validFlow())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestValidateRejectsMissingStartNode(t *testing.T) {
	flow := validFlow()
	flow.RemoveNode(flow.StartNode().ID)

	result := Validate(flow)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "flow has no start node")
}

func TestValidateRejectsMultipleStartNodes(t *testing.T) {
	flow := validFlow()
	flow.AddNode(&models.Node{Type: models.NodeTypeStart, Data: models.StartData{}})

	result := Validate(flow)

	assert.False(t, result.IsValid)
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "start nodes")
}

func TestValidateRejectsDuplicateNodeID(t *testing.T) {
	flow := validFlow()
	flow.Nodes = append(flow.Nodes, &models.Node{
		ID:   flow.Nodes[0].ID,
		Type: models.NodeTypeMessage,
		Data: models.MessageData{Text: "dup"},
	})

	result := Validate(flow)

	assert.False(t, result.IsValid)
}

func TestValidateSingleDanglingReferenceFlipsToInvalid(t *testing.T) {
	flow := validFlow()
	require.True(t, Validate(flow).IsValid)

	// Any single dangling target must make the whole graph invalid.
	flow.NodeByID(flow.StartNode().ID).NextNodeID = "ghost"

	result := Validate(flow)

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `missing node "ghost"`)
}

func TestValidateSweepsAllReferenceKinds(t *testing.T) {
	flow := validFlow()
	flow.AddNode(&models.Node{
		Type: models.NodeTypeButtons,
		Data: models.ButtonsData{
			Text:    "choose",
			Buttons: []models.Button{{ID: "b1", Text: "Go", Value: "go", NextNodeID: "ghost-1"}},
		},
	})
	flow.AddNode(&models.Node{
		Type: models.NodeTypeCondition,
		Data: models.ConditionData{
			Connections: []models.ConditionalConnection{
				{ID: "c1", Operator: models.OperatorEquals, Condition: "x", NextNodeID: "ghost-2"},
			},
			DefaultNextNodeID: "ghost-3",
		},
	})
	flow.AddNode(&models.Node{
		Type: models.NodeTypeAPIConnector,
		Data: models.APIConnectorData{
			Connector:       models.ConnectorConfig{Method: "GET", URL: "https://example.test"},
			OnSuccessNodeID: "ghost-4",
		},
	})

	result := Validate(flow)

	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, 4)
}

func TestValidateEmptyChoiceNodesAreWarnings(t *testing.T) {
	flow := validFlow()
	flow.AddNode(&models.Node{
		Type: models.NodeTypeButtons,
		Data: models.ButtonsData{Text: "choose"},
	})
	flow.AddNode(&models.Node{
		Type: models.NodeTypeList,
		Data: models.ListData{Text: "pick"},
	})

	result := Validate(flow)

	// Structurally valid but non-functional: warnings, not errors.
	assert.True(t, result.IsValid)
	assert.Len(t, result.Warnings, 2)
}

func TestValidateFormNode(t *testing.T) {
	flow := validFlow()
	flow.AddNode(&models.Node{
		Type: models.NodeTypeWhatsAppForm,
		Data: models.WhatsAppFormData{
			Title: "Lead",
			Fields: []models.FormField{
				{ID: "f1", Type: models.FormFieldTypeDropdown, Name: "city", Label: "Ville", Enabled: true},
			},
		},
	})

	result := Validate(flow)

	assert.False(t, result.IsValid)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "at least one option")
}

func TestValidateUnsupportedNodeType(t *testing.T) {
	flow := validFlow()
	flow.Nodes = append(flow.Nodes, &models.Node{ID: "weird", Type: models.NodeType("teleport")})

	result := Validate(flow)

	assert.False(t, result.IsValid)
}

func TestValidateDocumentSchema(t *testing.T) {
	valid := []byte(`{
		"flowId": "f1",
		"name": "Support",
		"nodes": [
			{"id": "n1", "type": "start"},
			{"id": "n2", "type": "message", "data": {"text": "hi"}}
		],
		"variables": [{"name": "name", "type": "string", "value": "Ada"}]
	}`)
	require.NoError(t, ValidateDocument(valid))

	unknownType := []byte(`{"name": "Support", "nodes": [{"id": "n1", "type": "teleport"}]}`)
	err := ValidateDocument(unknownType)
	require.ErrorIs(t, err, ErrInvalidDocument)

	missingName := []byte(`{"nodes": []}`)
	require.ErrorIs(t, ValidateDocument(missingName), ErrInvalidDocument)
}
