package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeUnmarshalDecodesVariantByType(t *testing.T) {
	raw := []byte(`{
		"id": "node-1",
		"type": "buttons",
		"data": {
			"text": "Pick one",
			"buttons": [
				{"id": "b1", "text": "Yes", "value": "yes", "nextNodeId": "node-2"},
				{"id": "b2", "text": "No", "value": "no"}
			]
		},
		"nextNodeId": "node-3",
		"position": {"x": 10, "y": 20},
		"order": 1
	}`)

	var node Node

	require.NoError(t, json.Unmarshal(raw, &node))
	assert.Equal(t, NodeTypeButtons, node.Type)
	assert.Equal(t, "node-3", node.NextNodeID)

	data, ok := node.Data.(ButtonsData)
	require.True(t, ok)
	require.Len(t, data.Buttons, 2)
	assert.Equal(t, "Pick one", data.Text)
	assert.Equal(t, "node-2", data.Buttons[0].NextNodeID)
}

func TestNodeUnmarshalUnknownTypeKeepsNilData(t *testing.T) {
	raw := []byte(`{"id": "node-1", "type": "teleport", "data": {"x": 1}}`)

	var node Node

	require.NoError(t, json.Unmarshal(raw, &node))
	assert.Nil(t, node.Data)
	assert.False(t, node.Type.Known())
}

func TestNodeMarshalRoundTrip(t *testing.T) {
	node := Node{
		ID:   "node-1",
		Type: NodeTypeInput,
		Data: InputData{
			Text:            "Your email?",
			ResponseType:    ResponseTypeEmail,
			Required:        true,
			StoreInVariable: "email",
		},
		NextNodeID: "node-2",
	}

	raw, err := json.Marshal(node)
	require.NoError(t, err)

	var decoded Node

	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, node.ID, decoded.ID)
	assert.Equal(t, node.Data, decoded.Data)
}

func TestNewFlowHasSingleStartNode(t *testing.T) {
	flow := NewFlow("partner-1", "Welcome", "fr")

	require.Len(t, flow.Nodes, 1)
	assert.Equal(t, NodeTypeStart, flow.Nodes[0].Type)
	assert.NotEmpty(t, flow.ID)
	assert.Empty(t, flow.Variables)
}

func TestRemoveNodeClearsDanglingReferences(t *testing.T) {
	flow := NewFlow("partner-1", "Welcome", "fr")
	start := flow.StartNode()

	target := flow.AddNode(&Node{Type: NodeTypeMessage, Data: MessageData{Text: "bye"}})
	buttons := flow.AddNode(&Node{
		Type: NodeTypeButtons,
		Data: ButtonsData{
			Text:    "choose",
			Buttons: []Button{{ID: "b1", Text: "Go", Value: "go", NextNodeID: target.ID}},
		},
		NextNodeID: target.ID,
	})
	flow.Connect(start.ID, target.ID)

	require.True(t, flow.RemoveNode(target.ID))

	assert.Empty(t, start.NextNodeID)
	assert.Empty(t, buttons.NextNodeID)

	data, ok := buttons.Data.(ButtonsData)
	require.True(t, ok)
	assert.Empty(t, data.Buttons[0].NextNodeID)
}

func TestDuplicateNodeClearsTargetsAndKeepsPayload(t *testing.T) {
	flow := NewFlow("partner-1", "Welcome", "fr")
	original := flow.AddNode(&Node{
		Type: NodeTypeCondition,
		Data: ConditionData{
			Connections: []ConditionalConnection{
				{ID: "c1", Operator: OperatorEquals, Variable: "age", Condition: "18", NextNodeID: "somewhere"},
			},
			DefaultNextNodeID: "elsewhere",
		},
		NextNodeID: "somewhere",
	})

	copied := flow.DuplicateNode(original.ID)
	require.NotNil(t, copied)
	assert.NotEqual(t, original.ID, copied.ID)
	assert.Empty(t, copied.NextNodeID)

	data, ok := copied.Data.(ConditionData)
	require.True(t, ok)
	assert.Empty(t, data.DefaultNextNodeID)
	assert.Empty(t, data.Connections[0].NextNodeID)
	assert.Equal(t, "18", data.Connections[0].Condition)

	// The source node keeps its wiring.
	originalData := original.Data.(ConditionData)
	assert.Equal(t, "somewhere", originalData.Connections[0].NextNodeID)
}

func TestDuplicateStartNodeRefused(t *testing.T) {
	flow := NewFlow("partner-1", "Welcome", "fr")

	assert.Nil(t, flow.DuplicateNode(flow.StartNode().ID))
}

func TestAddVariableReplacesExistingName(t *testing.T) {
	flow := NewFlow("partner-1", "Welcome", "fr")

	flow.AddVariable(Variable{Name: "name", Value: "Ada", Type: VariableTypeString})
	flow.AddVariable(Variable{Name: "name", Value: "Grace", Type: VariableTypeString})

	require.Len(t, flow.Variables, 1)
	assert.Equal(t, "Grace", flow.Variables[0].Value)
}

func TestRemoveVariableKeepsSystemVariables(t *testing.T) {
	flow := NewFlow("partner-1", "Welcome", "fr")
	flow.AddVariable(Variable{Name: "last_choice", Type: VariableTypeString, IsSystem: true})

	assert.False(t, flow.RemoveVariable("last_choice"))
	assert.NotNil(t, flow.VariableByName("last_choice"))
}
