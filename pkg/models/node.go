// Package models defines the core domain models for conversation-flow graphs.
package models

import (
	"encoding/json"
	"fmt"
)

// NodeType identifies the behavior of a flow node. The set is closed:
// the interpreter dispatches exhaustively over these values and treats
// anything else as a terminal diagnostic.
type NodeType string

const (
	NodeTypeStart        NodeType = "start"
	NodeTypeMessage      NodeType = "message"
	NodeTypeButtons      NodeType = "buttons"
	NodeTypeList         NodeType = "list"
	NodeTypeInput        NodeType = "input"
	NodeTypeWaitResponse NodeType = "wait_response"
	NodeTypeCondition    NodeType = "condition"
	NodeTypeVariableSet  NodeType = "variable_set"
	NodeTypeImage        NodeType = "image"
	NodeTypeFile         NodeType = "file"
	NodeTypeWebhook      NodeType = "webhook"
	NodeTypeAPIConnector NodeType = "api_connector"
	NodeTypeWhatsAppForm NodeType = "whatsapp_form"
	NodeTypeEnd          NodeType = "end"
)

// NodeTypes lists every supported node type in declaration order.
var NodeTypes = []NodeType{
	NodeTypeStart,
	NodeTypeMessage,
	NodeTypeButtons,
	NodeTypeList,
	NodeTypeInput,
	NodeTypeWaitResponse,
	NodeTypeCondition,
	NodeTypeVariableSet,
	NodeTypeImage,
	NodeTypeFile,
	NodeTypeWebhook,
	NodeTypeAPIConnector,
	NodeTypeWhatsAppForm,
	NodeTypeEnd,
}

// Known reports whether t belongs to the closed node-type set.
func (t NodeType) Known() bool {
	for _, known := range NodeTypes {
		if t == known {
			return true
		}
	}

	return false
}

// Position is canvas layout metadata. It never influences execution.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is one step of a flow: a typed payload plus outgoing references.
// Nodes reference each other by id only; the flow owns the arena.
type Node struct {
	ID         string   `json:"id"                   validate:"required"`
	Type       NodeType `json:"type"                 validate:"required"`
	Data       NodeData `json:"data,omitempty"`
	NextNodeID string   `json:"nextNodeId,omitempty"`
	Label      string   `json:"label,omitempty"`
	Position   Position `json:"position"`
	Order      int      `json:"order"` // advisory layout ordering only
}

// NodeData is the variant payload carried by a node, keyed by Node.Type.
type NodeData interface {
	nodeData()
}

// StartData is the payload of a start node. Start nodes carry no
// configuration; they exist to anchor the entry edge.
type StartData struct{}

// MessageData is the payload of a message node.
type MessageData struct {
	Text string `json:"text"`
}

// Button is one tappable option of a buttons node.
type Button struct {
	ID              string `json:"id"`
	Text            string `json:"text"`
	Value           string `json:"value"`
	StoreInVariable string `json:"storeInVariable,omitempty"`
	NextNodeID      string `json:"nextNodeId,omitempty"`
}

// ButtonsData is the payload of a buttons node.
type ButtonsData struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons"`
}

// ListItem is one row of a list node.
type ListItem struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	Value           string `json:"value"`
	StoreInVariable string `json:"storeInVariable,omitempty"`
	NextNodeID      string `json:"nextNodeId,omitempty"`
}

// ListData is the payload of a list node.
type ListData struct {
	Text       string     `json:"text"`
	ButtonText string     `json:"buttonText,omitempty"`
	Items      []ListItem `json:"items"`
}

// Response types accepted by input nodes.
const (
	ResponseTypeText   = "text"
	ResponseTypeEmail  = "email"
	ResponseTypePhone  = "phone"
	ResponseTypeNumber = "number"
)

// InputData is the payload of an input node. The session suspends on the
// prompt and validates the supplied text against ResponseType when Required.
type InputData struct {
	Text            string `json:"text"`
	ResponseType    string `json:"responseType,omitempty"`
	Required        bool   `json:"required,omitempty"`
	StoreInVariable string `json:"storeInVariable,omitempty"`
	ErrorMessage    string `json:"errorMessage,omitempty"`
}

// WaitResponseData is the payload of a wait_response node: it suspends for
// free text and stores whatever arrives, with no validation.
type WaitResponseData struct {
	Text            string `json:"text,omitempty"`
	StoreInVariable string `json:"storeInVariable,omitempty"`
}

// ConditionData is the payload of a condition node.
type ConditionData struct {
	Connections       []ConditionalConnection `json:"connections"`
	DefaultNextNodeID string                  `json:"defaultNextNodeId,omitempty"`
}

// Operations supported by variable_set nodes.
const (
	VariableOpSet       = "set"
	VariableOpIncrement = "increment"
	VariableOpDecrement = "decrement"
)

// VariableSetData is the payload of a variable_set node.
type VariableSetData struct {
	Variable  string `json:"variable"`
	Operation string `json:"operation"`
	Value     any    `json:"value,omitempty"`
}

// ImageData is the payload of an image node: an optional lead-in text
// followed by the media reference.
type ImageData struct {
	Caption string `json:"caption,omitempty"`
	URL     string `json:"url"`
}

// FileData is the payload of a file node.
type FileData struct {
	Caption  string `json:"caption,omitempty"`
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
}

// APIConnectorData is the payload of webhook and api_connector nodes.
// When the success/failure targets are empty the node falls back to its
// own NextNodeID regardless of the call outcome.
type APIConnectorData struct {
	Connector        ConnectorConfig   `json:"connector"`
	ResponseMappings []ResponseMapping `json:"responseMappings,omitempty"`
	OnSuccessNodeID  string            `json:"onSuccessNodeId,omitempty"`
	OnFailureNodeID  string            `json:"onFailureNodeId,omitempty"`
}

// WhatsAppFormData is the payload of a whatsapp_form node. FlowID and
// PreviewURL are written back after a successful create/publish so a retry
// republishes the same platform artifact.
type WhatsAppFormData struct {
	Title      string      `json:"title"`
	Categories []string    `json:"categories,omitempty"`
	Fields     []FormField `json:"fields"`
	FlowID     string      `json:"flowId,omitempty"`
	PreviewURL string      `json:"previewUrl,omitempty"`
}

// EndData is the payload of an end node.
type EndData struct {
	Text string `json:"text,omitempty"`
}

func (StartData) nodeData()        {}
func (MessageData) nodeData()      {}
func (ButtonsData) nodeData()      {}
func (ListData) nodeData()         {}
func (InputData) nodeData()        {}
func (WaitResponseData) nodeData() {}
func (ConditionData) nodeData()    {}
func (VariableSetData) nodeData()  {}
func (ImageData) nodeData()        {}
func (FileData) nodeData()         {}
func (APIConnectorData) nodeData() {}
func (WhatsAppFormData) nodeData() {}
func (EndData) nodeData()          {}

type nodeAlias struct {
	ID         string          `json:"id"`
	Type       NodeType        `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	NextNodeID string          `json:"nextNodeId,omitempty"`
	Label      string          `json:"label,omitempty"`
	Position   Position        `json:"position"`
	Order      int             `json:"order"`
}

// UnmarshalJSON decodes the data payload into the concrete variant selected
// by the type discriminant. An unknown type leaves Data nil so the validator
// and interpreter can report it instead of failing the whole document.
func (n *Node) UnmarshalJSON(raw []byte) error {
	var alias nodeAlias

	err := json.Unmarshal(raw, &alias)
	if err != nil {
		return fmt.Errorf("failed to decode node: %w", err)
	}

	n.ID = alias.ID
	n.Type = alias.Type
	n.NextNodeID = alias.NextNodeID
	n.Label = alias.Label
	n.Position = alias.Position
	n.Order = alias.Order
	n.Data = nil

	data := emptyDataFor(alias.Type)
	if data == nil {
		return nil
	}

	if len(alias.Data) > 0 {
		err = json.Unmarshal(alias.Data, data)
		if err != nil {
			return fmt.Errorf("failed to decode %s node data: %w", alias.Type, err)
		}
	}

	n.Data = deref(data)

	return nil
}

// MarshalJSON emits the persisted document shape described in the external
// interface: the payload stays keyed by the type discriminant.
func (n Node) MarshalJSON() ([]byte, error) {
	alias := nodeAlias{
		ID:         n.ID,
		Type:       n.Type,
		NextNodeID: n.NextNodeID,
		Label:      n.Label,
		Position:   n.Position,
		Order:      n.Order,
	}

	if n.Data != nil {
		data, err := json.Marshal(n.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s node data: %w", n.Type, err)
		}

		alias.Data = data
	}

	return json.Marshal(alias)
}

// emptyDataFor returns a pointer to a zero payload for the given type, or
// nil for types outside the closed set.
func emptyDataFor(t NodeType) any {
	switch t {
	case NodeTypeStart:
		return &StartData{}
	case NodeTypeMessage:
		return &MessageData{}
	case NodeTypeButtons:
		return &ButtonsData{}
	case NodeTypeList:
		return &ListData{}
	case NodeTypeInput:
		return &InputData{}
	case NodeTypeWaitResponse:
		return &WaitResponseData{}
	case NodeTypeCondition:
		return &ConditionData{}
	case NodeTypeVariableSet:
		return &VariableSetData{}
	case NodeTypeImage:
		return &ImageData{}
	case NodeTypeFile:
		return &FileData{}
	case NodeTypeWebhook, NodeTypeAPIConnector:
		return &APIConnectorData{}
	case NodeTypeWhatsAppForm:
		return &WhatsAppFormData{}
	case NodeTypeEnd:
		return &EndData{}
	default:
		return nil
	}
}

func deref(data any) NodeData {
	switch v := data.(type) {
	case *StartData:
		return *v
	case *MessageData:
		return *v
	case *ButtonsData:
		return *v
	case *ListData:
		return *v
	case *InputData:
		return *v
	case *WaitResponseData:
		return *v
	case *ConditionData:
		return *v
	case *VariableSetData:
		return *v
	case *ImageData:
		return *v
	case *FileData:
		return *v
	case *APIConnectorData:
		return *v
	case *WhatsAppFormData:
		return *v
	case *EndData:
		return *v
	default:
		return nil
	}
}
