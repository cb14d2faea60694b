package models

import (
	"time"

	"github.com/google/uuid"
)

// Flow is the full declarative definition of one automated conversation.
// Nodes form a flat arena keyed by id; every nextNodeId-style field is an
// index into that arena, never an owning pointer.
type Flow struct {
	ID        string     `json:"flowId"`
	PartnerID string     `json:"partnerId"`
	Name      string     `json:"name"      validate:"required,min=1"`
	Active    bool       `json:"active"`
	Language  string     `json:"language,omitempty"`
	Nodes     []*Node    `json:"nodes"`
	Variables []Variable `json:"variables"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewFlow creates a flow containing a single start node and no variables.
func NewFlow(partnerID, name, language string) *Flow {
	return &Flow{
		ID:        uuid.New().String(),
		PartnerID: partnerID,
		Name:      name,
		Language:  language,
		Nodes: []*Node{
			{
				ID:   uuid.New().String(),
				Type: NodeTypeStart,
				Data: StartData{},
			},
		},
		Variables: []Variable{},
		UpdatedAt: time.Now().UTC(),
	}
}

// NodeByID returns the node with the given id, or nil.
func (f *Flow) NodeByID(id string) *Node {
	for _, node := range f.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// StartNode returns the first node of type start, or nil. Cardinality is
// the validator's concern, not this accessor's.
func (f *Flow) StartNode() *Node {
	for _, node := range f.Nodes {
		if node.Type == NodeTypeStart {
			return node
		}
	}

	return nil
}

// VariableByName returns the declared variable with the given name, or nil.
func (f *Flow) VariableByName(name string) *Variable {
	for i := range f.Variables {
		if f.Variables[i].Name == name {
			return &f.Variables[i]
		}
	}

	return nil
}

// AddNode appends a node to the arena. The node id is generated when empty.
// Validation is deferred to explicit save/test calls.
func (f *Flow) AddNode(node *Node) *Node {
	if node.ID == "" {
		node.ID = uuid.New().String()
	}

	f.Nodes = append(f.Nodes, node)
	f.touch()

	return node
}

// RemoveNode deletes a node and clears every reference pointing at it.
func (f *Flow) RemoveNode(id string) bool {
	index := -1

	for i, node := range f.Nodes {
		if node.ID == id {
			index = i

			break
		}
	}

	if index < 0 {
		return false
	}

	f.Nodes = append(f.Nodes[:index], f.Nodes[index+1:]...)

	for _, node := range f.Nodes {
		clearReferences(node, id)
	}

	f.touch()

	return true
}

// DuplicateNode copies a node under a new id with its outgoing references
// cleared and the copy offset on the canvas. Start nodes are not duplicated.
func (f *Flow) DuplicateNode(id string) *Node {
	source := f.NodeByID(id)
	if source == nil || source.Type == NodeTypeStart {
		return nil
	}

	copied := *source
	copied.ID = uuid.New().String()
	copied.NextNodeID = ""
	copied.Position.X += 40
	copied.Position.Y += 40
	copied.Data = withoutTargets(source.Data)

	f.Nodes = append(f.Nodes, &copied)
	f.touch()

	return &copied
}

// Connect sets the default outgoing edge of a node.
func (f *Flow) Connect(fromID, toID string) bool {
	node := f.NodeByID(fromID)
	if node == nil {
		return false
	}

	node.NextNodeID = toID
	f.touch()

	return true
}

// Disconnect clears the default outgoing edge of a node.
func (f *Flow) Disconnect(fromID string) bool {
	node := f.NodeByID(fromID)
	if node == nil {
		return false
	}

	node.NextNodeID = ""
	f.touch()

	return true
}

// AddVariable declares a variable. An existing declaration with the same
// name is replaced; uniqueness is then structural.
func (f *Flow) AddVariable(variable Variable) {
	for i := range f.Variables {
		if f.Variables[i].Name == variable.Name {
			f.Variables[i] = variable
			f.touch()

			return
		}
	}

	f.Variables = append(f.Variables, variable)
	f.touch()
}

// RemoveVariable deletes a declaration. System variables are kept.
func (f *Flow) RemoveVariable(name string) bool {
	for i := range f.Variables {
		if f.Variables[i].Name == name {
			if f.Variables[i].IsSystem {
				return false
			}

			f.Variables = append(f.Variables[:i], f.Variables[i+1:]...)
			f.touch()

			return true
		}
	}

	return false
}

func (f *Flow) touch() {
	f.UpdatedAt = time.Now().UTC()
}

// clearReferences empties every reference of node that targets removedID.
func clearReferences(node *Node, removedID string) {
	if node.NextNodeID == removedID {
		node.NextNodeID = ""
	}

	switch data := node.Data.(type) {
	case ButtonsData:
		for i := range data.Buttons {
			if data.Buttons[i].NextNodeID == removedID {
				data.Buttons[i].NextNodeID = ""
			}
		}

		node.Data = data
	case ListData:
		for i := range data.Items {
			if data.Items[i].NextNodeID == removedID {
				data.Items[i].NextNodeID = ""
			}
		}

		node.Data = data
	case ConditionData:
		for i := range data.Connections {
			if data.Connections[i].NextNodeID == removedID {
				data.Connections[i].NextNodeID = ""
			}
		}

		if data.DefaultNextNodeID == removedID {
			data.DefaultNextNodeID = ""
		}

		node.Data = data
	case APIConnectorData:
		if data.OnSuccessNodeID == removedID {
			data.OnSuccessNodeID = ""
		}

		if data.OnFailureNodeID == removedID {
			data.OnFailureNodeID = ""
		}

		node.Data = data
	}
}

// withoutTargets deep-copies a payload with its branch targets cleared so a
// duplicated node starts unwired.
func withoutTargets(data NodeData) NodeData {
	switch d := data.(type) {
	case ButtonsData:
		buttons := make([]Button, len(d.Buttons))
		copy(buttons, d.Buttons)

		for i := range buttons {
			buttons[i].NextNodeID = ""
		}

		d.Buttons = buttons

		return d
	case ListData:
		items := make([]ListItem, len(d.Items))
		copy(items, d.Items)

		for i := range items {
			items[i].NextNodeID = ""
		}

		d.Items = items

		return d
	case ConditionData:
		connections := make([]ConditionalConnection, len(d.Connections))
		copy(connections, d.Connections)

		for i := range connections {
			connections[i].NextNodeID = ""
		}

		d.Connections = connections
		d.DefaultNextNodeID = ""

		return d
	case APIConnectorData:
		d.OnSuccessNodeID = ""
		d.OnFailureNodeID = ""

		return d
	default:
		return data
	}
}
