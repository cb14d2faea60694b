// Package validation performs structural checks over flow graphs before
// they are saved or test-run.
package validation

import (
	"fmt"

	"github.com/botfluent/botfluent/pkg/models"
)

// Result is the outcome of a graph validation pass. Errors make the graph
// unusable; warnings flag structurally valid but non-functional spots.
type Result struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate runs every structural check over the flow. It is a pure
// function: the graph is never mutated and nothing is raised mid-check.
func Validate(flow *models.Flow) Result {
	result := Result{Errors: []string{}, Warnings: []string{}}

	checkStartCardinality(flow, &result)
	checkUniqueness(flow, &result)
	checkReferences(flow, &result)
	checkCompleteness(flow, &result)

	result.IsValid = len(result.Errors) == 0

	return result
}

func checkStartCardinality(flow *models.Flow, result *Result) {
	count := 0

	for _, node := range flow.Nodes {
		if node.Type == models.NodeTypeStart {
			count++
		}
	}

	switch {
	case count == 0:
		result.addError("flow has no start node")
	case count > 1:
		result.addError("flow has %d start nodes, expected exactly one", count)
	}
}

func checkUniqueness(flow *models.Flow, result *Result) {
	nodeIDs := make(map[string]bool, len(flow.Nodes))

	for _, node := range flow.Nodes {
		if node.ID == "" {
			result.addError("node of type %q has an empty id", node.Type)

			continue
		}

		if nodeIDs[node.ID] {
			result.addError("duplicate node id %q", node.ID)
		}

		nodeIDs[node.ID] = true
	}

	variableNames := make(map[string]bool, len(flow.Variables))

	for _, variable := range flow.Variables {
		if variableNames[variable.Name] {
			result.addError("duplicate variable name %q", variable.Name)
		}

		variableNames[variable.Name] = true
	}
}

// checkReferences sweeps every populated target of every node and verifies
// it resolves to an existing node id. Empty targets are fine.
func checkReferences(flow *models.Flow, result *Result) {
	exists := make(map[string]bool, len(flow.Nodes))
	for _, node := range flow.Nodes {
		exists[node.ID] = true
	}

	check := func(nodeID, field, target string) {
		if target != "" && !exists[target] {
			result.addError("node %q: %s references missing node %q", nodeID, field, target)
		}
	}

	for _, node := range flow.Nodes {
		check(node.ID, "nextNodeId", node.NextNodeID)

		switch data := node.Data.(type) {
		case models.ButtonsData:
			for _, button := range data.Buttons {
				check(node.ID, fmt.Sprintf("button %q target", button.ID), button.NextNodeID)
			}
		case models.ListData:
			for _, item := range data.Items {
				check(node.ID, fmt.Sprintf("list item %q target", item.ID), item.NextNodeID)
			}
		case models.ConditionData:
			for _, conn := range data.Connections {
				check(node.ID, fmt.Sprintf("condition %q target", conn.ID), conn.NextNodeID)
			}

			check(node.ID, "default target", data.DefaultNextNodeID)
		case models.APIConnectorData:
			check(node.ID, "success target", data.OnSuccessNodeID)
			check(node.ID, "failure target", data.OnFailureNodeID)
		}
	}
}

// checkCompleteness applies the per-type field requirements.
func checkCompleteness(flow *models.Flow, result *Result) {
	for _, node := range flow.Nodes {
		if !node.Type.Known() {
			result.addError("node %q has unsupported type %q", node.ID, node.Type)

			continue
		}

		switch data := node.Data.(type) {
		case models.MessageData:
			if data.Text == "" {
				result.addError("message node %q has no text", node.ID)
			}
		case models.ButtonsData:
			if data.Text == "" {
				result.addError("buttons node %q has no prompt text", node.ID)
			}

			if len(data.Buttons) == 0 {
				result.addWarning("buttons node %q has no options configured", node.ID)
			}
		case models.ListData:
			if data.Text == "" {
				result.addError("list node %q has no prompt text", node.ID)
			}

			if len(data.Items) == 0 {
				result.addWarning("list node %q has no items configured", node.ID)
			}
		case models.InputData:
			if data.Text == "" {
				result.addError("input node %q has no prompt text", node.ID)
			}

			if data.StoreInVariable == "" {
				result.addWarning("input node %q does not store its answer", node.ID)
			}
		case models.ConditionData:
			if len(data.Connections) == 0 {
				result.addWarning("condition node %q has no connections", node.ID)
			}

			for _, conn := range data.Connections {
				if conn.Operator == models.OperatorCustomExpression && conn.Condition == "" {
					result.addError("condition node %q: connection %q has an empty expression", node.ID, conn.ID)
				}
			}
		case models.VariableSetData:
			if data.Variable == "" {
				result.addError("variable_set node %q names no variable", node.ID)
			}
		case models.ImageData:
			if data.URL == "" {
				result.addError("image node %q has no media URL", node.ID)
			}
		case models.FileData:
			if data.URL == "" {
				result.addError("file node %q has no media URL", node.ID)
			}
		case models.APIConnectorData:
			if data.Connector.URL == "" {
				result.addError("%s node %q has no URL configured", node.Type, node.ID)
			}
		case models.WhatsAppFormData:
			checkFormCompleteness(node.ID, data, result)
		}
	}
}

func checkFormCompleteness(nodeID string, data models.WhatsAppFormData, result *Result) {
	if data.Title == "" {
		result.addError("whatsapp_form node %q has no title", nodeID)
	}

	enabled := 0

	for _, field := range data.Fields {
		if !field.Enabled {
			continue
		}

		enabled++

		if field.Type.IsChoice() && len(field.Options) == 0 {
			result.addError("whatsapp_form node %q: field %q needs at least one option", nodeID, field.Name)
		}
	}

	if enabled == 0 {
		result.addWarning("whatsapp_form node %q has no enabled fields", nodeID)
	}
}
