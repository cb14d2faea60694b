// Package formflow compiles declarative form fields into the messaging
// platform's interactive-form wire format and drives the create/publish
// lifecycle of the resulting artifact.
package formflow

import (
	"fmt"

	"github.com/botfluent/botfluent/pkg/models"
)

// ValidationResult is the outcome of validating a form definition. The
// messages are operator-facing and shown verbatim in the console, in the
// console's language.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validate checks a form definition before it is compiled or published.
func Validate(title string, fields []models.FormField) ValidationResult {
	result := ValidationResult{Errors: []string{}}

	if title == "" {
		result.Errors = append(result.Errors, "le formulaire doit avoir un titre")
	}

	enabled := 0

	for _, field := range fields {
		if !field.Enabled {
			continue
		}

		enabled++

		if field.Name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("le champ %q doit avoir un nom", field.Label))
		}

		if field.Label == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("le champ %q doit avoir un libellé", field.Name))
		}

		if field.Type.IsChoice() && len(field.Options) == 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("le champ %q doit avoir au moins une option", field.Name))
		}
	}

	if enabled == 0 {
		result.Errors = append(result.Errors, "le formulaire doit contenir au moins un champ actif")
	}

	result.IsValid = len(result.Errors) == 0

	return result
}

// ScreenDocument is the flow_json document sent to the platform.
type ScreenDocument struct {
	Version string   `json:"version"`
	Screens []Screen `json:"screens"`
}

// Screen is one page of the interactive form.
type Screen struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Terminal bool   `json:"terminal"`
	Layout   Layout `json:"layout"`
}

// Layout holds the ordered components of a screen.
type Layout struct {
	Type     string      `json:"type"`
	Children []Component `json:"children"`
}

// Component is one platform widget descriptor.
type Component struct {
	Type       string            `json:"type"`
	Name       string            `json:"name,omitempty"`
	Label      string            `json:"label,omitempty"`
	Required   bool              `json:"required,omitempty"`
	InputType  string            `json:"input-type,omitempty"`
	Pattern    string            `json:"pattern,omitempty"`
	DataSource []ComponentOption `json:"data-source,omitempty"`
	OnClick    *ComponentOnClick `json:"on-click-action,omitempty"`
}

// ComponentOption is one {id,title} pair of a choice component.
type ComponentOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ComponentOnClick is the action descriptor of the footer button.
type ComponentOnClick struct {
	Name string `json:"name"`
}

const (
	documentVersion = "7.0"
	screenID        = "FORM"
	footerLabel     = "Envoyer"
)

// Compile maps every enabled field to its platform component, in field
// order, and appends the fixed submit footer. Disabled fields are skipped
// entirely; Validate is expected to have passed beforehand.
func Compile(title string, fields []models.FormField) ScreenDocument {
	children := make([]Component, 0, len(fields)+1)

	for _, field := range fields {
		if !field.Enabled {
			continue
		}

		children = append(children, compileField(field))
	}

	children = append(children, Component{
		Type:    "Footer",
		Label:   footerLabel,
		OnClick: &ComponentOnClick{Name: "complete"},
	})

	return ScreenDocument{
		Version: documentVersion,
		Screens: []Screen{
			{
				ID:       screenID,
				Title:    title,
				Terminal: true,
				Layout:   Layout{Type: "SingleColumnLayout", Children: children},
			},
		},
	}
}

func compileField(field models.FormField) Component {
	component := Component{
		Name:     field.Name,
		Label:    field.Label,
		Required: field.Required,
	}

	switch field.Type {
	case models.FormFieldTypeText:
		component.Type = "TextInput"
		component.InputType = "text"
		component.Pattern = field.Validation
	case models.FormFieldTypeEmail:
		component.Type = "TextInput"
		component.InputType = "email"
	case models.FormFieldTypePhone:
		component.Type = "TextInput"
		component.InputType = "phone"
	case models.FormFieldTypeNumber:
		component.Type = "TextInput"
		component.InputType = "number"
	case models.FormFieldTypeTextarea:
		component.Type = "TextArea"
	case models.FormFieldTypeDropdown:
		component.Type = "Dropdown"
		component.DataSource = compileOptions(field.Options)
	case models.FormFieldTypeRadio:
		component.Type = "RadioButtonsGroup"
		component.DataSource = compileOptions(field.Options)
	case models.FormFieldTypeCheckbox:
		component.Type = "CheckboxGroup"
		component.DataSource = compileOptions(field.Options)
	case models.FormFieldTypeDate:
		component.Type = "DatePicker"
	case models.FormFieldTypeTime:
		// The platform has no time picker; a text input with a pattern
		// is what the console ships today.
		component.Type = "TextInput"
		component.InputType = "text"
		component.Pattern = `^([01]?[0-9]|2[0-3]):[0-5][0-9]$`
	default:
		component.Type = "TextInput"
		component.InputType = "text"
	}

	return component
}

func compileOptions(options []models.FormFieldOption) []ComponentOption {
	compiled := make([]ComponentOption, 0, len(options))
	for _, option := range options {
		compiled = append(compiled, ComponentOption{ID: option.ID, Title: option.Title})
	}

	return compiled
}
