package models

// FormFieldType identifies the input widget of a declarative form field.
type FormFieldType string

const (
	FormFieldTypeText     FormFieldType = "text"
	FormFieldTypeNumber   FormFieldType = "number"
	FormFieldTypeEmail    FormFieldType = "email"
	FormFieldTypePhone    FormFieldType = "phone"
	FormFieldTypeDate     FormFieldType = "date"
	FormFieldTypeTime     FormFieldType = "time"
	FormFieldTypeTextarea FormFieldType = "textarea"
	FormFieldTypeDropdown FormFieldType = "dropdown"
	FormFieldTypeRadio    FormFieldType = "radio"
	FormFieldTypeCheckbox FormFieldType = "checkbox"
)

// IsChoice reports whether the field type carries options.
func (t FormFieldType) IsChoice() bool {
	return t == FormFieldTypeDropdown || t == FormFieldTypeRadio || t == FormFieldTypeCheckbox
}

// FormFieldOption is one selectable option of a choice field.
type FormFieldOption struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// FormField is one declarative field of a whatsapp_form node. Only enabled
// fields are compiled and published.
type FormField struct {
	ID         string            `json:"id"`
	Type       FormFieldType     `json:"type"`
	Name       string            `json:"name"`
	Label      string            `json:"label"`
	Required   bool              `json:"required"`
	Enabled    bool              `json:"enabled"`
	Validation string            `json:"validation,omitempty"`
	Options    []FormFieldOption `json:"options,omitempty"`
}
