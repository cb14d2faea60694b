package validation

import (
	"errors"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// flowDocumentSchema validates the persisted flow document shape before it
// is decoded into models. It guards the type discriminant against the
// closed set so a bad import fails loudly instead of producing nil
// payloads deep in a session.
const flowDocumentSchema = `{
	"type": "object",
	"required": ["name", "nodes"],
	"properties": {
		"flowId": {"type": "string"},
		"partnerId": {"type": "string"},
		"name": {"type": "string", "minLength": 1},
		"active": {"type": "boolean"},
		"language": {"type": "string"},
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "type"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"type": {
						"type": "string",
						"enum": [
							"start", "message", "buttons", "list", "input",
							"wait_response", "condition", "variable_set",
							"image", "file", "webhook", "api_connector",
							"whatsapp_form", "end"
						]
					},
					"data": {"type": "object"},
					"nextNodeId": {"type": "string"},
					"label": {"type": "string"},
					"order": {"type": "integer"}
				}
			}
		},
		"variables": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "type"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"type": {"type": "string", "enum": ["string", "number", "boolean", "array"]},
					"isSystem": {"type": "boolean"}
				}
			}
		}
	}
}`

// ErrInvalidDocument is returned when an imported flow document does not
// match the schema.
var ErrInvalidDocument = errors.New("invalid flow document")

// ValidateDocument checks a raw flow JSON document against the document
// schema. It returns every schema violation joined into one error.
func ValidateDocument(raw []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(flowDocumentSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]error, 0, len(result.Errors())+1)
	details = append(details, ErrInvalidDocument)

	for _, violation := range result.Errors() {
		details = append(details, errors.New(violation.String()))
	}

	return errors.Join(details...)
}
