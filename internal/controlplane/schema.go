package controlplane

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const turnSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "text": {"type": "string"},
    "action_count": {"type": "integer", "minimum": 0},
    "history": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "text"],
        "properties": {
          "type": {"enum": ["do", "say", "story", "continue"]},
          "text": {"type": "string"}
        }
      }
    }
  },
  "required": ["text"]
}`

const cardSchemaJSON = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "type": {"type": "string"},
    "keys": {"type": "string"},
    "entry": {"type": "string"},
    "description": {"type": "string"}
  },
  "required": ["title"]
}`

var (
	turnSchema = jsonschema.MustCompileString("turn.json", turnSchemaJSON)
	cardSchema = jsonschema.MustCompileString("card.json", cardSchemaJSON)
)

// decodeValidated validates raw against schema and then decodes it into v.
func decodeValidated(schema *jsonschema.Schema, raw []byte, v interface{}) error {
	var doc interface{}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
