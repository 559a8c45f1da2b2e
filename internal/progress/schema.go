package progress

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const completedModulesSchema = `{
  "type": "array",
  "items": {"type": "integer", "minimum": 1},
  "uniqueItems": true
}`

const userProgressSchema = `{
  "type": "object",
  "required": ["modules"],
  "properties": {
    "modules": {
      "type": "object",
      "patternProperties": {"^[1-9][0-9]*$": {"type": "object"}},
      "additionalProperties": false
    },
    "totalProgress": {"type": "number", "minimum": 0, "maximum": 100}
  }
}`

var (
	completedSchema = mustSchema(completedModulesSchema)
	progressSchema  = mustSchema(userProgressSchema)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compiling progress schema: %v", err))
	}
	return s
}

// checkSchema validates raw JSON text against schema.
func checkSchema(schema *gojsonschema.Schema, raw string) error {
	res, err := schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("parsing stored value: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("stored value does not match schema: %s", strings.Join(msgs, "; "))
}
