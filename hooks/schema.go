package hooks

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
	"github.com/thaiyyal/pipeline/pipeline"
)

// SchemaHook returns a PreHook that validates one named input against a JSON
// Schema document. Strict controls what happens on a failed validation: in
// strict mode the hook returns an error (aborting the run); otherwise the
// input is left alone and validation failures are silently accepted rather
// than rejected.
func SchemaHook(inputName string, schema []byte, strict bool) pipeline.PreHook {
	schemaLoader := gojsonschema.NewBytesLoader(schema)

	return func(inputs map[string]interface{}) error {
		v, ok := inputs[inputName]
		if !ok {
			return fmt.Errorf("hooks: schema validation: missing input %q", inputName)
		}

		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("hooks: schema validation: serializing %q: %w", inputName, err)
		}

		result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewBytesLoader(data))
		if err != nil {
			return fmt.Errorf("hooks: schema validation failed to run: %w", err)
		}
		if result.Valid() || !strict {
			return nil
		}

		descs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			descs = append(descs, e.String())
		}
		return fmt.Errorf("hooks: input %q failed schema validation: %v", inputName, descs)
	}
}
