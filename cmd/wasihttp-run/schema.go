package main

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// configSchema returns the JSON Schema of the YAML configuration file.
func configSchema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		FieldNameTag:   "yaml",
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Config{})
	schema.Title = "wasihttp-run configuration"

	out, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return out, nil
}
