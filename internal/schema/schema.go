// Package schema validates episode events and ledger envelopes against
// embedded JSON Schema documents. Both writers and readers validate, so a
// malformed record is rejected rather than silently coerced.
package schema

import (
	_ "embed"
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

//go:embed event.schema.json
var eventSchemaJSON []byte

//go:embed envelope.schema.json
var envelopeSchemaJSON []byte

var (
	eventSchema    = mustCompile(eventSchemaJSON)
	envelopeSchema = mustCompile(envelopeSchemaJSON)
)

func mustCompile(data []byte) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(data)
	if err != nil {
		panic(fmt.Sprintf("compile embedded schema: %v", err))
	}
	return schema
}

// ValidateEvent checks a serialized stream event.
func ValidateEvent(data []byte) error {
	return validate(eventSchema, data)
}

// ValidateEnvelope checks a serialized tool-loop envelope.
func ValidateEnvelope(data []byte) error {
	return validate(envelopeSchema, data)
}

func validate(schema *jsonschema.Schema, data []byte) error {
	result := schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", result.Errors)
}
