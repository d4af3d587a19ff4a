package httpapi

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

var createAppSchema = mustCompileSchema("app.json")

func mustCompileSchema(name string) *jsonschema.Schema {
	data, err := schemaFS.ReadFile("schemas/" + name)
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

// validateBody checks raw JSON against a compiled schema and flattens the
// violation messages for the error response.
func validateBody(sch *jsonschema.Schema, body []byte) []string {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return []string{"invalid json body"}
	}
	if err := sch.Validate(v); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return collectValidationErrors(ve)
		}
		return []string{err.Error()}
	}
	return nil
}

func collectValidationErrors(ve *jsonschema.ValidationError) []string {
	var msgs []string
	for _, cause := range ve.Causes {
		msgs = append(msgs, collectValidationErrors(cause)...)
	}
	if len(ve.Causes) == 0 {
		msgs = append(msgs, ve.Error())
	}
	return msgs
}
