package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	schemaOnce   sync.Once
	createSchema *jsonschema.Schema
	updateSchema *jsonschema.Schema
	schemaErr    error
)

func buildSchema(required bool) map[string]interface{} {
	properties := make(map[string]interface{}, len(Fields))
	names := make([]string, 0, len(Fields))
	for _, field := range Fields {
		properties[string(field)] = map[string]interface{}{
			"type":    "string",
			"pattern": patterns[field],
		}
		names = append(names, string(field))
	}

	schema := map[string]interface{}{
		"$schema":    "https://json-schema.org/draft/2020-12/schema",
		"type":       "object",
		"properties": properties,
	}
	if required {
		schema["required"] = names
	}
	return schema
}

func compileSchema(compiler *jsonschema.Compiler, url string, schema map[string]interface{}) (*jsonschema.Schema, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", url, err)
	}
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", url, err)
	}
	return compiler.Compile(url)
}

func loadSchemas() {
	compiler := jsonschema.NewCompiler()
	createSchema, schemaErr = compileSchema(compiler, "tarea-create.json", buildSchema(true))
	if schemaErr != nil {
		return
	}
	updateSchema, schemaErr = compileSchema(compiler, "tarea-update.json", buildSchema(false))
}

// ValidateCreate checks a full create payload. v is marshalled to JSON first,
// so any struct with the task JSON tags works.
func ValidateCreate(v interface{}) ([]FieldError, error) {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return nil, schemaErr
	}
	return validateAgainst(createSchema, v)
}

// ValidateUpdate checks a partial payload: absent fields are accepted.
func ValidateUpdate(v interface{}) ([]FieldError, error) {
	schemaOnce.Do(loadSchemas)
	if schemaErr != nil {
		return nil, schemaErr
	}
	return validateAgainst(updateSchema, v)
}

func validateAgainst(schema *jsonschema.Schema, v interface{}) ([]FieldError, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil, nil
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return nil, err
	}

	var fieldErrors []FieldError
	seen := make(map[string]bool)
	collectFieldErrors(ve, &fieldErrors, seen)
	return fieldErrors, nil
}

func collectFieldErrors(ve *jsonschema.ValidationError, out *[]FieldError, seen map[string]bool) {
	if len(ve.Causes) == 0 {
		field := strings.TrimPrefix(ve.InstanceLocation, "/")
		if field == "" {
			// "missing properties" is reported on the object itself.
			for _, missing := range missingFields(ve.Message) {
				appendFieldError(out, seen, missing)
			}
			return
		}
		appendFieldError(out, seen, field)
		return
	}
	for _, cause := range ve.Causes {
		collectFieldErrors(cause, out, seen)
	}
}

func appendFieldError(out *[]FieldError, seen map[string]bool, field string) {
	if seen[field] {
		return
	}
	seen[field] = true
	message := Message(Field(field))
	if message == "" {
		message = "campo inválido"
	}
	*out = append(*out, FieldError{Field: field, Message: message})
}

func missingFields(message string) []string {
	var fields []string
	for _, field := range Fields {
		if strings.Contains(message, "'"+string(field)+"'") {
			fields = append(fields, string(field))
		}
	}
	return fields
}
