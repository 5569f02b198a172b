// Package schemas provides strict JSON Schema validation for LLM output.
// Provider output is never trusted structurally: every JSON payload is parsed
// and validated against a compiled-in schema before anything is persisted.
package schemas

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// FieldError represents a single validation error at a specific field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError indicates the LLM returned content that is not valid JSON
// or does not match the required schema. It carries the raw offending payload
// for diagnosis. Not retryable without prompt changes.
type ValidationError struct {
	Raw    string
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("schema validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// SchemaLoadError represents errors loading or parsing the schema itself.
// This is a programming error, not a provider failure.
type SchemaLoadError struct {
	Message string
	Cause   error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema: %s: %v", e.Message, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// Validate validates a JSON payload string against a JSON Schema string.
// Returns *ValidationError when the payload is malformed or does not match.
func Validate(schemaContent, payload string) error {
	// gojsonschema reports malformed document JSON as a validate-call error,
	// which must read as a payload problem, not a schema problem.
	if !json.Valid([]byte(payload)) {
		return &ValidationError{
			Raw:    payload,
			Errors: []FieldError{{Field: "(root)", Message: "payload is not valid JSON"}},
		}
	}

	schemaLoader := gojsonschema.NewStringLoader(schemaContent)
	documentLoader := gojsonschema.NewStringLoader(payload)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return &SchemaLoadError{Message: "schema validation failed during load", Cause: err}
	}

	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Raw:    payload,
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}

	return validationErr
}

// DecodeValidated validates payload against schemaContent and, on success,
// unmarshals it into v. The payload is only unmarshaled once it has passed
// validation, so v never holds a partially trusted result.
func DecodeValidated(schemaContent, payload string, v any) error {
	if err := Validate(schemaContent, payload); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		// Schema passed but the Go shape disagrees; still a payload problem.
		return &ValidationError{
			Raw:    payload,
			Errors: []FieldError{{Field: "(root)", Message: err.Error()}},
		}
	}
	return nil
}
