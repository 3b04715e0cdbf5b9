// Package validation checks decoded JSON request bodies against JSON Schema
// documents before they reach the domain services.
package validation

import (
	"github.com/xeipuuv/gojsonschema"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Result struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// Validate evaluates input against the schema document. A schema that cannot
// be compiled reports as a single root-level error rather than panicking.
func Validate(input, schema map[string]interface{}) Result {
	if len(schema) == 0 {
		return Result{Valid: true}
	}

	schemaLoader := gojsonschema.NewGoLoader(schema)
	documentLoader := gojsonschema.NewGoLoader(input)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return Result{Valid: false, Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	if result.Valid() {
		return Result{Valid: true}
	}

	errs := make([]FieldError, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, FieldError{Field: e.Field(), Message: e.Description()})
	}
	return Result{Valid: false, Errors: errs}
}
