package main

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemasFS embed.FS

// SchemaKind identifies one of the request body schemas.
type SchemaKind string

const (
	CreateBookSchema SchemaKind = "book.create"
	UpdateBookSchema SchemaKind = "book.update"
)

const invalidJSONPayload = "invalid JSON payload"

var _ Validator = (*SchemaValidator)(nil) // ensure SchemaValidator implements Validator.

// Validator checks a raw request payload against a known schema.
type Validator interface {
	Validate(kind SchemaKind, payload []byte) *ValidationResult
}

// ValidationResult holds the outcome of a payload validation.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Err converts a failed result into a ValidationError. It returns nil on success.
func (vr *ValidationResult) Err() error {
	if vr.Valid {
		return nil
	}
	return &ValidationError{Violations: vr.Errors}
}

// ValidationError lists every constraint a payload violated.
type ValidationError struct {
	Violations []string
}

func (ve *ValidationError) Error() string {
	return "validation failed: " + strings.Join(ve.Violations, "; ")
}

// SchemaValidator validates payloads against the embedded json schemas.
// Schemas are compiled once and safe for concurrent use.
type SchemaValidator struct {
	schemas map[SchemaKind]*gojsonschema.Schema
}

// NewSchemaValidator loads and compiles the create and update book schemas.
func NewSchemaValidator() (*SchemaValidator, error) {
	sv := &SchemaValidator{schemas: make(map[SchemaKind]*gojsonschema.Schema)}
	for _, kind := range []SchemaKind{CreateBookSchema, UpdateBookSchema} {
		raw, err := schemasFS.ReadFile("schemas/" + string(kind) + ".json")
		if err != nil {
			return nil, fmt.Errorf("validator: failed to read %s schema: %w", kind, err)
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, fmt.Errorf("validator: failed to compile %s schema: %w", kind, err)
		}
		sv.schemas[kind] = schema
	}
	return sv, nil
}

// Validate checks the payload against the schema identified by kind and
// reports one message per violated constraint, sorted for stable output.
func (sv *SchemaValidator) Validate(kind SchemaKind, payload []byte) *ValidationResult {
	schema, ok := sv.schemas[kind]
	if !ok {
		return &ValidationResult{Errors: []string{fmt.Sprintf("unknown schema %q", kind)}}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		return &ValidationResult{Errors: []string{invalidJSONPayload}}
	}

	if result.Valid() {
		return &ValidationResult{Valid: true, Errors: []string{}}
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		errs = append(errs, re.String())
	}
	sort.Strings(errs)
	return &ValidationResult{Errors: errs}
}
