// internal/common/validation/schema.go
package validation

import (
	"fmt"
	"strings"

	"pathfinder-workers/internal/common/errors"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema for job variables or request bodies.
type Schema struct {
	schema *gojsonschema.Schema
}

// Compile parses a JSON schema document.
func Compile(schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{schema: s}, nil
}

// MustCompile is Compile for schemas declared as package constants.
func MustCompile(schemaJSON string) *Schema {
	s, err := Compile(schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

// Validate checks a raw JSON document. Malformed JSON yields INVALID_INPUT and
// schema violations yield SCHEMA_VALIDATION_FAILED listing every violation.
func (s *Schema) Validate(raw []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("malformed JSON: %v", err))
	}
	return resultError(result)
}

// ValidateValue checks an already decoded Go value.
func (s *Schema) ValidateValue(doc interface{}) error {
	result, err := s.schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("unreadable document: %v", err))
	}
	return resultError(result)
}

func resultError(result *gojsonschema.Result) error {
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return errors.NewSchemaValidationFailedError(strings.Join(msgs, "; "))
}

// Reusable schema fragments for identifiers.
const (
	IDPattern = `^[A-Za-z0-9][A-Za-z0-9_.:-]{0,127}$`
)
