// Package schema validates inbound validation requests against the embedded
// JSON Schema before they reach the engine.
package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kirillkom/tradedoc-reconciler/internal/core/domain"
)

//go:embed request.schema.json
var requestSchema []byte

const resourceName = "request.schema.json"

// Validator is safe for concurrent use once built.
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(resourceName, bytes.NewReader(requestSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	compiled, err := compiler.Compile(resourceName)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: compiled}, nil
}

func (v *Validator) ValidateRequest(payload []byte) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "schema.validate", fmt.Errorf("malformed json: %w", err))
	}
	if dec.More() {
		return domain.WrapError(domain.ErrInvalidInput, "schema.validate", errors.New("malformed json: trailing data after request"))
	}
	if err := v.schema.Validate(doc); err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "schema.validate", errors.New(describe(err)))
	}
	return nil
}

// describe flattens a validation error into one line naming the deepest
// failing locations.
func describe(err error) string {
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	var leaves []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			leaves = append(leaves, fmt.Sprintf("%s: %s", loc, e.Message))
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	if len(leaves) > 5 {
		leaves = append(leaves[:5], fmt.Sprintf("and %d more", len(leaves)-5))
	}
	return "payload does not match schema: " + strings.Join(leaves, "; ")
}
