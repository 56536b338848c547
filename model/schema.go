package model

import "github.com/speakeasy-api/openapi/sequencedmap"

// Schema is a JSON Schema (draft-07 superset) as used for message payloads
// and headers.
type Schema struct {
	Ref
	// Boolean is set for the boolean schemas true and false
	Boolean *bool `key:"-"`

	Type        []string `key:"type"`
	Format      string   `key:"format"`
	Title       string   `key:"title"`
	Description string   `key:"description"`
	Default     any      `key:"default"`
	Enum        []any    `key:"enum"`
	Const       any      `key:"const"`
	Examples    []any    `key:"examples"`
	ReadOnly    bool     `key:"readOnly"`
	WriteOnly   bool     `key:"writeOnly"`
	Deprecated  bool     `key:"deprecated"`

	MultipleOf       *float64 `key:"multipleOf"`
	Maximum          *float64 `key:"maximum"`
	ExclusiveMaximum *float64 `key:"exclusiveMaximum"`
	Minimum          *float64 `key:"minimum"`
	ExclusiveMinimum *float64 `key:"exclusiveMinimum"`
	MaxLength        *int64   `key:"maxLength"`
	MinLength        *int64   `key:"minLength"`
	Pattern          string   `key:"pattern"`
	MaxItems         *int64   `key:"maxItems"`
	MinItems         *int64   `key:"minItems"`
	UniqueItems      bool     `key:"uniqueItems"`
	MaxProperties    *int64   `key:"maxProperties"`
	MinProperties    *int64   `key:"minProperties"`
	Required         []string `key:"required"`

	Properties        *sequencedmap.Map[string, *Schema] `key:"properties"`
	PatternProperties *sequencedmap.Map[string, *Schema] `key:"patternProperties"`
	// AdditionalProperties is nil when absent or given as a boolean
	AdditionalProperties *Schema `key:"additionalProperties"`
	// AdditionalPropertiesAllowed holds the boolean form of additionalProperties
	AdditionalPropertiesAllowed *bool   `key:"-"`
	Items                       *Schema `key:"items"`
	// ItemsTuple holds the array form of items
	ItemsTuple      []*Schema                          `key:"-"`
	AdditionalItems *Schema                            `key:"additionalItems"`
	Contains        *Schema                            `key:"contains"`
	PropertyNames   *Schema                            `key:"propertyNames"`
	Dependencies    *sequencedmap.Map[string, *Schema] `key:"dependencies"`
	// DependentRequired holds the string list form of dependencies
	DependentRequired map[string][]string                `key:"-"`
	Definitions       *sequencedmap.Map[string, *Schema] `key:"definitions"`

	AllOf []*Schema `key:"allOf"`
	AnyOf []*Schema `key:"anyOf"`
	OneOf []*Schema `key:"oneOf"`
	Not   *Schema   `key:"not"`
	If    *Schema   `key:"if"`
	Then  *Schema   `key:"then"`
	Else  *Schema   `key:"else"`

	Discriminator string        `key:"discriminator"`
	ExternalDocs  *ExternalDocs `key:"externalDocs"`
	Extensions    Extensions    `key:"-"`
}

// HasType reports whether t is one of the schema's declared types.
func (s *Schema) HasType(t string) bool {
	for _, st := range s.Type {
		if st == t {
			return true
		}
	}
	return false
}
