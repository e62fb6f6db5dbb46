// Package schematype classifies normalized JSON-Schema prop definitions and
// compiles their refinements into shape requirements.
package schematype

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is returned for schemas without a recognized type tag.
	ErrUnknownType = errors.New("unknown schema type")
	// ErrTraversableType is returned when requirements are requested for an
	// object or array schema. Callers must recurse into sub-schemas instead.
	ErrTraversableType = errors.New("object and array schemas have no data type requirements")
	// ErrUnknownFormat is returned for string formats outside JSON Schema.
	ErrUnknownFormat = errors.New("unknown string format")
)

// Type is one of the six JSON-Schema primitive type tags.
type Type string

const (
	String  Type = "string"
	Number  Type = "number"
	Integer Type = "integer"
	Boolean Type = "boolean"
	Object  Type = "object"
	Array   Type = "array"
)

// Types lists every tag.
var Types = []Type{String, Number, Integer, Boolean, Object, Array}

// Parse converts a raw tag.
func Parse(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
	}
	return t, nil
}

// FromSchema reads the type tag of a schema. An array of types selects the
// first entry.
func FromSchema(schema map[string]any) (Type, error) {
	switch v := schema["type"].(type) {
	case string:
		return Parse(v)
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return Parse(s)
			}
		}
	case []string:
		if len(v) > 0 {
			return Parse(v[0])
		}
	}
	return "", fmt.Errorf("%w: %v", ErrUnknownType, schema["type"])
}

func (t Type) Valid() bool {
	switch t {
	case String, Number, Integer, Boolean, Object, Array:
		return true
	}
	return false
}

func (t Type) IsScalar() bool {
	switch t {
	case String, Number, Integer, Boolean:
		return true
	}
	return false
}

func (t Type) IsIterable() bool { return !t.IsScalar() }

func (t Type) IsTraversable() bool { return !t.IsScalar() }

func (t Type) String() string { return string(t) }
