package schematype

import (
	"fmt"
	"reflect"

	"github.com/jacerider/neo-alchemist/props/shapematch"
)

// Requirements compiles the refinements of a scalar schema into the data
// type requirement a field property must satisfy. A nil result with a nil
// error means the type alone is the whole requirement.
func Requirements(t Type, schema map[string]any) (shapematch.Requirement, error) {
	switch t {
	case Boolean:
		return nil, nil
	case String:
		return stringRequirements(schema)
	case Integer, Number:
		return numericRequirements(schema), nil
	case Object, Array:
		return nil, fmt.Errorf("%w: %s", ErrTraversableType, t)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

func stringRequirements(schema map[string]any) (shapematch.Requirement, error) {
	if enum, ok := EnumValues(schema); ok {
		return shapematch.NewChoice(enum), nil
	}

	pattern, hasPattern := schema["pattern"].(string)
	rawFormat, hasFormat := schema["format"].(string)

	var format Format
	if hasFormat {
		f, err := ParseFormat(rawFormat)
		if err != nil {
			return nil, err
		}
		format = f
	}

	switch {
	case hasPattern && hasFormat:
		return shapematch.All{format.Requirement(), shapematch.NewRegex(pattern)}, nil
	case hasPattern:
		return shapematch.NewRegex(pattern), nil
	case hasFormat:
		return format.Requirement(), nil
	default:
		return shapematch.Constraint{
			Name:    shapematch.StringSemantics,
			Options: map[string]any{"semantic": shapematch.SemanticProse},
		}, nil
	}
}

func numericRequirements(schema map[string]any) shapematch.Requirement {
	if enum, ok := EnumValues(schema); ok {
		return shapematch.NewChoice(enum)
	}
	min, hasMin := schema["minimum"]
	max, hasMax := schema["maximum"]
	if hasMin || hasMax {
		return shapematch.NewRange(min, max)
	}
	for _, key := range []string{"multipleOf", "exclusiveMinimum", "exclusiveMaximum"} {
		if _, ok := schema[key]; ok {
			return shapematch.NewNotYetSupported()
		}
	}
	return nil
}

// EnumValues returns the non-empty enum of a schema. Any slice type is
// accepted, so []string and []int enums read the same as []any.
func EnumValues(schema map[string]any) ([]any, bool) {
	rv := reflect.ValueOf(schema["enum"])
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, len(out) > 0
}
