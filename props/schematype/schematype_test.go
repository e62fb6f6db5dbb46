package schematype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacerider/neo-alchemist/props/shapematch"
)

func TestFromSchema(t *testing.T) {
	typ, err := FromSchema(map[string]any{"type": "integer"})
	require.NoError(t, err)
	assert.Equal(t, Integer, typ)

	typ, err = FromSchema(map[string]any{"type": []any{"string", "null"}})
	require.NoError(t, err)
	assert.Equal(t, String, typ)

	_, err = FromSchema(map[string]any{"type": "null"})
	assert.ErrorIs(t, err, ErrUnknownType)

	_, err = FromSchema(map[string]any{})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestType_Classification(t *testing.T) {
	for _, typ := range Types {
		assert.Equal(t, !typ.IsScalar(), typ.IsIterable(), typ)
		assert.Equal(t, !typ.IsScalar(), typ.IsTraversable(), typ)
	}
	assert.True(t, Boolean.IsScalar())
	assert.False(t, Object.IsScalar())
	assert.False(t, Array.IsScalar())
}

func TestRequirements(t *testing.T) {
	prose := shapematch.Constraint{
		Name:    shapematch.StringSemantics,
		Options: map[string]any{"semantic": "prose"},
	}

	tests := []struct {
		name   string
		typ    Type
		schema map[string]any
		want   shapematch.Requirement
	}{
		{"boolean has none", Boolean, map[string]any{"type": "boolean"}, nil},
		{"enum string", String, map[string]any{"type": "string", "enum": []any{"a", "b"}}, shapematch.NewChoice([]any{"a", "b"})},
		{"pattern", String, map[string]any{"type": "string", "pattern": "^a/b$"},
			shapematch.Constraint{Name: shapematch.Regex, Options: map[string]any{"pattern": `/^a\/b$/`}}},
		{"pattern and format", String, map[string]any{"type": "string", "pattern": "x", "format": "email"},
			shapematch.All{{Name: shapematch.Email}, {Name: shapematch.Regex, Options: map[string]any{"pattern": "/x/"}}}},
		{"format uri", String, map[string]any{"type": "string", "format": "uri"},
			shapematch.Constraint{Name: shapematch.PrimitiveType, Interface: shapematch.URIInterface}},
		{"format ipv6", String, map[string]any{"type": "string", "format": "ipv6"},
			shapematch.Constraint{Name: shapematch.IP, Options: map[string]any{"version": "6"}}},
		{"unsupported format", String, map[string]any{"type": "string", "format": "duration"}, shapematch.NewNotYetSupported()},
		{"prose", String, map[string]any{"type": "string"}, prose},
		{"bounded integer", Integer, map[string]any{"type": "integer", "minimum": 1, "maximum": 10}, shapematch.NewRange(1, 10)},
		{"minimum only", Number, map[string]any{"type": "number", "minimum": 0.5}, shapematch.NewRange(0.5, nil)},
		{"maximum only", Integer, map[string]any{"type": "integer", "maximum": 3}, shapematch.NewRange(nil, 3)},
		{"numeric enum", Integer, map[string]any{"type": "integer", "enum": []any{1, 2}}, shapematch.NewChoice([]any{1, 2})},
		{"typed string enum", String, map[string]any{"type": "string", "enum": []string{"a", "b"}}, shapematch.NewChoice([]any{"a", "b"})},
		{"typed integer enum", Integer, map[string]any{"type": "integer", "enum": []int{1, 2}}, shapematch.NewChoice([]any{1, 2})},
		{"empty enum is ignored", Integer, map[string]any{"type": "integer", "enum": []int{}}, nil},
		{"multipleOf alone", Integer, map[string]any{"type": "integer", "multipleOf": 2}, shapematch.NewNotYetSupported()},
		{"exclusiveMinimum alone", Number, map[string]any{"type": "number", "exclusiveMinimum": 0}, shapematch.NewNotYetSupported()},
		{"unrestricted number", Number, map[string]any{"type": "number"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Requirements(tt.typ, tt.schema)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequirements_Errors(t *testing.T) {
	_, err := Requirements(Object, map[string]any{"type": "object"})
	assert.ErrorIs(t, err, ErrTraversableType)

	_, err = Requirements(Array, map[string]any{"type": "array"})
	assert.ErrorIs(t, err, ErrTraversableType)

	_, err = Requirements(String, map[string]any{"type": "string", "format": "color"})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFormat_Requirement(t *testing.T) {
	for _, f := range []Format{FormatTime, FormatDuration, FormatURITemplate, FormatJSONPointer, FormatRelativeJSONPointer, FormatRegex} {
		assert.True(t, f.Requirement().Unsupported(), f)
	}
	assert.Equal(t, shapematch.DateTimeInterface, FormatDate.Requirement().Interface)
	assert.Equal(t, shapematch.Hostname, FormatIDNHostname.Requirement().Name)
}
