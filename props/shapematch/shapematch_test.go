package shapematch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jacerider/neo-alchemist/content"
)

func TestDelimitPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    string
	}{
		{"plain", `^[a-z]+$`, `/^[a-z]+$/`},
		{"bare slash", `a/b`, `/a\/b/`},
		{"escaped slash untouched", `a\/b`, `/a\/b/`},
		{"escaped backslash then slash", `a\\/b`, `/a\\\/b/`},
		{"empty", ``, `//`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DelimitPattern(tt.pattern))
		})
	}
}

func TestConstraint_Check(t *testing.T) {
	t.Run("choice", func(t *testing.T) {
		c := NewChoice([]any{"a", "b"})
		assert.True(t, c.Check("a"))
		assert.False(t, c.Check("c"))

		n := NewChoice([]any{1, 2})
		assert.True(t, n.Check(float64(2)))
		assert.False(t, n.Check("2"))
		assert.False(t, n.Check(true))
	})

	t.Run("regex uses ECMAScript semantics", func(t *testing.T) {
		c := NewRegex(`^\d{3}/\d{2}$`)
		assert.True(t, c.Check("123/45"))
		assert.False(t, c.Check("12/45"))
		assert.False(t, c.Check(12))
	})

	t.Run("range", func(t *testing.T) {
		c := NewRange(1, 10)
		assert.True(t, c.Check(1))
		assert.True(t, c.Check(10.0))
		assert.False(t, c.Check(11))
		assert.False(t, c.Check("nope"))

		maxOnly := NewRange(nil, 5)
		assert.True(t, maxOnly.Check(-100))
		assert.False(t, maxOnly.Check(6))
	})

	t.Run("formats", func(t *testing.T) {
		assert.True(t, Constraint{Name: Email}.Check("me@example.com"))
		assert.False(t, Constraint{Name: Email}.Check("Me <me@example.com>"))
		assert.True(t, Constraint{Name: Hostname}.Check("example.com"))
		assert.False(t, Constraint{Name: Hostname}.Check("-bad.example"))
		assert.True(t, Constraint{Name: IP, Options: map[string]any{"version": "4"}}.Check("10.0.0.1"))
		assert.False(t, Constraint{Name: IP, Options: map[string]any{"version": "4"}}.Check("::1"))
		assert.True(t, Constraint{Name: UUID}.Check("a548b48d-58a8-4077-aa04-da9405a6f418"))
		assert.False(t, Constraint{Name: UUID}.Check("nope"))
	})

	t.Run("interfaces", func(t *testing.T) {
		dt := Constraint{Name: PrimitiveType, Interface: DateTimeInterface}
		assert.True(t, dt.Check("2024-01-01T00:00:00Z"))
		assert.True(t, dt.Check("2024-01-01"))
		assert.False(t, dt.Check("yesterday"))
	})

	t.Run("not yet supported never matches", func(t *testing.T) {
		assert.False(t, NewNotYetSupported().Check("anything"))
	})

	t.Run("all requires every constraint", func(t *testing.T) {
		req := All{{Name: Email}, NewRegex(`@example\.com$`)}
		assert.True(t, Check(req, "me@example.com"))
		assert.False(t, Check(req, "me@example.org"))
	})

	t.Run("nil requirement accepts", func(t *testing.T) {
		assert.True(t, Check(nil, 42))
	})
}

func TestSatisfies(t *testing.T) {
	listString := content.PropertyDefinition{
		Name:     "value",
		DataType: content.DataTypeString,
		Constraints: map[string]map[string]any{
			Choice: {"choices": []any{"a"}},
		},
	}
	assert.True(t, Satisfies(listString, NewChoice([]any{"a", "b"})))
	assert.False(t, Satisfies(listString, NewChoice([]any{"b"})))

	bounded := content.PropertyDefinition{
		Name:        "value",
		DataType:    content.DataTypeInteger,
		Constraints: map[string]map[string]any{Range: {"min": 2, "max": 8}},
	}
	assert.True(t, Satisfies(bounded, NewRange(1, 10)))
	assert.False(t, Satisfies(bounded, NewRange(3, 10)))

	datetime := content.PropertyDefinition{
		Name:       "value",
		DataType:   content.DataTypeDateTimeISO8601,
		Interfaces: []string{DateTimeInterface},
	}
	assert.True(t, Satisfies(datetime, Constraint{Name: PrimitiveType, Interface: DateTimeInterface}))
	assert.False(t, Satisfies(datetime, Constraint{Name: PrimitiveType, Interface: URIInterface}))
	assert.False(t, Satisfies(datetime, NewNotYetSupported()))
	assert.True(t, Satisfies(datetime, nil))
}
