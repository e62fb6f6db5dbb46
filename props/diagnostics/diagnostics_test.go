package diagnostics

import (
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPath(t *testing.T) {
	root := Path{"a548b48d-58a8-4077-aa04-da9405a6f418"}
	p := root.Index(0).Key("component")
	assert.Equal(t, "[a548b48d-58a8-4077-aa04-da9405a6f418][0][component]", p.String())
	assert.Equal(t, Path{"a548b48d-58a8-4077-aa04-da9405a6f418"}, root, "extending does not mutate the parent")
	assert.Equal(t, p, ParsePath(p.String()))
	assert.Nil(t, ParsePath(""))
	assert.Equal(t, "", Path(nil).String())
}

func TestViolations(t *testing.T) {
	v := NewViolations()
	assert.False(t, v.HasViolations())
	assert.NoError(t, v.ToResult())

	v.Push(Path{"x"}, "Empty slot.")
	require.EqualError(t, v.ToResult(), "validation failed: [x]: Empty slot.")

	other := NewViolations()
	other.Pushf(Path{"x", "y"}, "The component %s does not exist.", "card")
	other.Warn(Path{"z"}, "deferred")
	v.Merge(other)
	v.Merge(nil)

	assert.Equal(t, 2, v.Len())
	assert.Equal(t, []string{"[x]", "[x][y]"}, v.Paths())
	assert.Equal(t, []string{"The component card does not exist."}, v.At("[x][y]"))
	assert.Len(t, v.Warnings(), 1)
	assert.EqualError(t, v.ToResult(), "validation failed with 2 violations")
	assert.Equal(t, "[x]: Empty slot.\n[x][y]: The component card does not exist.", v.String())
}

func TestPrettyPrint(t *testing.T) {
	color.NoColor = true
	v := NewViolations()
	v.Push(nil, "The value must be a valid JSON string.")
	v.Warn(Path{"u"}, "deferred")

	assert.Equal(t,
		"error: The value must be a valid JSON string.\n  --> tree.json (document)\n"+
			"warning: deferred\n  --> tree.json [u]\n",
		v.ToPrettyString("tree.json"))
}
