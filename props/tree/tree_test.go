package tree

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/content/fieldtype"
	"github.com/jacerider/neo-alchemist/content/memory"
	"github.com/jacerider/neo-alchemist/props/adapter"
	"github.com/jacerider/neo-alchemist/props/component"
	"github.com/jacerider/neo-alchemist/props/evaluator"
	"github.com/jacerider/neo-alchemist/props/propshape"
	"github.com/jacerider/neo-alchemist/props/propsource"
)

const (
	uCard    = "5f2d3c1e-8a4b-4c6d-9e0f-1a2b3c4d5e6f"
	uHeading = "0b6f3a52-2c1d-4e8f-a7b9-3c4d5e6f7a8b"
	uOther   = "c3d4e5f6-a7b8-4c9d-8e0f-1a2b3c4d5e6f"
	uLast    = "9a8b7c6d-5e4f-4a3b-8c2d-1e0f9a8b7c6d"
)

func registry(t *testing.T) *component.Registry {
	t.Helper()
	heading, err := component.Parse([]byte(`
props:
  required: [text]
  properties:
    text: {type: string, title: Text, examples: [Hi]}
    level: {type: integer, enum: [1, 2, 3]}
`), "heading")
	require.NoError(t, err)
	card, err := component.Parse([]byte(`
slots: [header, body]
props:
  properties:
    title: {type: string}
`), "card")
	require.NoError(t, err)
	return component.NewRegistry(heading, card)
}

func tuple(id, comp string) string {
	return fmt.Sprintf(`{"uuid": %q, "component": %q}`, id, comp)
}

func doc(entries ...string) []byte {
	return []byte("{" + strings.Join(entries, ",") + "}")
}

func root(tuples ...string) string {
	return fmt.Sprintf("%q: [%s]", RootUUID, strings.Join(tuples, ","))
}

func subtree(id string, slots ...string) string {
	return fmt.Sprintf("%q: {%s}", id, strings.Join(slots, ","))
}

func slot(name string, tuples ...string) string {
	return fmt.Sprintf("%q: [%s]", name, strings.Join(tuples, ","))
}

func path(segments ...string) string {
	return "[" + strings.Join(segments, "][") + "]"
}

func TestValidator_Laws(t *testing.T) {
	v := NewValidator(registry(t))

	t.Run("empty root is valid", func(t *testing.T) {
		report := v.Validate([]byte(DefaultStructure))
		assert.False(t, report.HasViolations(), report.String())
		assert.Equal(t, StageDanglingChecked, report.Reached)
	})

	t.Run("dangling subtree", func(t *testing.T) {
		report := v.Validate(doc(root(), subtree(uOther, slot("body", tuple(uHeading, "heading")))))
		require.Equal(t, 1, report.Len(), report.Violations.String())
		assert.Equal(t, []string{
			"Dangling component subtree. This component subtree claims to be for a component instance with UUID " + uOther + ", but no such component instance can be found.",
		}, report.At(path(uOther)))
	})

	t.Run("empty slot", func(t *testing.T) {
		report := v.Validate(doc(root(tuple(uCard, "card")), subtree(uCard, slot("body"))))
		require.Equal(t, 1, report.Len(), report.Violations.String())
		assert.Equal(t, []string{msgEmptySlot}, report.At(path(uCard, "body")))
	})

	t.Run("invalid slot name", func(t *testing.T) {
		report := v.Validate(doc(root(tuple(uCard, "card")), subtree(uCard, slot("footer", tuple(uHeading, "heading")))))
		require.Equal(t, 1, report.Len(), report.Violations.String())
		assert.Equal(t, []string{
			"Invalid component subtree. This component subtree contains an invalid slot name for component card: footer. Valid slot names are: header, body.",
		}, report.At(path(uCard, "footer")))
	})
}

func TestValidator_Structure(t *testing.T) {
	v := NewValidator(registry(t))

	t.Run("not JSON", func(t *testing.T) {
		report := v.Validate([]byte("{"))
		assert.Equal(t, []string{msgInvalidJSON}, report.At(""))
		assert.Equal(t, StageNone, report.Reached)
	})

	t.Run("not an object", func(t *testing.T) {
		report := v.Validate([]byte("[]"))
		assert.Equal(t, []string{msgNotObject}, report.At(""))
		assert.Equal(t, StageNone, report.Reached)
	})

	tests := []struct {
		name string
		doc  []byte
		want map[string][]string
	}{
		{
			name: "root missing",
			doc:  []byte("{}"),
			want: map[string][]string{path(RootUUID): {msgRootMissing}},
		},
		{
			name: "root not a list",
			doc:  doc(fmt.Sprintf("%q: {}", RootUUID)),
			want: map[string][]string{path(RootUUID): {msgNotArray}},
		},
		{
			name: "subtree not an object",
			doc:  doc(root(tuple(uCard, "card")), fmt.Sprintf("%q: []", uCard)),
			want: map[string][]string{path(uCard): {msgNotObject}},
		},
		{
			name: "empty subtree",
			doc:  doc(root(tuple(uCard, "card")), subtree(uCard)),
			want: map[string][]string{path(uCard): {msgEmptySubtree}},
		},
		{
			name: "slot not a list",
			doc:  doc(root(tuple(uCard, "card")), fmt.Sprintf("%q: {\"body\": {}}", uCard)),
			want: map[string][]string{path(uCard, "body"): {msgNotArray}},
		},
		{
			name: "malformed tuples",
			doc: doc(root(
				`{"uuid": "", "component": "card"}`,
				`{"uuid": "nope", "component": 5, "extra": true}`,
				`{"component": "missing"}`,
				`"x"`,
			)),
			want: map[string][]string{
				path(RootUUID, "0", "uuid"):      {msgBlank},
				path(RootUUID, "1", "extra"):     {msgExtraField},
				path(RootUUID, "1", "uuid"):      {msgInvalidUUID},
				path(RootUUID, "1", "component"): {msgNotString},
				path(RootUUID, "2", "uuid"):      {msgMissingField},
				path(RootUUID, "2"):              {"The component missing does not exist."},
				path(RootUUID, "3"):              {msgNotObject},
			},
		},
		{
			name: "duplicate instance",
			doc:  doc(root(tuple(uCard, "card"), tuple(uCard, "card"))),
			want: map[string][]string{path(RootUUID, "1", "uuid"): {"The component instance UUID " + uCard + " is used more than once."}},
		},
		{
			name: "subtree for a component without slots",
			doc:  doc(root(tuple(uHeading, "heading")), subtree(uHeading, slot("body", tuple(uOther, "card")))),
			want: map[string][]string{path(uHeading): {
				"Invalid component subtree. A component subtree must only exist for components with >=1 slot, but the component heading has no slots, yet a subtree exists for the instance with UUID " + uHeading + ".",
			}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := v.Validate(tt.doc)
			assert.Equal(t, StageDanglingChecked, report.Reached)
			got := map[string][]string{}
			for _, p := range report.Paths() {
				got[p] = report.At(p)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStructure(t *testing.T) {
	data := doc(
		root(tuple(uCard, "card"), tuple(uOther, "heading")),
		subtree(uCard,
			slot("header", tuple(uHeading, "heading")),
			slot("body", tuple(uLast, "heading")),
		),
	)
	s, err := ParseStructure(data)
	require.NoError(t, err)

	assert.Equal(t, []string{uCard, uLast, uHeading, uOther}, s.ComponentInstanceUUIDs())
	assert.Equal(t, []string{"body", "header"}, s.SlotNames(uCard))
	assert.Equal(t, []Instance{{UUID: uHeading, Component: "heading"}}, s.Children(uCard, "header"))

	id, ok := s.ComponentID(uLast)
	assert.True(t, ok)
	assert.Equal(t, "heading", id)
	_, ok = s.ComponentID("nope")
	assert.False(t, ok)

	encoded, err := json.Marshal(s)
	require.NoError(t, err)
	again, err := ParseStructure(encoded)
	require.NoError(t, err)
	assert.Equal(t, s, again)

	_, err = uuid.Parse(NewInstanceUUID())
	assert.NoError(t, err)

	_, err = ParseStructure([]byte("{}"))
	assert.Error(t, err)

	empty, err := json.Marshal(NewItem().Tree)
	require.NoError(t, err)
	assert.JSONEq(t, DefaultStructure, string(empty))
}

type fixture struct {
	store     *memory.Store
	node      *memory.Entity
	resolver  *Resolver
	validator *ItemValidator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New(fieldtype.Builtin())
	require.NoError(t, s.DefineField(content.FieldDefinition{EntityTypeID: "node", Bundle: "article", Name: "title", FieldType: "string"}))
	node, err := s.Put("node", "article", "1", map[string][]map[string]any{"title": {{"value": "Hello world"}}})
	require.NoError(t, err)

	components := registry(t)
	parser := propsource.NewParser(s.Catalog(), adapter.Builtin(), evaluator.New())
	planner, err := propshape.NewPlanner(nil, propshape.WithWidgets(s.Catalog()))
	require.NoError(t, err)
	resolver := NewResolver(parser, components)
	return &fixture{
		store:     s,
		node:      node,
		resolver:  resolver,
		validator: NewItemValidator(components, resolver, propshape.NewDefinitions(), planner),
	}
}

const (
	titleSource = `{"sourceType": "dynamic", "expression": "ℹ︎␜entity:node:article␝title␞␟value"}`
	textSource  = `{"sourceType": "static:field_item:string", "value": "Hi", "expression": "ℹ︎string␟value"}`
)

func levelSource(v int) string {
	return fmt.Sprintf(`{"sourceType": "static:field_item:list_integer", "value": %d, "expression": "ℹ︎list_integer␟value"}`, v)
}

func itemTree() string {
	return string(doc(root(tuple(uCard, "card")), subtree(uCard, slot("header", tuple(uHeading, "heading")))))
}

func itemProps(heading string) string {
	return fmt.Sprintf(`{%q: {"title": %s}, %q: {%s}}`, uCard, titleSource, uHeading, heading)
}

func TestResolver(t *testing.T) {
	f := newFixture(t)
	item, err := ParseItem([]byte(itemTree()), []byte(itemProps(`"text": `+textSource+`, "level": `+levelSource(2))))
	require.NoError(t, err)

	assert.Equal(t, []string{uCard, uHeading}, item.ComponentInstanceUUIDs())
	assert.Equal(t, []string{"level", "text"}, item.PropNames(uHeading))

	values, err := f.resolver.ResolveProps(item, uCard, f.node)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "Hello world"}, values)

	_, err = f.resolver.ResolveProps(item, uCard, nil)
	assert.ErrorIs(t, err, propsource.ErrMissingHostEntity)

	t.Run("hydrate", func(t *testing.T) {
		nodes, err := f.resolver.Hydrate(item, f.node)
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assert.Equal(t, "card", nodes[0].Component)
		assert.Equal(t, "Hello world", nodes[0].Props["title"])
		header := nodes[0].Slot("header")
		require.Len(t, header, 1)
		assert.Equal(t, "Hi", header[0].Props["text"])
		assert.EqualValues(t, 2, header[0].Props["level"])
		assert.Nil(t, nodes[0].Slot("body"))
	})

	t.Run("hydrate without host", func(t *testing.T) {
		nodes, err := f.resolver.Hydrate(item, nil)
		require.NoError(t, err)
		assert.Contains(t, nodes[0].Props, "title")
		assert.Nil(t, nodes[0].Props["title"])
	})

	t.Run("hydrate with typed nil host", func(t *testing.T) {
		var unsaved *memory.Entity
		nodes, err := f.resolver.Hydrate(item, unsaved)
		require.NoError(t, err)
		assert.Nil(t, nodes[0].Props["title"])
	})

	t.Run("raw round trip", func(t *testing.T) {
		encoded, err := json.Marshal(item)
		require.NoError(t, err)
		var raw map[string]any
		require.NoError(t, json.Unmarshal(encoded, &raw))
		again, err := ItemFromRaw(raw)
		require.NoError(t, err)
		assert.Equal(t, item, again)
	})
}

func TestItemValidator(t *testing.T) {
	f := newFixture(t)
	raw := func(heading string) map[string]any {
		return map[string]any{"tree": itemTree(), "props": itemProps(heading)}
	}
	valid := `"text": ` + textSource + `, "level": ` + levelSource(2)

	t.Run("valid", func(t *testing.T) {
		violations, err := f.validator.Validate(raw(valid), f.node)
		require.NoError(t, err)
		assert.False(t, violations.HasViolations(), violations.String())
		assert.Empty(t, violations.Warnings())
	})

	t.Run("config-owned tree defers host-bound props", func(t *testing.T) {
		violations, err := f.validator.Validate(raw(valid), nil)
		require.NoError(t, err)
		assert.False(t, violations.HasViolations(), violations.String())
		require.Len(t, violations.Warnings(), 1)
		assert.Equal(t, path("props", uCard, "title"), violations.Warnings()[0].Path)
	})

	t.Run("typed nil host is treated as no host", func(t *testing.T) {
		var unsaved *memory.Entity
		violations, err := f.validator.Validate(raw(valid), unsaved)
		require.NoError(t, err)
		assert.False(t, violations.HasViolations(), violations.String())
		assert.Len(t, violations.Warnings(), 1)
	})

	t.Run("raw keys", func(t *testing.T) {
		violations, err := f.validator.Validate(map[string]any{}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{`The array must contain a "tree" key.`, `The array must contain a "props" key.`}, violations.At(""))
	})

	t.Run("missing prop source", func(t *testing.T) {
		violations, err := f.validator.Validate(raw(`"text": `+textSource), f.node)
		require.NoError(t, err)
		assert.Equal(t, []string{`Configuration for the component prop "level" (level) is missing.`}, violations.At(path("props", uHeading)))
	})

	t.Run("invalid value", func(t *testing.T) {
		violations, err := f.validator.Validate(raw(`"text": `+textSource+`, "level": `+levelSource(5)), f.node)
		require.NoError(t, err)
		msgs := violations.At(path("props", uHeading, "level"))
		require.Len(t, msgs, 1)
		assert.Contains(t, msgs[0], "uses component heading and receives an invalid value for prop level")
	})

	t.Run("structure violations are prefixed", func(t *testing.T) {
		violations, err := f.validator.Validate(map[string]any{
			"tree":  string(doc(root(tuple(uOther, "missing")))),
			"props": "{}",
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"The component missing does not exist."}, violations.At(path("tree", RootUUID, "0")))
	})

	t.Run("invalid JSON columns", func(t *testing.T) {
		violations, err := f.validator.Validate(map[string]any{"tree": "{", "props": "{}"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{msgInvalidJSON}, violations.At(path("tree")))

		violations, err = f.validator.Validate(map[string]any{"tree": DefaultStructure, "props": "{"}, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{msgInvalidJSON}, violations.At(path("props")))
	})

	t.Run("required prop on unpopulated host", func(t *testing.T) {
		dynamicText := `"text": ` + titleSource + `, "level": ` + levelSource(1)

		fresh, err := f.store.Create("node", "article", nil)
		require.NoError(t, err)
		violations, err := f.validator.Validate(raw(dynamicText), fresh)
		require.NoError(t, err)
		assert.False(t, violations.HasViolations(), violations.String())
		require.Len(t, violations.Warnings(), 1)
		assert.Equal(t, path("props", uHeading, "text"), violations.Warnings()[0].Path)

		saved, err := f.store.Put("node", "article", "2", nil)
		require.NoError(t, err)
		violations, err = f.validator.Validate(raw(dynamicText), saved)
		require.NoError(t, err)
		assert.Equal(t, []string{"The prop text is required, but resolved to nothing."}, violations.At(path("props", uHeading, "text")))
	})
}
