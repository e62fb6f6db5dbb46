package props

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/content/fieldtype"
	"github.com/jacerider/neo-alchemist/content/memory"
	"github.com/jacerider/neo-alchemist/props/component"
	"github.com/jacerider/neo-alchemist/props/propshape"
	"github.com/jacerider/neo-alchemist/props/tree"
)

const (
	bannerYAML = `
name: Banner
props:
  type: object
  required: [heading]
  properties:
    heading:
      type: string
      examples: ["Welcome"]
slots:
  content: {}
`
	instanceUUID = "7a1cd7a4-6d8b-4a3a-b0a6-2d6f6d8d4f11"
)

type fixture struct {
	engine *Engine
	store  *memory.Store
	node   content.Entity
	alters *atomic.Int32
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New(fieldtype.Builtin())
	require.NoError(t, s.DefineField(content.FieldDefinition{EntityTypeID: "node", Bundle: "article", Name: "title", FieldType: "string", Label: "Title", Required: true}))
	node, err := s.Put("node", "article", "1", map[string][]map[string]any{"title": {{"value": "Hello world"}}})
	require.NoError(t, err)

	banner, err := component.Parse([]byte(bannerYAML), "banner")
	require.NoError(t, err)

	alters := &atomic.Int32{}
	engine, err := New(Config{
		Components: component.NewRegistry(banner),
		FieldTypes: s.Catalog(),
		Fields:     s,
		Alter: func(c propshape.Candidate) propshape.Candidate {
			alters.Add(1)
			return c
		},
	})
	require.NoError(t, err)
	return &fixture{engine: engine, store: s, node: node, alters: alters}
}

func TestNew(t *testing.T) {
	s := memory.New(fieldtype.Builtin())
	for name, cfg := range map[string]Config{
		"no components":  {FieldTypes: s.Catalog(), Fields: s},
		"no field types": {Components: component.NewRegistry(), Fields: s},
		"no fields":      {Components: component.NewRegistry(), FieldTypes: s.Catalog()},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := New(cfg)
			assert.Error(t, err)
		})
	}
}

func TestEngine_Plan(t *testing.T) {
	f := newFixture(t)

	shape, plan, err := f.engine.Plan(map[string]any{"type": "string", "title": "Heading"})
	require.NoError(t, err)
	assert.Equal(t, `{"type":"string"}`, shape.Key())
	require.NotNil(t, plan)
	assert.Equal(t, "string", plan.FieldType())
	assert.Equal(t, "string_textfield", plan.FieldWidget())

	_, again, err := f.engine.Plan(map[string]any{"type": "string"})
	require.NoError(t, err)
	assert.Same(t, plan, again)
	assert.Equal(t, int32(1), f.alters.Load())

	_, none, err := f.engine.Plan(map[string]any{"type": "string", "pattern": "^a"})
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestEngine_Components(t *testing.T) {
	f := newFixture(t)

	shapes, err := f.engine.PropShapes("banner")
	require.NoError(t, err)
	require.Len(t, shapes, 1)
	assert.Equal(t, "⿲banner␟heading", shapes[0].Expression.String())

	defaults, err := f.engine.Defaults("banner")
	require.NoError(t, err)
	assert.Equal(t, "Welcome", defaults.Props["heading"].DefaultValue)

	values, err := f.engine.DefaultValues("banner", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"heading": "Welcome"}, values)

	_, err = f.engine.Defaults("missing")
	assert.ErrorIs(t, err, component.ErrNotFound)
	_, err = f.engine.Suggest("missing", nil)
	assert.ErrorIs(t, err, component.ErrNotFound)
}

func TestEngine_Evaluate(t *testing.T) {
	f := newFixture(t)

	v, err := f.engine.Evaluate(f.node, "ℹ︎␜entity:node:article␝title␞␟value")
	require.NoError(t, err)
	assert.Equal(t, "Hello world", v)

	_, err = f.engine.Evaluate(f.node, "not an expression")
	assert.Error(t, err)

	v, err = f.engine.EvaluateSource(map[string]any{
		"sourceType": "dynamic",
		"expression": "ℹ︎␜entity:node:article␝title␞␟value",
	}, f.node)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", v)
}

func TestEngine_Trees(t *testing.T) {
	f := newFixture(t)
	treeDoc := fmt.Sprintf(`{%q: [{"uuid": %q, "component": "banner"}]}`, tree.RootUUID, instanceUUID)
	propsDoc := fmt.Sprintf(`{%q: {"heading": {"sourceType": "dynamic", "expression": "ℹ︎␜entity:node:article␝title␞␟value"}}}`, instanceUUID)

	report := f.engine.ValidateTree([]byte(treeDoc))
	assert.False(t, report.HasViolations())
	assert.Equal(t, tree.StageDanglingChecked, report.Reached)

	raw := map[string]any{"tree": treeDoc, "props": propsDoc}
	violations, err := f.engine.ValidateItem(raw, f.node)
	require.NoError(t, err)
	assert.False(t, violations.HasViolations(), violations.String())

	nodes, err := f.engine.Hydrate(raw, f.node)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "banner", nodes[0].Component)
	assert.Equal(t, "Hello world", nodes[0].Props["heading"])

	suggestions, err := f.engine.Suggest("banner", &content.EntityDataDefinition{EntityTypeID: "node", Bundle: "article"})
	require.NoError(t, err)
	require.Len(t, suggestions, 1)
	require.Len(t, suggestions[0].Instances, 1)
	assert.Equal(t, "This article's Title", suggestions[0].Instances[0].Label)
}
