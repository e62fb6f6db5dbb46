package propsource

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/content/fieldtype"
	"github.com/jacerider/neo-alchemist/content/memory"
	"github.com/jacerider/neo-alchemist/props/adapter"
	"github.com/jacerider/neo-alchemist/props/evaluator"
	"github.com/jacerider/neo-alchemist/props/expression"
)

var article = content.EntityDataDefinition{EntityTypeID: "node", Bundle: "article"}

func fixture(t *testing.T) (*Parser, *memory.Entity) {
	t.Helper()
	s := memory.New(fieldtype.Builtin())
	for _, def := range []content.FieldDefinition{
		{EntityTypeID: "file", Bundle: "file", Name: "uri", FieldType: "file_uri"},
		{EntityTypeID: "node", Bundle: "article", Name: "title", FieldType: "string"},
		{EntityTypeID: "node", Bundle: "article", Name: "created", FieldType: "timestamp"},
		{EntityTypeID: "node", Bundle: "article", Name: "field_image", FieldType: "image"},
	} {
		require.NoError(t, s.DefineField(def))
	}
	_, err := s.Put("file", "file", "7", map[string][]map[string]any{"uri": {{"value": "public://hero.png"}}})
	require.NoError(t, err)
	node, err := s.Put("node", "article", "1", map[string][]map[string]any{
		"title":       {{"value": "Hello world"}},
		"created":     {{"value": 1704067200}},
		"field_image": {{"target_id": 7, "alt": "Hero"}},
	})
	require.NoError(t, err)
	return NewParser(s.Catalog(), adapter.Builtin(), evaluator.New()), node
}

func TestParse_Dispatch(t *testing.T) {
	p, _ := fixture(t)

	src, err := p.Parse(map[string]any{"sourceType": "static:field_item:string", "value": "hi", "expression": "ℹ︎string␟value"})
	require.NoError(t, err)
	assert.IsType(t, &Static{}, src)

	src, err = p.Parse(map[string]any{"sourceType": "dynamic", "expression": "ℹ︎␜entity:node:article␝title␞␟value"})
	require.NoError(t, err)
	assert.IsType(t, &Dynamic{}, src)

	src, err = p.Parse(map[string]any{"sourceType": "adapter:unix_to_date", "adapterInputs": map[string]any{
		"unix": map[string]any{"sourceType": "dynamic", "expression": "ℹ︎␜entity:node:article␝created␞␟value"},
	}})
	require.NoError(t, err)
	assert.IsType(t, &Adapted{}, src)

	t.Run("errors", func(t *testing.T) {
		_, err := p.Parse(map[string]any{"sourceType": "remote:thing", "expression": "x"})
		assert.ErrorIs(t, err, ErrUnknownSourceType)

		var missing *MissingKeysError
		_, err = p.Parse(map[string]any{"sourceType": "static:field_item:string", "expression": "ℹ︎string␟value"})
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"value"}, missing.Keys)

		_, err = p.Parse(map[string]any{"sourceType": "dynamic"})
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"expression"}, missing.Keys)

		_, err = p.Parse(map[string]any{"sourceType": "adapter:day_count"})
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, []string{"adapterInputs"}, missing.Keys)

		_, err = p.Parse(map[string]any{"expression": "x"})
		require.ErrorAs(t, err, &missing)

		_, err = p.Parse(map[string]any{"sourceType": "adapter:nope", "adapterInputs": map[string]any{}})
		assert.ErrorIs(t, err, adapter.ErrUnknownAdapter)

		_, err = p.Parse(map[string]any{"sourceType": "static:field_item:integer", "value": "hi", "expression": "ℹ︎string␟value"})
		assert.Error(t, err)
	})
}

func TestStatic(t *testing.T) {
	p, _ := fixture(t)

	t.Run("single property values are stored bare", func(t *testing.T) {
		src, err := p.Generate(expression.FieldTypeProp{Type: "integer", Prop: "value"}, nil, map[string]any{"min": 1})
		require.NoError(t, err)
		assert.Nil(t, src.Value())

		src, err = src.WithValue("42")
		require.NoError(t, err)
		assert.Equal(t, 42, src.Value())
		assert.Equal(t, "static:field_item:integer", src.SourceType())
		assert.Equal(t, `{"expression":"ℹ︎integer␟value","sourceType":"static:field_item:integer","sourceTypeSettings":{"instance":{"min":1}},"value":42}`, src.String())

		v, err := src.Evaluate(nil)
		require.NoError(t, err)
		assert.Equal(t, 42, v)
	})

	t.Run("multi property values", func(t *testing.T) {
		expr := expression.FieldTypeObjectProps{Type: "image", Props: []expression.ObjectProp[expression.FieldTypeExpression]{
			{Name: "src", Expr: expression.ReferenceFieldTypeProp{
				Referencer: expression.FieldTypeProp{Type: "image", Prop: "entity"},
				Referenced: expression.FieldProp{EntityType: content.EntityDataDefinition{EntityTypeID: "file"}, Field: "uri", Prop: "url"},
			}},
			{Name: "alt", Expr: expression.FieldTypeProp{Type: "image", Prop: "alt"}},
		}}
		src, err := p.Generate(expr, nil, nil)
		require.NoError(t, err)
		src, err = src.WithValue(map[string]any{"target_id": 7, "alt": "Hero"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"target_id": 7, "alt": "Hero"}, src.Value())

		v, err := src.Evaluate(nil)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"src": "/sites/default/files/hero.png", "alt": "Hero"}, v.(evaluator.Object).Map())

		_, err = src.WithValue("bare")
		assert.Error(t, err)
	})

	t.Run("round trip", func(t *testing.T) {
		src, err := p.Generate(expression.FieldTypeProp{Type: "list_string", Prop: "value"},
			map[string]any{"allowed_values": []any{map[string]any{"value": "a", "label": "a"}}}, nil)
		require.NoError(t, err)
		src, err = src.WithValue("a")
		require.NoError(t, err)

		again, err := p.ParseJSON([]byte(src.String()))
		require.NoError(t, err)
		assert.Equal(t, src.String(), again.String())

		want, err := src.Evaluate(nil)
		require.NoError(t, err)
		got, err := again.Evaluate(nil)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.Equal(t, src.AsChoice(), again.AsChoice())
	})
}

func TestIsMinimalRepresentation(t *testing.T) {
	p, _ := fixture(t)

	assert.NoError(t, p.IsMinimalRepresentation(map[string]any{
		"sourceType": "static:field_item:string", "value": "hi", "expression": "ℹ︎string␟value",
	}))
	assert.Error(t, p.IsMinimalRepresentation(map[string]any{
		"sourceType": "static:field_item:string", "value": map[string]any{"value": "hi"}, "expression": "ℹ︎string␟value",
	}))
	assert.Error(t, p.IsMinimalRepresentation(map[string]any{
		"sourceType": "static:field_item:integer", "value": "42", "expression": "ℹ︎integer␟value",
	}))
	assert.NoError(t, p.IsMinimalRepresentation(map[string]any{
		"sourceType": "static:field_item:image", "value": map[string]any{"target_id": 7}, "expression": "ℹ︎image␟alt",
	}))
	err := p.IsMinimalRepresentation(map[string]any{
		"sourceType": "static:field_item:image", "value": map[string]any{"alt": "Hero"}, "expression": "ℹ︎image␟alt",
	})
	assert.ErrorContains(t, err, "target_id properties are missing")
}

func TestDynamic(t *testing.T) {
	p, node := fixture(t)
	src, err := p.Parse(map[string]any{"sourceType": "dynamic", "expression": "ℹ︎␜entity:node:article␝title␞␟value"})
	require.NoError(t, err)

	v, err := src.Evaluate(node)
	require.NoError(t, err)
	assert.Equal(t, "Hello world", v)

	_, err = src.Evaluate(nil)
	assert.ErrorIs(t, err, ErrMissingHostEntity)

	var unsaved *memory.Entity
	_, err = src.Evaluate(unsaved)
	assert.ErrorIs(t, err, ErrMissingHostEntity)

	again, err := p.ParseJSON([]byte(src.String()))
	require.NoError(t, err)
	got, err := again.Evaluate(node)
	require.NoError(t, err)
	assert.Equal(t, v, got)
	assert.Equal(t, "ℹ︎␜entity:node:article␝title␞␟value", again.AsChoice())

	t.Run("field type expressions are rejected", func(t *testing.T) {
		_, err := p.Parse(map[string]any{"sourceType": "dynamic", "expression": "ℹ︎string␟value"})
		assert.Error(t, err)
	})
}

func TestAdapted(t *testing.T) {
	p, node := fixture(t)
	created := p.NewDynamic(expression.FieldProp{EntityType: article, Field: "created", Prop: "value"})
	src, err := p.NewAdapted("unix_to_date", map[string]Source{"unix": created})
	require.NoError(t, err)

	v, err := src.Evaluate(node)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", v)
	assert.Equal(t, "unix_to_date", src.AsChoice())
	assert.Equal(t, "adapter:unix_to_date", src.SourceType())

	_, err = src.Evaluate(nil)
	assert.ErrorIs(t, err, ErrMissingHostEntity)

	t.Run("nested static inputs", func(t *testing.T) {
		oldest, err := p.Generate(expression.FieldTypeProp{Type: "datetime", Prop: "value"}, map[string]any{"datetime_type": "date"}, nil)
		require.NoError(t, err)
		oldest, err = oldest.WithValue("2024-01-01")
		require.NoError(t, err)
		newest, err := oldest.WithValue("2024-01-31")
		require.NoError(t, err)

		days, err := p.NewAdapted("day_count", map[string]Source{"oldest": oldest, "newest": newest})
		require.NoError(t, err)
		again, err := p.ParseJSON([]byte(days.String()))
		require.NoError(t, err)

		v, err := again.Evaluate(nil)
		require.NoError(t, err)
		assert.Equal(t, 30, v)
	})

	_, err = p.NewAdapted("unix_to_date", map[string]Source{"seconds": created})
	assert.Error(t, err)
}
