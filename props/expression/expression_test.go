package expression

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacerider/neo-alchemist/content"
)

var (
	article = content.EntityDataDefinition{EntityTypeID: "node", Bundle: "article"}
	page    = content.EntityDataDefinition{EntityTypeID: "node", Bundle: "page"}
	file    = content.EntityDataDefinition{EntityTypeID: "file"}
)

func intPtr(i int) *int { return &i }

func fileURL() FieldProp {
	return FieldProp{EntityType: file, Field: "uri", Prop: "url"}
}

func TestString(t *testing.T) {
	tests := []struct {
		name string
		expr Expression
		want string
	}{
		{
			"field type prop",
			FieldTypeProp{Type: "string", Prop: "value"},
			Prefix + "string" + PropertyLevel + "value",
		},
		{
			"field prop without delta keeps empty segment",
			FieldProp{EntityType: article, Field: "title", Prop: "value"},
			Prefix + EntityLevel + "entity:node:article" + FieldLevel + "title" + FieldItemLevel + PropertyLevel + "value",
		},
		{
			"field prop with delta",
			FieldProp{EntityType: article, Field: "field_tags", Delta: intPtr(2), Prop: "target_id"},
			Prefix + EntityLevel + "entity:node:article" + FieldLevel + "field_tags" + FieldItemLevel + "2" + PropertyLevel + "target_id",
		},
		{
			"reference field prop",
			ReferenceFieldProp{
				Referencer: FieldProp{EntityType: article, Field: "field_image", Prop: "entity"},
				Referenced: fileURL(),
			},
			Prefix + EntityLevel + "entity:node:article" + FieldLevel + "field_image" + FieldItemLevel + PropertyLevel + "entity" +
				EntityLevel + EntityLevel + "entity:file" + FieldLevel + "uri" + FieldItemLevel + PropertyLevel + "url",
		},
		{
			"field type object props",
			FieldTypeObjectProps{Type: "image", Props: []ObjectProp[FieldTypeExpression]{
				{Name: "src", Expr: ReferenceFieldTypeProp{Referencer: FieldTypeProp{Type: "image", Prop: "entity"}, Referenced: fileURL()}},
				{Name: "alt", Expr: FieldTypeProp{Type: "image", Prop: "alt"}},
			}},
			Prefix + "image" + PropertyLevel + "{src" + FollowReference + "entity" + EntityLevel + EntityLevel + "entity:file" + FieldLevel + "uri" +
				FieldItemLevel + PropertyLevel + "url,alt" + UseProp + "alt}",
		},
		{
			"component prop",
			ComponentProp{ComponentID: "neo:card", Prop: "title"},
			ComponentPrefix + "neo:card" + PropertyLevel + "title",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.expr.String())
		})
	}
}

func TestRoundTrip(t *testing.T) {
	twoLevels := ReferenceFieldProp{
		Referencer: FieldProp{EntityType: article, Field: "field_related", Prop: "entity"},
		Referenced: ReferenceFieldProp{
			Referencer: FieldProp{EntityType: page, Field: "field_image", Delta: intPtr(0), Prop: "entity"},
			Referenced: fileURL(),
		},
	}

	exprs := map[string]Expression{
		"field type prop": FieldTypeProp{Type: "datetime", Prop: "value"},
		"reference field type prop": ReferenceFieldTypeProp{
			Referencer: FieldTypeProp{Type: "entity_reference", Prop: "entity"},
			Referenced: FieldProp{EntityType: article, Field: "title", Prop: "value"},
		},
		"field type object props": FieldTypeObjectProps{Type: "image", Props: []ObjectProp[FieldTypeExpression]{
			{Name: "src", Expr: ReferenceFieldTypeProp{Referencer: FieldTypeProp{Type: "image", Prop: "entity"}, Referenced: fileURL()}},
			{Name: "alt", Expr: FieldTypeProp{Type: "image", Prop: "alt"}},
			{Name: "width", Expr: FieldTypeProp{Type: "image", Prop: "width"}},
		}},
		"field prop":             FieldProp{EntityType: article, Field: "title", Prop: "value"},
		"field prop with delta":  FieldProp{EntityType: article, Field: "title", Delta: intPtr(7), Prop: "value"},
		"bundleless entity type": fileURL(),
		"reference field prop": ReferenceFieldProp{
			Referencer: FieldProp{EntityType: article, Field: "field_image", Prop: "entity"},
			Referenced: fileURL(),
		},
		"nested reference two levels deep": twoLevels,
		"field object props": FieldObjectProps{EntityType: article, Props: []ObjectProp[EntityExpression]{
			{Name: "src", Expr: ReferenceFieldProp{
				Referencer: FieldProp{EntityType: article, Field: "field_image", Prop: "entity"},
				Referenced: fileURL(),
			}},
			{Name: "alt", Expr: FieldProp{EntityType: article, Field: "field_image", Delta: intPtr(1), Prop: "alt"}},
		}},
		"reference into object": ReferenceFieldProp{
			Referencer: FieldProp{EntityType: article, Field: "field_author", Prop: "entity"},
			Referenced: FieldObjectProps{
				EntityType: content.EntityDataDefinition{EntityTypeID: "user"},
				Props: []ObjectProp[EntityExpression]{
					{Name: "name", Expr: FieldProp{EntityType: content.EntityDataDefinition{EntityTypeID: "user"}, Field: "name", Prop: "value"}},
					{Name: "mail", Expr: FieldProp{EntityType: content.EntityDataDefinition{EntityTypeID: "user"}, Field: "mail", Prop: "value"}},
				},
			},
		},
		"object entry following nested reference": FieldObjectProps{EntityType: article, Props: []ObjectProp[EntityExpression]{
			{Name: "deep", Expr: twoLevels},
			{Name: "title", Expr: FieldProp{EntityType: article, Field: "title", Prop: "value"}},
		}},
		"component prop": ComponentProp{ComponentID: "sdc.theme.card", Prop: "image"},
	}

	for name, expr := range exprs {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, Validate(expr))
			parsed, err := Parse(expr.String())
			require.NoError(t, err)
			assert.Equal(t, expr, parsed)
			assert.Equal(t, expr.String(), parsed.String())
		})
	}
}

func TestParse_AcceptsPrefixWithoutVariationSelector(t *testing.T) {
	parsed, err := Parse("ℹ" + "string" + PropertyLevel + "value")
	require.NoError(t, err)
	assert.Equal(t, FieldTypeProp{Type: "string", Prop: "value"}, parsed)
}

func TestParse_Errors(t *testing.T) {
	inputs := map[string]string{
		"empty":                 "",
		"no prefix":             "string" + PropertyLevel + "value",
		"missing prop":          Prefix + "string" + PropertyLevel,
		"bad entity data type":  Prefix + EntityLevel + "node:article" + FieldLevel + "title" + FieldItemLevel + PropertyLevel + "value",
		"non-numeric delta":     Prefix + EntityLevel + "entity:node" + FieldLevel + "title" + FieldItemLevel + "x" + PropertyLevel + "value",
		"follow without target": Prefix + "image" + PropertyLevel + "{src" + FollowReference + "entity}",
		"use with target": Prefix + "image" + PropertyLevel + "{src" + UseProp + "entity" + EntityLevel + EntityLevel +
			"entity:file" + FieldLevel + "uri" + FieldItemLevel + PropertyLevel + "url}",
		"trailing garbage":   Prefix + "string" + PropertyLevel + "value" + FieldLevel,
		"whitespace":         Prefix + "string" + PropertyLevel + "some value",
		"duplicate obj prop": Prefix + "image" + PropertyLevel + "{a" + UseProp + "alt,a" + UseProp + "title}",
	}
	for name, input := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(input)
			require.Error(t, err)
			var syntaxErr *SyntaxError
			assert.True(t, errors.As(err, &syntaxErr))
		})
	}
}

func TestParseTyped(t *testing.T) {
	_, err := ParseEntity(FieldTypeProp{Type: "string", Prop: "value"}.String())
	assert.Error(t, err)

	_, err = ParseFieldType(fileURL().String())
	assert.Error(t, err)

	_, err = ParseStructured(ComponentProp{ComponentID: "a", Prop: "b"}.String())
	assert.Error(t, err)

	cp, err := ParseComponentProp(ComponentPrefix + "neo:hero" + PropertyLevel + "heading")
	require.NoError(t, err)
	assert.Equal(t, ComponentProp{ComponentID: "neo:hero", Prop: "heading"}, cp)
}

func TestValidateIdentifier(t *testing.T) {
	assert.NoError(t, ValidateIdentifier("field_image"))
	assert.ErrorIs(t, ValidateIdentifier(""), ErrEmptyIdentifier)
	for _, bad := range []string{"a" + EntityLevel, "a,b", "x{", "has space", "a" + UseProp, ComponentPrefix + "x", "ℹ"} {
		assert.ErrorIs(t, ValidateIdentifier(bad), ErrReservedCharacter, bad)
	}

	_, err := NewFieldTypeProp("string", "val"+PropertyLevel+"ue")
	assert.ErrorIs(t, err, ErrReservedCharacter)

	_, err = NewFieldProp(content.EntityDataDefinition{EntityTypeID: "node:x"}, "title", nil, "value")
	assert.ErrorIs(t, err, ErrReservedCharacter)
}

func TestBind(t *testing.T) {
	image := FieldTypeObjectProps{Type: "image", Props: []ObjectProp[FieldTypeExpression]{
		{Name: "src", Expr: ReferenceFieldTypeProp{Referencer: FieldTypeProp{Type: "image", Prop: "entity"}, Referenced: fileURL()}},
		{Name: "alt", Expr: FieldTypeProp{Type: "image", Prop: "alt"}},
	}}
	bound, err := Bind(image, article, "field_hero")
	require.NoError(t, err)

	want := FieldObjectProps{EntityType: article, Props: []ObjectProp[EntityExpression]{
		{Name: "src", Expr: ReferenceFieldProp{
			Referencer: FieldProp{EntityType: article, Field: "field_hero", Prop: "entity"},
			Referenced: fileURL(),
		}},
		{Name: "alt", Expr: FieldProp{EntityType: article, Field: "field_hero", Prop: "alt"}},
	}}
	assert.Equal(t, want, bound)
}

type stubEntity struct {
	entityType, bundle string
}

func (s stubEntity) EntityTypeID() string                               { return s.entityType }
func (s stubEntity) Bundle() string                                     { return s.bundle }
func (s stubEntity) ID() string                                         { return "1" }
func (s stubEntity) IsNew() bool                                        { return false }
func (s stubEntity) Field(string) (*content.FieldItemList, bool)        { return nil, false }

func TestSupports(t *testing.T) {
	expr := FieldProp{EntityType: article, Field: "title", Prop: "value"}
	assert.NoError(t, expr.Supports(stubEntity{"node", "article"}))

	var mismatch *MismatchError
	require.ErrorAs(t, expr.Supports(stubEntity{"node", "page"}), &mismatch)
	assert.Contains(t, mismatch.Error(), "bundle `article`")

	require.ErrorAs(t, expr.Supports(stubEntity{"user", "user"}), &mismatch)
	require.ErrorAs(t, expr.Supports("not content"), &mismatch)

	assert.NoError(t, fileURL().Supports(stubEntity{"file", "file"}))
	require.ErrorAs(t, FieldTypeProp{Type: "string", Prop: "value"}.Supports(stubEntity{"file", "file"}), &mismatch)
}
