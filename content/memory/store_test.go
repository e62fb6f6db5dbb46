package memory

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/content/fieldtype"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s := New(fieldtype.Builtin())
	require.NoError(t, s.DefineField(content.FieldDefinition{EntityTypeID: "file", Bundle: "file", Name: "uri", FieldType: "file_uri"}))
	require.NoError(t, s.DefineField(content.FieldDefinition{EntityTypeID: "node", Bundle: "article", Name: "title", FieldType: "string"}))
	require.NoError(t, s.DefineField(content.FieldDefinition{EntityTypeID: "node", Bundle: "article", Name: "field_image", FieldType: "image"}))
	return s
}

func TestStore_CreateSaveLoad(t *testing.T) {
	s := newStore(t)

	f, err := s.Put("file", "file", "3", map[string][]map[string]any{
		"uri": {{"value": "public://cat.jpg"}},
	})
	require.NoError(t, err)
	assert.False(t, f.IsNew())

	node, err := s.Create("node", "article", map[string][]map[string]any{
		"title":       {{"value": "Hello"}},
		"field_image": {{"target_id": 3, "alt": "A cat", "width": "640"}},
	})
	require.NoError(t, err)
	assert.True(t, node.IsNew())
	assert.Equal(t, "", node.ID())

	require.NoError(t, s.Save(node))
	assert.False(t, node.IsNew())
	assert.NotEmpty(t, node.ID())

	loaded, err := s.Load("node", node.ID())
	require.NoError(t, err)
	images, ok := loaded.Field("field_image")
	require.True(t, ok)
	item := images.Item(0)
	require.NotNil(t, item)

	width, err := item.Property("width")
	require.NoError(t, err)
	assert.Equal(t, 640, width.Value)

	ref, err := item.Property("entity")
	require.NoError(t, err)
	target, ok := ref.Value.(content.Entity)
	require.True(t, ok)
	assert.Equal(t, "3", target.ID())

	uris, _ := target.Field("uri")
	url, err := uris.Item(0).Property("url")
	require.NoError(t, err)
	assert.Equal(t, "/sites/default/files/cat.jpg", url.Value)
}

func TestStore_Errors(t *testing.T) {
	s := newStore(t)

	_, err := s.Create("node", "article", map[string][]map[string]any{"nope": {{"value": 1}}})
	assert.Error(t, err)

	_, err = s.Load("node", "404")
	assert.ErrorIs(t, err, content.ErrEntityNotFound)

	err = s.DefineField(content.FieldDefinition{EntityTypeID: "node", Bundle: "article", Name: "x", FieldType: "nope"})
	assert.ErrorIs(t, err, fieldtype.ErrUnknownFieldType)
}

func TestStore_DanglingReferenceResolvesToNil(t *testing.T) {
	s := newStore(t)
	node, err := s.Put("node", "article", "1", map[string][]map[string]any{
		"field_image": {{"target_id": 99}},
	})
	require.NoError(t, err)

	images, _ := node.Field("field_image")
	ref, err := images.Item(0).Property("entity")
	require.NoError(t, err)
	assert.Nil(t, ref.Value)
}

const fixtureYAML = `
fields:
  - {entity_type: file, name: uri, type: file_uri}
  - {entity_type: node, bundle: article, name: title, type: string, label: Title, required: true}
entities:
  - {entity_type: file, id: "5", values: {uri: [{value: "public://a.png"}]}}
  - entity_type: node
    bundle: article
    id: "1"
    values:
      title: [{value: Hello}]
`

func TestFixture(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/content.yml", []byte(fixtureYAML), 0o644))

	f, err := LoadFixture(fs, "/content.yml")
	require.NoError(t, err)
	require.Len(t, f.Fields, 2)
	assert.Equal(t, "file", f.Fields[0].Definition().Bundle)

	s := New(fieldtype.Builtin())
	require.NoError(t, s.Apply(f))

	defs, err := s.FieldDefinitions("node", "article")
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Equal(t, "Title", defs[0].Label)

	file, err := s.Load("file", "5")
	require.NoError(t, err)
	assert.Equal(t, "file", file.Bundle())

	t.Run("errors", func(t *testing.T) {
		_, err := ParseFixture([]byte("entities: [{entity_type: node}]"))
		assert.Error(t, err)
		_, err = ParseFixture([]byte("fields: {"))
		assert.Error(t, err)

		bad, err := ParseFixture([]byte("entities: [{entity_type: node, bundle: page, id: '1', values: {body: [{value: x}]}}]"))
		require.NoError(t, err)
		assert.Error(t, New(fieldtype.Builtin()).Apply(bad))
	})
}
