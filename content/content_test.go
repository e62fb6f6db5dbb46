package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEntityDataDefinition(t *testing.T) {
	t.Run("with bundle", func(t *testing.T) {
		def, err := ParseEntityDataDefinition("entity:node:article")
		require.NoError(t, err)
		assert.Equal(t, "node", def.EntityTypeID)
		assert.Equal(t, "article", def.Bundle)
		assert.Equal(t, "entity:node:article", def.String())
	})

	t.Run("without bundle defaults to entity type", func(t *testing.T) {
		def, err := ParseEntityDataDefinition("entity:file")
		require.NoError(t, err)
		assert.Equal(t, "", def.Bundle)
		assert.Equal(t, "file", def.BundleOrDefault())
		assert.Equal(t, "entity:file", def.String())
	})

	for _, bad := range []string{"", "node:article", "entity", "entity::x", "entity:a:b:c"} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := ParseEntityDataDefinition(bad)
			assert.Error(t, err)
		})
	}
}

func TestFieldItemList_Item(t *testing.T) {
	var nilList *FieldItemList
	assert.Nil(t, nilList.Item(0))

	l := &FieldItemList{Name: "field_x", FieldType: "string"}
	assert.Nil(t, l.Item(0))
	assert.Nil(t, l.Item(-1))
}

func TestDataType_IsPrimitive(t *testing.T) {
	assert.True(t, DataTypeString.IsPrimitive())
	assert.True(t, DataTypeDateTimeISO8601.IsPrimitive())
	assert.False(t, DataTypeEntityReference.IsPrimitive())
	assert.False(t, DataTypeMap.IsPrimitive())
}
