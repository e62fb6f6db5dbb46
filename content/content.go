// Package content defines the boundary between the props engine and the
// content storage layer: entities, their field items, and the field-type
// catalog that knows how field items are shaped.
//
// The engine never talks to a database directly. Everything it reads goes
// through the interfaces declared here, which keeps evaluation and validation
// testable against in-memory fixtures.
package content

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEntityNotFound is returned by loaders when a referenced entity is absent.
var ErrEntityNotFound = errors.New("entity not found")

// Entity is a piece of fieldable content.
type Entity interface {
	EntityTypeID() string
	Bundle() string
	ID() string
	// IsNew reports whether the entity has not been saved yet.
	IsNew() bool
	// Field returns the items of a field, or false when the bundle has no
	// such field.
	Field(name string) (*FieldItemList, bool)
}

// FieldItemList is the ordered list of items stored in one field.
type FieldItemList struct {
	Name      string
	FieldType string
	Items     []FieldItem
}

// Item returns the item at delta, or nil when it does not exist.
func (l *FieldItemList) Item(delta int) FieldItem {
	if l == nil || delta < 0 || delta >= len(l.Items) {
		return nil
	}
	return l.Items[delta]
}

// FieldItem is a single value of a field, made of named properties.
type FieldItem interface {
	FieldType() string
	// Property returns a named property. Computed properties, such as the
	// referenced entity of a reference field, are resolved lazily.
	Property(name string) (Property, error)
	// Values returns the stored (non-computed) property values.
	Values() map[string]any
	SetValues(values map[string]any) error
	IsEmpty() bool
	StorageSetting(name string) any
	InstanceSetting(name string) any
	StorageSettings() map[string]any
	InstanceSettings() map[string]any
}

// Property is one typed value inside a field item.
type Property struct {
	Definition PropertyDefinition
	Value      any
}

// IsPrimitive reports whether the property holds a scalar.
func (p Property) IsPrimitive() bool {
	return p.Definition.DataType.IsPrimitive()
}

// DataType is the typed-data type of a field property.
type DataType string

const (
	DataTypeString          DataType = "string"
	DataTypeInteger         DataType = "integer"
	DataTypeFloat           DataType = "float"
	DataTypeBoolean         DataType = "boolean"
	DataTypeEmail           DataType = "email"
	DataTypeURI             DataType = "uri"
	DataTypeDateTimeISO8601 DataType = "datetime_iso8601"
	DataTypeTimestamp       DataType = "timestamp"
	DataTypeEntityReference DataType = "entity_reference"
	DataTypeMap             DataType = "map"
)

// IsPrimitive reports whether values of the type are scalars.
func (t DataType) IsPrimitive() bool {
	switch t {
	case DataTypeEntityReference, DataTypeMap:
		return false
	default:
		return true
	}
}

// PropertyDefinition describes a field-type property.
type PropertyDefinition struct {
	Name     string
	DataType DataType
	Computed bool
	Required bool
	// Constraints maps constraint names to their options.
	Constraints map[string]map[string]any
	// Interfaces lists interface tags the property's data type implements,
	// such as DateTimeInterface.
	Interfaces []string
}

// HasInterface reports whether the property implements the interface tag.
func (d PropertyDefinition) HasInterface(tag string) bool {
	for _, i := range d.Interfaces {
		if i == tag {
			return true
		}
	}
	return false
}

// FieldDefinition describes a field configured on an entity bundle.
type FieldDefinition struct {
	EntityTypeID     string
	Bundle           string
	Name             string
	FieldType        string
	Label            string
	Required         bool
	StorageSettings  map[string]any
	InstanceSettings map[string]any
}

// FieldTypeCatalog knows the shape of every field type.
type FieldTypeCatalog interface {
	Has(fieldType string) bool
	PropertyCount(fieldType string) (int, error)
	MainPropertyName(fieldType string) (string, error)
	PropertyDefinitions(fieldType string, storage, instance map[string]any) ([]PropertyDefinition, error)
	CreateFieldItem(fieldType string, storage, instance map[string]any) (FieldItem, error)
}

// EntityLoader loads entities by type and ID.
type EntityLoader interface {
	Load(entityTypeID, id string) (Entity, error)
}

// FieldDefinitionProvider lists the fields configured on a bundle.
type FieldDefinitionProvider interface {
	FieldDefinitions(entityTypeID, bundle string) ([]FieldDefinition, error)
}

// EntityDataDefinition identifies an entity type and optional bundle in the
// typed-data notation "entity:<type>[:<bundle>]".
type EntityDataDefinition struct {
	EntityTypeID string
	Bundle       string
}

// ParseEntityDataDefinition parses "entity:node:article" or "entity:file".
func ParseEntityDataDefinition(s string) (EntityDataDefinition, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 || parts[0] != "entity" {
		return EntityDataDefinition{}, fmt.Errorf("invalid entity data type %q", s)
	}
	def := EntityDataDefinition{EntityTypeID: parts[1]}
	if len(parts) == 3 {
		def.Bundle = parts[2]
	}
	if def.EntityTypeID == "" || (len(parts) == 3 && def.Bundle == "") {
		return EntityDataDefinition{}, fmt.Errorf("invalid entity data type %q", s)
	}
	return def, nil
}

// String returns the data type notation.
func (d EntityDataDefinition) String() string {
	if d.Bundle == "" {
		return "entity:" + d.EntityTypeID
	}
	return "entity:" + d.EntityTypeID + ":" + d.Bundle
}

// BundleOrDefault returns the bundle, falling back to the entity type ID for
// entity types without bundles.
func (d EntityDataDefinition) BundleOrDefault() string {
	if d.Bundle == "" {
		return d.EntityTypeID
	}
	return d.Bundle
}
