package expression

import (
	"fmt"

	"github.com/jacerider/neo-alchemist/content"
)

// MismatchError reports that an expression was evaluated against data of the
// wrong kind, entity type, bundle or field type. It signals an integration
// bug or schema drift, never absent data.
type MismatchError struct {
	Expression string
	Reason     string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("`%s` %s", e.Expression, e.Reason)
}

func (e FieldTypeProp) Supports(data any) error {
	return supportsFieldType(e, e.Type, data)
}

func (e ReferenceFieldTypeProp) Supports(data any) error {
	return supportsFieldType(e, e.Referencer.Type, data)
}

func (e FieldTypeObjectProps) Supports(data any) error {
	return supportsFieldType(e, e.Type, data)
}

func (e FieldProp) Supports(data any) error {
	return supportsEntity(e, e.EntityType, data)
}

func (e ReferenceFieldProp) Supports(data any) error {
	return supportsEntity(e, e.Referencer.EntityType, data)
}

func (e FieldObjectProps) Supports(data any) error {
	return supportsEntity(e, e.EntityType, data)
}

func supportsFieldType(e Expression, fieldType string, data any) error {
	item, ok := data.(content.FieldItem)
	if !ok {
		return &MismatchError{Expression: e.String(), Reason: fmt.Sprintf("requires a field item, got %T", data)}
	}
	if item.FieldType() != fieldType {
		return &MismatchError{
			Expression: e.String(),
			Reason:     fmt.Sprintf("is an expression for field type `%s`, but the provided field item is of type `%s`", fieldType, item.FieldType()),
		}
	}
	return nil
}

func supportsEntity(e Expression, def content.EntityDataDefinition, data any) error {
	entity, ok := data.(content.Entity)
	if !ok {
		return &MismatchError{Expression: e.String(), Reason: fmt.Sprintf("requires an entity, got %T", data)}
	}
	if entity.EntityTypeID() != def.EntityTypeID {
		return &MismatchError{
			Expression: e.String(),
			Reason:     fmt.Sprintf("is an expression for entity type `%s`, but the provided entity is of type `%s`", def.EntityTypeID, entity.EntityTypeID()),
		}
	}
	if entity.Bundle() != def.BundleOrDefault() {
		return &MismatchError{
			Expression: e.String(),
			Reason: fmt.Sprintf("is an expression for entity type `%s`, bundle `%s`, but the provided entity is of the bundle `%s`",
				def.EntityTypeID, def.BundleOrDefault(), entity.Bundle()),
		}
	}
	return nil
}
