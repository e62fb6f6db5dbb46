package expression

import (
	"fmt"

	"github.com/jacerider/neo-alchemist/content"
)

// Bind turns a field-type level expression into the entity level expression
// reading the same properties from a concrete field on an entity bundle.
func Bind(e FieldTypeExpression, entity content.EntityDataDefinition, field string) (EntityExpression, error) {
	switch expr := e.(type) {
	case FieldTypeProp:
		return NewFieldProp(entity, field, nil, expr.Prop)
	case ReferenceFieldTypeProp:
		referencer, err := NewFieldProp(entity, field, nil, expr.Referencer.Prop)
		if err != nil {
			return nil, err
		}
		return ReferenceFieldProp{Referencer: referencer, Referenced: expr.Referenced}, nil
	case FieldTypeObjectProps:
		obj := FieldObjectProps{EntityType: entity}
		for _, p := range expr.Props {
			sub, err := Bind(p.Expr, entity, field)
			if err != nil {
				return nil, err
			}
			obj.Props = append(obj.Props, ObjectProp[EntityExpression]{Name: p.Name, Expr: sub})
		}
		return obj, obj.Validate()
	default:
		return nil, fmt.Errorf("cannot bind %T", e)
	}
}
