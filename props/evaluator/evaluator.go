// Package evaluator walks content data with a structured-data expression and
// produces the value the expression points at.
package evaluator

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/spf13/cast"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/internal/debug"
	"github.com/jacerider/neo-alchemist/props/expression"
)

var (
	// ErrNoData is returned when an expression other than a reference is
	// evaluated without data.
	ErrNoData = errors.New("no data provided to evaluate expression")
	// ErrUnsupportedExpression is returned for expressions outside the
	// evaluable family. It indicates a programming error.
	ErrUnsupportedExpression = errors.New("unsupported expression")
)

// MismatchError is returned when data does not match what an expression
// was written for.
type MismatchError = expression.MismatchError

// DateTimeTypeDateTime is the datetime_type storage setting value for
// date+time granularity.
const DateTimeTypeDateTime = "datetime"

// Evaluator evaluates expressions against entities and field items.
type Evaluator struct{}

// New creates an Evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// Evaluate returns the value expr points at. data must be nil, a
// content.Entity or a content.FieldItem.
//
// A nil data is legal only for reference expressions, where it means the
// reference target is unset, and yields nil.
func (e *Evaluator) Evaluate(data any, expr expression.Structured) (any, error) {
	result, err := e.evaluate(data, expr)
	if err != nil {
		return nil, err
	}
	return appendUTCDesignator(data, expr, result), nil
}

func (e *Evaluator) evaluate(data any, expr expression.Structured) (any, error) {
	if IsNil(data) {
		switch expr.(type) {
		case expression.ReferenceFieldProp, expression.ReferenceFieldTypeProp:
			return nil, nil
		}
		return nil, fmt.Errorf("%w %s", ErrNoData, expr)
	}

	if err := expr.Supports(data); err != nil {
		return nil, err
	}

	switch x := expr.(type) {
	case expression.FieldTypeProp:
		return readProperty(data.(content.FieldItem), x, x.Prop)

	case expression.FieldTypeObjectProps:
		obj := make(Object, 0, len(x.Props))
		for _, p := range x.Props {
			v, err := e.Evaluate(data, p.Expr)
			if err != nil {
				return nil, err
			}
			obj = append(obj, Entry{Key: p.Name, Value: v})
		}
		return obj, nil

	case expression.ReferenceFieldTypeProp:
		prop, err := data.(content.FieldItem).Property(x.Referencer.Prop)
		if err != nil {
			return nil, &MismatchError{Expression: x.String(), Reason: err.Error()}
		}
		return e.follow(prop.Value, x.Referenced)

	case expression.FieldProp:
		item, err := fieldItem(data.(content.Entity), x)
		if err != nil || item == nil {
			return nil, err
		}
		return readProperty(item, x, x.Prop)

	case expression.ReferenceFieldProp:
		target, err := e.Evaluate(data, x.Referencer)
		if err != nil {
			return nil, err
		}
		return e.follow(target, x.Referenced)

	case expression.FieldObjectProps:
		obj := make(Object, 0, len(x.Props))
		for _, p := range x.Props {
			v, err := e.Evaluate(data, p.Expr)
			if err != nil {
				return nil, err
			}
			obj = append(obj, Entry{Key: p.Name, Value: v})
		}
		return obj, nil

	default:
		return nil, fmt.Errorf("%w: %T %s", ErrUnsupportedExpression, expr, expr)
	}
}

// follow evaluates referenced against the target entity. An unset target
// yields nil.
func (e *Evaluator) follow(target any, referenced expression.EntityExpression) (any, error) {
	if IsNil(target) {
		debug.Debug("reference target unset", "expression", referenced.String())
		return nil, nil
	}
	entity, ok := target.(content.Entity)
	if !ok {
		return nil, &MismatchError{Expression: referenced.String(), Reason: fmt.Sprintf("requires an entity, got %T", target)}
	}
	return e.Evaluate(entity, referenced)
}

func fieldItem(entity content.Entity, expr expression.FieldProp) (content.FieldItem, error) {
	list, ok := entity.Field(expr.Field)
	if !ok {
		return nil, &MismatchError{
			Expression: expr.String(),
			Reason:     fmt.Sprintf("reads field `%s`, which does not exist on %s %s", expr.Field, entity.EntityTypeID(), entity.Bundle()),
		}
	}
	return list.Item(expr.DeltaOrFirst()), nil
}

// readProperty returns the casted scalar for primitive properties and the
// raw value otherwise.
func readProperty(item content.FieldItem, expr expression.Expression, name string) (any, error) {
	prop, err := item.Property(name)
	if err != nil {
		return nil, &MismatchError{Expression: expr.String(), Reason: err.Error()}
	}
	if prop.Value == nil || !prop.IsPrimitive() {
		return prop.Value, nil
	}
	return castPrimitive(prop.Definition.DataType, prop.Value)
}

func castPrimitive(t content.DataType, v any) (any, error) {
	switch t {
	case content.DataTypeInteger, content.DataTypeTimestamp:
		return cast.ToIntE(v)
	case content.DataTypeFloat:
		return cast.ToFloat64E(v)
	case content.DataTypeBoolean:
		return cast.ToBoolE(v)
	default:
		return cast.ToStringE(v)
	}
}

// appendUTCDesignator compensates for date+time storage omitting the
// timezone designator.
func appendUTCDesignator(data any, expr expression.Structured, result any) any {
	ftp, ok := expr.(expression.FieldTypeProp)
	if !ok || ftp.Type != "datetime" {
		return result
	}
	item, ok := data.(content.FieldItem)
	if !ok || cast.ToString(item.StorageSetting("datetime_type")) != DateTimeTypeDateTime {
		return result
	}
	s, ok := result.(string)
	if !ok || s == "" {
		return result
	}
	return s + "Z"
}

// IsNil reports whether v is nil, including a nil pointer held in an
// interface.
func IsNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}
