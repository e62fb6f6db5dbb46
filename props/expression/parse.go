package expression

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/jacerider/neo-alchemist/content"
)

// SyntaxError reports a malformed serialized expression.
type SyntaxError struct {
	Input string
	Err   error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid expression %q: %v", e.Input, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Parse parses any serialized expression.
func Parse(s string) (Expression, error) {
	raw, err := parser.ParseString("", s)
	if err != nil {
		return nil, &SyntaxError{Input: s, Err: err}
	}
	var expr Expression
	switch {
	case raw.Component != nil:
		expr, err = convertComponent(raw.Component)
	case raw.Structured != nil && raw.Structured.Entity != nil:
		expr, err = convertEntityLevel(raw.Structured.Entity)
	case raw.Structured != nil && raw.Structured.FieldType != nil:
		expr, err = convertFieldTypeLevel(raw.Structured.FieldType)
	default:
		err = errors.New("empty expression")
	}
	if err != nil {
		return nil, &SyntaxError{Input: s, Err: err}
	}
	return expr, nil
}

// ParseStructured parses an expression that can be evaluated.
func ParseStructured(s string) (Structured, error) {
	expr, err := Parse(s)
	if err != nil {
		return nil, err
	}
	structured, ok := expr.(Structured)
	if !ok {
		return nil, &SyntaxError{Input: s, Err: errors.New("not a structured data expression")}
	}
	return structured, nil
}

// ParseFieldType parses a field-type level expression.
func ParseFieldType(s string) (FieldTypeExpression, error) {
	expr, err := Parse(s)
	if err != nil {
		return nil, err
	}
	ft, ok := expr.(FieldTypeExpression)
	if !ok {
		return nil, &SyntaxError{Input: s, Err: errors.New("not a field type expression")}
	}
	return ft, nil
}

// ParseEntity parses an entity level expression.
func ParseEntity(s string) (EntityExpression, error) {
	expr, err := Parse(s)
	if err != nil {
		return nil, err
	}
	e, ok := expr.(EntityExpression)
	if !ok {
		return nil, &SyntaxError{Input: s, Err: errors.New("not an entity expression")}
	}
	return e, nil
}

// ParseComponentProp parses a component prop key.
func ParseComponentProp(s string) (ComponentProp, error) {
	expr, err := Parse(s)
	if err != nil {
		return ComponentProp{}, err
	}
	cp, ok := expr.(ComponentProp)
	if !ok {
		return ComponentProp{}, &SyntaxError{Input: s, Err: errors.New("not a component prop expression")}
	}
	return cp, nil
}

// MustParse panics on error. Intended for static declarations and tests.
func MustParse(s string) Expression {
	expr, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return expr
}

func convertComponent(raw *rawComponent) (ComponentProp, error) {
	return NewComponentProp(raw.ComponentID, raw.Prop)
}

func convertEntityLevel(raw *rawEntityLevel) (EntityExpression, error) {
	entity, err := content.ParseEntityDataDefinition(raw.EntityType)
	if err != nil {
		return nil, err
	}
	if raw.Body.Object != nil {
		obj := FieldObjectProps{EntityType: entity}
		for _, entry := range raw.Body.Object.Entries {
			sub, err := convertFieldTail(entity, entry.Tail)
			if err != nil {
				return nil, err
			}
			if err := checkSymbol(entry.Name, entry.Symbol, entry.Tail.Referenced != nil); err != nil {
				return nil, err
			}
			obj.Props = append(obj.Props, ObjectProp[EntityExpression]{Name: entry.Name, Expr: sub})
		}
		return obj, obj.Validate()
	}
	return convertFieldTail(entity, raw.Body.Field)
}

func convertFieldTail(entity content.EntityDataDefinition, raw *rawFieldTail) (EntityExpression, error) {
	fp := FieldProp{EntityType: entity, Field: raw.Field, Prop: raw.Prop}
	if raw.Delta != "" {
		delta, err := strconv.Atoi(raw.Delta)
		if err != nil || delta < 0 {
			return nil, fmt.Errorf("invalid delta %q", raw.Delta)
		}
		fp.Delta = &delta
	}
	if raw.Referenced == nil {
		return fp, fp.Validate()
	}
	referenced, err := convertEntityLevel(raw.Referenced)
	if err != nil {
		return nil, err
	}
	ref := ReferenceFieldProp{Referencer: fp, Referenced: referenced}
	return ref, ref.Validate()
}

func convertFieldTypeLevel(raw *rawFieldTypeLevel) (FieldTypeExpression, error) {
	if raw.Body.Object != nil {
		obj := FieldTypeObjectProps{Type: raw.FieldType}
		for _, entry := range raw.Body.Object.Entries {
			if err := checkSymbol(entry.Name, entry.Symbol, entry.Target.Referenced != nil); err != nil {
				return nil, err
			}
			sub, err := convertFieldTypeProp(raw.FieldType, entry.Target)
			if err != nil {
				return nil, err
			}
			obj.Props = append(obj.Props, ObjectProp[FieldTypeExpression]{Name: entry.Name, Expr: sub})
		}
		return obj, obj.Validate()
	}
	return convertFieldTypeProp(raw.FieldType, raw.Body.Prop)
}

func convertFieldTypeProp(fieldType string, raw *rawFieldTypeProp) (FieldTypeExpression, error) {
	fp := FieldTypeProp{Type: fieldType, Prop: raw.Prop}
	if raw.Referenced == nil {
		return fp, fp.Validate()
	}
	referenced, err := convertEntityLevel(raw.Referenced)
	if err != nil {
		return nil, err
	}
	ref := ReferenceFieldTypeProp{Referencer: fp, Referenced: referenced}
	return ref, ref.Validate()
}

// checkSymbol enforces that "↝" entries follow a reference and "↠" entries
// do not.
func checkSymbol(name, symbol string, hasReference bool) error {
	switch {
	case symbol == FollowReference && !hasReference:
		return fmt.Errorf("object prop %q follows a reference but names no referenced expression", name)
	case symbol == UseProp && hasReference:
		return fmt.Errorf("object prop %q uses a prop directly but names a referenced expression", name)
	}
	return nil
}
