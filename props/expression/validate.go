package expression

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/jacerider/neo-alchemist/content"
)

var (
	// ErrEmptyIdentifier is returned for blank names.
	ErrEmptyIdentifier = errors.New("identifier must not be empty")
	// ErrReservedCharacter is returned for names containing a delimiter rune.
	ErrReservedCharacter = errors.New("identifier contains a reserved delimiter character")
)

var reservedRunes = []rune{
	'\u2139', '\uFE0E', // prefix
	'\u241C', '\u241D', '\u241E', '\u241F', // levels
	'{', '}', ',',
	'\u219D', '\u21A0', '\u2FF2',
}

// ValidateIdentifier checks a field type, field, prop, object prop or
// component name. Names may not be blank, contain whitespace, or contain any
// rune of the delimiter alphabet.
func ValidateIdentifier(name string) error {
	if name == "" {
		return ErrEmptyIdentifier
	}
	for _, r := range name {
		if unicode.IsSpace(r) {
			return fmt.Errorf("%w: %q contains whitespace", ErrReservedCharacter, name)
		}
	}
	if i := strings.IndexFunc(name, isReserved); i >= 0 {
		return fmt.Errorf("%w: %q at byte %d", ErrReservedCharacter, name, i)
	}
	return nil
}

func isReserved(r rune) bool {
	for _, reserved := range reservedRunes {
		if r == reserved {
			return true
		}
	}
	return false
}

func validateEntity(def content.EntityDataDefinition) error {
	if err := ValidateIdentifier(def.EntityTypeID); err != nil {
		return fmt.Errorf("entity type: %w", err)
	}
	if def.Bundle != "" {
		if err := ValidateIdentifier(def.Bundle); err != nil {
			return fmt.Errorf("bundle: %w", err)
		}
	}
	if strings.Contains(def.EntityTypeID, ":") || strings.Contains(def.Bundle, ":") {
		return fmt.Errorf("entity data type %q: %w", def.String(), ErrReservedCharacter)
	}
	return nil
}

// Validate checks every identifier in the expression.
func (e FieldTypeProp) Validate() error {
	if err := ValidateIdentifier(e.Type); err != nil {
		return fmt.Errorf("field type: %w", err)
	}
	if err := ValidateIdentifier(e.Prop); err != nil {
		return fmt.Errorf("prop: %w", err)
	}
	return nil
}

// Validate checks the referencer and the referenced expression.
func (e ReferenceFieldTypeProp) Validate() error {
	if err := e.Referencer.Validate(); err != nil {
		return err
	}
	if e.Referenced == nil {
		return errors.New("reference expression has no referenced expression")
	}
	return validateStructured(e.Referenced)
}

// Validate checks the field type and every entry. Entries must read the
// same field type and be FieldTypeProp or ReferenceFieldTypeProp.
func (e FieldTypeObjectProps) Validate() error {
	if err := ValidateIdentifier(e.Type); err != nil {
		return fmt.Errorf("field type: %w", err)
	}
	if len(e.Props) == 0 {
		return errors.New("object expression has no props")
	}
	seen := make(map[string]bool, len(e.Props))
	for _, p := range e.Props {
		if err := ValidateIdentifier(p.Name); err != nil {
			return fmt.Errorf("object prop: %w", err)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate object prop %q", p.Name)
		}
		seen[p.Name] = true
		switch sub := p.Expr.(type) {
		case FieldTypeProp, ReferenceFieldTypeProp:
			if sub.FieldType() != e.Type {
				return fmt.Errorf("object prop %q reads field type %q, expected %q", p.Name, sub.FieldType(), e.Type)
			}
			if err := validateStructured(sub); err != nil {
				return err
			}
		default:
			return fmt.Errorf("object prop %q: unsupported expression %T", p.Name, p.Expr)
		}
	}
	return nil
}

// Validate checks every identifier in the expression.
func (e FieldProp) Validate() error {
	if err := validateEntity(e.EntityType); err != nil {
		return err
	}
	if err := ValidateIdentifier(e.Field); err != nil {
		return fmt.Errorf("field: %w", err)
	}
	if e.Delta != nil && *e.Delta < 0 {
		return fmt.Errorf("negative delta %d", *e.Delta)
	}
	if err := ValidateIdentifier(e.Prop); err != nil {
		return fmt.Errorf("prop: %w", err)
	}
	return nil
}

// Validate checks the referencer and the referenced expression.
func (e ReferenceFieldProp) Validate() error {
	if err := e.Referencer.Validate(); err != nil {
		return err
	}
	if e.Referenced == nil {
		return errors.New("reference expression has no referenced expression")
	}
	return validateStructured(e.Referenced)
}

// Validate checks the entity type and every entry. Entries must read the
// same entity type and be FieldProp or ReferenceFieldProp.
func (e FieldObjectProps) Validate() error {
	if err := validateEntity(e.EntityType); err != nil {
		return err
	}
	if len(e.Props) == 0 {
		return errors.New("object expression has no props")
	}
	seen := make(map[string]bool, len(e.Props))
	for _, p := range e.Props {
		if err := ValidateIdentifier(p.Name); err != nil {
			return fmt.Errorf("object prop: %w", err)
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate object prop %q", p.Name)
		}
		seen[p.Name] = true
		switch sub := p.Expr.(type) {
		case FieldProp, ReferenceFieldProp:
			if sub.Entity() != e.EntityType {
				return fmt.Errorf("object prop %q reads %s, expected %s", p.Name, sub.Entity(), e.EntityType)
			}
			if err := validateStructured(sub); err != nil {
				return err
			}
		default:
			return fmt.Errorf("object prop %q: unsupported expression %T", p.Name, p.Expr)
		}
	}
	return nil
}

// Validate checks both identifiers.
func (e ComponentProp) Validate() error {
	if err := ValidateIdentifier(e.ComponentID); err != nil {
		return fmt.Errorf("component: %w", err)
	}
	if err := ValidateIdentifier(e.Prop); err != nil {
		return fmt.Errorf("prop: %w", err)
	}
	return nil
}

type validator interface {
	Validate() error
}

func validateStructured(e Structured) error {
	v, ok := e.(validator)
	if !ok {
		return fmt.Errorf("unsupported expression %T", e)
	}
	return v.Validate()
}

// Validate checks any expression.
func Validate(e Expression) error {
	v, ok := e.(validator)
	if !ok {
		return fmt.Errorf("unsupported expression %T", e)
	}
	return v.Validate()
}

// NewFieldTypeProp builds a validated FieldTypeProp.
func NewFieldTypeProp(fieldType, prop string) (FieldTypeProp, error) {
	e := FieldTypeProp{Type: fieldType, Prop: prop}
	return e, e.Validate()
}

// NewFieldProp builds a validated FieldProp.
func NewFieldProp(entity content.EntityDataDefinition, field string, delta *int, prop string) (FieldProp, error) {
	e := FieldProp{EntityType: entity, Field: field, Delta: delta, Prop: prop}
	return e, e.Validate()
}

// NewComponentProp builds a validated ComponentProp.
func NewComponentProp(componentID, prop string) (ComponentProp, error) {
	e := ComponentProp{ComponentID: componentID, Prop: prop}
	return e, e.Validate()
}
