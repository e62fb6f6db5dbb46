// Package expression implements the structured-data prop expression language:
// compact, lossless pointers into content data, serialized with a reserved
// delimiter alphabet that never occurs in legal identifiers.
//
// Field-type level expressions address properties of a field item regardless
// of where it lives. Entity level expressions address a concrete field on an
// entity type and bundle. Reference expressions follow an entity reference
// and continue on the target entity. ComponentProp keys a component prop and
// is never evaluated.
package expression

import (
	"strconv"
	"strings"

	"github.com/jacerider/neo-alchemist/content"
)

// Reserved delimiters.
const (
	Prefix          = "\u2139\uFE0E"
	EntityLevel     = "␜"
	FieldLevel      = "␝"
	FieldItemLevel  = "␞"
	PropertyLevel   = "␟"
	ObjectOpen      = "{"
	ObjectClose     = "}"
	ObjectSeparator = ","
	FollowReference = "↝"
	UseProp         = "↠"
	ComponentPrefix = "⿲"
)

// Expression is any member of the closed expression family.
type Expression interface {
	String() string
	isExpression()
}

// Structured is an expression that can be evaluated against content data.
type Structured interface {
	Expression
	// Supports returns a *MismatchError when data is not the kind of entity
	// or field item the expression was written for.
	Supports(data any) error
}

// FieldTypeExpression addresses data inside a field item.
type FieldTypeExpression interface {
	Structured
	// FieldType returns the field type whose items the expression reads.
	FieldType() string
	isFieldTypeLevel()
}

// EntityExpression addresses data inside an entity.
type EntityExpression interface {
	Structured
	// Entity returns the entity type and bundle the expression reads.
	Entity() content.EntityDataDefinition
	isEntityLevel()
}

// FieldTypeProp points at one property of a field item, delta-agnostic.
type FieldTypeProp struct {
	Type string
	Prop string
}

// ReferenceFieldTypeProp follows the entity referenced by a field item
// property and evaluates Referenced against the target entity.
type ReferenceFieldTypeProp struct {
	Referencer FieldTypeProp
	Referenced EntityExpression
}

// FieldTypeObjectProps composes several properties of one field item into an
// object. Entry expressions are FieldTypeProp or ReferenceFieldTypeProp.
type FieldTypeObjectProps struct {
	Type  string
	Props []ObjectProp[FieldTypeExpression]
}

// FieldProp points at a property of a field on an entity. A nil Delta means
// unspecified, which evaluates the first item.
type FieldProp struct {
	EntityType content.EntityDataDefinition
	Field      string
	Delta      *int
	Prop       string
}

// ReferenceFieldProp follows an entity reference at the content level.
type ReferenceFieldProp struct {
	Referencer FieldProp
	Referenced EntityExpression
}

// FieldObjectProps composes properties of fields on one entity into an
// object. Entry expressions are FieldProp or ReferenceFieldProp.
type FieldObjectProps struct {
	EntityType content.EntityDataDefinition
	Props      []ObjectProp[EntityExpression]
}

// ObjectProp is one named entry of an object expression. Order is preserved.
type ObjectProp[E Structured] struct {
	Name string
	Expr E
}

// ComponentProp identifies a prop of a component.
type ComponentProp struct {
	ComponentID string
	Prop        string
}

func (FieldTypeProp) isExpression()          {}
func (ReferenceFieldTypeProp) isExpression() {}
func (FieldTypeObjectProps) isExpression()   {}
func (FieldProp) isExpression()              {}
func (ReferenceFieldProp) isExpression()     {}
func (FieldObjectProps) isExpression()       {}
func (ComponentProp) isExpression()          {}

func (FieldTypeProp) isFieldTypeLevel()          {}
func (ReferenceFieldTypeProp) isFieldTypeLevel() {}
func (FieldTypeObjectProps) isFieldTypeLevel()   {}

func (FieldProp) isEntityLevel()          {}
func (ReferenceFieldProp) isEntityLevel() {}
func (FieldObjectProps) isEntityLevel()   {}

func (e FieldTypeProp) FieldType() string          { return e.Type }
func (e ReferenceFieldTypeProp) FieldType() string { return e.Referencer.Type }
func (e FieldTypeObjectProps) FieldType() string   { return e.Type }

func (e FieldProp) Entity() content.EntityDataDefinition          { return e.EntityType }
func (e ReferenceFieldProp) Entity() content.EntityDataDefinition { return e.Referencer.EntityType }
func (e FieldObjectProps) Entity() content.EntityDataDefinition   { return e.EntityType }

// DeltaOrFirst returns the delta to read.
func (e FieldProp) DeltaOrFirst() int {
	if e.Delta == nil {
		return 0
	}
	return *e.Delta
}

// WithDelta returns a copy pinned to delta.
func (e FieldProp) WithDelta(delta int) FieldProp {
	e.Delta = &delta
	return e
}

// WithDelta returns a copy whose referencer is pinned to delta.
func (e ReferenceFieldProp) WithDelta(delta int) ReferenceFieldProp {
	e.Referencer = e.Referencer.WithDelta(delta)
	return e
}

func (e FieldTypeProp) String() string {
	return Prefix + e.Type + PropertyLevel + e.Prop
}

func (e ReferenceFieldTypeProp) String() string {
	return e.Referencer.String() + EntityLevel + withoutPrefix(e.Referenced.String())
}

func (e FieldTypeObjectProps) String() string {
	entries := make([]string, len(e.Props))
	for i, p := range e.Props {
		switch sub := p.Expr.(type) {
		case ReferenceFieldTypeProp:
			entries[i] = p.Name + FollowReference + sub.Referencer.Prop + EntityLevel + withoutPrefix(sub.Referenced.String())
		case FieldTypeProp:
			entries[i] = p.Name + UseProp + sub.Prop
		}
	}
	return Prefix + e.Type + PropertyLevel + ObjectOpen + strings.Join(entries, ObjectSeparator) + ObjectClose
}

func (e FieldProp) String() string {
	return Prefix + EntityLevel + e.EntityType.String() + FieldLevel + e.fieldTail()
}

func (e FieldProp) fieldTail() string {
	delta := ""
	if e.Delta != nil {
		delta = strconv.Itoa(*e.Delta)
	}
	return e.Field + FieldItemLevel + delta + PropertyLevel + e.Prop
}

func (e ReferenceFieldProp) String() string {
	return e.Referencer.String() + EntityLevel + withoutPrefix(e.Referenced.String())
}

func (e FieldObjectProps) String() string {
	entries := make([]string, len(e.Props))
	for i, p := range e.Props {
		switch sub := p.Expr.(type) {
		case ReferenceFieldProp:
			entries[i] = p.Name + FollowReference + sub.Referencer.fieldTail() + EntityLevel + withoutPrefix(sub.Referenced.String())
		case FieldProp:
			entries[i] = p.Name + UseProp + sub.fieldTail()
		}
	}
	return Prefix + EntityLevel + e.EntityType.String() + FieldLevel + ObjectOpen + strings.Join(entries, ObjectSeparator) + ObjectClose
}

func (e ComponentProp) String() string {
	return ComponentPrefix + e.ComponentID + PropertyLevel + e.Prop
}

func withoutPrefix(s string) string {
	return strings.TrimPrefix(s, Prefix)
}
