package propshape

import (
	"github.com/jacerider/neo-alchemist/props/expression"
)

// Candidate is a storage recommendation that has not been frozen yet. The
// alter hook receives and returns candidates.
type Candidate struct {
	Shape            *Shape
	FieldTypeProp    expression.FieldTypeExpression
	FieldWidget      string
	StorageSettings  map[string]any
	InstanceSettings map[string]any
}

// AlterFunc adjusts the storage recommendation of a shape. It runs once per
// shape, before the result is cached.
type AlterFunc func(Candidate) Candidate

// ToStorable freezes the candidate. It returns nil when no field type was
// chosen.
func (c Candidate) ToStorable() *Storable {
	if c.FieldTypeProp == nil {
		return nil
	}
	return &Storable{
		shape:            c.Shape,
		fieldTypeProp:    c.FieldTypeProp,
		fieldWidget:      c.FieldWidget,
		storageSettings:  cloneMap(c.StorageSettings),
		instanceSettings: cloneMap(c.InstanceSettings),
	}
}

// Storable is the immutable storage plan of a shape.
type Storable struct {
	shape            *Shape
	fieldTypeProp    expression.FieldTypeExpression
	fieldWidget      string
	storageSettings  map[string]any
	instanceSettings map[string]any
}

func (s *Storable) Shape() *Shape { return s.shape }

// FieldTypeProp returns the expression reading the value out of a field
// item of the planned type.
func (s *Storable) FieldTypeProp() expression.FieldTypeExpression { return s.fieldTypeProp }

// FieldType returns the planned field type.
func (s *Storable) FieldType() string { return s.fieldTypeProp.FieldType() }

func (s *Storable) FieldWidget() string { return s.fieldWidget }

func (s *Storable) StorageSettings() map[string]any { return cloneMap(s.storageSettings) }

func (s *Storable) InstanceSettings() map[string]any { return cloneMap(s.instanceSettings) }

// Candidate returns a mutable copy of the plan.
func (s *Storable) Candidate() Candidate {
	return Candidate{
		Shape:            s.shape,
		FieldTypeProp:    s.fieldTypeProp,
		FieldWidget:      s.fieldWidget,
		StorageSettings:  cloneMap(s.storageSettings),
		InstanceSettings: cloneMap(s.instanceSettings),
	}
}
