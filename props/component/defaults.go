package component

import (
	"fmt"

	"github.com/jacerider/neo-alchemist/props/expression"
	"github.com/jacerider/neo-alchemist/props/propshape"
	"github.com/jacerider/neo-alchemist/props/propsource"
)

// PropShape pairs a component prop with its normalized shape.
type PropShape struct {
	Prop       Prop
	Expression expression.ComponentProp
	Shape      *propshape.Shape
}

// PropShapes normalizes every prop except AttributesProp, in declaration
// order.
func PropShapes(c *Component, resolver propshape.Resolver) ([]PropShape, error) {
	shapes := make([]PropShape, 0, len(c.Props))
	for _, p := range c.Props {
		if p.Name == AttributesProp {
			continue
		}
		shape, err := propshape.Normalize(p.Schema, resolver)
		if err != nil {
			return nil, fmt.Errorf("component %s prop %s: %w", c.ID, p.Name, err)
		}
		expr, err := expression.NewComponentProp(c.ID, p.Name)
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, PropShape{Prop: p, Expression: expr, Shape: shape})
	}
	return shapes, nil
}

// PropDefault is the default storage and value of one prop.
type PropDefault struct {
	FieldType        string         `json:"field_type" yaml:"field_type"`
	FieldWidget      string         `json:"field_widget" yaml:"field_widget"`
	Expression       string         `json:"expression" yaml:"expression"`
	DefaultValue     any            `json:"default_value" yaml:"default_value"`
	StorageSettings  map[string]any `json:"field_storage_settings" yaml:"field_storage_settings"`
	InstanceSettings map[string]any `json:"field_instance_settings" yaml:"field_instance_settings"`
	Weight           int            `json:"weight" yaml:"weight"`
}

// Defaults holds the defaults of every storable prop of a component.
type Defaults struct {
	Props map[string]PropDefault `json:"props" yaml:"props"`
}

// Defaulter computes component defaults from storage plans.
type Defaulter struct {
	resolver propshape.Resolver
	planner  *propshape.Planner
	parser   *propsource.Parser
}

func NewDefaulter(resolver propshape.Resolver, planner *propshape.Planner, parser *propsource.Parser) *Defaulter {
	return &Defaulter{resolver: resolver, planner: planner, parser: parser}
}

// Compute derives the defaults of a component. Props without a storage plan
// are left out. A required storable prop must declare an example.
func (d *Defaulter) Compute(c *Component) (*Defaults, error) {
	shapes, err := PropShapes(c, d.resolver)
	if err != nil {
		return nil, err
	}
	defaults := &Defaults{Props: make(map[string]PropDefault, len(shapes))}
	weight := 0
	for _, ps := range shapes {
		storable := d.planner.Storable(ps.Shape)
		if storable == nil {
			continue
		}
		static, err := d.parser.Generate(storable.FieldTypeProp(), storable.StorageSettings(), storable.InstanceSettings())
		if err != nil {
			return nil, fmt.Errorf("component %s prop %s: %w", c.ID, ps.Prop.Name, err)
		}

		example, hasExample := ps.Prop.Example()
		if ps.Prop.Required && !hasExample {
			return nil, fmt.Errorf("component %s: required prop %s has no example", c.ID, ps.Prop.Name)
		}
		if hasExample && !followsReference(storable.FieldTypeProp()) {
			if static, err = static.WithValue(example); err != nil {
				return nil, fmt.Errorf("component %s prop %s example: %w", c.ID, ps.Prop.Name, err)
			}
		}

		defaults.Props[ps.Prop.Name] = PropDefault{
			FieldType:        storable.FieldType(),
			FieldWidget:      storable.FieldWidget(),
			Expression:       storable.FieldTypeProp().String(),
			DefaultValue:     static.Value(),
			StorageSettings:  orEmpty(storable.StorageSettings()),
			InstanceSettings: orEmpty(storable.InstanceSettings()),
			Weight:           weight,
		}
		weight++
	}
	return defaults, nil
}

// followsReference reports whether an example value cannot be stored
// because the plan reads through an entity reference.
func followsReference(expr expression.FieldTypeExpression) bool {
	obj, ok := expr.(expression.FieldTypeObjectProps)
	if !ok {
		return false
	}
	if obj.Type == "entity_reference" {
		return true
	}
	for _, p := range obj.Props {
		if _, ok := p.Expr.(expression.ReferenceFieldTypeProp); ok {
			return true
		}
	}
	return false
}

// StaticPropSource rebuilds the default static source of a prop. An
// override replaces the default value when it targets the same expression
// and is not empty.
func (d *Defaulter) StaticPropSource(c *Component, defaults, overrides *Defaults, prop string) (*propsource.Static, error) {
	if _, ok := c.Prop(prop); !ok {
		return nil, fmt.Errorf("%q is not a prop on the %q component", prop, c.ID)
	}
	def, ok := defaults.Props[prop]
	if !ok {
		return nil, nil
	}
	value := def.DefaultValue
	if overrides != nil {
		if o, ok := overrides.Props[prop]; ok && o.Expression == def.Expression && !isEmpty(o.DefaultValue) {
			value = o.DefaultValue
		}
	}
	record := map[string]any{
		"sourceType": propsource.TypeStatic + ":field_item:" + def.FieldType,
		"value":      value,
		"expression": def.Expression,
		"sourceTypeSettings": map[string]any{
			"storage":  def.StorageSettings,
			"instance": def.InstanceSettings,
		},
	}
	src, err := d.parser.Parse(record)
	if err != nil {
		return nil, err
	}
	return src.(*propsource.Static), nil
}

// Values computes the default prop values of a component outside any host
// context. Props whose default source holds nothing fall back to the first
// schema example.
func (d *Defaulter) Values(c *Component, defaults, overrides *Defaults) (map[string]any, error) {
	values := make(map[string]any, len(defaults.Props))
	for _, p := range c.Props {
		if _, ok := defaults.Props[p.Name]; !ok {
			continue
		}
		src, err := d.StaticPropSource(c, defaults, overrides, p.Name)
		if err != nil {
			return nil, err
		}
		value, _ := p.Example()
		if !src.FieldItem().IsEmpty() {
			if value, err = src.Evaluate(nil); err != nil {
				return nil, fmt.Errorf("prop %s: %w", p.Name, err)
			}
		}
		values[p.Name] = value
	}
	return values, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

func isEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case map[string]any:
		return len(x) == 0
	case []any:
		return len(x) == 0
	}
	return false
}
