// Package suggest proposes prop sources for a component: fields of a host
// entity whose values always satisfy a prop's shape, and adapters producing
// values of that shape.
package suggest

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/spf13/cast"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/internal/debug"
	"github.com/jacerider/neo-alchemist/props/adapter"
	"github.com/jacerider/neo-alchemist/props/component"
	"github.com/jacerider/neo-alchemist/props/expression"
	"github.com/jacerider/neo-alchemist/props/propshape"
	"github.com/jacerider/neo-alchemist/props/schematype"
	"github.com/jacerider/neo-alchemist/props/shapematch"
)

// referenceDepth is how many entity references are followed when looking
// for matching field properties.
const referenceDepth = 1

// Instance is a field on the host entity that can feed a prop.
type Instance struct {
	Label      string                      `json:"label"`
	Expression expression.EntityExpression `json:"-"`
}

// Choice is an adapter that produces values a prop accepts.
type Choice struct {
	Label string `json:"label"`
	ID    string `json:"id"`
}

// Suggestion lists the candidate sources for one prop.
type Suggestion struct {
	Prop       string     `json:"prop"`
	Expression string     `json:"expression"`
	Required   bool       `json:"required"`
	Instances  []Instance `json:"instances"`
	Adapters   []Choice   `json:"adapters"`
}

// Suggester matches component props against host fields and adapters.
type Suggester struct {
	components component.Lookup
	fields     content.FieldDefinitionProvider
	catalog    content.FieldTypeCatalog
	resolver   propshape.Resolver
	planner    *propshape.Planner
	adapters   *adapter.Registry
	log        *slog.Logger
}

func New(components component.Lookup, fields content.FieldDefinitionProvider, catalog content.FieldTypeCatalog, resolver propshape.Resolver, planner *propshape.Planner, adapters *adapter.Registry) *Suggester {
	return &Suggester{
		components: components,
		fields:     fields,
		catalog:    catalog,
		resolver:   resolver,
		planner:    planner,
		adapters:   adapters,
		log:        debug.Component("suggest"),
	}
}

// Suggest lists suggestions for every prop of a component in declaration
// order. host may be nil, in which case only adapters are suggested.
func (s *Suggester) Suggest(componentID string, host *content.EntityDataDefinition) ([]Suggestion, error) {
	c, err := s.components.Find(componentID)
	if err != nil {
		return nil, err
	}
	shapes, err := component.PropShapes(c, s.resolver)
	if err != nil {
		return nil, err
	}
	out := make([]Suggestion, 0, len(shapes))
	for _, ps := range shapes {
		sg := Suggestion{
			Prop:       ps.Prop.Name,
			Expression: ps.Expression.String(),
			Required:   ps.Prop.Required,
			Instances:  []Instance{},
			Adapters:   []Choice{},
		}
		if host != nil {
			if sg.Instances, err = s.instances(ps, *host); err != nil {
				return nil, err
			}
		}
		matching, err := s.adapters.ByOutputShape(ps.Shape, s.resolver)
		if err != nil {
			return nil, err
		}
		for _, a := range matching {
			sg.Adapters = append(sg.Adapters, Choice{Label: a.Label, ID: a.ID})
		}
		sort.Slice(sg.Adapters, func(i, j int) bool { return sg.Adapters[i].Label < sg.Adapters[j].Label })
		s.log.Debug("suggested", "prop", sg.Expression, "instances", len(sg.Instances), "adapters", len(sg.Adapters))
		out = append(out, sg)
	}
	return out, nil
}

func (s *Suggester) instances(ps component.PropShape, host content.EntityDataDefinition) ([]Instance, error) {
	var found []Instance
	var err error
	if ps.Shape.Type().IsScalar() {
		found, err = s.scalarMatches(ps, host)
	} else {
		found, err = s.objectMatches(ps, host)
	}
	if err != nil {
		return nil, err
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].Label < found[j].Label })
	return found, nil
}

// scalarMatches finds field properties on the host, or on entities it
// references, whose definitions guarantee the prop's requirements.
func (s *Suggester) scalarMatches(ps component.PropShape, host content.EntityDataDefinition) ([]Instance, error) {
	schema := ps.Shape.Resolved()
	req, err := schematype.Requirements(ps.Shape.Type(), schema)
	if err != nil {
		s.log.Debug("no requirement for prop", "prop", ps.Prop.Name, "error", err)
		return []Instance{}, nil
	}
	m := &matcher{s: s, typ: ps.Shape.Type(), req: req, required: ps.Prop.Required}
	return m.entity(host, nil, referenceDepth)
}

type matcher struct {
	s        *Suggester
	typ      schematype.Type
	req      shapematch.Requirement
	required bool
}

// parent is the reference being followed, if any.
type parent struct {
	referencer expression.FieldProp
	label      string
}

func (m *matcher) entity(def content.EntityDataDefinition, via *parent, depth int) ([]Instance, error) {
	fields, err := m.s.fields.FieldDefinitions(def.EntityTypeID, def.BundleOrDefault())
	if err != nil {
		return nil, err
	}
	var out []Instance
	for _, field := range fields {
		if m.required && !field.Required {
			continue
		}
		props, err := m.s.catalog.PropertyDefinitions(field.FieldType, field.StorageSettings, field.InstanceSettings)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", def, field.Name, err)
		}
		multi := len(props) > 1
		for _, prop := range props {
			if prop.DataType == content.DataTypeEntityReference {
				if depth == 0 {
					continue
				}
				nested, err := m.follow(def, field, prop, depth)
				if err != nil {
					return nil, err
				}
				out = append(out, nested...)
				continue
			}
			if !compatible(m.typ, prop.DataType) || !shapematch.Satisfies(prop, m.req) {
				continue
			}
			fp, err := expression.NewFieldProp(def, field.Name, nil, prop.Name)
			if err != nil {
				return nil, err
			}
			label := fieldLabel(def, field)
			if multi {
				label += " (" + prop.Name + ")"
			}
			inst := Instance{Label: label, Expression: fp}
			if via != nil {
				inst.Label = via.label + " → " + label
				inst.Expression = expression.ReferenceFieldProp{Referencer: via.referencer, Referenced: fp}
			}
			out = append(out, inst)
		}
	}
	return out, nil
}

func (m *matcher) follow(def content.EntityDataDefinition, field content.FieldDefinition, prop content.PropertyDefinition, depth int) ([]Instance, error) {
	item, err := m.s.catalog.CreateFieldItem(field.FieldType, field.StorageSettings, field.InstanceSettings)
	if err != nil {
		return nil, err
	}
	targetType := cast.ToString(item.StorageSetting("target_type"))
	if targetType == "" {
		return nil, nil
	}
	referencer, err := expression.NewFieldProp(def, field.Name, nil, prop.Name)
	if err != nil {
		return nil, err
	}
	target := content.EntityDataDefinition{EntityTypeID: targetType}
	if bundle := cast.ToString(item.InstanceSetting("target_bundle")); bundle != "" {
		target.Bundle = bundle
	}
	return m.entity(target, &parent{referencer: referencer, label: fieldLabel(def, field)}, depth-1)
}

// objectMatches binds the storage plan of an object prop to every host field
// of the planned field type.
func (s *Suggester) objectMatches(ps component.PropShape, host content.EntityDataDefinition) ([]Instance, error) {
	storable := s.planner.Storable(ps.Shape)
	if storable == nil {
		return []Instance{}, nil
	}
	fields, err := s.fields.FieldDefinitions(host.EntityTypeID, host.BundleOrDefault())
	if err != nil {
		return nil, err
	}
	var out []Instance
	for _, field := range fields {
		if field.FieldType != storable.FieldType() || (ps.Prop.Required && !field.Required) {
			continue
		}
		bound, err := expression.Bind(storable.FieldTypeProp(), host, field.Name)
		if err != nil {
			return nil, err
		}
		out = append(out, Instance{Label: fieldLabel(host, field), Expression: bound})
	}
	return out, nil
}

// compatible reports whether a data type can hold values of a prop type.
func compatible(t schematype.Type, dt content.DataType) bool {
	switch t {
	case schematype.Boolean:
		return dt == content.DataTypeBoolean
	case schematype.Integer:
		return dt == content.DataTypeInteger || dt == content.DataTypeTimestamp
	case schematype.Number:
		return dt == content.DataTypeFloat || dt == content.DataTypeInteger
	case schematype.String:
		switch dt {
		case content.DataTypeString, content.DataTypeEmail, content.DataTypeURI, content.DataTypeDateTimeISO8601:
			return true
		}
	}
	return false
}

func fieldLabel(def content.EntityDataDefinition, field content.FieldDefinition) string {
	label := field.Label
	if label == "" {
		label = field.Name
	}
	return fmt.Sprintf("This %s's %s", def.BundleOrDefault(), label)
}
