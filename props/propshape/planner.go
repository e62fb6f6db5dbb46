package propshape

import (
	"log/slog"

	"github.com/jacerider/neo-alchemist/internal/debug"
)

// WidgetCatalog supplies default widgets for planned field types.
type WidgetCatalog interface {
	DefaultWidget(fieldType string) (string, error)
}

// Planner recommends storage for shapes.
type Planner struct {
	kinds   *Kinds
	widgets WidgetCatalog
	alter   AlterFunc
	cache   *Cache
	log     *slog.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithAlter installs the hook adjusting every recommendation.
func WithAlter(fn AlterFunc) Option {
	return func(p *Planner) { p.alter = fn }
}

// WithWidgets fills in missing widgets from the catalog.
func WithWidgets(w WidgetCatalog) Option {
	return func(p *Planner) { p.widgets = w }
}

// WithCache replaces the default plan cache.
func WithCache(c *Cache) Option {
	return func(p *Planner) { p.cache = c }
}

// NewPlanner creates a planner dispatching through kinds.
func NewPlanner(kinds *Kinds, opts ...Option) (*Planner, error) {
	p := &Planner{kinds: kinds, log: debug.Component("propshape")}
	for _, opt := range opts {
		opt(p)
	}
	if p.kinds == nil {
		p.kinds = DefaultKinds()
	}
	if p.cache == nil {
		cache, err := NewCache(DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		p.cache = cache
	}
	return p, nil
}

// Kinds returns the dispatch table.
func (p *Planner) Kinds() *Kinds { return p.kinds }

// Storable returns the storage plan of a shape, or nil when no field can
// hold its values. Plans are computed once per shape key; the alter hook
// runs on that single computation.
func (p *Planner) Storable(shape *Shape) *Storable {
	return p.cache.Get(shape.Key(), func() *Storable {
		return p.plan(shape)
	})
}

func (p *Planner) plan(shape *Shape) *Storable {
	candidate := p.kinds.Plan(shape.Schema())
	if candidate == nil && shape.Ref() != "" {
		candidate = p.kinds.Plan(shape.Resolved())
	}
	if candidate == nil {
		candidate = &Candidate{}
	}
	candidate.Shape = shape

	if candidate.FieldTypeProp != nil && candidate.FieldWidget == "" && p.widgets != nil {
		if widget, err := p.widgets.DefaultWidget(candidate.FieldTypeProp.FieldType()); err == nil {
			candidate.FieldWidget = widget
		}
	}
	if p.alter != nil {
		*candidate = p.alter(*candidate)
		candidate.Shape = shape
	}

	storable := candidate.ToStorable()
	if storable == nil {
		p.log.Debug("no storage for shape", "shape", shape.Key())
		return nil
	}
	p.log.Debug("planned storage", "shape", shape.Key(), "field_type", storable.FieldType(), "expression", storable.FieldTypeProp().String())
	return storable
}

// Validate checks a value against the resolved schema of a shape.
func (p *Planner) Validate(shape *Shape, value any) error {
	return p.kinds.Validate(shape.Resolved(), value)
}

// Massage coerces a value to the representation the shape expects.
func (p *Planner) Massage(shape *Shape, value any) (any, error) {
	return p.kinds.Massage(shape.Resolved(), value)
}
