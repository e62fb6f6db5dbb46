// Package props wires the prop machinery together: shape normalization and
// storage planning, expressions and their evaluation, prop sources, component
// trees and suggestions. Every collaborator is passed in explicitly.
package props

import (
	"errors"
	"fmt"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/props/adapter"
	"github.com/jacerider/neo-alchemist/props/component"
	"github.com/jacerider/neo-alchemist/props/diagnostics"
	"github.com/jacerider/neo-alchemist/props/evaluator"
	"github.com/jacerider/neo-alchemist/props/expression"
	"github.com/jacerider/neo-alchemist/props/propshape"
	"github.com/jacerider/neo-alchemist/props/propsource"
	"github.com/jacerider/neo-alchemist/props/suggest"
	"github.com/jacerider/neo-alchemist/props/tree"
)

// FieldTypes is the field type catalog the engine plans and evaluates with.
type FieldTypes interface {
	content.FieldTypeCatalog
	propshape.WidgetCatalog
}

// Config holds the engine's collaborators. Components, FieldTypes and Fields
// are required.
type Config struct {
	Components component.Lookup
	FieldTypes FieldTypes
	Fields     content.FieldDefinitionProvider
	// Definitions resolves $ref schemas. Defaults to the built-in definitions.
	Definitions propshape.Resolver
	// Adapters defaults to the built-in adapters.
	Adapters *adapter.Registry
	// Kinds defaults to propshape.DefaultKinds.
	Kinds *propshape.Kinds
	// Alter adjusts storage plans, once per shape.
	Alter     propshape.AlterFunc
	CacheSize int
}

// Engine is the entry point for hosts embedding the prop machinery.
type Engine struct {
	components component.Lookup
	resolver   propshape.Resolver
	planner    *propshape.Planner
	evaluator  *evaluator.Evaluator
	parser     *propsource.Parser
	defaulter  *component.Defaulter
	structure  *tree.Validator
	items      *tree.ItemValidator
	trees      *tree.Resolver
	suggester  *suggest.Suggester
}

func New(cfg Config) (*Engine, error) {
	switch {
	case cfg.Components == nil:
		return nil, errors.New("props: no component lookup")
	case cfg.FieldTypes == nil:
		return nil, errors.New("props: no field type catalog")
	case cfg.Fields == nil:
		return nil, errors.New("props: no field definition provider")
	}
	if cfg.Definitions == nil {
		cfg.Definitions = propshape.NewDefinitions()
	}
	if cfg.Adapters == nil {
		cfg.Adapters = adapter.Builtin()
	}

	cache, err := propshape.NewCache(cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	opts := []propshape.Option{propshape.WithWidgets(cfg.FieldTypes), propshape.WithCache(cache)}
	if cfg.Alter != nil {
		opts = append(opts, propshape.WithAlter(cfg.Alter))
	}
	planner, err := propshape.NewPlanner(cfg.Kinds, opts...)
	if err != nil {
		return nil, err
	}

	ev := evaluator.New()
	parser := propsource.NewParser(cfg.FieldTypes, cfg.Adapters, ev)
	trees := tree.NewResolver(parser, cfg.Components)
	return &Engine{
		components: cfg.Components,
		resolver:   cfg.Definitions,
		planner:    planner,
		evaluator:  ev,
		parser:     parser,
		defaulter:  component.NewDefaulter(cfg.Definitions, planner, parser),
		structure:  tree.NewValidator(cfg.Components),
		items:      tree.NewItemValidator(cfg.Components, trees, cfg.Definitions, planner),
		trees:      trees,
		suggester:  suggest.New(cfg.Components, cfg.Fields, cfg.FieldTypes, cfg.Definitions, planner, cfg.Adapters),
	}, nil
}

func (e *Engine) Planner() *propshape.Planner  { return e.planner }
func (e *Engine) Parser() *propsource.Parser   { return e.parser }
func (e *Engine) Resolver() propshape.Resolver { return e.resolver }
func (e *Engine) Components() component.Lookup { return e.components }

// Shape normalizes a prop schema.
func (e *Engine) Shape(schema map[string]any) (*propshape.Shape, error) {
	return propshape.Normalize(schema, e.resolver)
}

// Plan normalizes a prop schema and returns its storage plan, nil when the
// shape cannot be stored.
func (e *Engine) Plan(schema map[string]any) (*propshape.Shape, *propshape.Storable, error) {
	shape, err := e.Shape(schema)
	if err != nil {
		return nil, nil, err
	}
	return shape, e.planner.Storable(shape), nil
}

// PropShapes lists the shapes of a component's props.
func (e *Engine) PropShapes(componentID string) ([]component.PropShape, error) {
	c, err := e.components.Find(componentID)
	if err != nil {
		return nil, err
	}
	return component.PropShapes(c, e.resolver)
}

// Defaults computes the default prop sources of a component.
func (e *Engine) Defaults(componentID string) (*component.Defaults, error) {
	c, err := e.components.Find(componentID)
	if err != nil {
		return nil, err
	}
	return e.defaulter.Compute(c)
}

// DefaultValues evaluates a component's defaults, with overrides applied,
// outside any host entity.
func (e *Engine) DefaultValues(componentID string, overrides *component.Defaults) (map[string]any, error) {
	c, err := e.components.Find(componentID)
	if err != nil {
		return nil, err
	}
	defaults, err := e.defaulter.Compute(c)
	if err != nil {
		return nil, err
	}
	return e.defaulter.Values(c, defaults, overrides)
}

// Evaluate parses a structured expression and evaluates it against data,
// which is an entity, a field item or nil.
func (e *Engine) Evaluate(data any, expr string) (any, error) {
	parsed, err := expression.ParseStructured(expr)
	if err != nil {
		return nil, err
	}
	return e.evaluator.Evaluate(data, parsed)
}

// EvaluateSource parses a prop source record and evaluates it for host.
func (e *Engine) EvaluateSource(raw map[string]any, host content.Entity) (any, error) {
	src, err := e.parser.Parse(raw)
	if err != nil {
		return nil, err
	}
	return src.Evaluate(host)
}

// ValidateTree checks a tree structure document.
func (e *Engine) ValidateTree(data []byte) *tree.Report {
	return e.structure.Validate(data)
}

// ValidateItem checks a raw {"tree", "props"} item for host, nil when the
// tree is config-owned.
func (e *Engine) ValidateItem(raw map[string]any, host content.Entity) (*diagnostics.Violations, error) {
	return e.items.Validate(raw, host)
}

// Hydrate builds the render tree of a raw item.
func (e *Engine) Hydrate(raw map[string]any, host content.Entity) ([]*tree.Node, error) {
	item, err := tree.ItemFromRaw(raw)
	if err != nil {
		return nil, err
	}
	return e.trees.Hydrate(item, host)
}

// Suggest lists prop source candidates for a component placed on host.
func (e *Engine) Suggest(componentID string, host *content.EntityDataDefinition) ([]suggest.Suggestion, error) {
	suggestions, err := e.suggester.Suggest(componentID, host)
	if err != nil {
		return nil, fmt.Errorf("suggest %s: %w", componentID, err)
	}
	return suggestions, nil
}
