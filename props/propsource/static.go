package propsource

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/props/evaluator"
	"github.com/jacerider/neo-alchemist/props/expression"
)

const fieldItemPrefix = "field_item" + prefixSeparator

// Static holds a fixed value in a field item, together with the expression
// reading the prop value out of that item.
type Static struct {
	item      content.FieldItem
	expr      expression.FieldTypeExpression
	storage   map[string]any
	instance  map[string]any
	catalog   content.FieldTypeCatalog
	evaluator *evaluator.Evaluator
}

var _ Source = (*Static)(nil)

// Generate returns an empty static source for the expression.
func (p *Parser) Generate(expr expression.FieldTypeExpression, storage, instance map[string]any) (*Static, error) {
	item, err := p.catalog.CreateFieldItem(expr.FieldType(), storage, instance)
	if err != nil {
		return nil, err
	}
	return &Static{
		item:      item,
		expr:      expr,
		storage:   storage,
		instance:  instance,
		catalog:   p.catalog,
		evaluator: p.evaluator,
	}, nil
}

func (p *Parser) parseStatic(raw map[string]any) (*Static, error) {
	if err := requireKeys(TypeStatic, raw, "value", "expression"); err != nil {
		return nil, err
	}
	s, err := expressionString(raw, TypeStatic)
	if err != nil {
		return nil, err
	}
	expr, err := expression.ParseFieldType(s)
	if err != nil {
		return nil, err
	}
	sourceType, _ := raw["sourceType"].(string)
	if want := TypeStatic + prefixSeparator + fieldItemPrefix + expr.FieldType(); sourceType != TypeStatic && sourceType != want {
		return nil, fmt.Errorf("static prop source: source type %q does not match expression field type %q", sourceType, expr.FieldType())
	}
	storage, instance := sourceTypeSettings(raw)
	static, err := p.Generate(expr, storage, instance)
	if err != nil {
		return nil, err
	}
	return static.WithValue(raw["value"])
}

func sourceTypeSettings(raw map[string]any) (storage, instance map[string]any) {
	settings, _ := raw["sourceTypeSettings"].(map[string]any)
	storage, _ = settings["storage"].(map[string]any)
	instance, _ = settings["instance"].(map[string]any)
	return storage, instance
}

// WithValue returns a copy holding value. Single-property field types accept
// the bare main property value.
func (s *Static) WithValue(value any) (*Static, error) {
	item, err := s.catalog.CreateFieldItem(s.expr.FieldType(), s.storage, s.instance)
	if err != nil {
		return nil, err
	}
	values, err := s.normalizeValue(value)
	if err != nil {
		return nil, err
	}
	if err := item.SetValues(values); err != nil {
		return nil, err
	}
	clone := *s
	clone.item = item
	return &clone, nil
}

func (s *Static) single() (bool, string, error) {
	n, err := s.catalog.PropertyCount(s.expr.FieldType())
	if err != nil {
		return false, "", err
	}
	main, err := s.catalog.MainPropertyName(s.expr.FieldType())
	if err != nil {
		return false, "", err
	}
	return n == 1, main, nil
}

func (s *Static) normalizeValue(value any) (map[string]any, error) {
	if value == nil {
		return map[string]any{}, nil
	}
	single, main, err := s.single()
	if err != nil {
		return nil, err
	}
	if m, ok := value.(map[string]any); ok {
		return m, nil
	}
	if !single {
		return nil, fmt.Errorf("static prop source: %s stores several properties, got %T", s.expr.FieldType(), value)
	}
	return map[string]any{main: value}, nil
}

// Value returns the stored value, bare for single-property field types.
func (s *Static) Value() any {
	values := s.item.Values()
	single, main, err := s.single()
	if err != nil || !single {
		return values
	}
	return values[main]
}

// FieldItem returns the item holding the value.
func (s *Static) FieldItem() content.FieldItem { return s.item }

func (s *Static) Expression() expression.FieldTypeExpression { return s.expr }

func (s *Static) SourceType() string {
	return TypeStatic + prefixSeparator + fieldItemPrefix + s.expr.FieldType()
}

// Evaluate reads the value out of the stored field item. The host entity is
// not consulted.
func (s *Static) Evaluate(content.Entity) (any, error) {
	return s.evaluator.Evaluate(s.item, s.expr)
}

func (s *Static) Record() map[string]any {
	record := map[string]any{
		"sourceType": s.SourceType(),
		"value":      s.Value(),
		"expression": s.expr.String(),
	}
	if s.storage != nil || s.instance != nil {
		settings := map[string]any{}
		if s.storage != nil {
			settings["storage"] = s.storage
		}
		if s.instance != nil {
			settings["instance"] = s.instance
		}
		record["sourceTypeSettings"] = settings
	}
	return record
}

func (s *Static) AsChoice() string { return s.expr.String() }

func (s *Static) String() string { return encode(s.Record()) }

// IsMinimalRepresentation checks a raw static record before it is stored:
// single-property values must be bare and equal to what the field item
// keeps, multi-property values must carry every required property.
func (p *Parser) IsMinimalRepresentation(raw map[string]any) error {
	static, err := p.parseStatic(raw)
	if err != nil {
		return err
	}
	single, main, err := static.single()
	if err != nil {
		return err
	}
	stored := static.item.Values()
	if single {
		if jsonString(stored[main]) != jsonString(raw["value"]) {
			return fmt.Errorf("unexpected static prop value: %s should be %s", jsonString(raw["value"]), jsonString(stored[main]))
		}
		return nil
	}

	given, _ := raw["value"].(map[string]any)
	defs, err := p.catalog.PropertyDefinitions(static.expr.FieldType(), static.storage, static.instance)
	if err != nil {
		return err
	}
	var missing []string
	for _, def := range defs {
		if def.Computed || !def.Required {
			continue
		}
		if _, ok := given[def.Name]; !ok {
			missing = append(missing, def.Name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("unexpected static prop value: %s should be %s, %s properties are missing",
			jsonString(raw["value"]), jsonString(stored), strings.Join(missing, ", "))
	}
	return nil
}

func jsonString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
