package propsource

import (
	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/props/evaluator"
	"github.com/jacerider/neo-alchemist/props/expression"
)

// Dynamic binds a prop to live data on the host entity.
type Dynamic struct {
	expr      expression.EntityExpression
	evaluator *evaluator.Evaluator
}

var _ Source = (*Dynamic)(nil)

// NewDynamic binds expr, evaluated with the parser's evaluator.
func (p *Parser) NewDynamic(expr expression.EntityExpression) *Dynamic {
	return &Dynamic{expr: expr, evaluator: p.evaluator}
}

func (p *Parser) parseDynamic(raw map[string]any) (*Dynamic, error) {
	if err := requireKeys(TypeDynamic, raw, "expression"); err != nil {
		return nil, err
	}
	s, err := expressionString(raw, TypeDynamic)
	if err != nil {
		return nil, err
	}
	expr, err := expression.ParseEntity(s)
	if err != nil {
		return nil, err
	}
	return p.NewDynamic(expr), nil
}

func (d *Dynamic) Expression() expression.EntityExpression { return d.expr }

func (d *Dynamic) SourceType() string { return TypeDynamic }

// Evaluate fails with ErrMissingHostEntity when host is nil, typed nil
// pointers included.
func (d *Dynamic) Evaluate(host content.Entity) (any, error) {
	if evaluator.IsNil(host) {
		return nil, ErrMissingHostEntity
	}
	return d.evaluator.Evaluate(host, d.expr)
}

func (d *Dynamic) Record() map[string]any {
	return map[string]any{
		"sourceType": d.SourceType(),
		"expression": d.expr.String(),
	}
}

func (d *Dynamic) AsChoice() string { return d.expr.String() }

func (d *Dynamic) String() string { return encode(d.Record()) }
