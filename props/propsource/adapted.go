package propsource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/props/adapter"
)

// Adapted feeds the values of other sources into an adapter.
type Adapted struct {
	adapter *adapter.Adapter
	inputs  map[string]Source
}

var _ Source = (*Adapted)(nil)

// NewAdapted composes an adapter with its input sources.
func (p *Parser) NewAdapted(adapterID string, inputs map[string]Source) (*Adapted, error) {
	a, err := p.adapters.Get(adapterID)
	if err != nil {
		return nil, err
	}
	for name := range inputs {
		if _, ok := a.Inputs[name]; !ok {
			return nil, fmt.Errorf("adapter %s has no input %q", adapterID, name)
		}
	}
	return &Adapted{adapter: a, inputs: inputs}, nil
}

func (p *Parser) parseAdapted(raw map[string]any) (*Adapted, error) {
	sourceType, _ := raw["sourceType"].(string)
	_, adapterID, _ := strings.Cut(sourceType, prefixSeparator)
	if adapterID == "" {
		return nil, fmt.Errorf("%w: %q names no adapter", ErrUnknownSourceType, sourceType)
	}
	if err := requireKeys(TypeAdapter, raw, "adapterInputs"); err != nil {
		return nil, err
	}
	rawInputs, ok := raw["adapterInputs"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("adapter prop source: adapterInputs must be an object, got %T", raw["adapterInputs"])
	}
	inputs := make(map[string]Source, len(rawInputs))
	for name, rawInput := range rawInputs {
		record, ok := rawInput.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("adapter input %q: expected an object, got %T", name, rawInput)
		}
		input, err := p.Parse(record)
		if err != nil {
			return nil, fmt.Errorf("adapter input %q: %w", name, err)
		}
		inputs[name] = input
	}
	return p.NewAdapted(adapterID, inputs)
}

func (a *Adapted) Adapter() *adapter.Adapter { return a.adapter }

// Input returns the source feeding an input.
func (a *Adapted) Input(name string) (Source, bool) {
	s, ok := a.inputs[name]
	return s, ok
}

func (a *Adapted) inputNames() []string {
	names := make([]string, 0, len(a.inputs))
	for name := range a.inputs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (a *Adapted) SourceType() string {
	return TypeAdapter + prefixSeparator + a.adapter.ID
}

// Evaluate evaluates every input against host, then runs the adapter.
func (a *Adapted) Evaluate(host content.Entity) (any, error) {
	values := make(map[string]any, len(a.inputs))
	for _, name := range a.inputNames() {
		v, err := a.inputs[name].Evaluate(host)
		if err != nil {
			return nil, fmt.Errorf("adapter input %q: %w", name, err)
		}
		values[name] = v
	}
	return a.adapter.Adapt(values)
}

func (a *Adapted) Record() map[string]any {
	inputs := make(map[string]any, len(a.inputs))
	for name, input := range a.inputs {
		inputs[name] = input.Record()
	}
	return map[string]any{
		"sourceType":    a.SourceType(),
		"adapterInputs": inputs,
	}
}

func (a *Adapted) AsChoice() string { return a.adapter.ID }

func (a *Adapted) String() string { return encode(a.Record()) }
