// Package propsource describes where a component prop gets its value: a
// fixed value held in a field item (static), a live binding into the host
// entity (dynamic), or an adapter fed by other sources (adapted).
package propsource

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/props/adapter"
	"github.com/jacerider/neo-alchemist/props/evaluator"
)

// Source type prefixes. Everything in a sourceType before the first
// separator selects the variant.
const (
	TypeStatic  = "static"
	TypeDynamic = "dynamic"
	TypeAdapter = "adapter"

	prefixSeparator = ":"
)

var (
	// ErrMissingHostEntity is returned when a source needs a host entity and
	// none is available. Callers may treat it as an absent value.
	ErrMissingHostEntity = errors.New("missing host entity")
	ErrUnknownSourceType = errors.New("unknown source type")
)

// MissingKeysError reports a raw record lacking required keys.
type MissingKeysError struct {
	SourceType string
	Keys       []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("%s prop source: missing the keys %s", e.SourceType, strings.Join(e.Keys, ","))
}

// Source is a parsed prop source.
type Source interface {
	SourceType() string
	// Evaluate computes the prop value. host may be nil outside any content
	// context.
	Evaluate(host content.Entity) (any, error)
	// Record returns the raw record Parse accepts.
	Record() map[string]any
	// AsChoice returns a stable key identifying the source among
	// alternatives.
	AsChoice() string
	// String returns the JSON encoding of Record.
	String() string
}

// Parser builds sources from raw records.
type Parser struct {
	catalog   content.FieldTypeCatalog
	adapters  *adapter.Registry
	evaluator *evaluator.Evaluator
}

// NewParser creates a parser. adapters may be nil when adapted sources are
// not used.
func NewParser(catalog content.FieldTypeCatalog, adapters *adapter.Registry, ev *evaluator.Evaluator) *Parser {
	if ev == nil {
		ev = evaluator.New()
	}
	if adapters == nil {
		adapters = adapter.NewRegistry()
	}
	return &Parser{catalog: catalog, adapters: adapters, evaluator: ev}
}

// Parse dispatches a raw record on its sourceType prefix.
func (p *Parser) Parse(raw map[string]any) (Source, error) {
	sourceType, ok := raw["sourceType"].(string)
	if !ok {
		return nil, &MissingKeysError{SourceType: "unknown", Keys: []string{"sourceType"}}
	}
	prefix, _, _ := strings.Cut(sourceType, prefixSeparator)
	switch prefix {
	case TypeStatic:
		return p.parseStatic(raw)
	case TypeDynamic:
		return p.parseDynamic(raw)
	case TypeAdapter:
		return p.parseAdapted(raw)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownSourceType, sourceType)
	}
}

// ParseJSON decodes and parses a JSON record.
func (p *Parser) ParseJSON(data []byte) (Source, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode prop source: %w", err)
	}
	return p.Parse(raw)
}

func requireKeys(sourceType string, raw map[string]any, keys ...string) error {
	var missing []string
	for _, k := range keys {
		if _, ok := raw[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &MissingKeysError{SourceType: sourceType, Keys: missing}
	}
	return nil
}

func expressionString(raw map[string]any, sourceType string) (string, error) {
	s, ok := raw["expression"].(string)
	if !ok {
		return "", fmt.Errorf("%s prop source: expression must be a string, got %T", sourceType, raw["expression"])
	}
	return s, nil
}

func encode(record map[string]any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return fmt.Sprintf("%v", record)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
