package propshape

import (
	"fmt"
	"strings"

	"github.com/jacerider/neo-alchemist/props/schematype"
)

// Kind is one variant of the shape dispatch table. Kinds are defined in
// this package only; callers customize plans through an AlterFunc.
type Kind interface {
	// ID names the kind in logs and errors.
	ID() string
	Type() schematype.Type
	// Ref is the definition name the kind claims, or "" for kinds that
	// match on structure alone.
	Ref() string
	// Applies reports whether the kind handles the schema, given that type
	// and ref already match.
	Applies(schema map[string]any) bool
	// Plan returns the storage recommendation, or nil when values of the
	// schema cannot be stored by a single field.
	Plan(schema map[string]any) *Candidate
	Validate(k *Kinds, schema map[string]any, value any, path []string) error
	Massage(k *Kinds, schema map[string]any, value any) (any, error)

	kind()
}

// Kinds is the dispatch table, keyed by schema type. Within a type, kinds
// are tried in registration order.
type Kinds struct {
	byType map[schematype.Type][]Kind
}

// NewKinds builds a table from the given kinds.
func NewKinds(kinds ...Kind) *Kinds {
	k := &Kinds{byType: make(map[schematype.Type][]Kind)}
	for _, kind := range kinds {
		k.byType[kind.Type()] = append(k.byType[kind.Type()], kind)
	}
	return k
}

// DefaultKinds returns the built-in table.
func DefaultKinds() *Kinds {
	return NewKinds(
		booleanKind{},

		textareaKind{},
		linkKind{},
		dateTimeKind{},
		emailKind{},
		uriKind{},
		stringKind{},

		newIntegerKind(),
		newNumberKind(),

		imageKind{},
		objectKind{},

		arrayKind{},
	)
}

// Select returns the kind handling the schema, or nil.
func (k *Kinds) Select(schema map[string]any) Kind {
	t, err := schematype.FromSchema(schema)
	if err != nil {
		return nil
	}
	ref := RefName(schema)
	for _, kind := range k.byType[t] {
		if kind.Ref() != ref {
			continue
		}
		if kind.Applies(schema) {
			return kind
		}
	}
	return nil
}

// IDs lists the registered kinds per type, in dispatch order.
func (k *Kinds) IDs() map[schematype.Type][]string {
	out := make(map[schematype.Type][]string, len(k.byType))
	for t, kinds := range k.byType {
		for _, kind := range kinds {
			out[t] = append(out[t], kind.ID())
		}
	}
	return out
}

// Plan dispatches to the kind handling the schema.
func (k *Kinds) Plan(schema map[string]any) *Candidate {
	kind := k.Select(schema)
	if kind == nil {
		return nil
	}
	return kind.Plan(schema)
}

// Validate checks a value against a resolved schema.
func (k *Kinds) Validate(schema map[string]any, value any) error {
	return k.validate(schema, value, nil)
}

func (k *Kinds) validate(schema map[string]any, value any, path []string) error {
	structural := withoutRef(schema)
	kind := k.Select(structural)
	if kind == nil {
		return &ValueError{Path: path, Message: fmt.Sprintf("no kind handles schema of type %v", schema["type"])}
	}
	return kind.Validate(k, structural, value, path)
}

// Massage coerces a value to the representation a resolved schema expects.
func (k *Kinds) Massage(schema map[string]any, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	structural := withoutRef(schema)
	kind := k.Select(structural)
	if kind == nil {
		return nil, fmt.Errorf("no kind handles schema of type %v", schema["type"])
	}
	return kind.Massage(k, structural, value)
}

// ValueError locates a value that does not conform to its schema.
type ValueError struct {
	Path    []string
	Message string
}

func (e *ValueError) Error() string {
	if len(e.Path) == 0 {
		return e.Message
	}
	return strings.Join(e.Path, ".") + ": " + e.Message
}

func withoutRef(schema map[string]any) map[string]any {
	if _, ok := schema["$ref"]; !ok {
		return schema
	}
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		if k != "$ref" {
			out[k] = v
		}
	}
	return out
}
