// Package propshape canonicalizes component prop schemas into shapes and
// plans the concrete storage able to hold values of each shape.
package propshape

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/jacerider/neo-alchemist/props/schematype"
)

// ErrNotNormalized is returned by New when the schema changes under
// normalization.
var ErrNotNormalized = errors.New("schema is not normalized")

// cosmeticKeys affect presentation only, never storage compatibility.
var cosmeticKeys = []string{"title", "description", "examples", "default"}

// Shape is an immutable, normalized prop schema.
type Shape struct {
	schema   map[string]any
	resolved map[string]any
	key      string
	typ      schematype.Type
}

// Normalize canonicalizes a raw prop schema into a Shape.
func Normalize(raw map[string]any, resolver Resolver) (*Shape, error) {
	normalized, err := normalizeSchema(raw, resolver)
	if err != nil {
		return nil, err
	}
	return New(normalized, resolver)
}

// New wraps an already normalized schema. It fails with ErrNotNormalized
// when normalizing the schema again would change it.
func New(schema map[string]any, resolver Resolver) (*Shape, error) {
	key, err := Key(schema)
	if err != nil {
		return nil, err
	}
	renormalized, err := normalizeSchema(schema, resolver)
	if err != nil {
		return nil, err
	}
	if again, err := Key(renormalized); err != nil || again != key {
		return nil, fmt.Errorf("%w: %s", ErrNotNormalized, key)
	}
	typ, err := schematype.FromSchema(schema)
	if err != nil {
		return nil, err
	}
	resolved, err := resolveSchema(schema, resolver, 0)
	if err != nil {
		return nil, err
	}
	return &Shape{
		schema:   cloneMap(schema),
		resolved: resolved,
		key:      key,
		typ:      typ,
	}, nil
}

func normalizeSchema(raw map[string]any, resolver Resolver) (map[string]any, error) {
	out := cloneMap(raw)
	for _, k := range cosmeticKeys {
		delete(out, k)
	}
	switch t := out["type"].(type) {
	case []any:
		if len(t) == 0 {
			return nil, fmt.Errorf("%w: empty type list", schematype.ErrUnknownType)
		}
		out["type"] = t[0]
	case []string:
		if len(t) == 0 {
			return nil, fmt.Errorf("%w: empty type list", schematype.ErrUnknownType)
		}
		out["type"] = t[0]
	case nil:
		ref, ok := out["$ref"].(string)
		if !ok || resolver == nil {
			return nil, fmt.Errorf("%w: schema declares no type", schematype.ErrUnknownType)
		}
		target, err := resolver.Resolve(ref)
		if err != nil {
			return nil, err
		}
		typ, err := schematype.FromSchema(target)
		if err != nil {
			return nil, err
		}
		out["type"] = string(typ)
	}
	if _, err := schematype.FromSchema(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Key returns the canonical encoding of a schema: a JSON object with "type"
// first and every other key sorted. Nested objects are sorted by
// encoding/json.
func Key(schema map[string]any) (string, error) {
	keys := make([]string, 0, len(schema))
	for k := range schema {
		if k != "type" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := schema["type"]; ok {
		keys = append([]string{"type"}, keys...)
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(k)
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(schema[k])
		if err != nil {
			return "", fmt.Errorf("encode %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// Schema returns a copy of the normalized schema, possibly carrying $ref.
func (s *Shape) Schema() map[string]any { return cloneMap(s.schema) }

// Resolved returns a copy of the schema with every $ref inlined.
func (s *Shape) Resolved() map[string]any { return cloneMap(s.resolved) }

// Key returns the canonical deduplication key.
func (s *Shape) Key() string { return s.key }

// Type returns the schema type tag.
func (s *Shape) Type() schematype.Type { return s.typ }

// Ref returns the $ref of the schema, if any.
func (s *Shape) Ref() string {
	ref, _ := s.schema["$ref"].(string)
	return ref
}

func (s *Shape) String() string { return s.key }

// Equal reports whether both shapes share a key.
func (s *Shape) Equal(other *Shape) bool {
	return other != nil && s.key == other.key
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue deep-copies v, turning typed slices into []any and
// string-keyed maps into map[string]any so a schema holds the same values
// its key encodes.
func cloneValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return cloneMap(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = cloneValue(item)
		}
		return out
	case []byte, nil:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = cloneValue(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return v
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = cloneValue(iter.Value().Interface())
		}
		return out
	default:
		return v
	}
}
