package propshape

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"github.com/ohler55/ojg/jp"
	"github.com/spf13/afero"
)

// ErrUnresolvableRef is returned for $ref values that point nowhere.
var ErrUnresolvableRef = errors.New("unresolvable $ref")

// RefScheme is the URL scheme of shared schema definitions.
const RefScheme = "json-schema-definitions"

// DefaultProvider owns the bundled definitions.
const DefaultProvider = "neo_alchemist.module"

const maxResolveDepth = 16

//go:embed definitions.json
var bundledDefinitions []byte

// Resolver resolves $ref values to schemas.
type Resolver interface {
	Resolve(ref string) (map[string]any, error)
}

// Definitions resolves "json-schema-definitions://<provider>/<name>" refs,
// optionally followed by a "#/json/pointer" fragment.
type Definitions struct {
	mu   sync.RWMutex
	docs map[string]any
}

// NewDefinitions returns a resolver preloaded with the bundled definitions.
func NewDefinitions() *Definitions {
	d := &Definitions{docs: map[string]any{}}
	var bundled map[string]any
	if err := json.Unmarshal(bundledDefinitions, &bundled); err != nil {
		panic(fmt.Sprintf("propshape: bundled definitions: %v", err))
	}
	d.Add(DefaultProvider, bundled)
	return d
}

// Add registers the definitions of a provider, replacing earlier ones with
// the same name.
func (d *Definitions) Add(provider string, defs map[string]any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	existing, _ := d.docs[provider].(map[string]any)
	if existing == nil {
		existing = map[string]any{}
	}
	for name, schema := range defs {
		existing[name] = schema
	}
	d.docs[provider] = existing
}

// LoadFS loads every "<provider>.definitions.json" file in dir.
func (d *Definitions) LoadFS(fs afero.Fs, dir string) error {
	matches, err := afero.Glob(fs, path.Join(dir, "*.definitions.json"))
	if err != nil {
		return err
	}
	for _, file := range matches {
		data, err := afero.ReadFile(fs, file)
		if err != nil {
			return err
		}
		var defs map[string]any
		if err := json.Unmarshal(data, &defs); err != nil {
			return fmt.Errorf("%s: %w", file, err)
		}
		d.Add(strings.TrimSuffix(path.Base(file), ".definitions.json"), defs)
	}
	return nil
}

// Resolve returns a copy of the referenced schema.
func (d *Definitions) Resolve(ref string) (map[string]any, error) {
	x, err := refPath(ref)
	if err != nil {
		return nil, err
	}
	d.mu.RLock()
	found := x.First(d.docs)
	d.mu.RUnlock()
	schema, ok := found.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvableRef, ref)
	}
	return cloneMap(schema), nil
}

// refPath turns a ref URL into a JSONPath rooted at the provider document.
func refPath(ref string) (jp.Expr, error) {
	u, err := url.Parse(ref)
	if err != nil || u.Scheme != RefScheme || u.Host == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvableRef, ref)
	}
	name := strings.Trim(u.Path, "/")
	if name == "" || strings.Contains(name, "/") {
		return nil, fmt.Errorf("%w: %s", ErrUnresolvableRef, ref)
	}
	x := jp.R().C(u.Host).C(name)
	if u.Fragment == "" {
		return x, nil
	}
	for _, seg := range strings.Split(strings.TrimPrefix(u.Fragment, "/"), "/") {
		seg = strings.ReplaceAll(strings.ReplaceAll(seg, "~1", "/"), "~0", "~")
		if i, err := strconv.Atoi(seg); err == nil {
			x = x.N(i)
			continue
		}
		x = x.C(seg)
	}
	return x, nil
}

// RefName returns the definition name a schema's $ref points at, or "".
func RefName(schema map[string]any) string {
	ref, _ := schema["$ref"].(string)
	if ref == "" {
		return ""
	}
	if i := strings.IndexByte(ref, '#'); i >= 0 {
		ref = ref[:i]
	}
	return path.Base(strings.TrimRight(ref, "/"))
}

// resolveSchema inlines $ref at this level, then recurses into properties
// and items. Local keys win over the referenced definition.
func resolveSchema(schema map[string]any, resolver Resolver, depth int) (map[string]any, error) {
	if depth > maxResolveDepth {
		return nil, fmt.Errorf("%w: nesting deeper than %d", ErrUnresolvableRef, maxResolveDepth)
	}
	out := cloneMap(schema)
	if ref, ok := out["$ref"].(string); ok {
		if resolver == nil {
			return nil, fmt.Errorf("%w: no resolver for %s", ErrUnresolvableRef, ref)
		}
		target, err := resolver.Resolve(ref)
		if err != nil {
			return nil, err
		}
		target, err = resolveSchema(target, resolver, depth+1)
		if err != nil {
			return nil, err
		}
		delete(out, "$ref")
		for k, v := range out {
			target[k] = v
		}
		out = target
	}
	if props, ok := out["properties"].(map[string]any); ok {
		resolvedProps := make(map[string]any, len(props))
		for name, sub := range props {
			subSchema, ok := sub.(map[string]any)
			if !ok {
				resolvedProps[name] = sub
				continue
			}
			r, err := resolveSchema(subSchema, resolver, depth+1)
			if err != nil {
				return nil, fmt.Errorf("properties.%s: %w", name, err)
			}
			resolvedProps[name] = r
		}
		out["properties"] = resolvedProps
	}
	if items, ok := out["items"].(map[string]any); ok {
		r, err := resolveSchema(items, resolver, depth+1)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		out["items"] = r
	}
	return out, nil
}
