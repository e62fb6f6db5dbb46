// Package fieldtype is the built-in field-type catalog: the property layout,
// default settings and default widget of every field type the storage planner
// can recommend, plus the generic field item those types produce.
package fieldtype

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/jacerider/neo-alchemist/content"
)

// ErrUnknownFieldType is returned for field types missing from the catalog.
var ErrUnknownFieldType = errors.New("unknown field type")

// Definition describes one field type.
type Definition struct {
	ID              string
	Label           string
	MainProperty    string
	DefaultWidget   string
	DefaultStorage  map[string]any
	DefaultInstance map[string]any
	// Properties returns the property definitions for the given effective
	// settings. Settings can tighten constraints, e.g. allowed values.
	Properties func(storage, instance map[string]any) []content.PropertyDefinition
	// Compute resolves computed properties other than entity references.
	Compute func(item *Item, prop string) (any, error)
}

// Catalog implements content.FieldTypeCatalog.
type Catalog struct {
	mu     *sync.RWMutex
	defs   map[string]*Definition
	loader content.EntityLoader
}

var _ content.FieldTypeCatalog = (*Catalog)(nil)

// New creates a catalog holding the given definitions.
func New(defs ...*Definition) *Catalog {
	c := &Catalog{mu: &sync.RWMutex{}, defs: make(map[string]*Definition, len(defs))}
	for _, def := range defs {
		c.Register(def)
	}
	return c
}

// Register adds or replaces a definition.
func (c *Catalog) Register(def *Definition) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.defs[def.ID] = def
}

// WithLoader returns a catalog sharing the definitions whose items resolve
// entity references through loader.
func (c *Catalog) WithLoader(loader content.EntityLoader) *Catalog {
	return &Catalog{mu: c.mu, defs: c.defs, loader: loader}
}

// Definition returns the definition of a field type.
func (c *Catalog) Definition(fieldType string) (*Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.defs[fieldType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFieldType, fieldType)
	}
	return def, nil
}

// IDs lists the registered field types in lexical order.
func (c *Catalog) IDs() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids := make([]string, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *Catalog) Has(fieldType string) bool {
	_, err := c.Definition(fieldType)
	return err == nil
}

// PropertyCount counts the stored (non-computed) properties.
func (c *Catalog) PropertyCount(fieldType string) (int, error) {
	def, err := c.Definition(fieldType)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, p := range def.Properties(def.DefaultStorage, def.DefaultInstance) {
		if !p.Computed {
			n++
		}
	}
	return n, nil
}

// DefaultWidget returns the widget a field type is edited with by default.
func (c *Catalog) DefaultWidget(fieldType string) (string, error) {
	def, err := c.Definition(fieldType)
	if err != nil {
		return "", err
	}
	return def.DefaultWidget, nil
}

func (c *Catalog) MainPropertyName(fieldType string) (string, error) {
	def, err := c.Definition(fieldType)
	if err != nil {
		return "", err
	}
	return def.MainProperty, nil
}

// PropertyDefinitions returns the property definitions with storage and
// instance settings merged over the field type defaults.
func (c *Catalog) PropertyDefinitions(fieldType string, storage, instance map[string]any) ([]content.PropertyDefinition, error) {
	def, err := c.Definition(fieldType)
	if err != nil {
		return nil, err
	}
	return def.Properties(merge(def.DefaultStorage, storage), merge(def.DefaultInstance, instance)), nil
}

// CreateFieldItem returns an empty item with the effective settings.
func (c *Catalog) CreateFieldItem(fieldType string, storage, instance map[string]any) (content.FieldItem, error) {
	def, err := c.Definition(fieldType)
	if err != nil {
		return nil, err
	}
	return &Item{
		def:      def,
		storage:  merge(def.DefaultStorage, storage),
		instance: merge(def.DefaultInstance, instance),
		values:   map[string]any{},
		loader:   c.loader,
	}, nil
}

func merge(defaults, overrides map[string]any) map[string]any {
	out := make(map[string]any, len(defaults)+len(overrides))
	for k, v := range defaults {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
