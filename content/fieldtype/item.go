package fieldtype

import (
	"errors"
	"fmt"

	"github.com/spf13/cast"

	"github.com/jacerider/neo-alchemist/content"
)

// ErrUnknownProperty is returned when a field type has no such property.
var ErrUnknownProperty = errors.New("unknown property")

// Item is a field item of any catalog field type.
type Item struct {
	def      *Definition
	storage  map[string]any
	instance map[string]any
	values   map[string]any
	loader   content.EntityLoader
}

var _ content.FieldItem = (*Item)(nil)

func (i *Item) FieldType() string { return i.def.ID }

func (i *Item) definitions() []content.PropertyDefinition {
	return i.def.Properties(i.storage, i.instance)
}

func (i *Item) definition(name string) (content.PropertyDefinition, bool) {
	for _, p := range i.definitions() {
		if p.Name == name {
			return p, true
		}
	}
	return content.PropertyDefinition{}, false
}

// Property returns a stored or computed property.
func (i *Item) Property(name string) (content.Property, error) {
	def, ok := i.definition(name)
	if !ok {
		return content.Property{}, fmt.Errorf("%w: %s has no property %q", ErrUnknownProperty, i.def.ID, name)
	}
	if !def.Computed {
		return content.Property{Definition: def, Value: i.values[name]}, nil
	}
	if def.DataType == content.DataTypeEntityReference {
		entity, err := i.referencedEntity()
		if err != nil {
			return content.Property{}, err
		}
		if entity == nil {
			return content.Property{Definition: def}, nil
		}
		return content.Property{Definition: def, Value: entity}, nil
	}
	if i.def.Compute == nil {
		return content.Property{Definition: def}, nil
	}
	v, err := i.def.Compute(i, name)
	if err != nil {
		return content.Property{}, err
	}
	return content.Property{Definition: def, Value: v}, nil
}

// referencedEntity loads the target of target_id. A missing target yields a
// nil entity, not an error.
func (i *Item) referencedEntity() (content.Entity, error) {
	id, ok := i.values["target_id"]
	if !ok || id == nil || cast.ToString(id) == "" {
		return nil, nil
	}
	if i.loader == nil {
		return nil, fmt.Errorf("%s item cannot resolve references without an entity loader", i.def.ID)
	}
	targetType := cast.ToString(i.storage["target_type"])
	entity, err := i.loader.Load(targetType, cast.ToString(id))
	if errors.Is(err, content.ErrEntityNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %v: %w", targetType, id, err)
	}
	return entity, nil
}

func (i *Item) Values() map[string]any {
	out := make(map[string]any, len(i.values))
	for k, v := range i.values {
		out[k] = v
	}
	return out
}

// SetValues replaces the stored values, coercing each to its data type.
// Computed properties cannot be set.
func (i *Item) SetValues(values map[string]any) error {
	coerced := make(map[string]any, len(values))
	for name, v := range values {
		def, ok := i.definition(name)
		if !ok {
			return fmt.Errorf("%w: %s has no property %q", ErrUnknownProperty, i.def.ID, name)
		}
		if def.Computed {
			return fmt.Errorf("%s property %q is computed", i.def.ID, name)
		}
		c, err := Coerce(def.DataType, v)
		if err != nil {
			return fmt.Errorf("%s property %q: %w", i.def.ID, name, err)
		}
		coerced[name] = c
	}
	i.values = coerced
	return nil
}

// IsEmpty reports whether the main property holds nothing.
func (i *Item) IsEmpty() bool {
	v, ok := i.values[i.def.MainProperty]
	if !ok || v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return s == ""
	}
	return false
}

func (i *Item) StorageSetting(name string) any  { return i.storage[name] }
func (i *Item) InstanceSetting(name string) any { return i.instance[name] }

func (i *Item) StorageSettings() map[string]any  { return merge(nil, i.storage) }
func (i *Item) InstanceSettings() map[string]any { return merge(nil, i.instance) }

// Coerce converts a raw value to the Go type used for a data type.
// Nil stays nil.
func Coerce(t content.DataType, v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch t {
	case content.DataTypeInteger, content.DataTypeTimestamp:
		return cast.ToIntE(v)
	case content.DataTypeFloat:
		return cast.ToFloat64E(v)
	case content.DataTypeBoolean:
		return cast.ToBoolE(v)
	case content.DataTypeString, content.DataTypeEmail, content.DataTypeURI, content.DataTypeDateTimeISO8601:
		return cast.ToStringE(v)
	default:
		return v, nil
	}
}
