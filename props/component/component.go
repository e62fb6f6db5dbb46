// Package component describes UI components: their typed props and named
// slots, loaded from "*.component.yml" definition files.
package component

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/hashicorp/go-version"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned for unknown component IDs.
var ErrNotFound = errors.New("component not found")

// AttributesProp is reserved for HTML attributes and never gets a source.
const AttributesProp = "attributes"

// FileSuffix identifies component definition files.
const FileSuffix = ".component.yml"

// Prop is a declared component prop.
type Prop struct {
	Name     string
	Schema   map[string]any
	Required bool
}

// Title returns the schema title, falling back to the prop name.
func (p Prop) Title() string {
	if title, ok := p.Schema["title"].(string); ok && title != "" {
		return title
	}
	return p.Name
}

// Example returns the first schema example.
func (p Prop) Example() (any, bool) {
	examples, ok := p.Schema["examples"].([]any)
	if !ok || len(examples) == 0 {
		return nil, false
	}
	return examples[0], true
}

// Slot is a declared component slot.
type Slot struct {
	Name  string
	Title string
}

// Component is a component definition. Props and slots keep their
// declaration order.
type Component struct {
	ID      string
	Label   string
	Version *version.Version
	Props   []Prop
	Slots   []Slot
	// Source is the definition file, empty for components built in code.
	Source string
}

// Prop returns a declared prop.
func (c *Component) Prop(name string) (Prop, bool) {
	for _, p := range c.Props {
		if p.Name == name {
			return p, true
		}
	}
	return Prop{}, false
}

// SlotNames lists the declared slots in order.
func (c *Component) SlotNames() []string {
	names := make([]string, len(c.Slots))
	for i, s := range c.Slots {
		names[i] = s.Name
	}
	return names
}

func (c *Component) HasSlot(name string) bool {
	for _, s := range c.Slots {
		if s.Name == name {
			return true
		}
	}
	return false
}

// RequiredProps lists the names of required props in order.
func (c *Component) RequiredProps() []string {
	var names []string
	for _, p := range c.Props {
		if p.Required {
			names = append(names, p.Name)
		}
	}
	return names
}

type document struct {
	ID      string    `yaml:"id"`
	Name    string    `yaml:"name"`
	Version string    `yaml:"version"`
	Props   yaml.Node `yaml:"props"`
	Slots   yaml.Node `yaml:"slots"`
}

// Parse decodes a component definition. When the document carries no id,
// fallbackID is used.
func Parse(data []byte, fallbackID string) (*Component, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	c := &Component{ID: doc.ID, Label: doc.Name}
	if c.ID == "" {
		c.ID = fallbackID
	}
	if c.ID == "" {
		return nil, errors.New("component has no id")
	}
	if c.Label == "" {
		c.Label = c.ID
	}

	raw := doc.Version
	if raw == "" {
		raw = "0.0.0"
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return nil, fmt.Errorf("component %s: version: %w", c.ID, err)
	}
	c.Version = v

	if c.Props, err = parseProps(&doc.Props); err != nil {
		return nil, fmt.Errorf("component %s: props: %w", c.ID, err)
	}
	if c.Slots, err = parseSlots(&doc.Slots); err != nil {
		return nil, fmt.Errorf("component %s: slots: %w", c.ID, err)
	}
	return c, nil
}

// IDFromPath derives a component ID from a definition file name.
func IDFromPath(p string) string {
	return strings.TrimSuffix(path.Base(p), FileSuffix)
}

func parseProps(node *yaml.Node) ([]Prop, error) {
	if node.Kind == 0 {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	var (
		required   []string
		properties *yaml.Node
	)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		switch key.Value {
		case "required":
			if err := value.Decode(&required); err != nil {
				return nil, fmt.Errorf("required: %w", err)
			}
		case "properties":
			properties = value
		}
	}
	if properties == nil {
		return nil, nil
	}
	if properties.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: properties must be a mapping", properties.Line)
	}

	isRequired := make(map[string]bool, len(required))
	for _, name := range required {
		isRequired[name] = true
	}
	props := make([]Prop, 0, len(properties.Content)/2)
	for i := 0; i+1 < len(properties.Content); i += 2 {
		name := properties.Content[i].Value
		var schema map[string]any
		if err := properties.Content[i+1].Decode(&schema); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		props = append(props, Prop{Name: name, Schema: schema, Required: isRequired[name]})
	}
	for name := range isRequired {
		found := false
		for _, p := range props {
			found = found || p.Name == name
		}
		if !found {
			return nil, fmt.Errorf("required prop %q is not declared", name)
		}
	}
	return props, nil
}

func parseSlots(node *yaml.Node) ([]Slot, error) {
	switch node.Kind {
	case 0:
		return nil, nil
	case yaml.SequenceNode:
		var names []string
		if err := node.Decode(&names); err != nil {
			return nil, err
		}
		slots := make([]Slot, len(names))
		for i, name := range names {
			slots[i] = Slot{Name: name, Title: name}
		}
		return slots, nil
	case yaml.MappingNode:
		slots := make([]Slot, 0, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			var meta struct {
				Title string `yaml:"title"`
			}
			if err := node.Content[i+1].Decode(&meta); err != nil {
				return nil, fmt.Errorf("%s: %w", node.Content[i].Value, err)
			}
			slot := Slot{Name: node.Content[i].Value, Title: meta.Title}
			if slot.Title == "" {
				slot.Title = slot.Name
			}
			slots = append(slots, slot)
		}
		return slots, nil
	default:
		return nil, fmt.Errorf("line %d: expected a mapping or a list", node.Line)
	}
}
