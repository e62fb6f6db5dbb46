package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/props/component"
	"github.com/jacerider/neo-alchemist/props/evaluator"
	"github.com/jacerider/neo-alchemist/props/propsource"
)

// Item is a stored component tree: its structure and the prop sources of
// every instance, keyed by instance UUID and then by prop name.
type Item struct {
	Tree  *Structure
	Props map[string]map[string]map[string]any
}

// NewItem returns an item holding an empty tree.
func NewItem() *Item {
	return &Item{
		Tree:  &Structure{Root: []Instance{}, Subtrees: map[string]map[string][]Instance{}},
		Props: map[string]map[string]map[string]any{},
	}
}

// ParseItem decodes the persisted tree and props columns.
func ParseItem(tree, props []byte) (*Item, error) {
	structure, err := ParseStructure(tree)
	if err != nil {
		return nil, err
	}
	item := &Item{Tree: structure}
	if err := json.Unmarshal(props, &item.Props); err != nil {
		return nil, fmt.Errorf("tree props: %w", err)
	}
	if item.Props == nil {
		item.Props = map[string]map[string]map[string]any{}
	}
	return item, nil
}

// ItemFromRaw builds an item from a {"tree": ..., "props": ...} mapping whose
// values are either JSON strings or already decoded documents.
func ItemFromRaw(raw map[string]any) (*Item, error) {
	tree, err := rawJSON(raw, "tree")
	if err != nil {
		return nil, err
	}
	props, err := rawJSON(raw, "props")
	if err != nil {
		return nil, err
	}
	return ParseItem(tree, props)
}

func rawJSON(raw map[string]any, key string) ([]byte, error) {
	v, ok := raw[key]
	if !ok {
		return nil, fmt.Errorf("tree item: missing %q", key)
	}
	switch x := v.(type) {
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	default:
		return json.Marshal(x)
	}
}

// MarshalJSON encodes the item with both columns as JSON strings.
func (i *Item) MarshalJSON() ([]byte, error) {
	tree, err := json.Marshal(i.Tree)
	if err != nil {
		return nil, err
	}
	props, err := json.Marshal(i.Props)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]string{"tree": string(tree), "props": string(props)})
}

func (i *Item) ComponentInstanceUUIDs() []string { return i.Tree.ComponentInstanceUUIDs() }

func (i *Item) ComponentID(instanceUUID string) (string, bool) {
	return i.Tree.ComponentID(instanceUUID)
}

// PropNames lists the props that have a source for an instance, in lexical
// order.
func (i *Item) PropNames(instanceUUID string) []string {
	return sortedKeys(i.Props[instanceUUID])
}

// Resolver evaluates the prop sources of tree items.
type Resolver struct {
	parser     *propsource.Parser
	components component.Lookup
}

func NewResolver(parser *propsource.Parser, components component.Lookup) *Resolver {
	return &Resolver{parser: parser, components: components}
}

// ResolveProps evaluates every prop source of an instance against host.
// A missing host entity is returned as propsource.ErrMissingHostEntity.
func (r *Resolver) ResolveProps(item *Item, instanceUUID string, host content.Entity) (map[string]any, error) {
	values := make(map[string]any, len(item.Props[instanceUUID]))
	for _, name := range item.PropNames(instanceUUID) {
		value, err := r.resolveProp(item, instanceUUID, name, host)
		if err != nil {
			return nil, err
		}
		values[name] = value
	}
	return values, nil
}

func (r *Resolver) resolveProp(item *Item, instanceUUID, name string, host content.Entity) (any, error) {
	src, err := r.parser.Parse(item.Props[instanceUUID][name])
	if err != nil {
		return nil, fmt.Errorf("instance %s prop %s: %w", instanceUUID, name, err)
	}
	value, err := src.Evaluate(host)
	if err != nil {
		return nil, fmt.Errorf("instance %s prop %s: %w", instanceUUID, name, err)
	}
	return value, nil
}

// Node is a hydrated component instance: its resolved props and the
// hydrated children of each populated slot.
type Node struct {
	UUID      string         `json:"uuid"`
	Component string         `json:"component"`
	Props     map[string]any `json:"props"`
	Slots     []SlotNode     `json:"slots,omitempty"`
}

// SlotNode is a populated slot of a hydrated instance.
type SlotNode struct {
	Name     string  `json:"name"`
	Children []*Node `json:"children"`
}

// Slot returns the children placed in a slot.
func (n *Node) Slot(name string) []*Node {
	for _, s := range n.Slots {
		if s.Name == name {
			return s.Children
		}
	}
	return nil
}

// Hydrate combines structure and prop values into a render tree. Props that
// need a host entity resolve to nil when host is nil. Slots follow the
// component's declared order.
func (r *Resolver) Hydrate(item *Item, host content.Entity) ([]*Node, error) {
	host = hostOrNil(host)
	visiting := make(map[string]bool)
	return r.hydrateList(item, item.Tree.Root, host, visiting)
}

func (r *Resolver) hydrateList(item *Item, instances []Instance, host content.Entity, visiting map[string]bool) ([]*Node, error) {
	nodes := make([]*Node, 0, len(instances))
	for _, inst := range instances {
		if visiting[inst.UUID] {
			return nil, fmt.Errorf("instance %s is placed inside itself", inst.UUID)
		}
		visiting[inst.UUID] = true
		node, err := r.hydrateNode(item, inst, host, visiting)
		delete(visiting, inst.UUID)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func (r *Resolver) hydrateNode(item *Item, inst Instance, host content.Entity, visiting map[string]bool) (*Node, error) {
	node := &Node{UUID: inst.UUID, Component: inst.Component, Props: map[string]any{}}
	for _, name := range item.PropNames(inst.UUID) {
		value, err := r.resolveProp(item, inst.UUID, name, host)
		if errors.Is(err, propsource.ErrMissingHostEntity) && host == nil {
			value, err = nil, nil
		}
		if err != nil {
			return nil, err
		}
		node.Props[name] = value
	}

	slots := item.Tree.SlotNames(inst.UUID)
	if c, err := r.components.Find(inst.Component); err == nil {
		slots = orderSlots(c.SlotNames(), slots)
	}
	for _, slot := range slots {
		children, err := r.hydrateList(item, item.Tree.Children(inst.UUID, slot), host, visiting)
		if err != nil {
			return nil, err
		}
		node.Slots = append(node.Slots, SlotNode{Name: slot, Children: children})
	}
	return node, nil
}

// orderSlots returns populated in declared order, followed by undeclared
// names in lexical order.
func orderSlots(declared, populated []string) []string {
	has := make(map[string]bool, len(populated))
	for _, s := range populated {
		has[s] = true
	}
	out := make([]string, 0, len(populated))
	for _, s := range declared {
		if has[s] {
			out = append(out, s)
			delete(has, s)
		}
	}
	rest := make([]string, 0, len(has))
	for s := range has {
		rest = append(rest, s)
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// hostOrNil turns a typed nil entity into an untyped nil so host == nil
// checks hold.
func hostOrNil(host content.Entity) content.Entity {
	if evaluator.IsNil(host) {
		return nil
	}
	return host
}
