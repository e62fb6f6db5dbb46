// Package tree models component trees: which component instances a piece of
// content places where, and the prop sources feeding each instance.
//
// A tree structure is a JSON object keyed by component instance UUID. The
// reserved RootUUID maps to the list of top-level instances. Every other key
// is an instance that has children, mapping slot names to the ordered
// instances placed in each slot. Subtrees therefore never nest deeper than
// one level, and an instance can be found without traversing the tree.
package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// RootUUID is the reserved key holding the top-level instances.
const RootUUID = "a548b48d-58a8-4077-aa04-da9405a6f418"

// DefaultStructure is the structure of an empty tree.
const DefaultStructure = `{"` + RootUUID + `": []}`

// Instance is a placed component, serialized as a "uuid,component" tuple.
type Instance struct {
	UUID      string `json:"uuid"`
	Component string `json:"component"`
}

// Structure is a well-formed tree structure.
type Structure struct {
	Root     []Instance
	Subtrees map[string]map[string][]Instance
}

// NewInstanceUUID returns a fresh UUID for a component instance.
func NewInstanceUUID() string {
	return uuid.NewString()
}

// ParseStructure decodes a tree structure. It only checks that the document
// has the expected shape; Validator reports everything else.
func ParseStructure(data []byte) (*Structure, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("tree structure: %w", err)
	}
	s := &Structure{Subtrees: make(map[string]map[string][]Instance)}
	rootRaw, ok := raw[RootUUID]
	if !ok {
		return nil, errors.New("tree structure: the root UUID is missing")
	}
	if err := json.Unmarshal(rootRaw, &s.Root); err != nil {
		return nil, fmt.Errorf("tree structure: root: %w", err)
	}
	for key, value := range raw {
		if key == RootUUID {
			continue
		}
		var slots map[string][]Instance
		if err := json.Unmarshal(value, &slots); err != nil {
			return nil, fmt.Errorf("tree structure: subtree %s: %w", key, err)
		}
		s.Subtrees[key] = slots
	}
	return s, nil
}

// MarshalJSON encodes the structure in its persisted form.
func (s *Structure) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Subtrees)+1)
	root := s.Root
	if root == nil {
		root = []Instance{}
	}
	out[RootUUID] = root
	for key, slots := range s.Subtrees {
		out[key] = slots
	}
	return json.Marshal(out)
}

// SlotNames lists the populated slots of an instance in lexical order.
func (s *Structure) SlotNames(instanceUUID string) []string {
	slots := s.Subtrees[instanceUUID]
	names := make([]string, 0, len(slots))
	for name := range slots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Children returns the instances placed in a slot of an instance.
func (s *Structure) Children(instanceUUID, slot string) []Instance {
	return s.Subtrees[instanceUUID][slot]
}

// ComponentInstanceUUIDs lists every instance reachable from the root,
// depth first, with each parent before its children.
func (s *Structure) ComponentInstanceUUIDs() []string {
	var out []string
	seen := make(map[string]bool)
	var walk func([]Instance)
	walk = func(instances []Instance) {
		for _, inst := range instances {
			if seen[inst.UUID] {
				continue
			}
			seen[inst.UUID] = true
			out = append(out, inst.UUID)
			for _, slot := range s.SlotNames(inst.UUID) {
				walk(s.Subtrees[inst.UUID][slot])
			}
		}
	}
	walk(s.Root)
	return out
}

// ComponentID returns the component of an instance.
func (s *Structure) ComponentID(instanceUUID string) (string, bool) {
	for _, inst := range s.Root {
		if inst.UUID == instanceUUID {
			return inst.Component, true
		}
	}
	for _, slots := range s.Subtrees {
		for _, instances := range slots {
			for _, inst := range instances {
				if inst.UUID == instanceUUID {
					return inst.Component, true
				}
			}
		}
	}
	return "", false
}
