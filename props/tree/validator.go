package tree

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jacerider/neo-alchemist/internal/debug"
	"github.com/jacerider/neo-alchemist/props/component"
	"github.com/jacerider/neo-alchemist/props/diagnostics"
)

// Stage is a step of structure validation. Each stage only runs on what the
// previous stages found sound.
type Stage int

const (
	StageNone Stage = iota
	StageParsedJSON
	StageWellFormed
	StageInstancesValidated
	StageSlotsValidated
	StageDanglingChecked
)

func (s Stage) String() string {
	switch s {
	case StageParsedJSON:
		return "parsed"
	case StageWellFormed:
		return "well-formed"
	case StageInstancesValidated:
		return "instances validated"
	case StageSlotsValidated:
		return "slots validated"
	case StageDanglingChecked:
		return "dangling checked"
	default:
		return "none"
	}
}

// Violation messages.
const (
	msgInvalidJSON     = "The value must be a valid JSON string."
	msgNotObject       = "This value should be of type object."
	msgNotArray        = "This value should be of type array."
	msgNotString       = "This value should be of type string."
	msgBlank           = "This value should not be blank."
	msgMissingField    = "This field is missing."
	msgExtraField      = "This field was not expected."
	msgInvalidUUID     = "This is not a valid UUID."
	msgRootMissing     = "The root UUID is missing."
	msgEmptySubtree    = "Empty component subtree. A component subtree must contain >=1 populated slot (with >=1 component instance). Empty component subtrees must be omitted."
	msgEmptySlot       = "Empty slot. Slots without component instances must be omitted."
	msgDuplicateUUID   = "The component instance UUID %s is used more than once."
	msgUnknownComp     = "The component %s does not exist."
	msgSubtreeNoSlots  = "Invalid component subtree. A component subtree must only exist for components with >=1 slot, but the component %s has no slots, yet a subtree exists for the instance with UUID %s."
	msgInvalidSlotName = "Invalid component subtree. This component subtree contains an invalid slot name for component %s: %s. Valid slot names are: %s."
	msgDangling        = "Dangling component subtree. This component subtree claims to be for a component instance with UUID %s, but no such component instance can be found."
)

// Report is the outcome of validating a tree structure.
type Report struct {
	*diagnostics.Violations
	// Reached is the last stage that ran.
	Reached Stage
}

// Validator checks tree structures against the known components.
type Validator struct {
	components component.Lookup
	log        *slog.Logger
}

func NewValidator(components component.Lookup) *Validator {
	return &Validator{components: components, log: debug.Component("tree")}
}

// placed is a well-formed tuple found in the document.
type placed struct {
	Instance
	path diagnostics.Path
}

// Validate decodes and validates a tree structure document.
func (v *Validator) Validate(data []byte) *Report {
	report := &Report{Violations: diagnostics.NewViolations()}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		report.Push(nil, msgInvalidJSON)
		return report
	}
	return v.validate(doc, nil, report)
}

// ValidateValue validates an already decoded tree structure.
func (v *Validator) ValidateValue(doc any) *Report {
	return v.validate(doc, nil, &Report{Violations: diagnostics.NewViolations()})
}

func (v *Validator) validate(doc any, base diagnostics.Path, report *Report) *Report {
	tree, ok := doc.(map[string]any)
	if !ok {
		report.Push(base, msgNotObject)
		return report
	}
	report.Reached = StageParsedJSON

	instances := v.checkWellFormed(tree, base, report.Violations)
	report.Reached = StageWellFormed
	v.log.Debug("tree stage", "stage", report.Reached, "instances", len(instances), "violations", report.Len())

	resolved := v.checkInstances(instances, report.Violations)
	report.Reached = StageInstancesValidated

	v.checkSlots(tree, resolved, base, report.Violations)
	report.Reached = StageSlotsValidated

	checkDangling(tree, base, report.Violations)
	report.Reached = StageDanglingChecked
	v.log.Debug("tree validated", "violations", report.Len())
	return report
}

func (v *Validator) checkWellFormed(tree map[string]any, base diagnostics.Path, violations *diagnostics.Violations) []placed {
	var instances []placed
	rootPath := base.Key(RootUUID)
	root, ok := tree[RootUUID]
	switch list, isList := root.([]any); {
	case !ok:
		violations.Push(rootPath, msgRootMissing)
	case !isList:
		violations.Push(rootPath, msgNotArray)
	default:
		for i, raw := range list {
			if inst, ok := checkTuple(raw, rootPath.Index(i), violations); ok {
				instances = append(instances, inst)
			}
		}
	}

	for _, key := range sortedKeys(tree) {
		if key == RootUUID {
			continue
		}
		subtreePath := base.Key(key)
		slots, ok := tree[key].(map[string]any)
		if !ok {
			violations.Push(subtreePath, msgNotObject)
			continue
		}
		if len(slots) == 0 {
			violations.Push(subtreePath, msgEmptySubtree)
			continue
		}
		for _, slot := range sortedKeys(slots) {
			slotPath := subtreePath.Key(slot)
			list, ok := slots[slot].([]any)
			if !ok {
				violations.Push(slotPath, msgNotArray)
				continue
			}
			if len(list) == 0 {
				violations.Push(slotPath, msgEmptySlot)
				continue
			}
			for i, raw := range list {
				if inst, ok := checkTuple(raw, slotPath.Index(i), violations); ok {
					instances = append(instances, inst)
				}
			}
		}
	}

	seen := make(map[string]bool, len(instances))
	for _, inst := range instances {
		if inst.UUID == "" {
			continue
		}
		if seen[inst.UUID] {
			violations.Pushf(inst.path.Key("uuid"), msgDuplicateUUID, inst.UUID)
		}
		seen[inst.UUID] = true
	}
	return instances
}

// checkTuple validates one "uuid,component" tuple. A tuple with a usable
// component ID is returned even if its UUID is malformed, so the component
// can still be checked.
func checkTuple(raw any, path diagnostics.Path, violations *diagnostics.Violations) (placed, bool) {
	tuple, ok := raw.(map[string]any)
	if !ok {
		violations.Push(path, msgNotObject)
		return placed{}, false
	}
	for _, key := range sortedKeys(tuple) {
		if key != "uuid" && key != "component" {
			violations.Push(path.Key(key), msgExtraField)
		}
	}
	id, idOK := requiredString(tuple, "uuid", path, violations)
	if idOK {
		if _, err := uuid.Parse(id); err != nil {
			violations.Push(path.Key("uuid"), msgInvalidUUID)
		}
	}
	comp, compOK := requiredString(tuple, "component", path, violations)
	if !compOK {
		return placed{}, false
	}
	return placed{Instance: Instance{UUID: id, Component: comp}, path: path}, true
}

func requiredString(tuple map[string]any, key string, path diagnostics.Path, violations *diagnostics.Violations) (string, bool) {
	raw, ok := tuple[key]
	if !ok {
		violations.Push(path.Key(key), msgMissingField)
		return "", false
	}
	s, ok := raw.(string)
	if !ok {
		violations.Push(path.Key(key), msgNotString)
		return "", false
	}
	if strings.TrimSpace(s) == "" {
		violations.Push(path.Key(key), msgBlank)
		return "", false
	}
	return s, true
}

type resolvedInstance struct {
	placed
	component *component.Component
}

func (v *Validator) checkInstances(instances []placed, violations *diagnostics.Violations) []resolvedInstance {
	resolved := make([]resolvedInstance, 0, len(instances))
	for _, inst := range instances {
		c, err := v.components.Find(inst.Component)
		if err != nil {
			violations.Pushf(inst.path, msgUnknownComp, inst.Component)
			continue
		}
		if inst.UUID == "" {
			continue
		}
		resolved = append(resolved, resolvedInstance{placed: inst, component: c})
	}
	return resolved
}

func (v *Validator) checkSlots(tree map[string]any, instances []resolvedInstance, base diagnostics.Path, violations *diagnostics.Violations) {
	for _, inst := range instances {
		subtree, ok := tree[inst.UUID]
		if !ok || inst.UUID == RootUUID {
			continue
		}
		if len(inst.component.Slots) == 0 {
			violations.Pushf(base.Key(inst.UUID), msgSubtreeNoSlots, inst.Component, inst.UUID)
			continue
		}
		slots, ok := subtree.(map[string]any)
		if !ok {
			continue
		}
		valid := strings.Join(inst.component.SlotNames(), ", ")
		for _, slot := range sortedKeys(slots) {
			if !inst.component.HasSlot(slot) {
				violations.Pushf(base.Key(inst.UUID).Key(slot), msgInvalidSlotName, inst.Component, slot, valid)
			}
		}
	}
}

// checkDangling reports subtrees whose instance is not placed in any other
// subtree.
func checkDangling(tree map[string]any, base diagnostics.Path, violations *diagnostics.Violations) {
	for _, key := range sortedKeys(tree) {
		if key == RootUUID {
			continue
		}
		if !placedElsewhere(tree, key) {
			violations.Pushf(base.Key(key), msgDangling, key)
		}
	}
}

func placedElsewhere(tree map[string]any, target string) bool {
	for key, subtree := range tree {
		if key == target {
			continue
		}
		if key == RootUUID {
			if listHasUUID(subtree, target) {
				return true
			}
			continue
		}
		slots, ok := subtree.(map[string]any)
		if !ok {
			continue
		}
		for _, list := range slots {
			if listHasUUID(list, target) {
				return true
			}
		}
	}
	return false
}

func listHasUUID(list any, target string) bool {
	items, ok := list.([]any)
	if !ok {
		return false
	}
	for _, item := range items {
		if tuple, ok := item.(map[string]any); ok && tuple["uuid"] == target {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String renders a report for logs.
func (r *Report) String() string {
	return fmt.Sprintf("%s (%d violations)", r.Reached, r.Len())
}
