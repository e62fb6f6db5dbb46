package tree

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jacerider/neo-alchemist/content"
	"github.com/jacerider/neo-alchemist/internal/debug"
	"github.com/jacerider/neo-alchemist/props/component"
	"github.com/jacerider/neo-alchemist/props/diagnostics"
	"github.com/jacerider/neo-alchemist/props/propshape"
	"github.com/jacerider/neo-alchemist/props/propsource"
)

const (
	msgMissingKey     = "The array must contain a %q key."
	msgMissingProp    = "Configuration for the component prop %q (%s) is missing."
	msgRequiredProp   = "The prop %s is required, but resolved to nothing."
	msgDeferred       = "The prop %s cannot be resolved yet. Its validation is deferred."
	msgInvalidSource  = "Invalid prop source: %s"
	msgUnresolvable   = "The prop %s cannot be evaluated: %s"
	msgInvalidPropVal = "The component instance with UUID %s uses component %s and receives an invalid value for prop %s: %s"
)

// ItemValidator validates a complete tree item: its raw keys, its
// structure, and that every prop of every instance has a source resolving to
// a value its shape accepts.
type ItemValidator struct {
	structure  *Validator
	resolver   *Resolver
	components component.Lookup
	shapes     propshape.Resolver
	planner    *propshape.Planner
	log        *slog.Logger
}

func NewItemValidator(components component.Lookup, resolver *Resolver, shapes propshape.Resolver, planner *propshape.Planner) *ItemValidator {
	return &ItemValidator{
		structure:  NewValidator(components),
		resolver:   resolver,
		components: components,
		shapes:     shapes,
		planner:    planner,
		log:        debug.Component("tree"),
	}
}

// Validate checks a raw {"tree", "props"} item. host is the entity owning
// the tree, nil for config-owned trees.
//
// Prop sources needing a host entity are deferred, with a warning, while the
// tree is config-owned. Required props resolving to nothing are deferred the
// same way while the host is new. For an existing host entity a missing host
// error is returned instead of a violation.
func (v *ItemValidator) Validate(raw map[string]any, host content.Entity) (*diagnostics.Violations, error) {
	host = hostOrNil(host)
	violations := diagnostics.NewViolations()
	complete := true
	for _, key := range []string{"tree", "props"} {
		if _, ok := raw[key]; !ok {
			violations.Pushf(nil, msgMissingKey, key)
			complete = false
		}
	}
	if !complete {
		return violations, nil
	}

	treeDoc, ok := decodeColumn(raw["tree"], diagnostics.Path{"tree"}, violations)
	if !ok {
		return violations, nil
	}
	report := v.structure.validate(treeDoc, diagnostics.Path{"tree"}, &Report{Violations: violations})
	if report.Reached < StageWellFormed {
		return violations, nil
	}

	treeJSON, _ := rawJSON(raw, "tree")
	structure, err := ParseStructure(treeJSON)
	if err != nil {
		// The structure violations already describe why.
		return violations, nil
	}
	propsDoc, ok := decodeColumn(raw["props"], diagnostics.Path{"props"}, violations)
	if !ok {
		return violations, nil
	}
	item := &Item{Tree: structure}
	propsJSON, _ := json.Marshal(propsDoc)
	if err := json.Unmarshal(propsJSON, &item.Props); err != nil {
		violations.Push(diagnostics.Path{"props"}, msgNotObject)
		return violations, nil
	}

	for _, instanceUUID := range item.ComponentInstanceUUIDs() {
		componentID, _ := item.ComponentID(instanceUUID)
		c, err := v.components.Find(componentID)
		if err != nil {
			// Reported by structure validation.
			continue
		}
		if err := v.validateInstance(item, instanceUUID, c, host, violations); err != nil {
			return violations, err
		}
	}
	return violations, nil
}

func decodeColumn(value any, path diagnostics.Path, violations *diagnostics.Violations) (any, bool) {
	s, ok := value.(string)
	if !ok {
		return value, true
	}
	var doc any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		violations.Push(path, msgInvalidJSON)
		return nil, false
	}
	return doc, true
}

func (v *ItemValidator) validateInstance(item *Item, instanceUUID string, c *component.Component, host content.Entity, violations *diagnostics.Violations) error {
	path := diagnostics.Path{"props", instanceUUID}
	shapes, err := component.PropShapes(c, v.shapes)
	if err != nil {
		violations.Push(path, err.Error())
		return nil
	}
	sources := item.Props[instanceUUID]
	for _, ps := range shapes {
		name := ps.Prop.Name
		if _, ok := sources[name]; !ok {
			violations.Pushf(path, msgMissingProp, ps.Prop.Title(), name)
			continue
		}
		propPath := path.Key(name)
		src, err := v.resolver.parser.Parse(sources[name])
		if err != nil {
			violations.Pushf(propPath, msgInvalidSource, err)
			continue
		}
		value, err := src.Evaluate(host)
		switch {
		case errors.Is(err, propsource.ErrMissingHostEntity):
			if host != nil && !host.IsNew() {
				return fmt.Errorf("instance %s prop %s: %w", instanceUUID, name, err)
			}
			v.log.Debug("deferring prop validation", "instance", instanceUUID, "prop", name)
			violations.Warn(propPath, fmt.Sprintf(msgDeferred, name))
			continue
		case err != nil:
			violations.Pushf(propPath, msgUnresolvable, name, err)
			continue
		}
		if value == nil {
			switch {
			case !ps.Prop.Required:
			case host != nil && host.IsNew():
				// Required host fields may still be unpopulated.
				violations.Warn(propPath, fmt.Sprintf(msgDeferred, name))
			default:
				violations.Pushf(propPath, msgRequiredProp, name)
			}
			continue
		}
		if err := v.planner.Validate(ps.Shape, value); err != nil {
			violations.Pushf(propPath, msgInvalidPropVal, instanceUUID, c.ID, name, err)
		}
	}
	return nil
}
