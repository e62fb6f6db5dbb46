package shapematch

import (
	"github.com/spf13/cast"

	"github.com/jacerider/neo-alchemist/content"
)

// Satisfies reports whether values of a field property are guaranteed to meet
// the requirement, judged from the constraints and interfaces the property's
// definition declares. The NotYetSupported sentinel never matches.
func Satisfies(def content.PropertyDefinition, req Requirement) bool {
	for _, c := range Constraints(req) {
		if !c.satisfiedBy(def) {
			return false
		}
	}
	return true
}

func (c Constraint) satisfiedBy(def content.PropertyDefinition) bool {
	if c.Unsupported() {
		return false
	}
	if c.Interface != "" && !def.HasInterface(c.Interface) {
		return false
	}
	if c.Name == PrimitiveType {
		return def.DataType.IsPrimitive()
	}
	have, ok := def.Constraints[c.Name]
	if !ok {
		return false
	}
	switch c.Name {
	case Choice:
		// Every value the field can hold must be an allowed prop value.
		want, _ := c.Options["choices"].([]any)
		got, _ := have["choices"].([]any)
		if len(got) == 0 {
			return false
		}
		for _, g := range got {
			found := false
			for _, w := range want {
				if sameScalar(w, g) {
					found = true
					break
				}
			}
			if !found {
				return false
			}
		}
		return true
	case Range:
		// The field range must sit inside the prop range.
		if min, ok := c.Options["min"]; ok {
			fieldMin, has := have["min"]
			if !has || cast.ToFloat64(fieldMin) < cast.ToFloat64(min) {
				return false
			}
		}
		if max, ok := c.Options["max"]; ok {
			fieldMax, has := have["max"]
			if !has || cast.ToFloat64(fieldMax) > cast.ToFloat64(max) {
				return false
			}
		}
		return true
	case Regex:
		return cast.ToString(have["pattern"]) == cast.ToString(c.Options["pattern"])
	case IP:
		return cast.ToString(have["version"]) == cast.ToString(c.Options["version"])
	case StringSemantics:
		return cast.ToString(have["semantic"]) == cast.ToString(c.Options["semantic"])
	default:
		return true
	}
}
