// Package shapematch holds the data-type requirements a content field must
// meet before it can feed a component prop, and the logic that checks
// concrete values and field properties against them.
package shapematch

import (
	"fmt"
	"sort"
	"strings"
)

// Constraint names understood by the matcher.
const (
	Choice          = "Choice"
	Regex           = "Regex"
	Range           = "Range"
	Email           = "Email"
	Hostname        = "Hostname"
	IP              = "Ip"
	UUID            = "Uuid"
	PrimitiveType   = "PrimitiveType"
	StringSemantics = "StringSemantics"
	Length          = "Length"
	// NotYetSupported marks a refinement without a mapping. It never matches.
	NotYetSupported = "NOT YET SUPPORTED"
)

// Interface tags a property's data type may implement.
const (
	DateTimeInterface = "DateTimeInterface"
	URIInterface      = "UriInterface"
)

// SemanticProse is the StringSemantics option for free-form human text.
const SemanticProse = "prose"

// Requirement is either a single Constraint or an All conjunction.
// A nil Requirement means "no refinement beyond the type".
type Requirement interface {
	fmt.Stringer
	requirement()
}

// Constraint requires a leaf data type to carry the named constraint with
// the given options and, when Interface is set, to implement that interface.
type Constraint struct {
	Name      string
	Options   map[string]any
	Interface string
}

func (Constraint) requirement() {}

// Unsupported reports whether the constraint is the not-yet-supported sentinel.
func (c Constraint) Unsupported() bool {
	return c.Name == NotYetSupported
}

func (c Constraint) String() string {
	var b strings.Builder
	b.WriteString(c.Name)
	if len(c.Options) > 0 {
		keys := make([]string, 0, len(c.Options))
		for k := range c.Options {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("{")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s: %v", k, c.Options[k])
		}
		b.WriteString("}")
	}
	if c.Interface != "" {
		b.WriteString(" & ")
		b.WriteString(c.Interface)
	}
	return b.String()
}

// All is an ordered list of constraints that must all hold.
type All []Constraint

func (All) requirement() {}

func (a All) String() string {
	parts := make([]string, len(a))
	for i, c := range a {
		parts[i] = c.String()
	}
	return "all(" + strings.Join(parts, ", ") + ")"
}

// NewChoice builds a Choice constraint over the given literals.
func NewChoice(choices []any) Constraint {
	return Constraint{Name: Choice, Options: map[string]any{"choices": choices}}
}

// NewRange builds a Range constraint. A nil bound is omitted.
func NewRange(min, max any) Constraint {
	opts := map[string]any{}
	if min != nil {
		opts["min"] = min
	}
	if max != nil {
		opts["max"] = max
	}
	return Constraint{Name: Range, Options: opts}
}

// NewRegex builds a Regex constraint from an undelimited pattern.
func NewRegex(pattern string) Constraint {
	return Constraint{Name: Regex, Options: map[string]any{"pattern": DelimitPattern(pattern)}}
}

// NewNotYetSupported builds the sentinel constraint.
func NewNotYetSupported() Constraint {
	return Constraint{Name: NotYetSupported}
}

// DelimitPattern wraps a pattern in "/" delimiters, escaping every "/" that
// is not already escaped. Backslash runs are counted so "\\/" (an escaped
// backslash followed by a slash) still gets its slash escaped.
func DelimitPattern(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern) + 2)
	b.WriteByte('/')
	backslashes := 0
	for _, r := range pattern {
		switch {
		case r == '\\':
			backslashes++
		case r == '/' && backslashes%2 == 0:
			b.WriteByte('\\')
			backslashes = 0
		default:
			backslashes = 0
		}
		b.WriteRune(r)
	}
	b.WriteByte('/')
	return b.String()
}

// UndelimitPattern strips the "/" delimiters added by DelimitPattern.
// Escaped slashes are left in place, they are valid ECMAScript escapes.
func UndelimitPattern(delimited string) string {
	if len(delimited) >= 2 && strings.HasPrefix(delimited, "/") && strings.HasSuffix(delimited, "/") {
		return delimited[1 : len(delimited)-1]
	}
	return delimited
}

// Constraints flattens a requirement into its constraints.
func Constraints(req Requirement) []Constraint {
	switch r := req.(type) {
	case Constraint:
		return []Constraint{r}
	case All:
		return r
	default:
		return nil
	}
}
