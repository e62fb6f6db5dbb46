package diagnostics

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Violation is a problem found at a path.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) Error() string {
	if v.Path == "" {
		return v.Message
	}
	return v.Path + ": " + v.Message
}

// Warning is a condition that does not fail validation, such as a check
// deferred until a host entity exists.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Violations accumulates violations and warnings during validation instead
// of stopping at the first one.
type Violations struct {
	violations []Violation
	warnings   []Warning
}

// NewViolations creates an empty collection.
func NewViolations() *Violations {
	return &Violations{
		violations: make([]Violation, 0),
		warnings:   make([]Warning, 0),
	}
}

// Push adds a violation at path.
func (v *Violations) Push(path Path, message string) {
	v.violations = append(v.violations, Violation{Path: path.String(), Message: message})
}

// Pushf adds a formatted violation at path.
func (v *Violations) Pushf(path Path, format string, args ...any) {
	v.Push(path, fmt.Sprintf(format, args...))
}

// Warn adds a warning at path.
func (v *Violations) Warn(path Path, message string) {
	v.warnings = append(v.warnings, Warning{Path: path.String(), Message: message})
}

// Merge appends everything collected by other.
func (v *Violations) Merge(other *Violations) {
	if other == nil {
		return
	}
	v.violations = append(v.violations, other.violations...)
	v.warnings = append(v.warnings, other.warnings...)
}

func (v *Violations) All() []Violation { return v.violations }

func (v *Violations) Warnings() []Warning { return v.warnings }

// Len returns the number of violations.
func (v *Violations) Len() int { return len(v.violations) }

// HasViolations returns true if at least one violation was collected.
func (v *Violations) HasViolations() bool { return len(v.violations) > 0 }

// At returns the messages of violations recorded at path.
func (v *Violations) At(path string) []string {
	var out []string
	for _, violation := range v.violations {
		if violation.Path == path {
			out = append(out, violation.Message)
		}
	}
	return out
}

// Paths lists the distinct violation paths in lexical order.
func (v *Violations) Paths() []string {
	seen := make(map[string]bool, len(v.violations))
	var out []string
	for _, violation := range v.violations {
		if !seen[violation.Path] {
			seen[violation.Path] = true
			out = append(out, violation.Path)
		}
	}
	sort.Strings(out)
	return out
}

// ToResult returns an error summarizing the violations, or nil.
func (v *Violations) ToResult() error {
	switch len(v.violations) {
	case 0:
		return nil
	case 1:
		return fmt.Errorf("validation failed: %s", v.violations[0].Error())
	default:
		return fmt.Errorf("validation failed with %d violations", len(v.violations))
	}
}

// String lists one violation per line.
func (v *Violations) String() string {
	var buf bytes.Buffer
	for _, violation := range v.violations {
		buf.WriteString(violation.Error())
		buf.WriteByte('\n')
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
