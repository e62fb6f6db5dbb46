package shapematch

import (
	"fmt"
	"net/mail"
	"net/netip"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

var (
	hostnamePattern = regexp.MustCompile(`(?i)^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?(\.[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?)*$`)

	compiled sync.Map // delimited pattern -> *regexp2.Regexp
)

// Check reports whether a concrete value meets the requirement.
// A nil requirement accepts every value.
func Check(req Requirement, value any) bool {
	for _, c := range Constraints(req) {
		if !c.Check(value) {
			return false
		}
	}
	return true
}

// Check reports whether a concrete value meets the constraint.
func (c Constraint) Check(value any) bool {
	if !c.checkInterface(value) {
		return false
	}
	switch c.Name {
	case NotYetSupported:
		return false
	case Choice:
		choices, _ := c.Options["choices"].([]any)
		for _, choice := range choices {
			if sameScalar(choice, value) {
				return true
			}
		}
		return false
	case Regex:
		s, ok := value.(string)
		if !ok {
			return false
		}
		re, err := compileRegex(cast.ToString(c.Options["pattern"]))
		if err != nil {
			return false
		}
		matched, err := re.MatchString(s)
		return err == nil && matched
	case Range:
		n, err := cast.ToFloat64E(value)
		if err != nil {
			return false
		}
		if min, ok := c.Options["min"]; ok && n < cast.ToFloat64(min) {
			return false
		}
		if max, ok := c.Options["max"]; ok && n > cast.ToFloat64(max) {
			return false
		}
		return true
	case Length:
		s, ok := value.(string)
		if !ok {
			return false
		}
		if max, ok := c.Options["max"]; ok && len([]rune(s)) > cast.ToInt(max) {
			return false
		}
		return true
	case Email:
		s, ok := value.(string)
		if !ok {
			return false
		}
		addr, err := mail.ParseAddress(s)
		return err == nil && addr.Address == s
	case Hostname:
		s, ok := value.(string)
		return ok && len(s) <= 253 && hostnamePattern.MatchString(s)
	case IP:
		s, ok := value.(string)
		if !ok {
			return false
		}
		addr, err := netip.ParseAddr(s)
		if err != nil {
			return false
		}
		switch cast.ToString(c.Options["version"]) {
		case "4":
			return addr.Is4()
		case "6":
			return addr.Is6() && !addr.Is4In6()
		default:
			return true
		}
	case UUID:
		s, ok := value.(string)
		if !ok {
			return false
		}
		_, err := uuid.Parse(s)
		return err == nil
	case PrimitiveType:
		switch value.(type) {
		case string, bool, int, int32, int64, float32, float64:
			return true
		}
		return false
	case StringSemantics:
		_, ok := value.(string)
		return ok
	default:
		return false
	}
}

func (c Constraint) checkInterface(value any) bool {
	switch c.Interface {
	case "":
		return true
	case DateTimeInterface:
		s, ok := value.(string)
		if !ok {
			return false
		}
		for _, layout := range []string{time.RFC3339, time.DateOnly} {
			if _, err := time.Parse(layout, s); err == nil {
				return true
			}
		}
		return false
	case URIInterface:
		s, ok := value.(string)
		if !ok {
			return false
		}
		_, err := url.Parse(s)
		return err == nil
	default:
		return false
	}
}

func compileRegex(delimited string) (*regexp2.Regexp, error) {
	if re, ok := compiled.Load(delimited); ok {
		return re.(*regexp2.Regexp), nil
	}
	re, err := regexp2.Compile(UndelimitPattern(delimited), regexp2.ECMAScript)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %s: %w", delimited, err)
	}
	compiled.Store(delimited, re)
	return re, nil
}

// sameScalar compares enum literals loosely across numeric representations,
// since JSON and YAML decoders disagree on int vs float.
func sameScalar(a, b any) bool {
	switch a.(type) {
	case string:
		s, ok := b.(string)
		return ok && s == a
	case bool:
		v, ok := b.(bool)
		return ok && v == a
	}
	fa, errA := cast.ToFloat64E(a)
	switch b.(type) {
	case string, bool:
		return false
	}
	fb, errB := cast.ToFloat64E(b)
	return errA == nil && errB == nil && fa == fb
}
