package adapter

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cast"
)

// Builtin returns a registry holding the built-in adapters.
func Builtin() *Registry {
	return NewRegistry(DayCount(), UnixToDate())
}

// DayCount counts the whole days between two dates.
func DayCount() *Adapter {
	date := map[string]any{"type": "string", "format": "date"}
	return &Adapter{
		ID:       "day_count",
		Label:    "Count days",
		Inputs:   map[string]map[string]any{"oldest": date, "newest": date},
		Required: []string{"oldest", "newest"},
		Output:   map[string]any{"type": "integer"},
		Transform: func(inputs map[string]any) (any, error) {
			oldest, err := parseDate(inputs["oldest"])
			if err != nil {
				return nil, fmt.Errorf("oldest: %w", err)
			}
			newest, err := parseDate(inputs["newest"])
			if err != nil {
				return nil, fmt.Errorf("newest: %w", err)
			}
			return int(math.Round(newest.Sub(oldest).Hours() / 24)), nil
		},
	}
}

// UnixToDate formats a Unix timestamp as a UTC date.
func UnixToDate() *Adapter {
	return &Adapter{
		ID:       "unix_to_date",
		Label:    "UNIX timestamp to date",
		Inputs:   map[string]map[string]any{"unix": {"type": "integer"}},
		Required: []string{"unix"},
		Output:   map[string]any{"type": "string", "format": "date"},
		Transform: func(inputs map[string]any) (any, error) {
			ts, err := cast.ToInt64E(inputs["unix"])
			if err != nil {
				return nil, fmt.Errorf("unix: %w", err)
			}
			return time.Unix(ts, 0).UTC().Format(time.DateOnly), nil
		},
	}
}

func parseDate(v any) (time.Time, error) {
	s, err := cast.ToStringE(v)
	if err != nil {
		return time.Time{}, err
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
