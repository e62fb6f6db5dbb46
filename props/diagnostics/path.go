// Package diagnostics collects path-addressed violations and warnings so a
// validation pass can report every problem at once.
package diagnostics

import (
	"strconv"
	"strings"
)

// Path addresses a value inside a decoded JSON document. It renders as
// bracketed segments, e.g. "[uuid][slot][0][component]".
type Path []string

// Key returns the path extended by an object key.
func (p Path) Key(key string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, key)
}

// Index returns the path extended by an array index.
func (p Path) Index(i int) Path {
	return p.Key(strconv.Itoa(i))
}

func (p Path) String() string {
	var b strings.Builder
	for _, seg := range p {
		b.WriteByte('[')
		b.WriteString(seg)
		b.WriteByte(']')
	}
	return b.String()
}

// ParsePath splits a rendered path back into its segments.
func ParsePath(s string) Path {
	if s == "" {
		return nil
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	return strings.Split(s, "][")
}
