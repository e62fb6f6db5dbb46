package evaluator

import (
	"bytes"
	"encoding/json"
)

// Entry is one key of an evaluated object.
type Entry struct {
	Key   string
	Value any
}

// Object is the value of an object expression. It keeps the declaration
// order of the expression's props, including when marshalled to JSON.
type Object []Entry

// Get returns the value stored under key.
func (o Object) Get(key string) (any, bool) {
	for _, e := range o {
		if e.Key == key {
			return e.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in order.
func (o Object) Keys() []string {
	keys := make([]string, len(o))
	for i, e := range o {
		keys[i] = e.Key
	}
	return keys
}

// Map converts to an unordered map, recursively.
func (o Object) Map() map[string]any {
	m := make(map[string]any, len(o))
	for _, e := range o {
		if nested, ok := e.Value.(Object); ok {
			m[e.Key] = nested.Map()
			continue
		}
		m[e.Key] = e.Value
	}
	return m
}

func (o Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		v, err := json.Marshal(e.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
