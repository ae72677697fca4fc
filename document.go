package convoflow

import (
	"bytes"
	"encoding/json"
)

// Document is the compiled workflow: a mapping from context name to the
// context's serialized form, preserving the order contexts were added.
// Documents are produced by Builder.Serialize and are immutable afterward.
type Document struct {
	names    []string
	contexts map[string]map[string]any
}

// Names returns the context names in insertion order.
func (d *Document) Names() []string {
	return append([]string{}, d.names...)
}

// Context returns the serialized mapping for one context.
func (d *Document) Context(name string) (map[string]any, bool) {
	m, ok := d.contexts[name]
	return m, ok
}

// Map returns the document as a plain nested mapping. Iteration order of the
// returned map is unspecified; use Names for ordering.
func (d *Document) Map() map[string]any {
	out := make(map[string]any, len(d.contexts))
	for name, m := range d.contexts {
		out[name] = m
	}
	return out
}

// MarshalJSON emits the context mapping as a JSON object whose keys appear
// in insertion order. Inner objects marshal with encoding/json's sorted
// keys, so output is deterministic end to end.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range d.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(d.contexts[name])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
