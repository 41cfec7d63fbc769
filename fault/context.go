package fault

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Field is a single key/value pair of error context.
type Field struct {
	Key   string
	Value any
}

// Context is an insertion-ordered list of context fields. Order is
// preserved through serialization so the Record round-trip is stable.
type Context []Field

// Get returns the value for key and whether it is present.
func (c Context) Get(key string) (any, bool) {
	for _, f := range c {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Set replaces the value for key in place, or appends a new field.
func (c Context) Set(key string, value any) Context {
	for i, f := range c {
		if f.Key == key {
			c[i].Value = value
			return c
		}
	}
	return append(c, Field{Key: key, Value: value})
}

// Clone returns an independent copy of the context.
func (c Context) Clone() Context {
	if c == nil {
		return nil
	}
	out := make(Context, len(c))
	copy(out, c)
	return out
}

// MarshalJSON encodes the context as a JSON object in insertion order.
func (c Context) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("context field %q: %w", f.Key, err)
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object preserving key order.
func (c *Context) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("context must be a JSON object, got %v", tok)
	}

	out := Context{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("context key must be a string, got %v", keyTok)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("context field %q: %w", key, err)
		}
		out = append(out, Field{Key: key, Value: normalizeValue(value)})
	}

	*c = out
	return nil
}

// normalizeValue converts json.Number tokens into float64 so decoded
// contexts compare equal to contexts built in code.
func normalizeValue(v any) any {
	switch n := v.(type) {
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	case []any:
		for i := range n {
			n[i] = normalizeValue(n[i])
		}
		return n
	case map[string]any:
		for k := range n {
			n[k] = normalizeValue(n[k])
		}
		return n
	default:
		return v
	}
}
