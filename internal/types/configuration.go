package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strings"
)

// Entry is one (name, value) pair of a Configuration
type Entry struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}

// Configuration assigns one value to every hyperparameter. Entries keep the
// declaration order of the originating space. A Configuration is immutable;
// accessors hand out copies.
type Configuration struct {
	entries []Entry
}

// NewConfiguration builds a Configuration from ordered entries
func NewConfiguration(entries ...Entry) Configuration {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return Configuration{entries: cp}
}

// Len returns the number of parameters
func (c Configuration) Len() int {
	return len(c.entries)
}

// Names returns parameter names in declaration order
func (c Configuration) Names() []string {
	names := make([]string, len(c.entries))
	for i, e := range c.entries {
		names[i] = e.Name
	}
	return names
}

// Get looks up the value assigned to name
func (c Configuration) Get(name string) (Value, bool) {
	for _, e := range c.entries {
		if e.Name == name {
			return e.Value, true
		}
	}
	return Value{}, false
}

// Entries returns a copy of the ordered entries
func (c Configuration) Entries() []Entry {
	cp := make([]Entry, len(c.entries))
	copy(cp, c.entries)
	return cp
}

// All iterates entries in declaration order
func (c Configuration) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		for _, e := range c.entries {
			if !yield(e.Name, e.Value) {
				return
			}
		}
	}
}

// Map returns the configuration as name -> natural Go value
func (c Configuration) Map() map[string]interface{} {
	m := make(map[string]interface{}, len(c.entries))
	for _, e := range c.entries {
		m[e.Name] = e.Value.Interface()
	}
	return m
}

// Equal reports whether both configurations hold the same entries in the same order
func (c Configuration) Equal(other Configuration) bool {
	if len(c.entries) != len(other.entries) {
		return false
	}
	for i, e := range c.entries {
		if e.Name != other.entries[i].Name || !e.Value.Equal(other.entries[i].Value) {
			return false
		}
	}
	return true
}

func (c Configuration) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, e := range c.entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(e.Name)
		sb.WriteString(": ")
		sb.WriteString(e.Value.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// MarshalJSON writes a JSON object whose keys follow declaration order
func (c Configuration) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := e.Value.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON restores a configuration, keeping the key order of the document
func (c *Configuration) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("configuration must be a JSON object")
	}

	var entries []Entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("failed to decode configuration key: %w", err)
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("configuration key must be a string")
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode value of %q: %w", name, err)
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return fmt.Errorf("failed to decode value of %q: %w", name, err)
		}
		entries = append(entries, Entry{Name: name, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("failed to decode configuration: %w", err)
	}

	c.entries = entries
	return nil
}
