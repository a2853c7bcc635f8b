// Package space describes discrete hyperparameter spaces and parses their
// line-oriented textual form.
package space

import (
	"fmt"
)

// Param is one hyperparameter with its candidate tokens in declaration order
type Param struct {
	Name       string   `json:"name" yaml:"name"`
	Values     []string `json:"values" yaml:"values"`
	Default    string   `json:"default,omitempty" yaml:"default,omitempty"`
	HasDefault bool     `json:"has_default" yaml:"has_default"`
}

// Space is an ordered mapping from parameter name to candidate tokens.
// Iteration order is declaration order. The zero value is an empty space.
type Space struct {
	params []Param
	index  map[string]int
}

// New returns an empty space
func New() *Space {
	return &Space{index: make(map[string]int)}
}

// Add appends a parameter. Names must be unique and non-empty and at least
// one candidate is required.
func (s *Space) Add(name string, values ...string) error {
	return s.add(Param{Name: name, Values: values})
}

func (s *Space) add(p Param) error {
	if p.Name == "" {
		return fmt.Errorf("parameter name is required")
	}
	if _, exists := s.index[p.Name]; exists {
		return fmt.Errorf("duplicate parameter %q", p.Name)
	}
	if len(p.Values) == 0 {
		return fmt.Errorf("parameter %q has no candidate values", p.Name)
	}

	values := make([]string, len(p.Values))
	copy(values, p.Values)
	p.Values = values

	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[p.Name] = len(s.params)
	s.params = append(s.params, p)
	return nil
}

// Len returns the number of parameters
func (s *Space) Len() int {
	return len(s.params)
}

// Names returns parameter names in declaration order
func (s *Space) Names() []string {
	names := make([]string, len(s.params))
	for i, p := range s.params {
		names[i] = p.Name
	}
	return names
}

// Param returns a copy of the named parameter
func (s *Space) Param(name string) (Param, bool) {
	i, ok := s.index[name]
	if !ok {
		return Param{}, false
	}
	return clone(s.params[i]), true
}

// Params returns copies of all parameters in declaration order
func (s *Space) Params() []Param {
	out := make([]Param, len(s.params))
	for i, p := range s.params {
		out[i] = clone(p)
	}
	return out
}

// Values returns the candidate tokens of name, or nil when it is unknown
func (s *Space) Values(name string) []string {
	p, ok := s.Param(name)
	if !ok {
		return nil
	}
	return p.Values
}

// Equal compares names, order and candidates. Defaults are ignored since
// they never influence the grid.
func (s *Space) Equal(other *Space) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Len() != other.Len() {
		return false
	}
	for i, p := range s.params {
		q := other.params[i]
		if p.Name != q.Name || len(p.Values) != len(q.Values) {
			return false
		}
		for j := range p.Values {
			if p.Values[j] != q.Values[j] {
				return false
			}
		}
	}
	return true
}

func clone(p Param) Param {
	values := make([]string, len(p.Values))
	copy(values, p.Values)
	p.Values = values
	return p
}
