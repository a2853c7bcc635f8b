// Package grid enumerates the Cartesian product of a hyperparameter space.
//
// Configurations are ordered lexicographically by candidate index with the
// first declared parameter as the most significant digit, so the last
// declared parameter varies fastest. The order is part of the contract:
// At(k) is stable for a fixed space.
package grid

import (
	"iter"
	"math"
	"math/bits"

	"github.com/ishanwen-byte/gridsearch-go/internal/types"
	"github.com/ishanwen-byte/gridsearch-go/pkg/space"
)

type axis struct {
	name   string
	values []types.Value
}

// Grid is the read-only enumeration of every configuration of a space
type Grid struct {
	axes []axis
	size int
}

// Build decodes the candidate tokens of every parameter and prepares the
// enumeration. A space without parameters yields a grid holding exactly one
// empty configuration.
func Build(s *space.Space) *Grid {
	params := s.Params()
	g := &Grid{axes: make([]axis, len(params)), size: 1}

	for i, p := range params {
		values := make([]types.Value, len(p.Values))
		for j, tok := range p.Values {
			values[j] = types.ParseValue(tok)
		}
		g.axes[i] = axis{name: p.Name, values: values}
		g.size = mulSaturating(g.size, len(values))
	}

	return g
}

// Len is the product of candidate counts. It saturates at math.MaxInt.
func (g *Grid) Len() int {
	return g.size
}

// Names returns parameter names in enumeration significance order
func (g *Grid) Names() []string {
	names := make([]string, len(g.axes))
	for i, a := range g.axes {
		names[i] = a.name
	}
	return names
}

// At returns configuration k. It panics when k is out of range, like slice indexing.
func (g *Grid) At(k int) types.Configuration {
	if k < 0 || k >= g.size {
		panic("grid: index out of range")
	}

	entries := make([]types.Entry, len(g.axes))
	for i := len(g.axes) - 1; i >= 0; i-- {
		n := len(g.axes[i].values)
		entries[i] = types.Entry{Name: g.axes[i].name, Value: g.axes[i].values[k%n]}
		k /= n
	}
	return types.NewConfiguration(entries...)
}

// All streams (index, configuration) pairs in enumeration order without
// holding the whole grid in memory.
func (g *Grid) All() iter.Seq2[int, types.Configuration] {
	return func(yield func(int, types.Configuration) bool) {
		if g.size == 0 {
			return
		}
		digits := make([]int, len(g.axes))
		for k := 0; ; k++ {
			if !yield(k, g.configuration(digits)) {
				return
			}
			if !g.advance(digits) {
				return
			}
		}
	}
}

// Configurations materializes the whole grid
func (g *Grid) Configurations() []types.Configuration {
	out := make([]types.Configuration, 0, g.size)
	for _, cfg := range g.All() {
		out = append(out, cfg)
	}
	return out
}

func (g *Grid) configuration(digits []int) types.Configuration {
	entries := make([]types.Entry, len(g.axes))
	for i, a := range g.axes {
		entries[i] = types.Entry{Name: a.name, Value: a.values[digits[i]]}
	}
	return types.NewConfiguration(entries...)
}

// advance increments the odometer, last axis first. It reports false once
// every digit has wrapped around.
func (g *Grid) advance(digits []int) bool {
	for i := len(digits) - 1; i >= 0; i-- {
		digits[i]++
		if digits[i] < len(g.axes[i].values) {
			return true
		}
		digits[i] = 0
	}
	return false
}

func mulSaturating(a, b int) int {
	hi, lo := bits.Mul64(uint64(a), uint64(b))
	if hi != 0 || lo > math.MaxInt {
		return math.MaxInt
	}
	return int(lo)
}
