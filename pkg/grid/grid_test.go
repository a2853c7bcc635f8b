package grid

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishanwen-byte/gridsearch-go/pkg/space"
)

func newSpace(t testing.TB, params ...[]string) *space.Space {
	s := space.New()
	for _, p := range params {
		require.NoError(t, s.Add(p[0], p[1:]...))
	}
	return s
}

var (
	paramX = []string{"x", "-5", "0", "5", "10"}
	paramY = []string{"y", "0", "5", "10", "15"}
	paramZ = []string{"z", "5", "10", "15", "20"}
)

func TestBuild2D(t *testing.T) {
	g := Build(newSpace(t, paramX, paramY))
	grid := g.Configurations()

	require.Len(t, grid, 16)
	assert.Equal(t, 16, g.Len())
	assert.Equal(t, map[string]interface{}{"x": int64(-5), "y": int64(0)}, grid[0].Map())
	assert.Equal(t, map[string]interface{}{"x": int64(-5), "y": int64(15)}, grid[3].Map())
	assert.Equal(t, map[string]interface{}{"x": int64(5), "y": int64(5)}, grid[9].Map())
	assert.Equal(t, map[string]interface{}{"x": int64(10), "y": int64(15)}, grid[15].Map())
	assert.Equal(t, []string{"x", "y"}, grid[9].Names())
}

func TestBuild3D(t *testing.T) {
	g := Build(newSpace(t, paramX, paramY, paramZ))
	grid := g.Configurations()

	require.Len(t, grid, 64)
	assert.Equal(t, map[string]interface{}{"x": int64(-5), "y": int64(0), "z": int64(5)}, grid[0].Map())
	assert.Equal(t, map[string]interface{}{"x": int64(0), "y": int64(0), "z": int64(5)}, grid[16].Map())
}

func TestBuildSizes(t *testing.T) {
	tests := []struct {
		name   string
		params [][]string
		size   int
	}{
		{name: "single", params: [][]string{{"a", "1", "2", "3"}}, size: 3},
		{name: "two", params: [][]string{{"a", "1", "2"}, {"b", "1", "2", "3"}}, size: 6},
		{name: "three", params: [][]string{{"a", "1", "2"}, {"b", "1", "2", "3"}, {"c", "1", "2", "3", "4", "5"}}, size: 30},
		{name: "five", params: [][]string{{"a", "1", "2"}, {"b", "1"}, {"c", "1", "2"}, {"d", "1", "2", "3"}, {"e", "1", "2"}}, size: 24},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			g := Build(newSpace(t, test.params...))
			assert.Equal(t, test.size, g.Len())
			assert.Len(t, g.Configurations(), test.size)
		})
	}
}

func TestAtMatchesIteration(t *testing.T) {
	g := Build(newSpace(t, []string{"a", "1", "2"}, []string{"b", "x", "y", "z"}, paramZ))

	count := 0
	for k, cfg := range g.All() {
		assert.True(t, g.At(k).Equal(cfg), "index %d: %s != %s", k, g.At(k), cfg)
		count++
	}
	assert.Equal(t, g.Len(), count)

	assert.Panics(t, func() { g.At(g.Len()) })
	assert.Panics(t, func() { g.At(-1) })
}

func TestOuterIndexStride(t *testing.T) {
	g := Build(newSpace(t, paramX, paramY, paramZ))

	// advancing x by one skips len(y)*len(z) configurations
	for i := 0; i < 4; i++ {
		v, ok := g.At(i * 16).Get("x")
		require.True(t, ok)
		assert.Equal(t, paramX[i+1], v.String())
	}
}

func TestValueTyping(t *testing.T) {
	g := Build(newSpace(t, []string{"lr", "0.1", "1e-3"}, []string{"act", "relu"}, []string{"n", "32"}))
	cfg := g.At(1)

	assert.Equal(t, map[string]interface{}{"lr": 1e-3, "act": "relu", "n": int64(32)}, cfg.Map())
	lr, _ := cfg.Get("lr")
	assert.Equal(t, "0.001", lr.String())
}

func TestEmptySpace(t *testing.T) {
	g := Build(space.New())

	assert.Equal(t, 1, g.Len())
	grid := g.Configurations()
	require.Len(t, grid, 1)
	assert.Equal(t, 0, grid[0].Len())
	assert.Equal(t, 0, g.At(0).Len())
}

func TestDuplicateCandidates(t *testing.T) {
	g := Build(newSpace(t, []string{"a", "1", "1"}))
	grid := g.Configurations()

	require.Len(t, grid, 2)
	assert.True(t, grid[0].Equal(grid[1]))
}

func TestAllStopsEarly(t *testing.T) {
	g := Build(newSpace(t, paramX, paramY))

	seen := 0
	for k := range g.All() {
		seen++
		if k == 4 {
			break
		}
	}
	assert.Equal(t, 5, seen)
}

func TestBuildIsReproducible(t *testing.T) {
	first := Build(newSpace(t, paramX, paramY, paramZ)).Configurations()
	second := Build(newSpace(t, paramX, paramY, paramZ)).Configurations()

	require.Equal(t, len(first), len(second))
	for k := range first {
		assert.True(t, first[k].Equal(second[k]), "index %d", k)
	}
}

func TestMulSaturating(t *testing.T) {
	assert.Equal(t, 12, mulSaturating(3, 4))
	assert.Equal(t, int(^uint(0)>>1), mulSaturating(int(^uint(0)>>1), 2))
}

func BenchmarkGridAll(b *testing.B) {
	params := make([][]string, 0, 6)
	for i := 0; i < 6; i++ {
		params = append(params, []string{fmt.Sprintf("p%d", i), "1", "2", "3", "4"})
	}
	g := Build(newSpace(b, params...))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for range g.All() {
		}
	}
}
