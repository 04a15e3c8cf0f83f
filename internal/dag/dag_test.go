package dag

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGraph(t *testing.T, nodes []string, edges [][2]string) *Graph {
	t.Helper()
	g := New()
	for _, n := range nodes {
		g.AddNode(n)
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func TestAddNode(t *testing.T) {
	g := New()

	g.AddNode("a")
	assert.Equal(t, 1, g.Len())
	assert.True(t, g.HasNode("a"))

	g.AddNode("a") // Test idempotency
	assert.Equal(t, 1, g.Len())

	g.AddNode("b")
	assert.Equal(t, []string{"a", "b"}, g.Nodes())
}

func TestAddEdge(t *testing.T) {
	t.Run("success case", func(t *testing.T) {
		g := newGraph(t, []string{"a", "b"}, [][2]string{{"a", "b"}}) // b depends on a

		deps, err := g.Dependencies("b")
		require.NoError(t, err)
		assert.Equal(t, []string{"a"}, deps)

		dependents, err := g.Dependents("a")
		require.NoError(t, err)
		assert.Equal(t, []string{"b"}, dependents)
	})

	t.Run("error cases", func(t *testing.T) {
		g := newGraph(t, []string{"a", "b"}, nil)

		err := g.AddEdge("dne", "a")
		assert.ErrorContains(t, err, "source node not found")

		err = g.AddEdge("a", "dne")
		assert.ErrorContains(t, err, "destination node not found")

		err = g.AddEdge("a", "a")
		assert.ErrorContains(t, err, "self-referential edge")

		_, err = g.Dependencies("dne")
		assert.ErrorContains(t, err, "node not found")
	})
}

func TestDetectCycles(t *testing.T) {
	t.Run("empty graph has no cycles", func(t *testing.T) {
		assert.NoError(t, New().DetectCycles())
	})

	t.Run("valid dag has no cycles", func(t *testing.T) {
		g := newGraph(t, []string{"a", "b", "c", "d"}, [][2]string{
			{"a", "b"}, {"b", "c"}, {"a", "c"}, {"c", "d"},
		})
		assert.NoError(t, g.DetectCycles())
	})

	t.Run("longer cycle is reported with its path", func(t *testing.T) {
		g := newGraph(t, []string{"a", "b", "c", "d"}, [][2]string{
			{"a", "b"}, {"b", "c"}, {"c", "d"}, {"d", "a"},
		})

		err := g.DetectCycles()

		var cycleErr *CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"a", "b", "c", "d", "a"}, cycleErr.Path)
		assert.EqualError(t, err, "cycle detected: a -> b -> c -> d -> a")
	})

	t.Run("cycle in a disjoint component is detected", func(t *testing.T) {
		g := newGraph(t, []string{"a", "b", "x", "y", "z"}, [][2]string{
			{"a", "b"}, {"x", "y"}, {"y", "z"}, {"z", "y"},
		})

		err := g.DetectCycles()

		var cycleErr *CycleError
		require.True(t, errors.As(err, &cycleErr))
		assert.Equal(t, []string{"y", "z", "y"}, cycleErr.Path)
	})
}

func TestTopologicalOrder(t *testing.T) {
	t.Run("dependencies come first", func(t *testing.T) {
		// A depends on B.
		g := newGraph(t, []string{"A", "B"}, [][2]string{{"B", "A"}})

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"B", "A"}, order)
	})

	t.Run("ties are broken lexically", func(t *testing.T) {
		g := newGraph(t, []string{"d", "c", "b", "a", "e"}, [][2]string{
			{"c", "e"}, {"a", "e"}, {"b", "d"},
		})

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, order)
	})

	t.Run("late unlocks are merged in lexical position", func(t *testing.T) {
		g := newGraph(t, []string{"a", "b", "z", "c"}, [][2]string{{"a", "b"}})

		order, err := g.TopologicalOrder()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "z"}, order)
	})

	t.Run("order is identical across repeated calls", func(t *testing.T) {
		g := newGraph(t, []string{"m1", "m2", "m3", "m4", "m5"}, [][2]string{
			{"m1", "m3"}, {"m2", "m3"}, {"m3", "m5"}, {"m4", "m5"},
		})

		first, err := g.TopologicalOrder()
		require.NoError(t, err)
		for i := 0; i < 20; i++ {
			again, err := g.TopologicalOrder()
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("cyclic graph yields no partial order", func(t *testing.T) {
		g := newGraph(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "a"}})

		order, err := g.TopologicalOrder()

		assert.Nil(t, order)
		var cycleErr *CycleError
		require.ErrorAs(t, err, &cycleErr)
		assert.Equal(t, []string{"a", "b", "a"}, cycleErr.Path)
	})
}

func TestClosure(t *testing.T) {
	g := newGraph(t, []string{"a", "b", "c", "x"}, [][2]string{{"a", "b"}, {"b", "c"}})

	closure, err := g.Closure("c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, closure)

	_, err = g.Closure("missing")
	assert.ErrorContains(t, err, "node not found")
}
