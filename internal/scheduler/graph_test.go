package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/buildgrid/internal/dag"
)

func TestGraph_Add(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add(Task{ID: ":a", Predecessors: []string{":b", ":b"}}))

	var dup *DuplicateTaskError
	require.ErrorAs(t, g.Add(Task{ID: ":a"}), &dup)
	assert.Equal(t, ":a", dup.ID)

	assert.Error(t, g.Add(Task{}))

	task, ok := g.Task(":a")
	require.True(t, ok)
	assert.Equal(t, []string{":b"}, task.Predecessors, "duplicate predecessors collapse")
}

func TestGraph_Validate(t *testing.T) {
	t.Run("unknown predecessor", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.Add(Task{ID: ":app:jar", Predecessors: []string{":lib:jar"}}))

		var unknown *UnknownTaskError
		require.ErrorAs(t, g.Validate(), &unknown)
		assert.Equal(t, ":lib:jar", unknown.ID)
		assert.Equal(t, ":app:jar", unknown.Referrer)
	})

	t.Run("cycle", func(t *testing.T) {
		g := NewGraph()
		require.NoError(t, g.Add(Task{ID: "a", Predecessors: []string{"b"}}))
		require.NoError(t, g.Add(Task{ID: "b", Predecessors: []string{"a"}}))

		var cyc *dag.CycleError
		require.ErrorAs(t, g.Validate(), &cyc)
	})
}

func TestGraph_Select(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Add(Task{ID: ":lib:jar"}))
	require.NoError(t, g.Add(Task{ID: ":app:jar", Predecessors: []string{":lib:jar"}}))
	require.NoError(t, g.Add(Task{ID: ":app:checkstyleMain"}))
	require.NoError(t, g.Add(Task{ID: ":clean"}))

	sub, err := g.Select(":app:jar")
	require.NoError(t, err)
	assert.Equal(t, []string{":app:jar", ":lib:jar"}, sub.IDs())

	order, err := sub.Order()
	require.NoError(t, err)
	assert.Equal(t, []string{":lib:jar", ":app:jar"}, order)

	_, err = g.Select(":nope")
	var unknown *UnknownTaskError
	assert.ErrorAs(t, err, &unknown)
}

func TestGraph_RunFirst(t *testing.T) {
	// --- Arrange ---
	g := NewGraph()
	require.NoError(t, g.Add(Task{ID: ":lib:jar"}))
	require.NoError(t, g.Add(Task{ID: ":app:jar", Predecessors: []string{":lib:jar"}}))
	require.NoError(t, g.Add(Task{ID: ":app:checkstyleMain"}))
	require.NoError(t, g.Add(Task{ID: ":clean"}))
	sub, err := g.Select(":app:jar", ":app:checkstyleMain", ":clean")
	require.NoError(t, err)

	// --- Act ---
	err = sub.RunFirst(":clean")

	// --- Assert ---
	require.NoError(t, err)
	order, err := sub.Order()
	require.NoError(t, err)
	assert.Equal(t, ":clean", order[0])

	lib, _ := sub.Task(":lib:jar")
	assert.Equal(t, []string{":clean"}, lib.Predecessors)
	app, _ := sub.Task(":app:jar")
	assert.Equal(t, []string{":lib:jar"}, app.Predecessors, "non-root keeps its predecessors")

	orig, _ := g.Task(":lib:jar")
	assert.Empty(t, orig.Predecessors, "source graph untouched")

	var unknown *UnknownTaskError
	assert.ErrorAs(t, sub.RunFirst(":missing"), &unknown)
	assert.Error(t, sub.RunFirst(":app:jar"))
}
