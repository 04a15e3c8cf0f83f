package launcher

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	t.Run("substitutes every placeholder", func(t *testing.T) {
		out, err := Render("run {{app}} with {{cp}}", map[string]string{"app": "pet", "cp": "lib.jar"})
		require.NoError(t, err)
		assert.Equal(t, "run pet with lib.jar", out)
	})

	t.Run("tolerates whitespace inside braces", func(t *testing.T) {
		out, err := Render("{{ app }}!", map[string]string{"app": "pet"})
		require.NoError(t, err)
		assert.Equal(t, "pet!", out)
	})

	t.Run("reports every missing placeholder", func(t *testing.T) {
		out, err := Render("run {{app}} with {{cp}} and {{opts}}", map[string]string{"app": "pet"})

		require.Error(t, err)
		assert.Empty(t, out)
		var upe *UnresolvedPlaceholderError
		require.True(t, errors.As(err, &upe))
		assert.Equal(t, []string{"cp", "opts"}, upe.Names)
		assert.True(t, upe.Fatal())
	})

	t.Run("does not expand substituted values", func(t *testing.T) {
		out, err := Render("{{a}}", map[string]string{"a": "{{b}}", "b": "nope"})
		require.NoError(t, err)
		assert.Equal(t, "{{b}}", out)
	})

	t.Run("template without placeholders is returned as is", func(t *testing.T) {
		out, err := Render("echo hi", nil)
		require.NoError(t, err)
		assert.Equal(t, "echo hi", out)
	})

	t.Run("is pure", func(t *testing.T) {
		subs := map[string]string{"x": "1"}
		first, err := Render("{{x}}{{x}}", subs)
		require.NoError(t, err)
		second, err := Render("{{x}}{{x}}", subs)
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Equal(t, map[string]string{"x": "1"}, subs)
	})
}

func TestPlaceholders(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Placeholders("{{b}} {{a}} {{ b }}"))
	assert.Empty(t, Placeholders("none"))
}

func TestDefaultTemplatesResolve(t *testing.T) {
	subs := Substitutions(Application{Name: "pet", MainClass: "org.example.Main"}, []string{"pet.jar"}, Unix)
	for _, p := range Platforms() {
		t.Run(string(p), func(t *testing.T) {
			tmpl, err := DefaultTemplate(p)
			require.NoError(t, err)
			for _, name := range Placeholders(tmpl) {
				assert.Contains(t, subs, name)
			}
		})
	}
}
