package hcl

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

const petBuild = `
project "pet" {
  version = "1.0"
}

module ":lib:models" {}

module ":app" {
  dir        = "."
  depends_on = [":lib:models"]
  libraries  = ["libs/jackson-databind-2.12.7.1.jar"]
}

gate "checkstyle" {
  rule_file    = "${project.root_dir}/config/checkstyle.yaml"
  max_warnings = 0
  timeout      = "90s"
  suppression "main" { file = "config/checkstyle-main-suppression.yaml" }
  suppression "test" { file = "config/checkstyle-test-suppression.yaml" }
}

gate "spotless" {
  kind      = "format_check"
  rule_file = "config/format.yaml"
  report    = false
}

application {
  module     = ":app"
  main_class = "de.tum.in.pet.Main"
  jvm_args   = [format("-Dapp.version=%s", project.version)]
}

distribution {
  exclude = ["windows"]
  template "unix" { path = "lib/models/config/template-unix.txt" }
}
`

func TestLoad(t *testing.T) {
	// --- Arrange ---
	root := writeProject(t, map[string]string{
		"buildgrid.hcl":       petBuild,
		"src/test/java/.keep": "",
	})

	// --- Act ---
	model, err := NewLoader().Load(context.Background(), filepath.Join(root, DefaultFileName))

	// --- Assert ---
	require.NoError(t, err)
	assert.Equal(t, root, model.RootDir)
	assert.Equal(t, "pet", model.Project.Name)
	assert.Equal(t, filepath.Join(root, "build"), model.Project.BuildDir)

	require.Len(t, model.Modules, 2)
	models := model.Module(":lib:models")
	require.NotNil(t, models)
	assert.Equal(t, filepath.Join(root, "lib", "models"), models.Dir)
	assert.Equal(t, "models-1.0.jar", models.JarName)
	require.Len(t, models.SourceSets, 1, "no test dir on disk")
	assert.Equal(t, filepath.Join(root, "lib/models/src/main/java"), models.SourceSets[0].Dir)

	app := model.Module(":app")
	require.NotNil(t, app)
	assert.Equal(t, root, app.Dir)
	assert.Equal(t, []string{":lib:models"}, app.DependsOn)
	assert.Equal(t, []string{filepath.Join(root, "libs/jackson-databind-2.12.7.1.jar")}, app.Libraries)
	assert.Len(t, app.SourceSets, 2)
	assert.Equal(t, filepath.Join(root, "build/classes"), app.OutputDir)

	require.Len(t, model.Gates, 2)
	cs := model.Gates[0]
	assert.Equal(t, "static_analysis", cs.Kind)
	assert.Equal(t, filepath.Join(root, "config/checkstyle.yaml"), cs.RuleFile)
	assert.Equal(t, 90*time.Second, cs.Timeout)
	assert.True(t, cs.Report)
	assert.Equal(t, filepath.Join(root, "config/checkstyle-test-suppression.yaml"), cs.SuppressionFor("test"))
	assert.False(t, model.Gates[1].Report)
	assert.Equal(t, "format_check", model.Gates[1].Kind)

	assert.Equal(t, "pet", model.Application.Name)
	assert.Equal(t, []string{"-Dapp.version=1.0"}, model.Application.JvmArgs)

	d := model.Distribution
	assert.Equal(t, []string{"unix", "windows"}, d.Platforms)
	assert.Equal(t, []string{"windows"}, d.Exclude)
	assert.Equal(t, []string{"zip", "tar"}, d.Formats)
	assert.Equal(t, filepath.Join(root, "lib/models/config/template-unix.txt"), d.Templates["unix"])
}

func TestLoadDirectoryMergesFiles(t *testing.T) {
	root := writeProject(t, map[string]string{
		"buildgrid.hcl":      `project "pet" {}`,
		"modules/models.hcl": `module ":lib:models" {}`,
		"modules/app.hcl":    `module ":app" { depends_on = [":lib:models"] }`,
		"modules/readme.txt": `ignored`,
	})

	model, err := NewLoader().Load(context.Background(), root)

	require.NoError(t, err)
	assert.Equal(t, root, model.RootDir)
	require.Len(t, model.Modules, 2)
	assert.Equal(t, ":app", model.Modules[0].ID, "files load in lexical order")
	assert.Equal(t, "app.jar", model.Modules[0].JarName)
}

func TestLoadErrors(t *testing.T) {
	cases := []struct {
		name  string
		files map[string]string
		want  string
	}{
		{
			name:  "syntax error",
			files: map[string]string{"buildgrid.hcl": `project "pet" {`},
			want:  "failed to parse HCL file",
		},
		{
			name:  "missing project",
			files: map[string]string{"buildgrid.hcl": `module ":app" {}`},
			want:  "no project block found",
		},
		{
			name: "duplicate project",
			files: map[string]string{
				"a.hcl": `project "pet" {}`,
				"b.hcl": `project "cat" {}`,
			},
			want: "project block already declared",
		},
		{
			name:  "invalid module id",
			files: map[string]string{"buildgrid.hcl": "project \"pet\" {}\nmodule \"app\" {}"},
			want:  `module "app"`,
		},
		{
			name:  "unknown attribute",
			files: map[string]string{"buildgrid.hcl": "project \"pet\" {}\nmodule \":app\" { colour = \"red\" }"},
			want:  "colour",
		},
		{
			name:  "misspelled gate block",
			files: map[string]string{"buildgrid.hcl": "project \"pet\" {}\ngates \"checkstyle\" {\n rule_file = \"x\"\n}"},
			want:  `Blocks of type "gates" are not expected here`,
		},
		{
			name:  "misspelled distribution block",
			files: map[string]string{"buildgrid.hcl": "project \"pet\" {}\ndistributon {\n formats = [\"zip\"]\n}"},
			want:  `Blocks of type "distributon" are not expected here`,
		},
		{
			name:  "unknown top-level attribute",
			files: map[string]string{"buildgrid.hcl": "project \"pet\" {}\nworkers = 4"},
			want:  "Unsupported argument",
		},
		{
			name:  "bad timeout",
			files: map[string]string{"buildgrid.hcl": "project \"pet\" {}\ngate \"g\" {\n rule_file = \"x\"\n timeout = \"soon\"\n}"},
			want:  `gate "g": invalid timeout`,
		},
		{
			name:  "validation",
			files: map[string]string{"buildgrid.hcl": "project \"pet\" {}\napplication {\n module = \":nope\"\n main_class = \"M\"\n}"},
			want:  `application: unknown module ":nope"`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			root := writeProject(t, tc.files)

			_, err := NewLoader().Load(context.Background(), root)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}

	t.Run("missing path", func(t *testing.T) {
		_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.hcl"))
		require.Error(t, err)
	})
}
