package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// NoSystemOutRules is a static analysis rule file flagging System.out calls.
const NoSystemOutRules = `
include: ["*.java"]
rules:
  - id: NoSystemOut
    pattern: 'System\.out\.print'
    message: Use a logger instead of System.out
    severity: warning
`

// PetBuildFile declares a two-module project with one gate and a unix-only
// distribution. Pair it with PetFiles.
const PetBuildFile = `
project "pet" {
  version = "1.0"
}

module ":lib:models" {}

module ":app" {
  dir        = "."
  depends_on = [":lib:models"]
  libraries  = ["libs/gson-2.10.jar"]
}

gate "checkstyle" {
  rule_file    = "config/rules.yaml"
  max_warnings = 1
}

application {
  module     = ":app"
  main_class = "org.example.pet.Main"
}

distribution {
  exclude = ["windows"]
  formats = ["zip"]
}
`

// PetFiles returns the sources of the project declared by PetBuildFile. The
// app sources hold appPrints System.out calls.
func PetFiles(appPrints int) map[string]string {
	src := "class Main {\n"
	for i := 0; i < appPrints; i++ {
		src += "  void m() { System.out.println(); }\n"
	}
	src += "}\n"
	return map[string]string{
		"buildgrid.hcl":                            PetBuildFile,
		"config/rules.yaml":                        NoSystemOutRules,
		"src/main/java/Main.java":                  src,
		"build/classes/org/example/pet/Main.class": "main",
		"lib/models/src/main/java/Model.java":      "class Model {}\n",
		"lib/models/build/classes/Model.class":     "model",
		"libs/gson-2.10.jar":                       "gson",
	}
}

// WriteFiles writes files below root, creating directories as needed.
func WriteFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// NewProject writes files into a fresh temporary directory and returns it.
func NewProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	WriteFiles(t, root, files)
	return root
}
