package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadScenario(t *testing.T) {
	path := writeScenario(t, `
name: greeting
steps:
  - option: "yes"
  - text: "ada@example.com"
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "greeting", scenario.Name)
	require.Len(t, scenario.Steps, 2)
	assert.Equal(t, "yes", scenario.Steps[0].Option)
	assert.Equal(t, "ada@example.com", scenario.Steps[1].Text)
}

func TestLoadScenarioRejectsEmptyStep(t *testing.T) {
	path := writeScenario(t, `
name: broken
steps:
  - option: ""
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither an option nor text")
}

func TestLoadScenarioRejectsAmbiguousStep(t *testing.T) {
	path := writeScenario(t, `
name: broken
steps:
  - option: "yes"
    text: "hello"
`)

	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both an option and text")
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
