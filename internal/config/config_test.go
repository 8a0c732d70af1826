package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestResolveEnvTokens_Substitutes(t *testing.T) {
	t.Setenv("PIPETEST_API_KEY", "key-123")
	t.Setenv("PIPETEST_HOST", "api.example.com")
	p := writeConfig(t, `{"parameters":{"key":"{{env.PIPETEST_API_KEY}}","host":"{{env.PIPETEST_HOST}}"}}`)

	require.NoError(t, ResolveEnvTokens(p))

	doc, err := LoadDocument(p)
	require.NoError(t, err)
	params := doc["parameters"].(map[string]any)
	assert.Equal(t, "key-123", params["key"])
	assert.Equal(t, "api.example.com", params["host"])
}

func TestResolveEnvTokens_MissingVariableIsFatal(t *testing.T) {
	p := writeConfig(t, `{"key":"{{env.PIPETEST_DEFINITELY_UNSET}}"}`)

	err := ResolveEnvTokens(p)
	require.Error(t, err)

	var missing *MissingEnvVarError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "PIPETEST_DEFINITELY_UNSET", missing.Name)

	// the config file must not be rewritten on failure
	raw, readErr := os.ReadFile(p)
	require.NoError(t, readErr)
	assert.Contains(t, string(raw), "{{env.PIPETEST_DEFINITELY_UNSET}}")
}

func TestResolveEnvTokens_ReportsFirstUnresolved(t *testing.T) {
	t.Setenv("PIPETEST_SET", "ok")
	p := writeConfig(t, `{"a":"{{env.PIPETEST_UNSET_A}}","b":"{{env.PIPETEST_UNSET_B}}","c":"{{env.PIPETEST_SET}}"}`)

	var missing *MissingEnvVarError
	require.ErrorAs(t, ResolveEnvTokens(p), &missing)
	assert.Equal(t, "PIPETEST_UNSET_A", missing.Name)
}

func TestResolveEnvTokens_NoTokensLeavesFileValid(t *testing.T) {
	p := writeConfig(t, `{"plain":true}`)
	require.NoError(t, ResolveEnvTokens(p))

	doc, err := LoadDocument(p)
	require.NoError(t, err)
	assert.Equal(t, true, doc["plain"])
}

func TestMerge_OverrideWinsAndRecursesIntoObjects(t *testing.T) {
	base := map[string]any{
		"parameters": map[string]any{"debug": false, "host": "example.com"},
		"image":      "keep",
	}
	override := map[string]any{
		"parameters": map[string]any{"debug": true, "#token": "secret"},
	}

	merged, err := Merge(base, override)
	require.NoError(t, err)

	params := merged["parameters"].(map[string]any)
	assert.Equal(t, true, params["debug"])
	assert.Equal(t, "example.com", params["host"])
	assert.Equal(t, "secret", params["#token"])
	assert.Equal(t, "keep", merged["image"])
}

func TestMerge_NeverMutatesInputs(t *testing.T) {
	base := map[string]any{"parameters": map[string]any{"debug": false}}
	override := map[string]any{"parameters": map[string]any{"debug": true}}

	merged, err := Merge(base, override)
	require.NoError(t, err)

	assert.Equal(t, false, base["parameters"].(map[string]any)["debug"])

	// mutating the result must not reach back into base
	merged["parameters"].(map[string]any)["debug"] = "poked"
	assert.Equal(t, false, base["parameters"].(map[string]any)["debug"])
}

func TestLoadSecrets_MissingFileIsNil(t *testing.T) {
	secrets, err := LoadSecrets(filepath.Join(t.TempDir(), SecretsFileName))
	require.NoError(t, err)
	assert.Nil(t, secrets)
}

func TestLoadSecrets_MalformedFileIsLoadError(t *testing.T) {
	p := filepath.Join(t.TempDir(), SecretsFileName)
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o644))

	_, err := LoadSecrets(p)
	var loadErr *SecretsLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, p, loadErr.Path)
}
