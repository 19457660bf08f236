package mcpserver

import (
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	s := NewServer("1.2.3")
	require.NotNil(t, s)
}

func TestGenerateManifest(t *testing.T) {
	data, err := GenerateManifest("1.2.3")
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))

	assert.Equal(t, "io.github.arborlabs/arbor", m.Name)
	assert.Equal(t, "1.2.3", m.Version)
	require.NotNil(t, m.Repository)
	assert.Equal(t, "github", m.Repository.Source)
	require.NotEmpty(t, m.Packages)
}

func TestGenerateManifestDefaultVersion(t *testing.T) {
	data, err := GenerateManifest("")
	require.NoError(t, err)

	var m Manifest
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "0.0.0", m.Version)
}

func TestToolResultDefaultsToTOON(t *testing.T) {
	data := map[string]any{"function": "app.process", "exceptions": 2}

	result, _, err := toolResult(data, "")
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	text := result.Content[0].(*mcp.TextContent).Text
	assert.Contains(t, text, "app.process")
	assert.False(t, json.Valid([]byte(text)))
}

func TestToolResultJSONFormat(t *testing.T) {
	data := map[string]any{"function": "app.process", "exceptions": 2}

	result, _, err := toolResult(data, "json")
	require.NoError(t, err)
	require.Len(t, result.Content, 1)

	text := result.Content[0].(*mcp.TextContent).Text
	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &decoded))
	assert.Equal(t, "app.process", decoded["function"])
	assert.EqualValues(t, 2, decoded["exceptions"])
}

func TestParseFrontmatter(t *testing.T) {
	content := []byte(`---
description: Audit a module for unhandled exceptions.
---
Walk every public function.
`)
	description, body := parseFrontmatter(content)
	assert.Equal(t, "Audit a module for unhandled exceptions.", description)
	assert.Contains(t, body, "Walk every public function.")
	assert.NotContains(t, body, "---")
}

func TestParseFrontmatterMissing(t *testing.T) {
	description, body := parseFrontmatter([]byte("Just a body.\n"))
	assert.Empty(t, description)
	assert.Contains(t, body, "Just a body.")
}

func TestEmbeddedPrompts(t *testing.T) {
	entries, err := promptFiles.ReadDir("prompts")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, entry := range entries {
		content, err := promptFiles.ReadFile("prompts/" + entry.Name())
		require.NoError(t, err)

		description, body := parseFrontmatter(content)
		assert.NotEmpty(t, description, entry.Name())
		assert.NotEmpty(t, body, entry.Name())
	}
}
