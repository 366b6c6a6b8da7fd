package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, DefaultBackendURL, cfg.Backend.URL)
	assert.Equal(t, DefaultEditorURL, cfg.Editor.URL)
	assert.Equal(t, DefaultBridgeAddr, cfg.Editor.BridgeAddr)
	assert.Equal(t, DefaultHandshakeAttempts, cfg.Editor.HandshakeAttempts)
	assert.Equal(t, DefaultDebounceMs, cfg.Composer.DebounceMs)
	assert.Equal(t, DefaultGraceDelaySec, cfg.Timing.GraceDelaySec)
	assert.True(t, cfg.SpeechEnabled())
}

func TestLoad_NoFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, DefaultBackendURL, cfg.Backend.URL)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `
backend:
  url: https://interviews.example.com
editor:
  origins:
    - https://editor.example.com
composer:
  debounce_ms: 500
speech:
  enabled: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".intervu.yaml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "https://interviews.example.com", cfg.Backend.URL)
	assert.Equal(t, []string{"https://editor.example.com"}, cfg.Editor.Origins)
	assert.Equal(t, 500, cfg.Composer.DebounceMs)
	assert.False(t, cfg.SpeechEnabled())
	// Untouched fields keep defaults.
	assert.Equal(t, DefaultEditorURL, cfg.Editor.URL)
	assert.Equal(t, DefaultHandshakeAttempts, cfg.Editor.HandshakeAttempts)
}

func TestLoad_WalksUpToParent(t *testing.T) {
	parent := t.TempDir()
	child := filepath.Join(parent, "a", "b")
	require.NoError(t, os.MkdirAll(child, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, ".intervu.yaml"),
		[]byte("backend:\n  url: https://up.example.com\n"), 0o644))

	cfg, err := Load(child)
	require.NoError(t, err)
	assert.Equal(t, "https://up.example.com", cfg.Backend.URL)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".intervu.yaml"),
		[]byte("backend: [not a mapping"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("INTERVU_BACKEND_URL", "https://env.example.com")
	t.Setenv("INTERVU_EDITOR_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv("INTERVU_DEBOUNCE_MS", "250")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.com", cfg.Backend.URL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Editor.Origins)
	assert.Equal(t, 250, cfg.Composer.DebounceMs)
}
