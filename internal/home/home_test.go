package home

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("with explicit path", func(t *testing.T) {
		dir, err := New("/tmp/test-autolora")
		require.NoError(t, err)
		assert.Equal(t, "/tmp/test-autolora", dir.Path())
	})

	t.Run("with empty path uses default", func(t *testing.T) {
		dir, err := New("")
		require.NoError(t, err)

		home, _ := os.UserHomeDir()
		assert.Equal(t, filepath.Join(home, DefaultDirName), dir.Path())
	})
}

func TestDir_Paths(t *testing.T) {
	dir, _ := New("/tmp/test-autolora")

	assert.Equal(t, "/tmp/test-autolora/config.yaml", dir.ConfigPath())
	assert.Equal(t, "/tmp/test-autolora/lora_trigger.json", dir.StorePath())
	assert.Equal(t, "/tmp/test-autolora/exports", dir.ExportsDir())
}

func TestDir_EnsureExists(t *testing.T) {
	dir, err := New(filepath.Join(t.TempDir(), "autolora-test"))
	require.NoError(t, err)

	assert.False(t, dir.Exists())
	require.NoError(t, dir.EnsureExists())
	assert.True(t, dir.Exists())
	assert.False(t, dir.ConfigExists())

	require.NoError(t, os.WriteFile(dir.ConfigPath(), []byte("log:\n  level: debug\n"), 0o644))
	assert.True(t, dir.ConfigExists())
}
