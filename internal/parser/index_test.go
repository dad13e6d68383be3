package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strrl/autolora/internal/db"
)

func TestIndex_LookupNil(t *testing.T) {
	var idx Index
	_, ok := idx.Lookup("/tmp/foo.civitai.info")
	assert.False(t, ok)
}

func TestIndexer_Build(t *testing.T) {
	database, err := db.GetDB()
	if err != nil {
		t.Skipf("duckdb unavailable: %v", err)
	}

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "SDXL"), 0o755))
	foo := filepath.Join(root, "SDXL", "foo"+CivitaiInfoSuffix)
	bar := filepath.Join(root, "SDXL", "bar"+CivitaiInfoSuffix)
	require.NoError(t, os.WriteFile(foo, []byte(`{"name": "foo", "trainedWords": ["foo style", "bar"]}`), 0o644))
	require.NoError(t, os.WriteFile(bar, []byte(`{"name": "bar", "trainedWords": []}`), 0o644))

	idx, err := NewIndexer(database).Build(root)
	require.NoError(t, err)

	words, ok := idx.Lookup(foo)
	require.True(t, ok)
	assert.Equal(t, []string{"foo style", "bar"}, words)

	words, ok = idx.Lookup(bar)
	require.True(t, ok)
	assert.Empty(t, words)
}
