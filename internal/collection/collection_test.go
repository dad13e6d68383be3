package collection

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var exts = []string{".safetensors", ".ckpt"}

func touch(t *testing.T, dir, rel string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestList(t *testing.T) {
	primary, secondary := t.TempDir(), t.TempDir()
	touch(t, primary, "FLUX/a.safetensors")
	touch(t, primary, "flux/nested/b.ckpt")
	touch(t, primary, "FLUX2/c.safetensors")
	touch(t, primary, "SDXL/d.safetensors")
	touch(t, primary, "SDXL/d.civitai.info")
	touch(t, primary, "root.safetensors")
	touch(t, secondary, "SDXL/d.safetensors")
	touch(t, secondary, "Qwen/e.safetensors")

	c := New([]string{primary, secondary, filepath.Join(primary, "missing")}, exts)

	tests := []struct {
		family Family
		want   []string
	}{
		{Universal, []string{"FLUX/a.safetensors", "FLUX2/c.safetensors", "Qwen/e.safetensors", "SDXL/d.safetensors", "flux/nested/b.ckpt", "root.safetensors"}},
		{FLUX, []string{"FLUX/a.safetensors", "flux/nested/b.ckpt"}},
		{FLUX2, []string{"FLUX2/c.safetensors"}},
		{Qwen, []string{"Qwen/e.safetensors"}},
		{Zimage, nil},
	}
	for _, tt := range tests {
		t.Run(tt.family.String(), func(t *testing.T) {
			got, err := c.List(tt.family)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestList_SymlinkedDir(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	touch(t, target, "SDXL/a.safetensors")
	link := filepath.Join(dir, "loras")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, err := New([]string{link}, exts).List(Universal)

	require.NoError(t, err)
	assert.Equal(t, []string{"SDXL/a.safetensors"}, got)
}

func TestChoices(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "SDXL/a.safetensors")

	got, err := New([]string{dir}, exts).Choices(SDXL)

	require.NoError(t, err)
	assert.Equal(t, []string{None, "SDXL/a.safetensors"}, got)
}

func TestFullPath(t *testing.T) {
	primary, secondary := t.TempDir(), t.TempDir()
	touch(t, primary, "SDXL/a.safetensors")
	touch(t, secondary, "SDXL/a.safetensors")
	touch(t, secondary, "SDXL/b.safetensors")
	c := New([]string{primary, secondary}, exts)

	got, err := c.FullPath("SDXL/a.safetensors")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(primary, "SDXL", "a.safetensors"), got)

	got, err = c.FullPath(`SDXL\b.safetensors`)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(secondary, "SDXL", "b.safetensors"), got)

	for _, bad := range []string{"SDXL/missing.safetensors", "../escape.safetensors", "", "SDXL"} {
		_, err := c.FullPath(bad)
		assert.ErrorIs(t, err, ErrNotFound, bad)
	}
}

func TestRoot(t *testing.T) {
	assert.Empty(t, New(nil, exts).Root())
	assert.Equal(t, "/a", New([]string{"/a", "/b"}, exts).Root())
}

func TestParseFamily(t *testing.T) {
	tests := map[string]Family{
		"":          Universal,
		"universal": Universal,
		"flux":      FLUX,
		"FLUX2":     FLUX2,
		"FLUX 2":    FLUX2,
		"sdxl":      SDXL,
		"qwen":      Qwen,
		"Z-Image":   Zimage,
		"zimage":    Zimage,
	}
	for in, want := range tests {
		got, err := ParseFamily(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFamily("sd15")
	assert.Error(t, err)
}

func TestFamilyContains(t *testing.T) {
	assert.True(t, FLUX.Contains("flux/a.safetensors"))
	assert.True(t, FLUX.Contains(`FLUX\a.safetensors`))
	assert.False(t, FLUX.Contains("FLUX2/a.safetensors"))
	assert.False(t, SDXL.Contains("a.safetensors"))
	assert.True(t, Universal.Contains("anything"))
}
