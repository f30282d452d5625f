package routes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"toml", "routes.toml", "[routes]\nblog = \"/blog/\"\ntreemenu_about = \"/about-us/\"\n"},
		{"yaml", "routes.yaml", "routes:\n  blog: /blog/\n  treemenu_about: /about-us/\n"},
		{"yml", "routes.yml", "routes:\n  blog: /blog/\n  treemenu_about: /about-us/\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadFile(writeFile(t, dir, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, map[string]string{"blog": "/blog/", "treemenu_about": "/about-us/"}, got)
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"unknown extension", "routes.json", `{}`, "unsupported routes file extension"},
		{"bad toml", "bad.toml", "[routes\n", "parse toml"},
		{"bad yaml", "bad.yaml", "routes: [\n", "parse yaml"},
		{"relative path", "rel.toml", "[routes]\nblog = \"blog/\"\n", "must start with /"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFile(writeFile(t, dir, tt.file, tt.content))
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}

	_, err := LoadFile(filepath.Join(dir, "missing.toml"))
	assert.ErrorContains(t, err, "read routes file")
}

func TestLoadFile_EmptyRoutes(t *testing.T) {
	got, err := LoadFile(writeFile(t, t.TempDir(), "empty.toml", "# nothing yet\n"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestMerge(t *testing.T) {
	merged := Merge(map[string]string{"a": "/a/", "b": "/b/"}, map[string]string{"b": "/bee/", "c": "/c/"})
	assert.Equal(t, map[string]string{"a": "/a/", "b": "/bee/", "c": "/c/"}, merged)
}
