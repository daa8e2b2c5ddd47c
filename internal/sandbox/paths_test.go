package sandbox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCreatesStandardDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "root")

	root, err := New(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, FilesDir), root.Dir())
	assert.Equal(t, filepath.Join(dir, TempDir), root.Temp())
	for _, sub := range []string{root.Dir(), root.Temp()} {
		info, err := os.Stat(sub)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}

	entries, err := os.ReadDir(root.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTempIsOutsidePageRoot(t *testing.T) {
	root, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = root.Resolve("../tmp")
	assert.ErrorIs(t, err, ErrOutsideRoot)
	assert.False(t, strings.HasPrefix(root.Temp(), root.Dir()+string(filepath.Separator)))
}

func TestNewRequiresDir(t *testing.T) {
	_, err := New("  ")
	assert.Error(t, err)
}

func TestRel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"//", ""},
		{"/a.zip", "a.zip"},
		{"out/", "out"},
		{"/out/y", "out/y"},
		{"./docs/./x.txt", "docs/x.txt"},
		{"a\\b", "a/b"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Rel(tt.in))
		})
	}
}

func TestResolve(t *testing.T) {
	root, err := New(t.TempDir())
	require.NoError(t, err)

	full, err := root.Resolve("/out/y")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root.Dir(), "out", "y"), full)

	_, err = root.Resolve("/")
	assert.ErrorIs(t, err, ErrEmptyPath)

	_, err = root.Resolve("../etc/passwd")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

func TestResolveDir(t *testing.T) {
	root, err := New(t.TempDir())
	require.NoError(t, err)

	full, err := root.ResolveDir("/")
	require.NoError(t, err)
	assert.Equal(t, root.Dir(), full)

	full, err = root.ResolveDir("docs/")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root.Dir(), "docs"), full)
}

func TestDisplay(t *testing.T) {
	root, err := New(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "/", root.Display(root.Dir()))
	assert.Equal(t, "/docs/a.txt", root.Display(filepath.Join(root.Dir(), "docs", "a.txt")))
	assert.Equal(t, "/elsewhere", root.Display("/elsewhere"))
}
