package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitArchiveName(t *testing.T) {
	cases := []struct {
		archive string
		name    string
		version string
	}{
		{"vim-9.1.0.deb", "vim", "9.1.0"},
		{"gtk-layer-shell-1.0.0.deb", "gtk-layer-shell", "1.0.0"},
		{"plain.deb", "plain", ""},
	}
	for _, tc := range cases {
		name, version := splitArchiveName(tc.archive)
		require.Equal(t, tc.name, name)
		require.Equal(t, tc.version, version)
	}
}

func TestArchiveName(t *testing.T) {
	require.Equal(t, "vim-9.1.0.deb", archiveName("vim", "9.1.0"))
}

func TestInstalledArchives(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vim-9.1.0.deb"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.deb"), 0755))

	archives, err := installedArchives(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"vim-9.1.0.deb"}, archives)
}

func TestInstalledArchives_MissingDir(t *testing.T) {
	archives, err := installedArchives(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	require.Empty(t, archives)
}
