package filex

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEnsureDir_CreatesNestedDirectory(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "static", "images")

	got, err := EnsureDir(target)
	require.NoError(t, err)
	require.Equal(t, target, got)

	fi, err := os.Stat(target)
	require.NoError(t, err)
	require.True(t, fi.IsDir(), "should create a directory")

	if runtime.GOOS != "windows" {
		require.Equal(t, os.FileMode(0o700), fi.Mode().Perm()&0o700)
	}
}

func TestEnsureDir_Idempotent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "static")

	first, err := EnsureDir(target)
	require.NoError(t, err)

	second, err := EnsureDir(target)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestEnsureDir_RelativePathBecomesAbsolute(t *testing.T) {
	tmp := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(tmp))
	t.Cleanup(func() { _ = os.Chdir(old) })

	got, err := EnsureDir("static")
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(got))
	require.DirExists(t, got)
}

func TestEnsureDir_FailsIfFileWithSameNameExists(t *testing.T) {
	target := filepath.Join(t.TempDir(), "static")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o660))

	_, err := EnsureDir(target)
	require.Error(t, err, "should fail when a file exists with the same name")
}

func TestSyncDir(t *testing.T) {
	require.NoError(t, SyncDir(t.TempDir()))
	require.Error(t, SyncDir(filepath.Join(t.TempDir(), "missing")))
}
