package filestore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore_WriteCreatesDirAndFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "static")
	s := NewDiskStore(dir, ".jpg")

	addr, err := s.Write(context.Background(), []byte("image-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(addr, ".jpg"))

	id, err := uuid.Parse(strings.TrimSuffix(addr, ".jpg"))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), id.Version())

	got, err := os.ReadFile(filepath.Join(dir, addr))
	require.NoError(t, err)
	assert.Equal(t, "image-bytes", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestDiskStore_WriteGeneratesDistinctAddresses(t *testing.T) {
	s := NewDiskStore(t.TempDir(), "")
	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		addr, err := s.Write(context.Background(), []byte{byte(i)})
		require.NoError(t, err)
		_, dup := seen[addr]
		require.False(t, dup, "address %s reused", addr)
		seen[addr] = struct{}{}
	}
}

func TestDiskStore_WriteFailsWhenDirIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "static")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	_, err := NewDiskStore(blocker, "").Write(context.Background(), []byte("data"))
	assert.ErrorIs(t, err, common.ErrStorage)
}

func TestDiskStore_Remove(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir, "")
	ctx := context.Background()

	addr, err := s.Write(ctx, []byte("x"))
	require.NoError(t, err)

	require.NoError(t, s.Remove(ctx, addr))
	assert.NoFileExists(t, filepath.Join(dir, addr))

	err = s.Remove(ctx, addr)
	assert.ErrorIs(t, err, common.ErrStorage)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestDiskStore_RemoveRejectsTraversal(t *testing.T) {
	s := NewDiskStore(t.TempDir(), "")
	for _, addr := range []string{"", ".", "..", "../etc/passwd", "a/b", `a\b`} {
		err := s.Remove(context.Background(), addr)
		assert.ErrorIs(t, err, common.ErrStorage, "address %q", addr)
		assert.NotErrorIs(t, err, common.ErrorNotFound, "address %q", addr)
	}
}

func TestDiskStore_CancelledContextIsTimeout(t *testing.T) {
	dir := t.TempDir()
	s := NewDiskStore(dir, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Write(ctx, []byte("x"))
	assert.ErrorIs(t, err, common.ErrTimeout)

	err = s.Remove(ctx, "whatever")
	assert.ErrorIs(t, err, common.ErrTimeout)
	assert.NotErrorIs(t, err, common.ErrorNotFound)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
