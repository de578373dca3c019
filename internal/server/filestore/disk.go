package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/filekeeper/internal/common"
	"github.com/dmitrijs2005/filekeeper/internal/filex"
)

// DiskStore keeps objects as flat files in one directory. Writes go to a
// temp file that is fsynced and renamed, so a reader never sees a partial
// object under its final name.
type DiskStore struct {
	dir string
	ext string
}

// NewDiskStore does not touch the filesystem; the directory is created on
// the first write.
func NewDiskStore(dir, ext string) *DiskStore {
	return &DiskStore{dir: dir, ext: ext}
}

func (s *DiskStore) Dir() string { return s.dir }

func (s *DiskStore) Write(ctx context.Context, data []byte) (string, error) {
	if err := ctxErr(ctx); err != nil {
		return "", fmt.Errorf("write: %w", err)
	}

	dir, err := filex.EnsureDir(s.dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrStorage, err)
	}

	address := newAddress(s.ext)
	if err := writeAtomic(dir, address, data); err != nil {
		return "", fmt.Errorf("%w: write %s: %w", common.ErrStorage, address, err)
	}

	return address, nil
}

func (s *DiskStore) Remove(ctx context.Context, address string) error {
	if err := ctxErr(ctx); err != nil {
		return fmt.Errorf("remove %s: %w", address, err)
	}
	if err := validAddress(address); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.dir, address))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: remove %s: %w", common.ErrStorage, address, common.ErrorNotFound)
	default:
		return fmt.Errorf("%w: remove %s: %w", common.ErrStorage, address, err)
	}
}

func writeAtomic(dir, name string, data []byte) (err error) {
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Rename(tmp.Name(), filepath.Join(dir, name)); err != nil {
		return err
	}
	return filex.SyncDir(dir)
}
