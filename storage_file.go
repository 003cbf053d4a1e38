package treedb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/andreyvit/treedb/internal/fileio"
)

// FileStorage keeps the serialized tree in a single file, which is replaced
// atomically on every Store.
type FileStorage struct {
	path    string
	perm    fs.FileMode
	deleted atomic.Bool
}

// NewFileStorage opens the file at path, creating it (and its directory)
// when it does not exist yet.
func NewFileStorage(path string) (*FileStorage, error) {
	s := &FileStorage{path: path, perm: 0o644}
	exists, err := fileio.Exists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, s.perm)
		if err != nil {
			return nil, err
		}
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *FileStorage) Path() string {
	return s.path
}

func (s *FileStorage) Load(f func(data []byte) error) error {
	err := fileio.ReadFunc(s.path, f)
	if errors.Is(err, fs.ErrNotExist) {
		return f(nil)
	}
	return err
}

// Store fails if the file has disappeared since the storage was opened,
// unless it was removed through Delete: somebody else removed the database,
// and recreating it silently would hide that.
func (s *FileStorage) Store(data []byte) error {
	if !s.deleted.Load() {
		exists, err := fileio.Exists(s.path)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%s: %w", s.path, fs.ErrNotExist)
		}
	}
	if err := fileio.WriteAtomic(s.path, data, s.perm); err != nil {
		return err
	}
	s.deleted.Store(false)
	return nil
}

// Delete removes the file. The next Store recreates it.
func (s *FileStorage) Delete() error {
	err := os.Remove(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.deleted.Store(true)
	return nil
}

func (s *FileStorage) Close() error {
	return nil
}

func (s *FileStorage) String() string {
	return "file:" + s.path
}
