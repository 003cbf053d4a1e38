// Package fileio reads and durably replaces whole files.
package fileio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ReadFunc maps the file at path and passes its contents to f. The slice is
// only valid until f returns. A missing file yields fs.ErrNotExist; an empty
// file calls f with an empty non-nil slice.
func ReadFunc(path string, f func(data []byte) error) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	fi, err := file.Stat()
	if err != nil {
		return err
	}
	size := fi.Size()
	if size == 0 {
		return f([]byte{})
	}
	if size > MaxSize {
		return fmt.Errorf("%s: file too large to map (%d bytes)", path, size)
	}

	data, err := mmap(file, int(size))
	if err != nil {
		return fmt.Errorf("mmap %s: %w", path, err)
	}
	ferr := f(data)
	if err := munmap(data); err != nil && ferr == nil {
		ferr = fmt.Errorf("munmap %s: %w", path, err)
	}
	return ferr
}

// WriteAtomic replaces the file at path with data. The data goes to a temp
// file in the same directory, gets synced, and is renamed over path, so
// readers see either the old contents or the new ones.
func WriteAtomic(path string, data []byte, perm fs.FileMode) (err error) {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return err
	}
	if err = Fdatasync(tmp); err != nil {
		return err
	}
	if err = tmp.Chmod(perm); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Exists reports whether path names an existing file.
func Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	} else if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else {
		return false, err
	}
}

// Fdatasync triggers the fastest fsync-like operation that ensures
// durability of the data written to f. It may skip syncing metadata such as
// modification times.
//
// Errors returned by this function are not recoverable: after a failed sync
// the state of the data on disk is unknown, so callers should treat the
// store as corrupted.
func Fdatasync(f *os.File) error {
	return fdatasync(f)
}
