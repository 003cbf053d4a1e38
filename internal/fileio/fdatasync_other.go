//go:build !linux

package fileio

import "os"

func fdatasync(f *os.File) error {
	return f.Sync()
}
