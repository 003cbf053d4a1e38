//go:build !unix

package fileio

import (
	"io"
	"os"
)

func mmap(f *os.File, size int) ([]byte, error) {
	b := make([]byte, size)
	_, err := io.ReadFull(f, b)
	return b, err
}

func munmap(b []byte) error {
	return nil
}
