//go:build unix

package fileio

import (
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

func mmap(f *os.File, size int) ([]byte, error) {
	b, err := unix.Mmap(int(f.Fd()), 0, size, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	// Ignore ENOSYS, the mapping still works without the hint.
	err = unix.Madvise(b, syscall.MADV_SEQUENTIAL)
	if err != nil && err != syscall.ENOSYS {
		unix.Munmap(b)
		return nil, fmt.Errorf("madvise(MADV_SEQUENTIAL): %w", err)
	}
	return b, nil
}

func munmap(b []byte) error {
	return unix.Munmap(b)
}
