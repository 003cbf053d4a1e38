// Package boltdb opens Bolt files with the settings shared by the tree
// storage and the volume store.
package boltdb

import (
	"fmt"
	"time"
	"unsafe"

	"go.etcd.io/bbolt"
)

type Options struct {
	// IsTesting trades durability for speed.
	IsTesting bool

	// MmapSize overrides the initial mmap size.
	MmapSize int

	// Timeout is how long to wait for the file lock. Zero means 10 seconds.
	Timeout time.Duration

	ReadOnly bool
}

func Open(path string, opt Options) (*bbolt.DB, error) {
	bopt := &bbolt.Options{}
	*bopt = *bbolt.DefaultOptions
	bopt.Timeout = opt.Timeout
	if bopt.Timeout == 0 {
		bopt.Timeout = 10 * time.Second
	}
	bopt.ReadOnly = opt.ReadOnly
	if opt.IsTesting {
		bopt.NoSync = true
		bopt.NoFreelistSync = true
		bopt.InitialMmapSize = 1024 * 1024
	} else {
		bopt.InitialMmapSize = 64 * 1024 * 1024
		bopt.FreelistType = bbolt.FreelistMapType
	}
	if opt.MmapSize != 0 {
		bopt.InitialMmapSize = opt.MmapSize
	}

	bdb, err := bbolt.Open(path, 0666, bopt)
	if err != nil {
		return nil, fmt.Errorf("bolt: %w", err)
	}
	return bdb, nil
}

// Bytes returns s as a byte slice without copying. Bolt only reads keys
// passed to Get, Put, Delete and bucket lookups, so this is safe there.
func Bytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
