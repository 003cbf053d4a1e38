package treedb

import (
	"errors"
	"slices"
	"sync"
)

// ErrStorageClosed is returned by storage operations after Close.
var ErrStorageClosed = errors.New("storage closed")

// Storage is the byte source and sink behind a tree. It knows nothing about
// the tree format; the DB serializes the whole tree and hands the bytes over.
type Storage interface {
	// Load calls f with the stored bytes, or with nil when nothing has been
	// stored yet. The slice may be backed by a memory mapping and is only
	// valid until f returns.
	Load(f func(data []byte) error) error

	// Store replaces the stored bytes.
	Store(data []byte) error

	// Delete removes the stored bytes. The storage stays usable.
	Delete() error

	// Close releases resources held by the storage.
	Close() error

	// String describes the storage for logs.
	String() string
}

// MemoryStorage keeps the serialized tree in memory. It is mostly useful in
// tests and for throwaway trees.
type MemoryStorage struct {
	mu     sync.Mutex
	data   []byte
	exists bool
	closed bool

	// FailStore, when set, is returned by Store instead of storing.
	FailStore error
}

func NewMemoryStorage(initial []byte) *MemoryStorage {
	s := &MemoryStorage{}
	if initial != nil {
		s.data = slices.Clone(initial)
		s.exists = true
	}
	return s
}

func (s *MemoryStorage) Load(f func(data []byte) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrStorageClosed
	}
	var data []byte
	if s.exists {
		data = slices.Clip(s.data)
		if data == nil {
			data = []byte{}
		}
	}
	s.mu.Unlock()
	return f(data)
}

func (s *MemoryStorage) Store(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStorageClosed
	}
	if s.FailStore != nil {
		return s.FailStore
	}
	s.data = slices.Clone(data)
	s.exists = true
	return nil
}

func (s *MemoryStorage) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStorageClosed
	}
	s.data, s.exists = nil, false
	return nil
}

func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.data = nil
	return nil
}

// Bytes returns a copy of the stored data, nil if nothing is stored.
func (s *MemoryStorage) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return nil
	}
	return slices.Clone(s.data)
}

func (s *MemoryStorage) String() string {
	return "memory"
}
