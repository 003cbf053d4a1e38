package treedb

import (
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/andreyvit/treedb/internal/boltdb"
)

var treesBucket = []byte("trees")

// BoltOptions configures OpenBoltFile.
type BoltOptions = boltdb.Options

// BoltFile is a Bolt database holding any number of named trees, each
// stored as a single value in the "trees" bucket.
type BoltFile struct {
	bdb *bbolt.DB
}

func OpenBoltFile(path string, opt BoltOptions) (*BoltFile, error) {
	bdb, err := boltdb.Open(path, opt)
	if err != nil {
		return nil, err
	}
	return &BoltFile{bdb: bdb}, nil
}

func (bf *BoltFile) Bolt() *bbolt.DB {
	return bf.bdb
}

// Storage returns the storage of the tree with the given name. Closing the
// returned storage does not close the file.
func (bf *BoltFile) Storage(name string) *BoltStorage {
	if name == "" {
		panic("empty tree name")
	}
	return &BoltStorage{bdb: bf.bdb, name: name}
}

// Trees lists the names of stored trees in key order.
func (bf *BoltFile) Trees() ([]string, error) {
	var names []string
	err := bf.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(treesBucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

func (bf *BoltFile) Close() error {
	return bf.bdb.Close()
}

type BoltStorage struct {
	bdb   *bbolt.DB
	name  string
	owned bool
}

func (s *BoltStorage) Load(f func(data []byte) error) error {
	return s.bdb.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(treesBucket)
		if b == nil {
			return f(nil)
		}
		return f(b.Get(boltdb.Bytes(s.name)))
	})
}

func (s *BoltStorage) Store(data []byte) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(treesBucket)
		if err != nil {
			return err
		}
		// Bolt returns nil for empty values.
		if data == nil {
			data = []byte{}
		}
		return b.Put(boltdb.Bytes(s.name), data)
	})
}

func (s *BoltStorage) Delete() error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(treesBucket)
		if b == nil {
			return nil
		}
		return b.Delete(boltdb.Bytes(s.name))
	})
}

func (s *BoltStorage) Close() error {
	if s.owned {
		return s.bdb.Close()
	}
	return nil
}

func (s *BoltStorage) String() string {
	return fmt.Sprintf("bolt:%s[%s]", s.bdb.Path(), s.name)
}
