// Package volume stores application objects grouped into named volumes.
//
// Each volume is a Bolt bucket, and each object is a msgpack-encoded value
// stored under its key. Objects report their own volume and key, so
// updating an object may move it.
package volume

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"github.com/andreyvit/treedb/internal/boltdb"
)

var (
	ErrVolumeNotFound = errors.New("volume not found")
	ErrObjectNotFound = errors.New("object not found")
	ErrInvalidName    = errors.New("invalid name")
)

// Object is anything that can be stored in a volume.
type Object interface {
	ObjectVolume() string
	ObjectKey() string
}

type Options struct {
	Bolt boltdb.Options

	// Logger defaults to slog.Default().
	Logger  *slog.Logger
	Verbose bool
}

type Store struct {
	bdb     *bbolt.DB
	logger  *slog.Logger
	verbose bool
}

func Open(path string, opt Options) (*Store, error) {
	bdb, err := boltdb.Open(path, opt.Bolt)
	if err != nil {
		return nil, err
	}
	s := &Store{bdb: bdb, logger: opt.Logger, verbose: opt.Verbose}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

func (s *Store) Bolt() *bbolt.DB {
	return s.bdb
}

func (s *Store) Close() error {
	return s.bdb.Close()
}

func (s *Store) debug(msg string, args ...any) {
	if s.verbose {
		s.logger.Debug(msg, args...)
	}
}

func checkName(what, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty %s", ErrInvalidName, what)
	}
	return nil
}

// CreateVolume creates an empty volume. Creating an existing volume is not
// an error.
func (s *Store) CreateVolume(name string) error {
	if err := checkName("volume", name); err != nil {
		return err
	}
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltdb.Bytes(name))
		return err
	})
}

// DeleteVolume deletes a volume with all its objects.
func (s *Store) DeleteVolume(name string) error {
	err := s.bdb.Update(func(tx *bbolt.Tx) error {
		return tx.DeleteBucket(boltdb.Bytes(name))
	})
	if errors.Is(err, bbolt.ErrBucketNotFound) {
		return fmt.Errorf("%w: %s", ErrVolumeNotFound, name)
	}
	if err == nil {
		s.debug("volume: deleted volume", "volume", name)
	}
	return err
}

// Volumes lists volume names in key order.
func (s *Store) Volumes() ([]string, error) {
	var names []string
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		return tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, string(name))
			return nil
		})
	})
	return names, err
}

// Put stores obj, creating its volume if needed and replacing any object
// under the same key.
func (s *Store) Put(obj Object) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		return put(tx, obj)
	})
}

// Replace stores obj over an existing object with the same volume and key.
func (s *Store) Replace(obj Object) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b, err := volumeIn(tx, obj.ObjectVolume())
		if err != nil {
			return err
		}
		if b.Get(boltdb.Bytes(obj.ObjectKey())) == nil {
			return notFound(obj.ObjectVolume(), obj.ObjectKey())
		}
		return put(tx, obj)
	})
}

// Delete removes the object stored under key.
func (s *Store) Delete(volume, key string) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b, err := volumeIn(tx, volume)
		if err != nil {
			return err
		}
		k := boltdb.Bytes(key)
		if b.Get(k) == nil {
			return notFound(volume, key)
		}
		return b.Delete(k)
	})
}

// Keys lists object keys of a volume in key order.
func (s *Store) Keys(volume string) ([]string, error) {
	var keys []string
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b, err := volumeIn(tx, volume)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

func volumeIn(tx *bbolt.Tx, volume string) (*bbolt.Bucket, error) {
	b := tx.Bucket(boltdb.Bytes(volume))
	if b == nil {
		return nil, fmt.Errorf("%w: %s", ErrVolumeNotFound, volume)
	}
	return b, nil
}

func notFound(volume, key string) error {
	return fmt.Errorf("%w: %s/%s", ErrObjectNotFound, volume, key)
}

func put(tx *bbolt.Tx, obj Object) error {
	volume, key := obj.ObjectVolume(), obj.ObjectKey()
	if err := checkName("volume", volume); err != nil {
		return err
	}
	if err := checkName("key", key); err != nil {
		return err
	}
	data, err := encode(obj)
	if err != nil {
		return err
	}
	b, err := tx.CreateBucketIfNotExists(boltdb.Bytes(volume))
	if err != nil {
		return err
	}
	return b.Put(boltdb.Bytes(key), data)
}

func encode(obj any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	enc.SetSortMapKeys(true)
	err := enc.Encode(obj)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %T using MsgPack: %w", obj, err)
	}
	return buf.Bytes(), nil
}

func decode(data []byte, out any) error {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	err := dec.Decode(out)
	msgpack.PutDecoder(dec)
	if err != nil {
		return fmt.Errorf("failed to decode msgpack into %T: %w", out, err)
	}
	return nil
}
