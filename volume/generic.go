package volume

import (
	"go.etcd.io/bbolt"

	"github.com/andreyvit/treedb/internal/boltdb"
)

// Get loads the object stored under key.
func Get[T any](s *Store, volume, key string) (*T, error) {
	var obj *T
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b, err := volumeIn(tx, volume)
		if err != nil {
			return err
		}
		data := b.Get(boltdb.Bytes(key))
		if data == nil {
			return notFound(volume, key)
		}
		obj = new(T)
		return decode(data, obj)
	})
	if err != nil {
		return nil, err
	}
	return obj, nil
}

// All loads every object of a volume in key order.
func All[T any](s *Store, volume string) ([]*T, error) {
	return Query(s, volume, func(*T) bool { return true })
}

// Query loads the objects of a volume accepted by pred, in key order.
func Query[T any](s *Store, volume string, pred func(obj *T) bool) ([]*T, error) {
	var result []*T
	err := s.bdb.View(func(tx *bbolt.Tx) error {
		b, err := volumeIn(tx, volume)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, data []byte) error {
			obj := new(T)
			if err := decode(data, obj); err != nil {
				return err
			}
			if pred(obj) {
				result = append(result, obj)
			}
			return nil
		})
	})
	return result, err
}

// Update loads the object under key, lets fn modify it and stores it back,
// all in one transaction. If fn changes the object's volume or key, the
// object moves there and the old copy is removed. An error from fn aborts
// the update.
func Update[T any, PT interface {
	*T
	Object
}](s *Store, volume, key string, fn func(obj PT) error) error {
	return s.bdb.Update(func(tx *bbolt.Tx) error {
		b, err := volumeIn(tx, volume)
		if err != nil {
			return err
		}
		k := boltdb.Bytes(key)
		data := b.Get(k)
		if data == nil {
			return notFound(volume, key)
		}
		obj := PT(new(T))
		if err := decode(data, obj); err != nil {
			return err
		}
		if err := fn(obj); err != nil {
			return err
		}
		if obj.ObjectVolume() != volume || obj.ObjectKey() != key {
			if err := b.Delete(k); err != nil {
				return err
			}
			s.debug("volume: moved object", "from", volume+"/"+key, "to", obj.ObjectVolume()+"/"+obj.ObjectKey())
		}
		return put(tx, obj)
	})
}
