package treedb

import "slices"

// Document is an ordered mapping from string keys to Values. Keys are unique;
// iteration follows insertion order, and overwriting a key keeps its
// position.
//
// Document does no locking of its own. Within a DB, all access goes through
// Node, which holds the DB lock.
type Document struct {
	keys  []string
	vals  map[string]Value
	index map[string]int

	// detached is set on every document of a sub-tree removed from its
	// parent, so that cursors still pointing into it fail fast.
	detached bool
}

func NewDocument() *Document {
	return &Document{
		vals:  make(map[string]Value),
		index: make(map[string]int),
	}
}

func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

func (d *Document) Keys() []string {
	if d == nil {
		return nil
	}
	return slices.Clone(d.keys)
}

func (d *Document) Get(key string) (Value, bool) {
	if d == nil {
		return Value{}, false
	}
	v, ok := d.vals[key]
	return v, ok
}

func (d *Document) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Child returns the nested document stored under key.
func (d *Document) Child(key string) (*Document, bool) {
	v, ok := d.Get(key)
	if !ok {
		return nil, false
	}
	return v.Doc()
}

func (d *Document) Set(key string, v Value) {
	if _, ok := d.index[key]; !ok {
		d.index[key] = len(d.keys)
		d.keys = append(d.keys, key)
	}
	d.vals[key] = v
}

func (d *Document) Delete(key string) bool {
	i, ok := d.index[key]
	if !ok {
		return false
	}
	d.keys = slices.Delete(d.keys, i, i+1)
	delete(d.index, key)
	delete(d.vals, key)
	for j := i; j < len(d.keys); j++ {
		d.index[d.keys[j]] = j
	}
	return true
}

// Range calls f for every entry in order until f returns false.
func (d *Document) Range(f func(key string, v Value) bool) {
	if d == nil {
		return
	}
	for _, k := range d.keys {
		if !f(k, d.vals[k]) {
			return
		}
	}
}

func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{
		keys:  slices.Clone(d.keys),
		vals:  make(map[string]Value, len(d.vals)),
		index: make(map[string]int, len(d.index)),
	}
	for i, k := range d.keys {
		out.vals[k] = d.vals[k].clone()
		out.index[k] = i
	}
	return out
}

func (d *Document) Equal(o *Document) bool {
	if d.Len() != o.Len() {
		return false
	}
	if d == nil || o == nil {
		return d.Len() == 0 && o.Len() == 0
	}
	for i, k := range d.keys {
		if o.keys[i] != k {
			return false
		}
		if !d.vals[k].Equal(o.vals[k]) {
			return false
		}
	}
	return true
}

func (d *Document) detach() {
	d.detached = true
	for _, k := range d.keys {
		if sub, ok := d.vals[k].Doc(); ok {
			sub.detach()
		}
	}
}
