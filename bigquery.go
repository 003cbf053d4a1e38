package treedb

import "slices"

// BigQuery is a flattened snapshot of a sub-tree for depth-agnostic search.
// Every document of the sub-tree, the starting one included, becomes one
// Entry holding its own scalar and list fields; nested documents are not
// part of their parent's fields but become entries of their own.
//
// Entries are listed in pre-order: a document comes before its nested
// documents, siblings in insertion order. The fields are copied when the
// BigQuery is built, while the Nodes it returns are live cursors on the
// original documents.
type BigQuery struct {
	node    *Node
	entries []Entry
}

type Entry struct {
	Name   string
	Path   string
	Fields Fields

	doc  *Document
	segs []string
}

// BigQuery flattens the sub-tree rooted at n.
func (n *Node) BigQuery() (*BigQuery, error) {
	n.db.mu.RLock()
	defer n.db.mu.RUnlock()
	if err := n.check(); err != nil {
		return nil, err
	}

	bq := &BigQuery{node: n}
	name := n.Name()
	if name == "" {
		name = "root"
	}
	bq.flatten(name, n.doc, slices.Clip(n.segs))
	return bq, nil
}

func (bq *BigQuery) flatten(name string, doc *Document, segs []string) {
	fields := make(Fields)
	var nested []string
	doc.Range(func(k string, v Value) bool {
		if v.kind == Doc {
			nested = append(nested, k)
		} else {
			fields[k] = v
		}
		return true
	})
	bq.entries = append(bq.entries, Entry{
		Name:   name,
		Path:   joinPath(segs),
		Fields: fields,
		doc:    doc,
		segs:   segs,
	})
	for _, k := range nested {
		sub, _ := doc.Child(k)
		bq.flatten(k, sub, append(slices.Clip(segs), k))
	}
}

func (bq *BigQuery) Len() int {
	return len(bq.entries)
}

func (bq *BigQuery) Entries() []Entry {
	return slices.Clone(bq.entries)
}

// Names lists entry names in entry order. Names repeat when documents at
// different depths share a key.
func (bq *BigQuery) Names() []string {
	names := make([]string, len(bq.entries))
	for i, e := range bq.entries {
		names[i] = e.Name
	}
	return names
}

func (bq *BigQuery) nodeOf(e *Entry) *Node {
	return bq.node.at(e.doc, e.segs)
}

// Where returns Nodes on the documents whose fields satisfy pred. The first
// error returned by pred aborts the search; Fields.Lookup fails with
// ErrKeyNotFound for keys missing from an entry.
func (bq *BigQuery) Where(pred func(f Fields) (bool, error)) ([]*Node, error) {
	var nodes []*Node
	for i := range bq.entries {
		e := &bq.entries[i]
		ok, err := pred(e.Fields)
		if err != nil {
			return nil, err
		}
		if ok {
			nodes = append(nodes, bq.nodeOf(e))
		}
	}
	return nodes, nil
}

// Filter is Where for predicates that cannot fail.
func (bq *BigQuery) Filter(pred func(f Fields) bool) []*Node {
	return must(bq.Where(func(f Fields) (bool, error) {
		return pred(f), nil
	}))
}

// WhereEqual matches entries whose field equals v (see ToValue). Integers
// and floats compare by numeric value.
func (bq *BigQuery) WhereEqual(key string, v any) ([]*Node, error) {
	want, err := ToValue(v)
	if err != nil {
		return nil, err
	}
	wantNum, wantIsNum := want.Number()
	return bq.Where(func(f Fields) (bool, error) {
		got, ok := f[key]
		if !ok {
			return false, nil
		}
		if wantIsNum {
			if n, isNum := got.Number(); isNum {
				return n.Compare(wantNum) == 0, nil
			}
		}
		return got.Equal(want), nil
	})
}

// WhereGreater matches entries whose field is a number greater than n. The
// threshold must be an int, int64 or float64. Entries without the field do
// not match; entries where it is not a number fail with ErrInvalidType.
func (bq *BigQuery) WhereGreater(key string, n any) ([]*Node, error) {
	return bq.compare(key, n, func(c int) bool { return c > 0 })
}

// WhereSmaller is the mirror image of WhereGreater.
func (bq *BigQuery) WhereSmaller(key string, n any) ([]*Node, error) {
	return bq.compare(key, n, func(c int) bool { return c < 0 })
}

func (bq *BigQuery) compare(key string, n any, accept func(c int) bool) ([]*Node, error) {
	var threshold Number
	switch n := n.(type) {
	case int:
		threshold = IntNumber(int64(n))
	case int64:
		threshold = IntNumber(n)
	case float64:
		threshold = FloatNumber(n)
	default:
		return nil, errf(ErrInvalidType, nil, "cannot compare against %T, need int, int64 or float64", n)
	}
	return bq.Where(func(f Fields) (bool, error) {
		v, ok := f[key]
		if !ok {
			return false, nil
		}
		num, ok := v.Number()
		if !ok {
			return false, errf(ErrInvalidType, nil, "%s holds %v, not a number", key, v.kind)
		}
		return accept(num.Compare(threshold)), nil
	})
}

// Fields are the scalar and list entries of one flattened document.
type Fields map[string]Value

// Lookup fails with ErrKeyNotFound when key is absent.
func (f Fields) Lookup(key string) (Value, error) {
	v, ok := f[key]
	if !ok {
		return Value{}, errf(ErrKeyNotFound, nil, "no field %q", key)
	}
	return v, nil
}

func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// Int returns the integer under key, or def. Unlike Node.GetNumber, a stored
// zero is returned as is.
func (f Fields) Int(key string, def int64) int64 {
	v, ok := f[key]
	if i, ok := intOf(v, ok); ok {
		return i
	}
	return def
}

func (f Fields) Float(key string, def float64) float64 {
	v, ok := f[key]
	return decimalOr(v, ok, def)
}

func (f Fields) Str(key, def string) string {
	v, ok := f[key]
	return stringOr(v, ok, def)
}

func (f Fields) Bool(key string, def bool) bool {
	v, ok := f[key]
	return boolOr(v, ok, def)
}
