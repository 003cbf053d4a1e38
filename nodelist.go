package treedb

import "slices"

// AddItem appends item, a string or a number, to the list under key. A
// missing key starts a new list. The list must hold items of the same
// type, except that an empty list accepts either.
func (n *Node) AddItem(key string, item any) error {
	var num Number
	str, isStr := item.(string)
	if !isStr {
		var ok bool
		var err error
		num, ok, err = numberOf(item)
		if err != nil || !ok {
			return nodeErrf(ErrInvalidType, n.Path(), key, err, "cannot add %T to a list", item)
		}
	}

	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	if err := n.check(); err != nil {
		return err
	}

	v, exists := n.doc.Get(key)
	if exists && !v.IsList() {
		return nodeErrf(ErrInvalidType, n.Path(), key, nil, "holds %v, not a list", v.kind)
	}
	empty := v.listLen() == 0
	switch {
	case isStr && (empty || v.kind == StringList):
		n.doc.Set(key, Value{kind: StringList, ss: append(slices.Clip(v.ss), str)})
	case !isStr && (empty || v.kind == NumberList):
		n.doc.Set(key, Value{kind: NumberList, ns: append(slices.Clip(v.ns), num)})
	default:
		return nodeErrf(ErrInvalidType, n.Path(), key, nil, "cannot add %T to a %v", item, v.kind)
	}
	return nil
}

// RemoveItem removes the list item at index. The list may become empty.
func (n *Node) RemoveItem(key string, index int) error {
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	if err := n.check(); err != nil {
		return err
	}

	v, exists := n.doc.Get(key)
	if !exists {
		return nodeErrf(ErrNodeNotFound, n.Path(), key, nil, "no such key")
	}
	if !v.IsList() {
		return nodeErrf(ErrInvalidType, n.Path(), key, nil, "holds %v, not a list", v.kind)
	}
	if index < 0 || index >= v.listLen() {
		return nodeErrf(ErrPrecondition, n.Path(), key, nil, "index %d out of range [0, %d)", index, v.listLen())
	}
	switch v.kind {
	case StringList:
		n.doc.Set(key, Value{kind: StringList, ss: slices.Delete(slices.Clone(v.ss), index, index+1)})
	case NumberList:
		n.doc.Set(key, Value{kind: NumberList, ns: slices.Delete(slices.Clone(v.ns), index, index+1)})
	}
	return nil
}
