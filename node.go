package treedb

import (
	"slices"

	"github.com/google/uuid"
)

type nodeState int

const (
	nodeLive nodeState = iota
	nodeDeleted
)

// Node is a cursor focused on one document of a DB's tree. It records the
// path from the root, and stays valid while that document is in the tree.
//
// After Remove, or after the document is deleted through any other Node,
// the Node is dead: methods that return errors fail with ErrDeleted, and
// the rest panic with an *Error of the same reason.
type Node struct {
	db    *DB
	doc   *Document
	segs  []string
	state nodeState
}

func (n *Node) DB() *DB {
	return n.db
}

// Path is the slash-separated path from the root, like "/users/u1". The
// root's path is empty.
func (n *Node) Path() string {
	return joinPath(n.segs)
}

// Name is the last path segment, empty for the root.
func (n *Node) Name() string {
	if len(n.segs) == 0 {
		return ""
	}
	return n.segs[len(n.segs)-1]
}

func (n *Node) Segments() []string {
	return slices.Clone(n.segs)
}

func (n *Node) IsRoot() bool {
	return len(n.segs) == 0
}

// check must be called with db.mu held.
func (n *Node) check() error {
	if n.state == nodeDeleted || n.doc.detached {
		return nodeErrf(ErrDeleted, n.Path(), "", nil, "node is no longer in the tree")
	}
	return nil
}

// rlock panics on a dead node, leaving the lock released.
func (n *Node) rlock() {
	n.db.mu.RLock()
	if err := n.check(); err != nil {
		n.db.mu.RUnlock()
		panic(err)
	}
}

func (n *Node) runlock() {
	n.db.mu.RUnlock()
}

func (n *Node) at(doc *Document, segs []string) *Node {
	return &Node{db: n.db, doc: doc, segs: segs}
}

func (n *Node) childSegs(more ...string) []string {
	return append(slices.Clip(n.segs), more...)
}

// Child navigates to the document at the given slash-separated path below
// n, creating any missing documents on the way. It fails with
// ErrNodeCreation if a segment on the way holds something other than
// a document.
func (n *Node) Child(path string) (*Node, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, nodeErrf(ErrNodeCreation, n.Path(), path, err, "invalid path")
	}

	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	if err := n.check(); err != nil {
		return nil, err
	}

	doc := n.doc
	for i, seg := range segs {
		v, ok := doc.Get(seg)
		if !ok {
			sub := NewDocument()
			doc.Set(seg, DocValue(sub))
			doc = sub
			continue
		}
		sub, ok := v.Doc()
		if !ok {
			return nil, nodeErrf(ErrNodeCreation, joinPath(n.childSegs(segs[:i]...)), seg, nil, "holds %v, not a document", v.Kind())
		}
		doc = sub
	}
	return n.at(doc, n.childSegs(segs...)), nil
}

// Lookup navigates like Child but never creates anything: a missing segment
// fails with ErrNodeNotFound.
func (n *Node) Lookup(path string) (*Node, error) {
	segs, err := parsePath(path)
	if err != nil {
		return nil, nodeErrf(ErrNodeNotFound, n.Path(), path, err, "invalid path")
	}

	n.db.mu.RLock()
	defer n.db.mu.RUnlock()
	if err := n.check(); err != nil {
		return nil, err
	}

	doc := n.doc
	for i, seg := range segs {
		v, ok := doc.Get(seg)
		if !ok {
			return nil, nodeErrf(ErrNodeNotFound, joinPath(n.childSegs(segs[:i]...)), seg, nil, "no such node")
		}
		sub, ok := v.Doc()
		if !ok {
			return nil, nodeErrf(ErrInvalidType, joinPath(n.childSegs(segs[:i]...)), seg, nil, "holds %v, not a document", v.Kind())
		}
		doc = sub
	}
	return n.at(doc, n.childSegs(segs...)), nil
}

// NewChild creates an empty child document under a fresh time-ordered key.
func (n *Node) NewChild() (*Node, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return nil, nodeErrf(ErrNodeCreation, n.Path(), "", err, "cannot generate key")
	}
	key := id.String()

	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	if err := n.check(); err != nil {
		return nil, err
	}
	sub := NewDocument()
	n.doc.Set(key, DocValue(sub))
	return n.at(sub, n.childSegs(key)), nil
}

// Parent returns a Node on the document containing n. The root has no
// parent and fails with ErrNodeNotFound.
func (n *Node) Parent() (*Node, error) {
	if n.IsRoot() {
		return nil, nodeErrf(ErrNodeNotFound, "", "", nil, "root has no parent")
	}
	n.db.mu.RLock()
	defer n.db.mu.RUnlock()
	if err := n.check(); err != nil {
		return nil, err
	}
	parent, err := n.db.resolve(n.segs[:len(n.segs)-1])
	if err != nil {
		return nil, err
	}
	return n.at(parent, slices.Clone(n.segs[:len(n.segs)-1])), nil
}

// resolve walks segs from the root without creating anything. The caller
// must hold db.mu.
func (db *DB) resolve(segs []string) (*Document, error) {
	doc := db.root
	for i, seg := range segs {
		sub, ok := doc.Child(seg)
		if !ok {
			return nil, nodeErrf(ErrDeleted, joinPath(segs[:i]), seg, nil, "node is no longer in the tree")
		}
		doc = sub
	}
	return doc, nil
}

// Delete removes key from the document and commits. It reports whether the
// key existed. Nodes on a removed sub-tree become dead.
func (n *Node) Delete(key string) (bool, error) {
	n.db.mu.Lock()
	if err := n.check(); err != nil {
		n.db.mu.Unlock()
		return false, err
	}
	existed := n.removeKey(n.doc, key)
	n.db.mu.Unlock()

	return existed, n.db.Commit()
}

func (n *Node) removeKey(doc *Document, key string) bool {
	v, ok := doc.Get(key)
	if !ok {
		return false
	}
	if sub, ok := v.Doc(); ok {
		sub.detach()
	}
	doc.Delete(key)
	return true
}

// Remove deletes n's own document from its parent, commits, and kills n.
// The root cannot be removed.
func (n *Node) Remove() error {
	if n.IsRoot() {
		return nodeErrf(ErrPrecondition, "", "", nil, "cannot remove the root")
	}
	n.db.mu.Lock()
	if err := n.check(); err != nil {
		n.db.mu.Unlock()
		return err
	}
	parent, err := n.db.resolve(n.segs[:len(n.segs)-1])
	if err == nil {
		if cur, ok := parent.Child(n.Name()); !ok || cur != n.doc {
			err = nodeErrf(ErrDeleted, n.Path(), "", nil, "node is no longer in the tree")
		}
	}
	if err != nil {
		n.db.mu.Unlock()
		return err
	}
	n.removeKey(parent, n.Name())
	n.state = nodeDeleted
	n.db.mu.Unlock()

	return n.db.Commit()
}

// Children lists the keys of the document in insertion order.
func (n *Node) Children() []string {
	n.rlock()
	defer n.runlock()
	return n.doc.Keys()
}

// Data returns the scalar and list entries of the document, skipping nested
// documents. It returns nil if there are none.
func (n *Node) Data() map[string]Value {
	n.rlock()
	defer n.runlock()
	var m map[string]Value
	n.doc.Range(func(k string, v Value) bool {
		if v.kind != Doc {
			if m == nil {
				m = make(map[string]Value)
			}
			m[k] = v
		}
		return true
	})
	return m
}

// Snapshot returns a deep copy of the document.
func (n *Node) Snapshot() *Document {
	n.rlock()
	defer n.runlock()
	return n.doc.Clone()
}

// Commit writes the whole tree, not just this node.
func (n *Node) Commit() error {
	n.db.mu.RLock()
	err := n.check()
	n.db.mu.RUnlock()
	if err != nil {
		return err
	}
	return n.db.Commit()
}

// Query returns a query over the children of n.
func (n *Node) Query() *Query {
	return &Query{node: n}
}
