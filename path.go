package treedb

import (
	"fmt"
	"strings"
)

// parsePath splits a slash-delimited path into segments. A single leading
// slash is ignored; empty segments are not allowed.
func parsePath(expr string) ([]string, error) {
	expr = strings.TrimPrefix(expr, "/")
	if expr == "" {
		return nil, fmt.Errorf("empty path")
	}
	segs := strings.Split(expr, "/")
	for i, seg := range segs {
		if seg == "" {
			return nil, fmt.Errorf("empty segment %d in path %q", i+1, expr)
		}
	}
	return segs, nil
}

func joinPath(segs []string) string {
	if len(segs) == 0 {
		return ""
	}
	return "/" + strings.Join(segs, "/")
}

// KeyPath addresses a value relative to a query candidate: either Key on
// the candidate itself, or Key inside the candidate's Parent document.
type KeyPath struct {
	Parent string
	Key    string
}

// ParseKeyPath parses "key" or "parent/key". Deeper paths fail with
// ErrQuery.
func ParseKeyPath(expr string) (KeyPath, error) {
	expr = strings.TrimPrefix(expr, "/")
	parent, key, nested := splitByte(expr, '/')
	if !nested {
		parent, key = "", expr
	}
	if key == "" || (nested && parent == "") {
		return KeyPath{}, errf(ErrQuery, nil, "invalid key expression %q", expr)
	}
	if strings.IndexByte(key, '/') >= 0 {
		return KeyPath{}, errf(ErrQuery, nil, "key expression %q can have at most one parent segment", expr)
	}
	return KeyPath{Parent: parent, Key: key}, nil
}

func (kp KeyPath) String() string {
	if kp.Parent == "" {
		return kp.Key
	}
	return kp.Parent + "/" + kp.Key
}

// lookup reads the addressed value from doc. A missing parent reads as
// a missing value.
func (kp KeyPath) lookup(doc *Document) (Value, bool) {
	if kp.Parent != "" {
		sub, ok := doc.Child(kp.Parent)
		if !ok {
			return Value{}, false
		}
		doc = sub
	}
	return doc.Get(kp.Key)
}
