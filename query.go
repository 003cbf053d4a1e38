package treedb

import (
	"math"
	"strings"

	"golang.org/x/text/cases"
)

// Query filters the children of a node. Candidates are the child documents
// in insertion order; children holding anything other than a document are
// never matched. A predicate reads one field per candidate, addressed by a
// key expression: "key" on the candidate itself, or "parent/key" inside the
// candidate's parent document. Queries never create documents.
//
// Predicates return the keys of matching candidates in insertion order.
type Query struct {
	node *Node
}

func (q *Query) Node() *Node {
	return q.node
}

func (q *Query) match(what string, pred func(v Value, ok bool) bool) ([]string, error) {
	kp, err := ParseKeyPath(what)
	if err != nil {
		return nil, err
	}

	n := q.node
	n.db.mu.RLock()
	defer n.db.mu.RUnlock()
	if err := n.check(); err != nil {
		return nil, err
	}

	var keys []string
	n.doc.Range(func(key string, cv Value) bool {
		child, ok := cv.Doc()
		if !ok {
			return true
		}
		v, ok := kp.lookup(child)
		if pred(v, ok) {
			keys = append(keys, key)
		}
		return true
	})
	return keys, nil
}

// WhereGreater matches candidates whose field, read like GetNumber with n
// as the default, is greater than n. A stored zero reads as n, so it never
// matches.
func (q *Query) WhereGreater(what string, n int64) ([]string, error) {
	return q.match(what, func(v Value, ok bool) bool {
		return numberOr(v, ok, n) > n
	})
}

// WhereSmaller is the mirror image of WhereGreater.
func (q *Query) WhereSmaller(what string, n int64) ([]string, error) {
	return q.match(what, func(v Value, ok bool) bool {
		return numberOr(v, ok, n) < n
	})
}

// WhereEqual matches candidates whose field holds the integer n. An absent
// field never matches, a stored zero matches n == 0.
func (q *Query) WhereEqual(what string, n int64) ([]string, error) {
	return q.match(what, func(v Value, ok bool) bool {
		i, ok := intOf(v, ok)
		return ok && i == n
	})
}

// WhereGreaterOrEqual is WhereGreater(what, n-1), saturating at
// math.MinInt64: inclusive only for integer fields.
func (q *Query) WhereGreaterOrEqual(what string, n int64) ([]string, error) {
	if n > math.MinInt64 {
		n--
	}
	return q.WhereGreater(what, n)
}

// WhereSmallerOrEqual is WhereSmaller(what, n+1), saturating at
// math.MaxInt64: inclusive only for integer fields.
func (q *Query) WhereSmallerOrEqual(what string, n int64) ([]string, error) {
	if n < math.MaxInt64 {
		n++
	}
	return q.WhereSmaller(what, n)
}

// WhereEqualString matches candidates whose field is the string s.
func (q *Query) WhereEqualString(what, s string, ignoreCase bool) ([]string, error) {
	fold := cases.Fold()
	if ignoreCase {
		s = fold.String(s)
	}
	return q.match(what, func(v Value, ok bool) bool {
		str, isStr := v.Str()
		if !ok || !isStr {
			return false
		}
		if ignoreCase {
			return fold.String(str) == s
		}
		return str == s
	})
}

// WhereContains matches candidates whose field is a string containing sub,
// ignoring case.
func (q *Query) WhereContains(what, sub string) ([]string, error) {
	fold := cases.Fold()
	sub = fold.String(sub)
	return q.match(what, func(v Value, ok bool) bool {
		str, isStr := v.Str()
		return ok && isStr && strings.Contains(fold.String(str), sub)
	})
}

// WhereBoolean matches candidates whose field, read like GetBoolean with b
// as the default, equals b. Candidates without the field match.
func (q *Query) WhereBoolean(what string, b bool) ([]string, error) {
	return q.match(what, func(v Value, ok bool) bool {
		return boolOr(v, ok, b) == b
	})
}

// Where matches candidates for which pred returns true. Absent fields are
// passed as null.
func (q *Query) Where(what string, pred func(v Value) bool) ([]string, error) {
	return q.match(what, func(v Value, ok bool) bool {
		if !ok {
			v = NullValue()
		}
		return pred(v)
	})
}
