package treedb

import (
	"bytes"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
)

// Default-valued getters never fail: a missing key, or a value that cannot
// be read as the requested type, gives the default. Use the Try* methods to
// tell these cases apart.

func (n *Node) get(key string) (Value, bool) {
	n.rlock()
	defer n.runlock()
	return n.doc.Get(key)
}

// GetString returns the string under key, or def if it is absent, empty or
// not a string.
func (n *Node) GetString(key, def string) string {
	v, ok := n.get(key)
	return stringOr(v, ok, def)
}

// GetNumber returns the integer under key, or def if it is absent or not
// a number.
//
// A stored zero also yields def, so zero cannot be told apart from absence
// through this accessor. Use GetInt when zero is a meaningful value.
func (n *Node) GetNumber(key string, def int64) int64 {
	v, ok := n.get(key)
	return numberOr(v, ok, def)
}

// GetInt is GetNumber without the zero quirk.
func (n *Node) GetInt(key string, def int64) int64 {
	v, ok := n.get(key)
	if i, ok := intOf(v, ok); ok {
		return i
	}
	return def
}

func (n *Node) GetBoolean(key string, def bool) bool {
	v, ok := n.get(key)
	return boolOr(v, ok, def)
}

// GetDecimal returns the number under key as a float, or def if it is
// absent, not a number, or NaN.
func (n *Node) GetDecimal(key string, def float64) float64 {
	v, ok := n.get(key)
	return decimalOr(v, ok, def)
}

func stringOr(v Value, ok bool, def string) string {
	if s, isStr := v.Str(); ok && isStr && s != "" {
		return s
	}
	return def
}

func numberOr(v Value, ok bool, def int64) int64 {
	if i, ok := intOf(v, ok); ok && i != 0 {
		return i
	}
	return def
}

// intOf reads integers, floats (truncated) and numeric strings.
func intOf(v Value, ok bool) (int64, bool) {
	if !ok {
		return 0, false
	}
	switch v.kind {
	case Int:
		return v.i, true
	case Float:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return 0, false
		}
		return truncate(v.f), true
	case String:
		s := strings.TrimSpace(v.s)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return truncate(f), true
		}
	}
	return 0, false
}

// truncate converts a finite float to int64, saturating out of range values.
func truncate(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

func boolOr(v Value, ok bool, def bool) bool {
	if !ok {
		return def
	}
	switch v.kind {
	case Bool:
		return v.b
	case String:
		if strings.EqualFold(v.s, "true") {
			return true
		} else if strings.EqualFold(v.s, "false") {
			return false
		}
	}
	return def
}

func decimalOr(v Value, ok bool, def float64) float64 {
	if !ok {
		return def
	}
	var f float64
	switch v.kind {
	case Float:
		f = v.f
	case Int:
		f = float64(v.i)
	case String:
		var err error
		f, err = strconv.ParseFloat(strings.TrimSpace(v.s), 64)
		if err != nil {
			return def
		}
	default:
		return def
	}
	if math.IsNaN(f) {
		return def
	}
	return f
}

// Value returns the raw value under key.
func (n *Node) Value(key string) (Value, bool) {
	return n.get(key)
}

func (n *Node) tryGet(key string, want Kind) (Value, error) {
	n.db.mu.RLock()
	defer n.db.mu.RUnlock()
	if err := n.check(); err != nil {
		return Value{}, err
	}
	v, ok := n.doc.Get(key)
	if !ok {
		return Value{}, nodeErrf(ErrNodeNotFound, n.Path(), key, nil, "no such key")
	}
	if want != Null && v.kind != want {
		return Value{}, nodeErrf(ErrInvalidType, n.Path(), key, nil, "holds %v, wanted %v", v.kind, want)
	}
	return v, nil
}

func (n *Node) TryString(key string) (string, error) {
	v, err := n.tryGet(key, String)
	return v.s, err
}

func (n *Node) TryInt(key string) (int64, error) {
	v, err := n.tryGet(key, Int)
	return v.i, err
}

func (n *Node) TryBool(key string) (bool, error) {
	v, err := n.tryGet(key, Bool)
	return v.b, err
}

// TryFloat accepts integers as well.
func (n *Node) TryFloat(key string) (float64, error) {
	v, err := n.tryGet(key, Null)
	if err != nil {
		return 0, err
	}
	switch v.kind {
	case Float:
		return v.f, nil
	case Int:
		return float64(v.i), nil
	default:
		return 0, nodeErrf(ErrInvalidType, n.Path(), key, nil, "holds %v, wanted a number", v.kind)
	}
}

// GetListOfString returns the string list under key, or nil if key is
// absent. Anything else under key fails with ErrInvalidType.
func (n *Node) GetListOfString(key string) ([]string, error) {
	v, err := n.tryGet(key, Null)
	if err != nil {
		if errors.Is(err, ErrNodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if ss, ok := v.Strings(); ok {
		return ss, nil
	}
	if v.IsList() && v.listLen() == 0 {
		return []string{}, nil
	}
	return nil, nodeErrf(ErrInvalidType, n.Path(), key, nil, "holds %v, wanted a string list", v.kind)
}

// GetListOfNumber is GetListOfString for number lists.
func (n *Node) GetListOfNumber(key string) ([]Number, error) {
	v, err := n.tryGet(key, Null)
	if err != nil {
		if errors.Is(err, ErrNodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if ns, ok := v.Numbers(); ok {
		return ns, nil
	}
	if v.IsList() && v.listLen() == 0 {
		return []Number{}, nil
	}
	return nil, nodeErrf(ErrInvalidType, n.Path(), key, nil, "holds %v, wanted a number list", v.kind)
}

// GetObject decodes the JSON form of the value under key into out, which
// must be a pointer. It reports false if the key is absent.
func (n *Node) GetObject(key string, out any) (bool, error) {
	var buf bytes.Buffer
	n.db.mu.RLock()
	err := n.check()
	var v Value
	var ok bool
	if err == nil {
		v, ok = n.doc.Get(key)
		if ok {
			err = encodeValueJSON(&buf, v)
		}
	}
	n.db.mu.RUnlock()
	if err != nil {
		if errors.Is(err, ErrDeleted) {
			return false, err
		}
		return false, nodeErrf(ErrUnknown, n.Path(), key, err, "cannot encode value")
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(buf.Bytes(), out); err != nil {
		return true, nodeErrf(ErrInvalidType, n.Path(), key, err, "cannot decode into %T", out)
	}
	return true, nil
}

// Put stores value under key, replacing whatever was there. See ToValue for
// the accepted types.
func (n *Node) Put(key string, value any) error {
	v, err := ToValue(value)
	if err != nil {
		if e, ok := err.(*Error); ok {
			e.Path, e.Key = n.Path(), key
		}
		return err
	}
	return n.set(key, v)
}

func (n *Node) set(key string, v Value) error {
	if key == "" {
		return nodeErrf(ErrPrecondition, n.Path(), key, nil, "empty key")
	}
	n.db.mu.Lock()
	defer n.db.mu.Unlock()
	if err := n.check(); err != nil {
		return err
	}
	if old, ok := n.doc.Get(key); ok {
		if sub, ok := old.Doc(); ok && (v.kind != Doc || v.doc != sub) {
			sub.detach()
		}
	}
	n.doc.Set(key, v)
	return nil
}

func (n *Node) PutString(key, value string) error {
	return n.set(key, StringValue(value))
}

func (n *Node) PutInt(key string, value int64) error {
	return n.set(key, IntValue(value))
}

func (n *Node) PutBool(key string, value bool) error {
	return n.set(key, BoolValue(value))
}

func (n *Node) PutFloat(key string, value float64) error {
	return n.set(key, FloatValue(value))
}

func (n *Node) PutStrings(key string, value []string) error {
	if len(value) == 0 {
		return nodeErrf(ErrPrecondition, n.Path(), key, nil, "empty list")
	}
	return n.set(key, StringListValue(value))
}

func (n *Node) PutNumbers(key string, value []Number) error {
	if len(value) == 0 {
		return nodeErrf(ErrPrecondition, n.Path(), key, nil, "empty list")
	}
	return n.set(key, NumberListValue(value))
}

// PutObject stores a structured value (struct, map or pointer to one) as
// a nested document, converting it through its JSON form.
func (n *Node) PutObject(key string, obj any) error {
	doc, err := objectToDocument(obj)
	if err != nil {
		return nodeErrf(ErrInvalidType, n.Path(), key, err, "cannot convert %T", obj)
	}
	return n.set(key, DocValue(doc))
}

// PutAll stores every entry of m in sorted key order. It stops at the first
// failure, leaving earlier entries stored.
func (n *Node) PutAll(m map[string]any) error {
	for _, k := range sortedKeys(m) {
		if err := n.Put(k, m[k]); err != nil {
			return err
		}
	}
	return nil
}
