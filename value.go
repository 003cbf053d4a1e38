package treedb

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	StringList
	NumberList
	Doc
)

var kindNames = [...]string{"null", "bool", "int", "float", "string", "string list", "number list", "document"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Number is an element of a number list. It is either an integer or a float,
// and remembers which, so that lists round-trip without turning 1 into 1.0.
type Number struct {
	i       int64
	f       float64
	isFloat bool
}

func IntNumber(v int64) Number     { return Number{i: v} }
func FloatNumber(v float64) Number { return Number{f: v, isFloat: true} }

func (n Number) IsFloat() bool { return n.isFloat }

func (n Number) Int64() int64 {
	if n.isFloat {
		return int64(n.f)
	}
	return n.i
}

func (n Number) Float64() float64 {
	if n.isFloat {
		return n.f
	}
	return float64(n.i)
}

func (n Number) Compare(o Number) int {
	if !n.isFloat && !o.isFloat {
		switch {
		case n.i < o.i:
			return -1
		case n.i > o.i:
			return 1
		default:
			return 0
		}
	}
	a, b := n.Float64(), o.Float64()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (n Number) String() string {
	if n.isFloat {
		return formatFloat(n.f)
	}
	return strconv.FormatInt(n.i, 10)
}

// Value is a tagged union of everything a Document can hold. The zero Value
// is null. Values are immutable; list payloads are copied on the way in and
// on the way out.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	ss   []string
	ns   []Number
	doc  *Document
}

func NullValue() Value               { return Value{} }
func BoolValue(v bool) Value         { return Value{kind: Bool, b: v} }
func IntValue(v int64) Value         { return Value{kind: Int, i: v} }
func FloatValue(v float64) Value     { return Value{kind: Float, f: v} }
func StringValue(v string) Value     { return Value{kind: String, s: v} }
func DocValue(doc *Document) Value   { return Value{kind: Doc, doc: doc} }
func StringListValue(v []string) Value {
	return Value{kind: StringList, ss: slices.Clone(v)}
}
func NumberListValue(v []Number) Value {
	return Value{kind: NumberList, ns: slices.Clone(v)}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == Null }
func (v Value) IsScalar() bool { return v.kind != Doc }
func (v Value) IsList() bool   { return v.kind == StringList || v.kind == NumberList }

func (v Value) Bool() (bool, bool) {
	return v.b, v.kind == Bool
}

func (v Value) Int() (int64, bool) {
	return v.i, v.kind == Int
}

func (v Value) Float() (float64, bool) {
	return v.f, v.kind == Float
}

// Number returns v as a Number if it is an integer or a float.
func (v Value) Number() (Number, bool) {
	switch v.kind {
	case Int:
		return IntNumber(v.i), true
	case Float:
		return FloatNumber(v.f), true
	default:
		return Number{}, false
	}
}

func (v Value) Str() (string, bool) {
	return v.s, v.kind == String
}

func (v Value) Strings() ([]string, bool) {
	if v.kind != StringList {
		return nil, false
	}
	return slices.Clone(v.ss), true
}

func (v Value) Numbers() ([]Number, bool) {
	if v.kind != NumberList {
		return nil, false
	}
	return slices.Clone(v.ns), true
}

func (v Value) Doc() (*Document, bool) {
	return v.doc, v.kind == Doc
}

func (v Value) listLen() int {
	switch v.kind {
	case StringList:
		return len(v.ss)
	case NumberList:
		return len(v.ns)
	default:
		return 0
	}
}

// Equal is deep structural equality; nested documents compare in order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case Null:
		return true
	case Bool:
		return v.b == o.b
	case Int:
		return v.i == o.i
	case Float:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case String:
		return v.s == o.s
	case StringList:
		return slices.Equal(v.ss, o.ss)
	case NumberList:
		return slices.Equal(v.ns, o.ns)
	case Doc:
		return v.doc.Equal(o.doc)
	default:
		panic("unreachable")
	}
}

// Interface converts v into plain Go values: nil, bool, int64, float64,
// string, []string, []any (of int64/float64) or *Document.
func (v Value) Interface() any {
	switch v.kind {
	case Null:
		return nil
	case Bool:
		return v.b
	case Int:
		return v.i
	case Float:
		return v.f
	case String:
		return v.s
	case StringList:
		return slices.Clone(v.ss)
	case NumberList:
		out := make([]any, len(v.ns))
		for i, n := range v.ns {
			if n.isFloat {
				out[i] = n.f
			} else {
				out[i] = n.i
			}
		}
		return out
	case Doc:
		return v.doc
	default:
		panic("unreachable")
	}
}

func (v Value) clone() Value {
	if v.kind == Doc {
		return DocValue(v.doc.Clone())
	}
	return v
}

func (v Value) String() string {
	switch v.kind {
	case Null:
		return "null"
	case Bool:
		return strconv.FormatBool(v.b)
	case Int:
		return strconv.FormatInt(v.i, 10)
	case Float:
		return formatFloat(v.f)
	case String:
		return strconv.Quote(v.s)
	case StringList:
		var buf strings.Builder
		buf.WriteByte('[')
		for i, s := range v.ss {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(strconv.Quote(s))
		}
		buf.WriteByte(']')
		return buf.String()
	case NumberList:
		var buf strings.Builder
		buf.WriteByte('[')
		for i, n := range v.ns {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(n.String())
		}
		buf.WriteByte(']')
		return buf.String()
	case Doc:
		return fmt.Sprintf("{%d keys}", v.doc.Len())
	default:
		panic("unreachable")
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
