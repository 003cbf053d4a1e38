package treedb

import (
	"bytes"
	"fmt"
)

// Format is the serialization of a whole tree. There is no header and no
// version field in the output, so a store must keep being opened with the
// Format it was written with.
type Format int

const (
	JSON Format = iota
	MsgPack
	YAML

	defaultIndent = "   "
)

func (f Format) String() string {
	switch f {
	case JSON:
		return "json"
	case MsgPack:
		return "msgpack"
	case YAML:
		return "yaml"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Encode appends the serialized form of doc to buf. indent only affects JSON.
func (f Format) Encode(buf []byte, doc *Document, indent string) ([]byte, error) {
	w := bytes.NewBuffer(buf)
	var err error
	switch f {
	case JSON:
		err = encodeJSON(w, doc, indent)
	case MsgPack:
		err = encodeMsgPack(w, doc)
	case YAML:
		err = encodeYAML(w, doc)
	default:
		panic("unsupported format")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode tree as %v: %w", f, err)
	}
	return w.Bytes(), nil
}

// Decode parses data as a root document. Empty data is an empty document.
func (f Format) Decode(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(), nil
	}
	var doc *Document
	var err error
	switch f {
	case JSON:
		doc, err = decodeJSON(data)
	case MsgPack:
		doc, err = decodeMsgPack(data)
	case YAML:
		doc, err = decodeYAML(data)
	default:
		panic("unsupported format")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %v tree: %w", f, err)
	}
	return doc, nil
}

// listBuilder accumulates decoded array elements and decides the list kind.
// Lists hold either strings or numbers, never both, and nothing else.
type listBuilder struct {
	ss     []string
	ns     []Number
	strs   bool
	nums   bool
	failed string
}

func (lb *listBuilder) addString(s string) {
	lb.strs = true
	lb.ss = append(lb.ss, s)
}

func (lb *listBuilder) addNumber(n Number) {
	lb.nums = true
	lb.ns = append(lb.ns, n)
}

func (lb *listBuilder) reject(what string) {
	if lb.failed == "" {
		lb.failed = what
	}
}

func (lb *listBuilder) value() (Value, error) {
	switch {
	case lb.failed != "":
		return Value{}, fmt.Errorf("lists cannot contain %s", lb.failed)
	case lb.strs && lb.nums:
		return Value{}, fmt.Errorf("list mixes strings and numbers")
	case lb.nums:
		return Value{kind: NumberList, ns: lb.ns}, nil
	default:
		return Value{kind: StringList, ss: lb.ss}, nil
	}
}
