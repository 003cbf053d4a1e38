package treedb

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"
)

var (
	_ msgpack.CustomEncoder = (*Document)(nil)
	_ msgpack.CustomDecoder = (*Document)(nil)
)

func encodeMsgPack(w io.Writer, doc *Document) error {
	enc := msgpack.GetEncoder()
	enc.Reset(w)
	err := doc.EncodeMsgpack(enc)
	msgpack.PutEncoder(enc)
	return err
}

func decodeMsgPack(data []byte) (*Document, error) {
	var r bytes.Reader
	r.Reset(data)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	doc := NewDocument()
	err := doc.DecodeMsgpack(dec)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d bytes of trailing data", r.Len())
	}
	return doc, nil
}

// EncodeMsgpack writes d as a msgpack map in insertion order.
func (d *Document) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMapLen(d.Len()); err != nil {
		return err
	}
	for _, k := range d.keys {
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := encodeMsgPackValue(enc, d.vals[k]); err != nil {
			return err
		}
	}
	return nil
}

func encodeMsgPackValue(enc *msgpack.Encoder, v Value) error {
	switch v.kind {
	case Null:
		return enc.EncodeNil()
	case Bool:
		return enc.EncodeBool(v.b)
	case Int:
		return enc.EncodeInt(v.i)
	case Float:
		return enc.EncodeFloat64(v.f)
	case String:
		return enc.EncodeString(v.s)
	case StringList:
		if err := enc.EncodeArrayLen(len(v.ss)); err != nil {
			return err
		}
		for _, s := range v.ss {
			if err := enc.EncodeString(s); err != nil {
				return err
			}
		}
		return nil
	case NumberList:
		if err := enc.EncodeArrayLen(len(v.ns)); err != nil {
			return err
		}
		for _, n := range v.ns {
			var err error
			if n.isFloat {
				err = enc.EncodeFloat64(n.f)
			} else {
				err = enc.EncodeInt(n.i)
			}
			if err != nil {
				return err
			}
		}
		return nil
	case Doc:
		return v.doc.EncodeMsgpack(enc)
	default:
		panic("unreachable")
	}
}

// DecodeMsgpack reads a msgpack map into d. A nil map decodes as empty.
func (d *Document) DecodeMsgpack(dec *msgpack.Decoder) error {
	if d.vals == nil {
		*d = *NewDocument()
	}
	n, err := dec.DecodeMapLen()
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return err
		}
		v, err := decodeMsgPackValue(dec)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		d.Set(key, v)
	}
	return nil
}

func decodeMsgPackValue(dec *msgpack.Decoder) (Value, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return Value{}, err
	}
	switch {
	case c == msgpcode.Nil:
		return NullValue(), dec.DecodeNil()
	case c == msgpcode.True || c == msgpcode.False:
		b, err := dec.DecodeBool()
		return BoolValue(b), err
	case isMsgPackInt(c):
		i, err := dec.DecodeInt64()
		return IntValue(i), err
	case c == msgpcode.Float || c == msgpcode.Double:
		f, err := dec.DecodeFloat64()
		return FloatValue(f), err
	case msgpcode.IsString(c):
		s, err := dec.DecodeString()
		return StringValue(s), err
	case msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32:
		sub := NewDocument()
		if err := sub.DecodeMsgpack(dec); err != nil {
			return Value{}, err
		}
		return DocValue(sub), nil
	case msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32:
		return decodeMsgPackList(dec)
	default:
		return Value{}, fmt.Errorf("unsupported msgpack code 0x%02x", c)
	}
}

func decodeMsgPackList(dec *msgpack.Decoder) (Value, error) {
	n, err := dec.DecodeArrayLen()
	if err != nil {
		return Value{}, err
	}
	var lb listBuilder
	for i := 0; i < n; i++ {
		c, err := dec.PeekCode()
		if err != nil {
			return Value{}, err
		}
		switch {
		case msgpcode.IsString(c):
			s, err := dec.DecodeString()
			if err != nil {
				return Value{}, err
			}
			lb.addString(s)
		case isMsgPackInt(c):
			v, err := dec.DecodeInt64()
			if err != nil {
				return Value{}, err
			}
			lb.addNumber(IntNumber(v))
		case c == msgpcode.Float || c == msgpcode.Double:
			v, err := dec.DecodeFloat64()
			if err != nil {
				return Value{}, err
			}
			lb.addNumber(FloatNumber(v))
		default:
			lb.reject(fmt.Sprintf("msgpack code 0x%02x", c))
			if err := dec.Skip(); err != nil {
				return Value{}, err
			}
		}
	}
	return lb.value()
}

func isMsgPackInt(c byte) bool {
	return msgpcode.IsFixedNum(c) || (c >= msgpcode.Uint8 && c <= msgpcode.Int64)
}
