package treedb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-json-experiment/json/jsontext"
)

func encodeJSON(w io.Writer, doc *Document, indent string) error {
	var opts []jsontext.Options
	if indent != "" {
		opts = append(opts, jsontext.Multiline(true), jsontext.WithIndent(indent))
	}
	enc := jsontext.NewEncoder(w, opts...)
	return doc.MarshalJSONTo(enc)
}

func decodeJSON(data []byte) (*Document, error) {
	dec := jsontext.NewDecoder(bytes.NewReader(data))
	doc := NewDocument()
	if err := doc.UnmarshalJSONFrom(dec); err != nil {
		return nil, err
	}
	if _, err := dec.ReadToken(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after the root object")
		}
		return nil, err
	}
	return doc, nil
}

// MarshalJSONTo writes d as a JSON object, keys in insertion order.
func (d *Document) MarshalJSONTo(enc *jsontext.Encoder) error {
	if err := enc.WriteToken(jsontext.BeginObject); err != nil {
		return err
	}
	for _, k := range d.keys {
		if err := enc.WriteToken(jsontext.String(k)); err != nil {
			return err
		}
		if err := writeJSONValue(enc, d.vals[k]); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return enc.WriteToken(jsontext.EndObject)
}

func writeJSONValue(enc *jsontext.Encoder, v Value) error {
	switch v.kind {
	case Null:
		return enc.WriteToken(jsontext.Null)
	case Bool:
		return enc.WriteToken(jsontext.Bool(v.b))
	case Int:
		return enc.WriteToken(jsontext.Int(v.i))
	case Float:
		return writeJSONFloat(enc, v.f)
	case String:
		return enc.WriteToken(jsontext.String(v.s))
	case StringList:
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for _, s := range v.ss {
			if err := enc.WriteToken(jsontext.String(s)); err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndArray)
	case NumberList:
		if err := enc.WriteToken(jsontext.BeginArray); err != nil {
			return err
		}
		for _, n := range v.ns {
			var err error
			if n.isFloat {
				err = writeJSONFloat(enc, n.f)
			} else {
				err = enc.WriteToken(jsontext.Int(n.i))
			}
			if err != nil {
				return err
			}
		}
		return enc.WriteToken(jsontext.EndArray)
	case Doc:
		return v.doc.MarshalJSONTo(enc)
	default:
		panic("unreachable")
	}
}

// writeJSONFloat keeps a decimal point on integral floats, so that 2.0 is
// read back as a float and not as an integer.
func writeJSONFloat(enc *jsontext.Encoder, f float64) error {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return enc.WriteValue(jsontext.Value(s))
}

// UnmarshalJSONFrom reads a JSON object into d, appending to its entries.
func (d *Document) UnmarshalJSONFrom(dec *jsontext.Decoder) error {
	tok, err := dec.ReadToken()
	if err != nil {
		return err
	}
	if tok.Kind() != '{' {
		return fmt.Errorf("expected an object, got %v", tok.Kind())
	}
	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return err
		}
		key := tok.String()
		v, err := readJSONValue(dec)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		d.Set(key, v)
	}
	_, err = dec.ReadToken()
	return err
}

func readJSONValue(dec *jsontext.Decoder) (Value, error) {
	switch dec.PeekKind() {
	case '{':
		sub := NewDocument()
		if err := sub.UnmarshalJSONFrom(dec); err != nil {
			return Value{}, err
		}
		return DocValue(sub), nil
	case '[':
		return readJSONList(dec)
	}
	tok, err := dec.ReadToken()
	if err != nil {
		return Value{}, err
	}
	switch tok.Kind() {
	case 'n':
		return NullValue(), nil
	case 't', 'f':
		return BoolValue(tok.Bool()), nil
	case '"':
		return StringValue(tok.String()), nil
	case '0':
		n, err := parseJSONNumber(tok.String())
		if err != nil {
			return Value{}, err
		}
		if n.isFloat {
			return FloatValue(n.f), nil
		}
		return IntValue(n.i), nil
	default:
		return Value{}, fmt.Errorf("unexpected %v", tok.Kind())
	}
}

func readJSONList(dec *jsontext.Decoder) (Value, error) {
	if _, err := dec.ReadToken(); err != nil {
		return Value{}, err
	}
	var lb listBuilder
	for dec.PeekKind() != ']' {
		switch dec.PeekKind() {
		case '{', '[':
			lb.reject("nested structures")
			if err := dec.SkipValue(); err != nil {
				return Value{}, err
			}
			continue
		}
		tok, err := dec.ReadToken()
		if err != nil {
			return Value{}, err
		}
		switch tok.Kind() {
		case '"':
			lb.addString(tok.String())
		case '0':
			n, err := parseJSONNumber(tok.String())
			if err != nil {
				return Value{}, err
			}
			lb.addNumber(n)
		case 'n':
			lb.reject("nulls")
		case 't', 'f':
			lb.reject("booleans")
		default:
			return Value{}, fmt.Errorf("unexpected %v in list", tok.Kind())
		}
	}
	if _, err := dec.ReadToken(); err != nil {
		return Value{}, err
	}
	return lb.value()
}

// parseJSONNumber decides between integer and float by the literal text.
// Integers that overflow int64 become floats.
func parseJSONNumber(raw string) (Number, error) {
	if !strings.ContainsAny(raw, ".eE") {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return IntNumber(i), nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Number{}, err
	}
	return FloatNumber(f), nil
}
