package treedb

import (
	"fmt"
	"io"
	"math"
	"reflect"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// ToValue converts a Go value into a Value:
//
//   - nil becomes null;
//   - strings, bools, and all integer and float types become scalars;
//   - slices of strings or of numbers become lists, and must not be empty;
//   - []any must hold only strings or only numbers;
//   - Value and *Document are deep-copied;
//   - map[string]any becomes a document, entries in sorted key order;
//   - structs, other maps and pointers to them become documents through
//     their JSON form.
//
// Empty lists fail with ErrPrecondition; mixed lists and anything else fail
// with ErrInvalidType.
func ToValue(v any) (Value, error) {
	switch v := v.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return v.clone(), nil
	case *Document:
		if v == nil {
			return NullValue(), nil
		}
		return DocValue(v.Clone()), nil
	case string:
		return StringValue(v), nil
	case bool:
		return BoolValue(v), nil
	case []string:
		if len(v) == 0 {
			return Value{}, errf(ErrPrecondition, nil, "empty list")
		}
		return StringListValue(v), nil
	case []Number:
		if len(v) == 0 {
			return Value{}, errf(ErrPrecondition, nil, "empty list")
		}
		return NumberListValue(v), nil
	case []any:
		return listValue(v)
	case map[string]any:
		doc := NewDocument()
		for _, k := range sortedKeys(v) {
			ev, err := ToValue(v[k])
			if err != nil {
				return Value{}, err
			}
			doc.Set(k, ev)
		}
		return DocValue(doc), nil
	}

	if n, ok, err := numberOf(v); ok || err != nil {
		if err != nil {
			return Value{}, err
		}
		if n.isFloat {
			return FloatValue(n.f), nil
		}
		return IntValue(n.i), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return listValue(items)
	case reflect.Struct, reflect.Map, reflect.Pointer:
		doc, err := objectToDocument(v)
		if err != nil {
			return Value{}, errf(ErrInvalidType, err, "cannot convert %T", v)
		}
		return DocValue(doc), nil
	default:
		return Value{}, errf(ErrInvalidType, nil, "unsupported type %T", v)
	}
}

func listValue(items []any) (Value, error) {
	if len(items) == 0 {
		return Value{}, errf(ErrPrecondition, nil, "empty list")
	}
	var lb listBuilder
	for _, item := range items {
		if s, ok := item.(string); ok {
			lb.addString(s)
			continue
		}
		if s, ok := stringKind(item); ok {
			lb.addString(s)
			continue
		}
		n, ok, err := numberOf(item)
		if err != nil {
			return Value{}, err
		}
		if !ok {
			lb.reject(fmt.Sprintf("%T", item))
			continue
		}
		lb.addNumber(n)
	}
	v, err := lb.value()
	if err != nil {
		return Value{}, errf(ErrInvalidType, err, "invalid list")
	}
	return v, nil
}

func stringKind(v any) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.String {
		return rv.String(), true
	}
	return "", false
}

// numberOf converts any Go integer or float, including named types. Unsigned
// values above math.MaxInt64 fail with ErrInvalidType.
func numberOf(v any) (Number, bool, error) {
	switch v := v.(type) {
	case Number:
		return v, true, nil
	case int:
		return IntNumber(int64(v)), true, nil
	case int64:
		return IntNumber(v), true, nil
	case float64:
		return FloatNumber(v), true, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return IntNumber(rv.Int()), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Number{}, false, errf(ErrInvalidType, nil, "%d does not fit into int64", u)
		}
		return IntNumber(int64(u)), true, nil
	case reflect.Float32, reflect.Float64:
		return FloatNumber(rv.Float()), true, nil
	default:
		return Number{}, false, nil
	}
}

// objectToDocument converts a structured value through its JSON form. The
// JSON must be an object.
func objectToDocument(obj any) (*Document, error) {
	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	doc, err := decodeJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("%T does not map to a document: %w", obj, err)
	}
	return doc, nil
}

func encodeValueJSON(w io.Writer, v Value) error {
	return writeJSONValue(jsontext.NewEncoder(w), v)
}
