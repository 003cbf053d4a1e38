package treedb

import (
	"fmt"
	"io"
	"math"

	"github.com/goccy/go-yaml"
)

func encodeYAML(w io.Writer, doc *Document) error {
	raw, err := yaml.MarshalWithOptions(docToMapSlice(doc), yaml.Indent(2))
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}

func docToMapSlice(doc *Document) yaml.MapSlice {
	ms := make(yaml.MapSlice, 0, doc.Len())
	doc.Range(func(k string, v Value) bool {
		var item any
		if v.kind == Doc {
			item = docToMapSlice(v.doc)
		} else {
			item = v.Interface()
		}
		ms = append(ms, yaml.MapItem{Key: k, Value: item})
		return true
	})
	return ms
}

func decodeYAML(data []byte) (*Document, error) {
	var root any
	if err := yaml.UnmarshalWithOptions(data, &root, yaml.UseOrderedMap()); err != nil {
		return nil, err
	}
	if root == nil {
		return NewDocument(), nil
	}
	ms, ok := root.(yaml.MapSlice)
	if !ok {
		return nil, fmt.Errorf("expected a mapping, got %T", root)
	}
	return mapSliceToDoc(ms)
}

func mapSliceToDoc(ms yaml.MapSlice) (*Document, error) {
	doc := NewDocument()
	for _, item := range ms {
		key, ok := item.Key.(string)
		if !ok {
			key = fmt.Sprint(item.Key)
		}
		v, err := yamlToValue(item.Value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		doc.Set(key, v)
	}
	return doc, nil
}

func yamlToValue(raw any) (Value, error) {
	switch raw := raw.(type) {
	case nil:
		return NullValue(), nil
	case bool:
		return BoolValue(raw), nil
	case string:
		return StringValue(raw), nil
	case yaml.MapSlice:
		sub, err := mapSliceToDoc(raw)
		if err != nil {
			return Value{}, err
		}
		return DocValue(sub), nil
	case []any:
		var lb listBuilder
		for _, e := range raw {
			switch e := e.(type) {
			case string:
				lb.addString(e)
			default:
				n, ok := yamlNumber(e)
				if !ok {
					lb.reject(fmt.Sprintf("%T", e))
					continue
				}
				lb.addNumber(n)
			}
		}
		return lb.value()
	}
	n, ok := yamlNumber(raw)
	if !ok {
		return Value{}, fmt.Errorf("unsupported YAML value %T", raw)
	}
	if n.isFloat {
		return FloatValue(n.f), nil
	}
	return IntValue(n.i), nil
}

func yamlNumber(raw any) (Number, bool) {
	switch raw := raw.(type) {
	case int:
		return IntNumber(int64(raw)), true
	case int64:
		return IntNumber(raw), true
	case uint64:
		if raw > math.MaxInt64 {
			return FloatNumber(float64(raw)), true
		}
		return IntNumber(int64(raw)), true
	case float64:
		return FloatNumber(raw), true
	default:
		return Number{}, false
	}
}
