package treedb

import (
	"bytes"
	"math"

	"github.com/go-json-experiment/json"
	"github.com/theory/jsonpath"
)

// Select evaluates a JSONPath expression (RFC 9535) against the document of
// n, which acts as the query root "$".
//
// The selection works on the JSON form of the sub-tree, so results come back
// in that form: documents have their keys sorted, and integral numbers are
// returned as integers even if they were stored as floats.
func (n *Node) Select(expr string) ([]Value, error) {
	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, nodeErrf(ErrQuery, n.Path(), "", err, "invalid JSONPath %q", expr)
	}

	var buf bytes.Buffer
	n.db.mu.RLock()
	err = n.check()
	if err == nil {
		err = encodeJSON(&buf, n.doc, "")
	}
	n.db.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	var data any
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		return nil, nodeErrf(ErrUnknown, n.Path(), "", err, "cannot prepare JSONPath input")
	}

	results := path.Select(data)
	values := make([]Value, 0, len(results))
	for _, r := range results {
		v, err := plainToValue(r)
		if err != nil {
			return nil, nodeErrf(ErrInvalidType, n.Path(), "", err, "JSONPath %q", expr)
		}
		values = append(values, v)
	}
	return values, nil
}

func plainToValue(raw any) (Value, error) {
	switch raw := raw.(type) {
	case float64:
		if raw == math.Trunc(raw) && math.Abs(raw) < 1<<63 {
			return IntValue(int64(raw)), nil
		}
		return FloatValue(raw), nil
	case []any:
		items := make([]any, len(raw))
		for i, item := range raw {
			if f, ok := item.(float64); ok && f == math.Trunc(f) && math.Abs(f) < 1<<63 {
				items[i] = int64(f)
			} else {
				items[i] = item
			}
		}
		if len(items) == 0 {
			return StringListValue(nil), nil
		}
		return listValue(items)
	case map[string]any:
		doc := NewDocument()
		for _, k := range sortedKeys(raw) {
			v, err := plainToValue(raw[k])
			if err != nil {
				return Value{}, err
			}
			doc.Set(k, v)
		}
		return DocValue(doc), nil
	default:
		return ToValue(raw)
	}
}
