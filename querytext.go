package treedb

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// TextQuery is a parsed query of the form
//
//	FROM <source> <key> <op> <value> [LIMIT <n>]
//
// Keywords are case-insensitive. <source> is accepted for readability and
// ignored: the query always runs over the children of the node it is
// evaluated on. <op> is one of =, <, > and contains. <value> is
// a single-quoted string, an integer or a boolean, tried in that order;
// < and > need an integer. Limit is 0 when absent.
type TextQuery struct {
	Source string
	What   string
	Op     string
	Value  any
	Limit  int
}

type queryToken struct {
	text   string
	quoted bool
}

func tokenizeQuery(expr string) ([]queryToken, error) {
	var tokens []queryToken
	for i := 0; i < len(expr); {
		switch c := expr[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '\'':
			end := strings.IndexByte(expr[i+1:], '\'')
			if end < 0 {
				return nil, errf(ErrQuery, nil, "unterminated string literal in %q", expr)
			}
			tokens = append(tokens, queryToken{text: expr[i+1 : i+1+end], quoted: true})
			i += end + 2
		default:
			j := i
			for j < len(expr) && !strings.ContainsRune(" \t\n\r'", rune(expr[j])) {
				j++
			}
			tokens = append(tokens, queryToken{text: expr[i:j]})
			i = j
		}
	}
	return tokens, nil
}

func ParseTextQuery(expr string) (*TextQuery, error) {
	tokens, err := tokenizeQuery(expr)
	if err != nil {
		return nil, err
	}
	if len(tokens) != 5 && len(tokens) != 7 {
		return nil, errf(ErrQuery, nil, "expected FROM <source> <key> <op> <value> [LIMIT <n>], got %q", expr)
	}
	if !strings.EqualFold(tokens[0].text, "FROM") || tokens[0].quoted {
		return nil, errf(ErrQuery, nil, "query must start with FROM: %q", expr)
	}

	tq := &TextQuery{
		Source: tokens[1].text,
		What:   tokens[2].text,
		Op:     strings.ToLower(tokens[3].text),
	}
	if _, err := ParseKeyPath(tq.What); err != nil {
		return nil, err
	}

	val := tokens[4]
	if val.quoted {
		tq.Value = val.text
	} else if i, err := strconv.ParseInt(val.text, 10, 64); err == nil {
		tq.Value = i
	} else if strings.EqualFold(val.text, "true") || strings.EqualFold(val.text, "false") {
		tq.Value = strings.EqualFold(val.text, "true")
	} else {
		return nil, errf(ErrQuery, nil, "invalid value %q: want a quoted string, an integer or a boolean", val.text)
	}

	switch tq.Op {
	case "=", "contains":
	case "<", ">":
		if _, ok := tq.Value.(int64); !ok {
			return nil, errf(ErrQuery, nil, "operator %s needs an integer, got %q", tq.Op, val.text)
		}
	default:
		return nil, errf(ErrQuery, nil, "unknown operator %q", tokens[3].text)
	}

	if len(tokens) == 7 {
		if !strings.EqualFold(tokens[5].text, "LIMIT") || tokens[5].quoted {
			return nil, errf(ErrQuery, nil, "expected LIMIT, got %q", tokens[5].text)
		}
		limit, err := strconv.Atoi(tokens[6].text)
		if err != nil || limit < 0 {
			return nil, errf(ErrQuery, err, "invalid limit %q", tokens[6].text)
		}
		tq.Limit = limit
	}
	return tq, nil
}

// Numeric reports whether results are ordered numerically.
func (tq *TextQuery) Numeric() bool {
	_, ok := tq.Value.(int64)
	return ok
}

func (tq *TextQuery) run(q *Query) ([]string, error) {
	switch tq.Op {
	case "=":
		switch v := tq.Value.(type) {
		case string:
			return q.WhereEqualString(tq.What, v, false)
		case int64:
			return q.WhereEqual(tq.What, v)
		case bool:
			return q.WhereBoolean(tq.What, v)
		}
	case "<":
		return q.WhereSmaller(tq.What, tq.Value.(int64))
	case ">":
		return q.WhereGreater(tq.What, tq.Value.(int64))
	case "contains":
		switch v := tq.Value.(type) {
		case string:
			return q.WhereContains(tq.What, v)
		case int64:
			return q.WhereContains(tq.What, strconv.FormatInt(v, 10))
		case bool:
			return q.WhereContains(tq.What, strconv.FormatBool(v))
		}
	}
	panic("unreachable")
}

// FromQuery runs a textual query (see TextQuery) and returns Nodes on the
// matching children. The matches are cut to the limit first, in insertion
// order, and then sorted ascending by the queried field: numerically for
// integer comparisons, case-insensitively otherwise. Ties keep insertion
// order.
func (q *Query) FromQuery(expr string) ([]*Node, error) {
	tq, err := ParseTextQuery(expr)
	if err != nil {
		return nil, err
	}
	keys, err := tq.run(q)
	if err != nil {
		return nil, err
	}
	if tq.Limit > 0 && len(keys) > tq.Limit {
		keys = keys[:tq.Limit]
	}
	kp := must(ParseKeyPath(tq.What))

	type hit struct {
		node *Node
		num  int64
		str  string
	}
	n := q.node
	fold := cases.Fold()
	hits := make([]hit, 0, len(keys))
	n.db.mu.RLock()
	if err := n.check(); err != nil {
		n.db.mu.RUnlock()
		return nil, err
	}
	for _, key := range keys {
		child, ok := n.doc.Child(key)
		if !ok {
			continue
		}
		v, ok := kp.lookup(child)
		hits = append(hits, hit{
			node: n.at(child, n.childSegs(key)),
			num:  numberOr(v, ok, 0),
			str:  fold.String(stringOr(v, ok, "")),
		})
	}
	n.db.mu.RUnlock()

	numeric := tq.Numeric()
	slices.SortStableFunc(hits, func(a, b hit) int {
		if numeric {
			return cmp.Compare(a.num, b.num)
		}
		return strings.Compare(a.str, b.str)
	})

	nodes := make([]*Node, len(hits))
	for i, h := range hits {
		nodes[i] = h.node
	}
	return nodes, nil
}

// Keys is FromQuery returning child keys instead of Nodes.
func (q *Query) Keys(expr string) ([]string, error) {
	nodes, err := q.FromQuery(expr)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(nodes))
	for i, node := range nodes {
		keys[i] = node.Name()
	}
	return keys, nil
}
