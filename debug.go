package treedb

import (
	"fmt"
	"strings"
)

type DumpFlags uint64

const (
	DumpHeader = DumpFlags(1 << iota)
	DumpValues
	DumpStats

	DumpAll = DumpFlags(0xFFFFFFFFFFFFFFFF)
)

var dumpSep = strings.Repeat("=", 80)

func (f DumpFlags) Contains(v DumpFlags) bool {
	return (f & v) == v
}

// Dump renders the sub-tree of n as one line per value, like
//
//	/users/u1.age = 20
//
// for diagnostics and tests.
func (n *Node) Dump(f DumpFlags) string {
	var buf strings.Builder
	n.db.mu.RLock()
	defer n.db.mu.RUnlock()
	if err := n.check(); err != nil {
		return fmt.Sprintf("** %v\n", err)
	}

	if f.Contains(DumpHeader) {
		fmt.Fprintln(&buf, dumpSep)
		fmt.Fprintln(&buf, rpad(fmt.Sprintf("%s (%s, %v) ", displayPath(n.Path()), n.db.st.String(), n.db.format), 80, '-'))
	}
	var docs, values int
	dumpDoc(&buf, f, n.Path(), n.doc, &docs, &values)
	if f.Contains(DumpStats) {
		fmt.Fprintf(&buf, "%s: documents = %d, values = %d\n", displayPath(n.Path()), docs, values)
	}
	return buf.String()
}

func (db *DB) Dump(f DumpFlags) string {
	return db.Root().Dump(f)
}

func dumpDoc(w *strings.Builder, f DumpFlags, path string, doc *Document, docs, values *int) {
	*docs++
	if doc.Len() == 0 && f.Contains(DumpValues) {
		fmt.Fprintf(w, "%s = {}\n", displayPath(path))
	}
	doc.Range(func(k string, v Value) bool {
		if sub, ok := v.Doc(); ok {
			dumpDoc(w, f, path+"/"+k, sub, docs, values)
			return true
		}
		*values++
		if f.Contains(DumpValues) {
			fmt.Fprintf(w, "%s.%s = %v\n", displayPath(path), k, v)
		}
		return true
	})
}

func displayPath(path string) string {
	if path == "" {
		return "/"
	}
	return path
}
