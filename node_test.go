package treedb

import (
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"
)

func TestNode_Paths(t *testing.T) {
	db := setup(t)
	root := db.Root()
	if !root.IsRoot() || root.Path() != "" || root.Name() != "" {
		t.Fatalf("root = %q/%q, wanted empty", root.Path(), root.Name())
	}

	for _, path := range []string{"/users/u1", "users/u1"} {
		n := must(root.Child(path))
		if a := n.Path(); a != "/users/u1" {
			t.Errorf("** Child(%q).Path() = %q, wanted /users/u1", path, a)
		}
		if a := n.Name(); a != "u1" {
			t.Errorf("** Child(%q).Name() = %q, wanted u1", path, a)
		}
		deepEqual(t, n.Segments(), []string{"users", "u1"})
	}

	u := must(root.Child("users"))
	n := must(u.Child("u2/settings"))
	deepEqual(t, n.Path(), "/users/u2/settings")
}

func TestNode_ChildIsIdempotent(t *testing.T) {
	db := setup(t)
	a := must(db.Node("a/b"))
	ensure(a.Put("x", 1))
	b := must(db.Node("/a/b"))
	if got := b.GetNumber("x", 0); got != 1 {
		t.Fatalf("x = %d, wanted 1", got)
	}
	deepEqual(t, db.Root().Children(), []string{"a"})
	deepEqual(t, must(db.Node("a")).Children(), []string{"b"})
}

func TestNode_NestedChildMatchesPath(t *testing.T) {
	db := setup(t)
	root := db.Root()
	nested := must(must(root.Child("a")).Child("b"))
	direct := must(root.Child("a/b"))
	deepEqual(t, nested.Path(), direct.Path())

	ensure(nested.Put("x", 1))
	deepEqual(t, direct.GetNumber("x", 0), int64(1))
	ensure(direct.Put("y", "two"))
	deepEqual(t, nested.GetString("y", ""), "two")
	ensure(must(direct.Child("c")).Put("z", true))

	deepEqual(t, nested.Children(), []string{"x", "y", "c"})
	deepEqual(t, direct.Children(), nested.Children())
	deepEqual(t, must(nested.Child("c")).GetBoolean("z", false), true)
	deepEqual(t, root.Children(), []string{"a"})
	deepEqual(t, must(root.Child("a")).Children(), []string{"b"})
}

func TestNode_ChildErrors(t *testing.T) {
	db := setup(t)
	root := db.Root()
	ensure(root.Put("scalar", 5))

	for _, path := range []string{"", "/", "a//b", "a/"} {
		_, err := root.Child(path)
		isErr(t, err, ErrNodeCreation)
	}
	_, err := root.Child("scalar/x")
	isErr(t, err, ErrNodeCreation)
	_, err = root.Child("scalar")
	isErr(t, err, ErrNodeCreation)

	var e *Error
	if !errors.As(err, &e) || e.Key != "scalar" {
		t.Errorf("** error = %#v, wanted Key scalar", err)
	}
	if got := root.GetNumber("scalar", 0); got != 5 {
		t.Errorf("** scalar = %d after failed Child, wanted 5", got)
	}
}

func TestNode_Lookup(t *testing.T) {
	db := setup(t)
	root := db.Root()
	ensure(must(root.Child("a/b")).Put("x", 1))
	ensure(root.Put("s", "str"))

	n := must(root.Lookup("a/b"))
	deepEqual(t, n.Path(), "/a/b")

	_, err := root.Lookup("a/c")
	isErr(t, err, ErrNodeNotFound)
	_, err = root.Lookup("s")
	isErr(t, err, ErrInvalidType)
	deepEqual(t, must(root.Child("a")).Children(), []string{"b"})
}

func TestNode_Parent(t *testing.T) {
	db := setup(t)
	n := must(db.Node("a/b/c"))
	p := must(n.Parent())
	deepEqual(t, p.Path(), "/a/b")
	pp := must(must(p.Parent()).Parent())
	if !pp.IsRoot() {
		t.Fatalf("grandgrandparent = %q, wanted root", pp.Path())
	}
	_, err := pp.Parent()
	isErr(t, err, ErrNodeNotFound)
}

func TestNode_NewChild(t *testing.T) {
	db := setup(t)
	users := must(db.Node("users"))
	a := must(users.NewChild())
	b := must(users.NewChild())
	if a.Name() == b.Name() {
		t.Fatalf("NewChild returned the same key twice: %s", a.Name())
	}
	if id, err := uuid.Parse(a.Name()); err != nil || id.Version() != 7 {
		t.Errorf("** key %q is not a v7 UUID: %v", a.Name(), err)
	}
	deepEqual(t, users.Children(), []string{a.Name(), b.Name()})
}

func TestNode_Getters(t *testing.T) {
	db := setup(t)
	n := db.Root()
	ensure(n.Put("s", "text"))
	ensure(n.Put("empty", ""))
	ensure(n.Put("i", 42))
	ensure(n.Put("zero", 0))
	ensure(n.Put("f", 2.75))
	ensure(n.Put("numstr", "17"))
	ensure(n.Put("b", true))
	ensure(n.Put("bstr", "FALSE"))
	ensure(n.PutFloat("nan", math.NaN()))
	ensure(n.PutFloat("huge", 1e30))
	ensure(n.PutFloat("tiny", -1e30))
	ensure(n.Put("hugestr", "1e30"))

	tests := []struct {
		name string
		a, e any
	}{
		{"string", n.GetString("s", "def"), "text"},
		{"string missing", n.GetString("nope", "def"), "def"},
		{"string empty", n.GetString("empty", "def"), "def"},
		{"string of int", n.GetString("i", "def"), "def"},
		{"number", n.GetNumber("i", -1), int64(42)},
		{"number zero", n.GetNumber("zero", -1), int64(-1)},
		{"number float", n.GetNumber("f", -1), int64(2)},
		{"number string", n.GetNumber("numstr", -1), int64(17)},
		{"number of text", n.GetNumber("s", -1), int64(-1)},
		{"int zero", n.GetInt("zero", -1), int64(0)},
		{"int missing", n.GetInt("nope", -1), int64(-1)},
		{"bool", n.GetBoolean("b", false), true},
		{"bool string", n.GetBoolean("bstr", true), false},
		{"bool of int", n.GetBoolean("i", true), true},
		{"decimal", n.GetDecimal("f", 0), 2.75},
		{"decimal of int", n.GetDecimal("i", 0), 42.0},
		{"decimal missing", n.GetDecimal("nope", 1.5), 1.5},
		{"decimal nan", n.GetDecimal("nan", 1.5), 1.5},
		{"number nan", n.GetNumber("nan", -1), int64(-1)},
		{"number huge", n.GetNumber("huge", -1), int64(math.MaxInt64)},
		{"number tiny", n.GetNumber("tiny", -1), int64(math.MinInt64)},
		{"number huge string", n.GetNumber("hugestr", -1), int64(math.MaxInt64)},
		{"int huge", n.GetInt("huge", -1), int64(math.MaxInt64)},
	}
	for _, tt := range tests {
		if tt.a != tt.e {
			t.Errorf("** %s = %v, wanted %v", tt.name, tt.a, tt.e)
		}
	}
}

func TestNode_TryGetters(t *testing.T) {
	db := setup(t)
	n := db.Root()
	ensure(n.Put("s", "text"))
	ensure(n.Put("i", 3))

	if s, err := n.TryString("s"); err != nil || s != "text" {
		t.Errorf("** TryString = %q, %v", s, err)
	}
	if i, err := n.TryInt("i"); err != nil || i != 3 {
		t.Errorf("** TryInt = %d, %v", i, err)
	}
	if f, err := n.TryFloat("i"); err != nil || f != 3 {
		t.Errorf("** TryFloat = %v, %v", f, err)
	}
	_, err := n.TryString("i")
	isErr(t, err, ErrInvalidType)
	_, err = n.TryBool("nope")
	isErr(t, err, ErrNodeNotFound)
	_, err = n.TryFloat("s")
	isErr(t, err, ErrInvalidType)
}

func TestNode_Lists(t *testing.T) {
	db := setup(t)
	n := db.Root()
	ensure(n.Put("tags", []string{"a", "b"}))
	ensure(n.Put("nums", []int{1, 2}))

	deepEqual(t, must(n.GetListOfString("tags")), []string{"a", "b"})
	deepEqual(t, must(n.GetListOfNumber("nums")), []Number{IntNumber(1), IntNumber(2)})

	_, err := n.GetListOfString("nums")
	isErr(t, err, ErrInvalidType)
	_, err = n.GetListOfNumber("tags")
	isErr(t, err, ErrInvalidType)

	missing, err := n.GetListOfString("nope")
	if err != nil || missing != nil {
		t.Errorf("** GetListOfString(missing) = %v, %v", missing, err)
	}

	isErr(t, n.Put("empty", []string{}), ErrPrecondition)
	isErr(t, n.PutStrings("empty", nil), ErrPrecondition)
	isErr(t, n.Put("mixed", []any{"a", 1}), ErrInvalidType)
	if _, ok := n.Value("empty"); ok {
		t.Errorf("** failed Put stored a value")
	}
}

func TestNode_AddRemoveItem(t *testing.T) {
	db := setup(t)
	n := db.Root()

	ensure(n.AddItem("tags", "a"))
	ensure(n.AddItem("tags", "b"))
	deepEqual(t, must(n.GetListOfString("tags")), []string{"a", "b"})
	isErr(t, n.AddItem("tags", 1), ErrInvalidType)

	ensure(n.AddItem("nums", 1))
	ensure(n.AddItem("nums", 2.5))
	deepEqual(t, must(n.GetListOfNumber("nums")), []Number{IntNumber(1), FloatNumber(2.5)})
	isErr(t, n.AddItem("nums", "x"), ErrInvalidType)
	isErr(t, n.AddItem("nums", true), ErrInvalidType)

	ensure(n.RemoveItem("tags", 0))
	deepEqual(t, must(n.GetListOfString("tags")), []string{"b"})
	ensure(n.RemoveItem("tags", 0))
	deepEqual(t, must(n.GetListOfString("tags")), []string{})
	deepEqual(t, must(n.GetListOfNumber("tags")), []Number{})

	ensure(n.AddItem("tags", 5))
	deepEqual(t, must(n.GetListOfNumber("tags")), []Number{IntNumber(5)})

	isErr(t, n.RemoveItem("tags", 1), ErrPrecondition)
	isErr(t, n.RemoveItem("tags", -1), ErrPrecondition)
	isErr(t, n.RemoveItem("nope", 0), ErrNodeNotFound)
	ensure(n.Put("s", "x"))
	isErr(t, n.RemoveItem("s", 0), ErrInvalidType)
	isErr(t, n.AddItem("s", "y"), ErrInvalidType)
}

func TestNode_PutKeepsOrderAndReplaces(t *testing.T) {
	db := setup(t)
	n := db.Root()
	ensure(n.Put("a", 1))
	ensure(n.Put("b", 2))
	ensure(n.Put("a", "now a string"))
	deepEqual(t, n.Children(), []string{"a", "b"})
	deepEqual(t, n.GetString("a", ""), "now a string")
	isErr(t, n.Put("", 1), ErrPrecondition)
}

func TestNode_PutAll(t *testing.T) {
	db := setup(t)
	n := db.Root()
	ensure(n.PutAll(map[string]any{"z": 1, "a": "x", "m": true}))
	deepEqual(t, n.Children(), []string{"a", "m", "z"})
}

func TestNode_Data(t *testing.T) {
	db := setup(t)
	n := must(db.Node("u"))
	if d := n.Data(); d != nil {
		t.Fatalf("Data() of empty = %v, wanted nil", d)
	}
	ensure(n.Put("age", 20))
	must(n.Child("nested"))
	d := n.Data()
	if len(d) != 1 || !d["age"].Equal(IntValue(20)) {
		t.Fatalf("Data() = %v, wanted just age", d)
	}
}

type profile struct {
	Name  string   `json:"name"`
	Age   int      `json:"age"`
	Tags  []string `json:"tags,omitempty"`
	Admin bool     `json:"admin"`
}

func TestNode_Objects(t *testing.T) {
	db := setup(t)
	n := db.Root()
	in := profile{Name: "Ann", Age: 30, Tags: []string{"x"}, Admin: true}
	ensure(n.PutObject("p", in))

	sub := must(n.Lookup("p"))
	deepEqual(t, sub.Children(), []string{"name", "age", "tags", "admin"})
	deepEqual(t, sub.GetNumber("age", 0), int64(30))

	var out profile
	found, err := n.GetObject("p", &out)
	if err != nil || !found {
		t.Fatalf("GetObject = %v, %v", found, err)
	}
	deepEqual(t, out, in)

	found, err = n.GetObject("nope", &out)
	if err != nil || found {
		t.Errorf("** GetObject(missing) = %v, %v", found, err)
	}

	ensure(n.Put("s", "text"))
	_, err = n.GetObject("s", &out)
	isErr(t, err, ErrInvalidType)

	isErr(t, n.PutObject("bad", 42), ErrInvalidType)
}

func TestNode_Delete(t *testing.T) {
	db := setup(t)
	root := db.Root()
	ensure(root.Put("a", 1))
	u := must(root.Child("users/u1"))
	ensure(u.Put("age", 20))

	existed := must(root.Delete("a"))
	if !existed {
		t.Fatalf("Delete(a) = false, wanted true")
	}
	existed = must(root.Delete("a"))
	if existed {
		t.Fatalf("second Delete(a) = true, wanted false")
	}
	if db.Dirty() {
		t.Errorf("** Delete did not commit")
	}

	must(root.Delete("users"))
	isErr(t, u.Put("age", 21), ErrDeleted)
	_, err := u.Child("x")
	isErr(t, err, ErrDeleted)
	deepEqual(t, root.Children(), []string{})

	func() {
		defer func() {
			r := recover()
			err, _ := r.(error)
			if !errors.Is(err, ErrDeleted) {
				t.Errorf("** GetString on a deleted node panicked with %v, wanted ErrDeleted", r)
			}
		}()
		u.GetString("age", "")
	}()
}

func TestNode_Remove(t *testing.T) {
	db := setup(t)
	u1 := must(db.Node("users/u1"))
	u2 := must(db.Node("users/u2"))
	ensure(u1.Put("age", 20))
	ensure(u2.Put("age", 30))

	alias := must(db.Node("users/u1"))
	ensure(u1.Remove())
	isErr(t, u1.Remove(), ErrDeleted)
	isErr(t, alias.Put("age", 1), ErrDeleted)
	deepEqual(t, must(db.Node("users")).Children(), []string{"u2"})
	if db.Dirty() {
		t.Errorf("** Remove did not commit")
	}

	isErr(t, db.Root().Remove(), ErrPrecondition)

	// Recreating the path gives a fresh document; the old cursor stays dead.
	fresh := must(db.Node("users/u1"))
	isErr(t, alias.Put("age", 1), ErrDeleted)
	deepEqual(t, fresh.GetNumber("age", -1), int64(-1))
}

func TestNode_OverwriteDocumentKillsCursors(t *testing.T) {
	db := setup(t)
	sub := must(db.Node("a/b"))
	ensure(must(db.Node("a")).Put("b", "scalar now"))
	isErr(t, sub.Put("x", 1), ErrDeleted)
}

func TestNode_SharedTree(t *testing.T) {
	db := setup(t)
	a := must(db.Node("x"))
	b := must(db.Node("x"))
	ensure(a.Put("k", "v"))
	deepEqual(t, b.GetString("k", ""), "v")

	ensure(a.Commit())
	db2 := must(OpenFile(db.st.(*FileStorage).Path(), Options{}))
	defer db2.Close()
	deepEqual(t, must(db2.Node("x")).GetString("k", ""), "v")
}

func TestNode_Snapshot(t *testing.T) {
	db := setup(t)
	n := must(db.Node("x"))
	ensure(n.Put("k", 1))
	snap := n.Snapshot()
	ensure(n.Put("k", 2))
	if v, _ := snap.Get("k"); !v.Equal(IntValue(1)) {
		t.Errorf("** snapshot changed: k = %v", v)
	}
}
