package treedb

import (
	"slices"
	"strings"
	"testing"
)

func TestNode_Select(t *testing.T) {
	db := setup(t)
	users := must(db.Node("users"))
	for i, age := range []int{20, 30, 40} {
		u := must(users.Child("u" + string(rune('1'+i))))
		ensure(u.Put("age", age))
		ensure(u.Put("tags", []string{"t"}))
	}
	ensure(must(users.Child("u1")).Put("score", 2.5))

	ages := must(db.Root().Select("$.users.*.age"))
	var got []string
	for _, v := range ages {
		got = append(got, v.String())
	}
	slices.Sort(got)
	deepEqual(t, got, []string{"20", "30", "40"})

	old := must(users.Select("$[?@.age > 25]"))
	deepEqual(t, len(old), 2)
	for _, v := range old {
		if _, ok := v.Doc(); !ok {
			t.Errorf("** filter result %v is not a document", v)
		}
	}

	score := must(users.Select("$.u1.score"))
	if len(score) != 1 || !score[0].Equal(FloatValue(2.5)) {
		t.Errorf("** score = %v", score)
	}

	tags := must(users.Select("$.u2.tags"))
	if len(tags) != 1 || !tags[0].Equal(StringListValue([]string{"t"})) {
		t.Errorf("** tags = %v", tags)
	}

	isempty(t, must(users.Select("$.nobody")))
}

func TestNode_SelectErrors(t *testing.T) {
	db := setup(t)
	_, err := db.Root().Select("$[")
	isErr(t, err, ErrQuery)

	n := must(db.Node("gone"))
	must(db.Root().Delete("gone"))
	_, err = n.Select("$")
	isErr(t, err, ErrDeleted)
}

func TestDump(t *testing.T) {
	db := setupTree(t)
	a := db.Dump(DumpValues)
	e := strings.Join([]string{
		"/a.x = 1",
		"/b.y = 2",
		`/b.label = "bee"`,
		"/b/c.z = 3",
		"",
	}, "\n")
	deepEqual(t, a, e)

	a = must(db.Node("a")).Dump(DumpStats)
	deepEqual(t, a, "/a: documents = 1, values = 1\n")

	a = db.Dump(DumpAll)
	if !strings.Contains(a, "/ (file:") || !strings.Contains(a, "/: documents = 4, values = 4") {
		t.Errorf("** Dump(DumpAll) =\n%s", a)
	}

	empty := setup(t)
	deepEqual(t, empty.Dump(DumpValues), "/ = {}\n")
}
