package volume

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/andreyvit/treedb/internal/boltdb"
)

type book struct {
	Shelf string
	ID    string
	Title string
	Pages int
	Tags  map[string]bool
}

func (b *book) ObjectVolume() string { return b.Shelf }
func (b *book) ObjectKey() string    { return b.ID }

func TestStore_PutGet(t *testing.T) {
	s := setup(t)
	in := &book{Shelf: "fiction", ID: "b1", Title: "Dune", Pages: 412, Tags: map[string]bool{"sf": true}}
	must(s.Put(in))

	out, err := Get[book](s, "fiction", "b1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	deepEqual(t, out, in)

	_, err = Get[book](s, "fiction", "nope")
	isErr(t, err, ErrObjectNotFound)
	_, err = Get[book](s, "poetry", "b1")
	isErr(t, err, ErrVolumeNotFound)
}

func TestStore_Volumes(t *testing.T) {
	s := setup(t)
	must(s.CreateVolume("b"))
	must(s.CreateVolume("b"))
	must(s.Put(&book{Shelf: "a", ID: "1"}))
	deepEqual(t, ok(s.Volumes()), []string{"a", "b"})

	must(s.DeleteVolume("a"))
	deepEqual(t, ok(s.Volumes()), []string{"b"})
	isErr(t, s.DeleteVolume("a"), ErrVolumeNotFound)
	isErr(t, s.CreateVolume(""), ErrInvalidName)
	isErr(t, s.Put(&book{Shelf: "a"}), ErrInvalidName)
}

func TestStore_ReplaceDelete(t *testing.T) {
	s := setup(t)
	isErr(t, s.Replace(&book{Shelf: "f", ID: "1"}), ErrVolumeNotFound)
	must(s.Put(&book{Shelf: "f", ID: "1", Title: "old"}))
	isErr(t, s.Replace(&book{Shelf: "f", ID: "2"}), ErrObjectNotFound)
	must(s.Replace(&book{Shelf: "f", ID: "1", Title: "new"}))
	deepEqual(t, ok(Get[book](s, "f", "1")).Title, "new")

	must(s.Delete("f", "1"))
	isErr(t, s.Delete("f", "1"), ErrObjectNotFound)
	isErr(t, s.Delete("g", "1"), ErrVolumeNotFound)
}

func TestStore_AllQuery(t *testing.T) {
	s := setup(t)
	for _, b := range []*book{
		{Shelf: "f", ID: "c", Pages: 300},
		{Shelf: "f", ID: "a", Pages: 100},
		{Shelf: "f", ID: "b", Pages: 200},
	} {
		must(s.Put(b))
	}
	deepEqual(t, ok(s.Keys("f")), []string{"a", "b", "c"})

	all := ok(All[book](s, "f"))
	deepEqual(t, ids(all), []string{"a", "b", "c"})

	long := ok(Query(s, "f", func(b *book) bool { return b.Pages > 150 }))
	deepEqual(t, ids(long), []string{"b", "c"})

	_, err := All[book](s, "nope")
	isErr(t, err, ErrVolumeNotFound)
}

func TestUpdate(t *testing.T) {
	s := setup(t)
	must(s.Put(&book{Shelf: "f", ID: "1", Pages: 10}))

	must(Update(s, "f", "1", func(b *book) error {
		b.Pages++
		return nil
	}))
	deepEqual(t, ok(Get[book](s, "f", "1")).Pages, 11)

	boom := errors.New("boom")
	err := Update(s, "f", "1", func(b *book) error {
		b.Pages = 0
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update = %v, wanted boom", err)
	}
	deepEqual(t, ok(Get[book](s, "f", "1")).Pages, 11)

	must(Update(s, "f", "1", func(b *book) error {
		b.Shelf, b.ID = "archive", "x1"
		return nil
	}))
	_, err = Get[book](s, "f", "1")
	isErr(t, err, ErrObjectNotFound)
	deepEqual(t, ok(Get[book](s, "archive", "x1")).Pages, 11)

	isErr(t, Update(s, "f", "1", func(*book) error { return nil }), ErrObjectNotFound)
}

func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "volumes.bolt")
	s := ok(Open(path, Options{Bolt: boltdb.Options{IsTesting: true}}))
	must(s.Put(&book{Shelf: "f", ID: "1", Title: "kept"}))
	must(s.Close())

	s = ok(Open(path, Options{Bolt: boltdb.Options{IsTesting: true}}))
	defer s.Close()
	deepEqual(t, ok(Get[book](s, "f", "1")).Title, "kept")
}

func setup(t testing.TB) *Store {
	s, err := Open(filepath.Join(t.TempDir(), "volumes.bolt"), Options{
		Bolt:    boltdb.Options{IsTesting: true},
		Verbose: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ids(books []*book) []string {
	var r []string
	for _, b := range books {
		r = append(r, b.ID)
	}
	return r
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

func ok[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func isErr(t testing.TB, err, target error) {
	if !errors.Is(err, target) {
		t.Helper()
		t.Errorf("** got error %v, wanted %v", err, target)
	}
}
