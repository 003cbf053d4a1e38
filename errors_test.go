package treedb

import (
	"errors"
	"strings"
	"testing"
)

func TestError_ErrorAndUnwrap(t *testing.T) {
	t.Run("node error", func(t *testing.T) {
		inner := errors.New("inner")
		err := nodeErrf(ErrInvalidType, "/users/u1", "age", inner, "holds %v", String)
		var e *Error
		if !errors.As(err, &e) {
			t.Fatalf("err = %T, wanted *Error", err)
		}
		if !errors.Is(err, ErrInvalidType) {
			t.Fatalf("errors.Is(err, ErrInvalidType) = false, wanted true")
		}
		if errors.Is(err, ErrNodeNotFound) {
			t.Fatalf("errors.Is(err, ErrNodeNotFound) = true, wanted false")
		}
		if !errors.Is(err, inner) {
			t.Fatalf("errors.Is(err, inner) = false, wanted true")
		}
		if s, e := err.Error(), "invalid type at /users/u1[age]: holds string: inner"; s != e {
			t.Fatalf("err.Error() = %q, wanted %q", s, e)
		}
	})

	t.Run("root", func(t *testing.T) {
		err := nodeErrf(ErrPrecondition, "", "", nil, "cannot remove the root")
		if s, e := err.Error(), "precondition failed: cannot remove the root"; s != e {
			t.Fatalf("err.Error() = %q, wanted %q", s, e)
		}
		err = nodeErrf(ErrPrecondition, "", "k", nil, "")
		if s, e := err.Error(), "precondition failed at /[k]"; s != e {
			t.Fatalf("err.Error() = %q, wanted %q", s, e)
		}
	})

	t.Run("wrapped reason", func(t *testing.T) {
		err := errf(ErrDatabaseCorrupted, ErrStorageClosed, "commit after close")
		if !errors.Is(err, ErrDatabaseCorrupted) || !errors.Is(err, ErrStorageClosed) {
			t.Fatalf("err = %v, wanted both reasons to match", err)
		}
		if !strings.HasPrefix(err.Error(), "database corrupted: ") {
			t.Fatalf("err.Error() = %q", err.Error())
		}
	})
}

func TestError_PutFillsLocation(t *testing.T) {
	db := setup(t)
	err := must(db.Node("a")).Put("list", []any{"x", 1})
	var e *Error
	if !errors.As(err, &e) || e.Path != "/a" || e.Key != "list" {
		t.Fatalf("Put error = %#v, wanted location /a[list]", err)
	}
}
