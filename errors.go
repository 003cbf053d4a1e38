package treedb

import (
	"errors"
	"fmt"
	"strings"
)

// Reason sentinels. Every error returned by this package is an *Error that
// matches exactly one of these via errors.Is.
var (
	ErrNodeNotFound      = errors.New("node not found")
	ErrNodeCreation      = errors.New("cannot create node")
	ErrInvalidType       = errors.New("invalid type")
	ErrQuery             = errors.New("invalid query")
	ErrDatabaseCorrupted = errors.New("database corrupted")
	ErrDatabaseCreation  = errors.New("cannot create database")
	ErrUnknown           = errors.New("unknown error")
	ErrPrecondition      = errors.New("precondition failed")
	ErrDeleted           = errors.New("node deleted")
	ErrKeyNotFound       = errors.New("key not found")
)

type Error struct {
	Reason error
	Path   string
	Key    string
	Msg    string
	Err    error
}

func nodeErrf(reason error, path, key string, err error, format string, args ...any) error {
	return &Error{Reason: reason, Path: path, Key: key, Msg: fmt.Sprintf(format, args...), Err: err}
}

func errf(reason error, err error, format string, args ...any) error {
	return &Error{Reason: reason, Msg: fmt.Sprintf(format, args...), Err: err}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the reason of this error, which allows
// errors.Is(err, ErrInvalidType) while still unwrapping to the cause.
func (e *Error) Is(target error) bool {
	return e.Reason == target
}

func (e *Error) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Reason.Error())
	if e.Path != "" || e.Key != "" {
		buf.WriteString(" at ")
		if e.Path == "" {
			buf.WriteByte('/')
		} else {
			buf.WriteString(e.Path)
		}
		if e.Key != "" {
			buf.WriteByte('[')
			buf.WriteString(e.Key)
			buf.WriteByte(']')
		}
	}
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
	}
	if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
