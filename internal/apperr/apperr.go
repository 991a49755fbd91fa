// Package apperr classifies failures surfaced by stores and services so
// callers can branch on the kind of failure with errors.Is.
package apperr

import (
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Kind identifies a failure category.
type Kind int

const (
	KindTransport Kind = iota
	KindConflict
	KindPolicy
	KindUpload
	KindPersist
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindConflict:
		return "conflict"
	case KindPolicy:
		return "policy"
	case KindUpload:
		return "upload"
	case KindPersist:
		return "persist"
	case KindNotFound:
		return "not found"
	default:
		return "transport"
	}
}

// Error is a classified failure. Msg is the human-readable summary and Err
// is the underlying cause, if any.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for e's kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Msg == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrTransport = &Error{Kind: KindTransport}
	ErrConflict  = &Error{Kind: KindConflict}
	ErrPolicy    = &Error{Kind: KindPolicy}
	ErrUpload    = &Error{Kind: KindUpload}
	ErrPersist   = &Error{Kind: KindPersist}
	ErrNotFound  = &Error{Kind: KindNotFound}
)

func Conflict(msg string, err error) error  { return &Error{Kind: KindConflict, Msg: msg, Err: err} }
func Policy(msg string) error               { return &Error{Kind: KindPolicy, Msg: msg} }
func Upload(msg string, err error) error    { return &Error{Kind: KindUpload, Msg: msg, Err: err} }
func Persist(msg string, err error) error   { return &Error{Kind: KindPersist, Msg: msg, Err: err} }
func NotFound(msg string) error             { return &Error{Kind: KindNotFound, Msg: msg} }
func Transport(msg string, err error) error { return &Error{Kind: KindTransport, Msg: msg, Err: err} }

// KindOf returns the kind of err. Unclassified errors are transport errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindTransport
}

// FromDB classifies a database error raised by op. Unique and primary key
// violations become conflicts, missing rows become not-found and anything
// else is a transport failure. Already classified errors pass through.
func FromDB(op string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &Error{Kind: KindNotFound, Msg: op, Err: err}
	}
	if IsUniqueViolation(err) {
		return &Error{Kind: KindConflict, Msg: op, Err: err}
	}
	return &Error{Kind: KindTransport, Msg: op, Err: err}
}

// IsUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY
// constraint failure.
func IsUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	code := se.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
