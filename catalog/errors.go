package catalog

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("catalog file not found")
	ErrIO          = errors.New("cannot read catalog file")
	ErrParse       = errors.New("catalog file is not valid JSON")
	ErrSchema      = errors.New(`catalog file does not contain a "messages" array`)
	ErrPersist     = errors.New("cannot save catalog file")
	ErrLock        = errors.New("cannot lock catalog file")
	ErrDuplicateID = errors.New("duplicate message id")
)

// Error describes a failure to load or persist the catalog at Path.
// Kind is one of the package sentinel errors, Err the underlying cause.
type Error struct {
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Path, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
