package sandbox

import (
	"errors"
	"fmt"

	"appforge/internal/security"
)

var (
	// ErrAccessDenied is returned when a path escapes the confinement root.
	ErrAccessDenied = security.ErrAccessDenied
	// ErrNotFound is returned when the target file or directory does not exist.
	ErrNotFound = errors.New("not found")
	// ErrWrongType is returned when the target exists but is the wrong kind of entry.
	ErrWrongType = errors.New("wrong entry type")
	// ErrInvalidArgument is returned for malformed tool input.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyExists is returned by Mkdir when ExistOK is false.
	ErrAlreadyExists = errors.New("already exists")
	// ErrMissingParent is returned by Mkdir when Parents is false and an ancestor is absent.
	ErrMissingParent = errors.New("missing parent directory")
)

// PathError records the operation and path that failed.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

func pathErr(op, path string, err error) error {
	return &PathError{Op: op, Path: path, Err: err}
}
