package core

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResult is returned when nothing survived exclusion.
	ErrEmptyResult = errors.New("nothing to pack: every input was excluded or empty")
	// ErrWriterClosed is returned when a finalized or aborted writer is used.
	ErrWriterClosed = errors.New("archive writer already closed")
	// ErrUnsupportedType marks inputs that are neither regular files nor directories.
	ErrUnsupportedType = errors.New("not a regular file or directory")
)

// PathError reports an input path that does not exist or cannot be read.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("input %s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// IOError reports a failure on the archive destination.
type IOError struct {
	Op   string // create, write, finalize, stat
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s archive %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
