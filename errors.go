////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package nixio

// errors.go holds the error convention every operation reports through. A
// failure is one of three things: a transient condition the caller may retry
// (would block), a hard native failure carrying an errno, or a bad argument
// that never reached the kernel.

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const (
	errInvalidHandle = "invalid file descriptor"
	errBadWhence     = "supported values: set, cur, end"
	errNegativeSize  = "non-negative size expected"
)

// ErrInvalidHandle is the argument error returned by every operation on a
// closed File.
var ErrInvalidHandle = &ArgError{Arg: 1, Msg: errInvalidHandle}

// Outcome classifies the result of an operation.
type Outcome int

const (
	// Success means the operation produced a value.
	Success Outcome = iota
	// WouldBlock means the native call reported EAGAIN or EWOULDBLOCK.
	WouldBlock
	// Failure means the native call failed for any other reason.
	Failure
	// BadArgument means the call was rejected before touching the file.
	BadArgument
)

// String returns a human readable name for the Outcome.
func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case WouldBlock:
		return "would block"
	case Failure:
		return "failure"
	case BadArgument:
		return "bad argument"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Error is a native failure. Errno is captured right after the failing call.
type Error struct {
	Op    string
	Path  string
	Errno unix.Errno
}

func (e *Error) Error() string {
	return fmt.Sprintf("nixio: %s %s: %s", e.Op, e.Path, e.Errno.Error())
}

// Unwrap returns the errno so errors.Is(err, unix.ENOENT) works.
func (e *Error) Unwrap() error {
	return e.Errno
}

// Temporary reports whether the operation may succeed if retried later.
func (e *Error) Temporary() bool {
	return isTransient(e.Errno)
}

// ArgError is a validation failure. Arg is the 1-based position of the
// offending argument, counting the handle itself as argument 1.
type ArgError struct {
	Arg int
	Msg string
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("nixio: bad argument #%d (%s)", e.Arg, e.Msg)
}

// Classify maps an error returned by this package onto an Outcome.
func Classify(err error) Outcome {
	if err == nil {
		return Success
	}
	var argErr *ArgError
	if errors.As(err, &argErr) {
		return BadArgument
	}
	if isTransient(Errno(err)) {
		return WouldBlock
	}
	return Failure
}

// Errno extracts the native error code carried by err. It returns 0 for nil,
// io.EOF and argument errors, and EIO for anything else without a code.
func Errno(err error) unix.Errno {
	if err == nil || errors.Cause(err) == io.EOF {
		return 0
	}
	var argErr *ArgError
	if errors.As(err, &argErr) {
		return 0
	}
	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return unix.EIO
}

// Strerror returns the message for a native error code.
func Strerror(code int) string {
	return unix.Errno(code).Error()
}

// Result is the tagged form of an operation's outcome, for embedders that
// want to switch on the kind of failure rather than inspect errors.
type Result[T any] struct {
	Value   T
	Outcome Outcome
	Code    unix.Errno
	Message string
}

// ResultOf builds a Result from a value and the error returned alongside it.
func ResultOf[T any](value T, err error) Result[T] {
	r := Result[T]{Outcome: Classify(err)}
	switch r.Outcome {
	case Success:
		r.Value = value
	case BadArgument:
		var argErr *ArgError
		errors.As(err, &argErr)
		r.Message = argErr.Msg
	default:
		r.Code = Errno(err)
		r.Message = r.Code.Error()
		// No native call failed for these; report them by name.
		if cause := errors.Cause(err); cause == io.EOF ||
			cause == io.ErrShortWrite {
			r.Message = cause.Error()
		}
	}
	return r
}

func isTransient(errno unix.Errno) bool {
	return errno == unix.EAGAIN || errno == unix.EWOULDBLOCK
}

func isInterrupted(err error) bool {
	var errno unix.Errno
	return errors.As(err, &errno) && errno == unix.EINTR
}

// nativeError captures err as an *Error. The errno is taken from err itself,
// never from ambient state.
func nativeError(op, path string, err error) error {
	return errors.WithStack(&Error{Op: op, Path: path, Errno: Errno(err)})
}
