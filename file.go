////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package nixio

import (
	"fmt"
	"io"
	"math"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/nixio/portable"
	"golang.org/x/sys/unix"
)

type state int32

const (
	stateOpen state = iota
	stateClosed
)

// File is a handle on one open stream. Every method fails with
// ErrInvalidHandle once the File is closed; the stream is never touched
// again after that.
//
// NOTE: calls on one File are serialised by its mutex so the finalizer
// goroutine cannot race a host call, but no ordering exists between Files.
type File struct {
	name   string
	stream portable.File
	state  state

	// scratch backs Read. It only grows, to twice the size that outgrew it.
	scratch []byte

	mux sync.Mutex
}

// Name returns the path the File was opened with.
func (f *File) Name() string {
	return f.name
}

// Read reads up to n bytes. It keeps reading until n bytes arrived, the
// stream reports end of file, or a read fails with anything other than
// EINTR. If nothing at all was read, Read returns io.EOF or the native
// error; read failures after some bytes arrived are dropped in favour of the
// data. Read(0) always returns io.EOF. A size the scratch buffer cannot grow
// to fails with ENOMEM.
func (f *File) Read(n int) ([]byte, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	if f.state != stateOpen {
		return nil, ErrInvalidHandle
	}
	if n < 0 {
		return nil, &ArgError{Arg: 2, Msg: errNegativeSize}
	}

	if n > len(f.scratch) {
		if n > math.MaxInt/2 {
			return nil, nativeError("read", f.name, unix.ENOMEM)
		}
		f.scratch = make([]byte, 2*n)
	}
	buf := f.scratch[:n]

	var got int
	var readErr error
	for got < n {
		c, err := f.stream.Read(buf[got:])
		if c > 0 {
			got += c
		}
		if err != nil {
			if isInterrupted(err) {
				jww.TRACE.Printf("read %s interrupted after %d bytes, "+
					"retrying", f.name, got)
				continue
			}
			readErr = err
			break
		}
		if c <= 0 {
			break
		}
	}

	if got <= 0 {
		if readErr == nil || readErr == io.EOF {
			return nil, io.EOF
		}
		return nil, nativeError("read", f.name, readErr)
	}

	out := make([]byte, got)
	copy(out, buf[:got])
	return out, nil
}

// Write writes all of data, retrying on EINTR and short writes. It returns
// the number of bytes the stream accepted; if that is less than len(data)
// the error says why.
func (f *File) Write(data []byte) (int, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	if f.state != stateOpen {
		return 0, ErrInvalidHandle
	}

	var sent int
	for sent < len(data) {
		c, err := f.stream.Write(data[sent:])
		if c > 0 {
			sent += c
		}
		if err != nil {
			if isInterrupted(err) {
				jww.TRACE.Printf("write %s interrupted after %d bytes, "+
					"retrying", f.name, sent)
				continue
			}
			return sent, nativeError("write", f.name, err)
		}
		if c <= 0 {
			return sent, errors.WithStack(io.ErrShortWrite)
		}
	}
	return sent, nil
}

// Seek moves the offset according to whence ("set", "cur" or "end") and
// returns the new absolute position as reported by Tell. An unknown whence
// is an ArgError and leaves the offset untouched.
func (f *File) Seek(whence string, offset int64) (int64, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	if f.state != stateOpen {
		return 0, ErrInvalidHandle
	}
	w, ok := parseWhence(whence)
	if !ok {
		return 0, &ArgError{Arg: 2, Msg: errBadWhence}
	}

	var err error
	for {
		_, err = f.stream.Seek(offset, w)
		if !isInterrupted(err) {
			break
		}
	}
	if err != nil {
		return 0, nativeError("seek", f.name, err)
	}
	return f.tell()
}

// Tell returns the current absolute offset.
func (f *File) Tell() (int64, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	if f.state != stateOpen {
		return 0, ErrInvalidHandle
	}
	return f.tell()
}

func (f *File) tell() (int64, error) {
	var pos int64
	var err error
	for {
		pos, err = f.stream.Seek(0, io.SeekCurrent)
		if !isInterrupted(err) {
			break
		}
	}
	if err != nil {
		return 0, nativeError("tell", f.name, err)
	}
	if pos < 0 {
		return 0, nativeError("tell", f.name, errors.Errorf(
			"negative offset %d", pos))
	}
	return pos, nil
}

// Close releases the stream. Closing a closed File does nothing and returns
// nil. The error, if any, is the stream's own close error; the File is
// closed regardless.
func (f *File) Close() error {
	released, err := f.release()
	runtime.SetFinalizer(f, nil)
	if released {
		jww.DEBUG.Printf("Closed %s", f.name)
	}
	if err != nil {
		return nativeError("close", f.name, err)
	}
	return nil
}

// Closed reports whether the File has been released.
func (f *File) Closed() bool {
	f.mux.Lock()
	defer f.mux.Unlock()
	return f.state == stateClosed
}

// String returns a debug representation embedding the descriptor, or the
// stream's address for backends without one.
func (f *File) String() string {
	f.mux.Lock()
	defer f.mux.Unlock()

	if f.state != stateOpen {
		return "nixio file (closed)"
	}
	if d, ok := f.stream.(portable.Descriptor); ok {
		return fmt.Sprintf("nixio file %d", d.Fd())
	}
	return fmt.Sprintf("nixio file %p", f.stream)
}

// release performs the one physical close of the stream. It reports whether
// this call was the one that did it.
func (f *File) release() (bool, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	if f.state != stateOpen {
		return false, nil
	}
	f.state = stateClosed
	stream := f.stream
	f.stream = nil
	f.scratch = nil
	return true, stream.Close()
}

// finalizeFile is run by the garbage collector on Files nobody closed.
func finalizeFile(f *File) {
	released, err := f.release()
	if !released {
		return
	}
	if err != nil {
		jww.WARN.Printf("Reclaimed unclosed file %s: %+v", f.name,
			nativeError("close", f.name, err))
		return
	}
	jww.WARN.Printf("Reclaimed unclosed file %s", f.name)
}
