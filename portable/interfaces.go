////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package portable contains the storage backends nixio handles are opened
// against. The posix backend talks to the kernel directly; the others let an
// embedder sandbox scripts inside a go-billy filesystem or a key-value store.
//
// Note to those implementing these interfaces: every error returned from a
// File or Storage method that reflects a native condition must unwrap to a
// unix.Errno (see ToErrno), with io.EOF as the only exception for Read.
package portable

import (
	"os"
)

// FileMode is the permission used when OpenFile creates a file.
type FileMode uint32

// File represents one open stream. It contains the subset of the methods on
// os.File that nixio drives.
type File interface {
	// Name returns the name of the file as presented to OpenFile.
	Name() string

	// Read reads up to len(b) bytes from the File and stores them in b.
	// It returns the number of bytes read and any error encountered.
	// At end of file, Read returns 0, io.EOF. A call interrupted by a
	// signal returns unix.EINTR and may be retried.
	Read(b []byte) (n int, err error)

	// Write writes up to len(b) bytes from b to the File. A short count is
	// not an error in itself; the caller retries with the remainder.
	Write(b []byte) (n int, err error)

	// Seek sets the offset for the next Read or Write on file to offset,
	// interpreted according to whence: io.SeekStart, io.SeekCurrent or
	// io.SeekEnd. It returns the new offset and an error, if any.
	Seek(offset int64, whence int) (ret int64, err error)

	// Close releases the stream. Calling Close twice is undefined; nixio
	// guarantees it never does.
	Close() error
}

// Descriptor is implemented by files backed by a kernel file descriptor.
type Descriptor interface {
	Fd() uintptr
}

// Storage opens files. Flags are the os.O_* (equivalently unix.O_*) open
// flags.
type Storage interface {
	OpenFile(name string, flag int, perm FileMode) (File, error)
}

// osMode converts a FileMode to the os package representation.
func osMode(perm FileMode) os.FileMode {
	return os.FileMode(perm) & os.ModePerm
}
