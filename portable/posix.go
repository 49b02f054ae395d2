////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package portable

import (
	"io"

	"golang.org/x/sys/unix"
)

// posix is a Storage implementation that issues raw system calls on file
// descriptors. Nothing is buffered in user space.
type posix struct{}

// UsePosix returns a Storage implementation that uses the kernel's open(2),
// read(2), write(2), lseek(2) and close(2) directly.
func UsePosix() Storage {
	return &posix{}
}

// OpenFile opens the named file with the given open(2) flags. The descriptor
// is always opened close-on-exec. An EINTR from the kernel is returned as is.
func (p *posix) OpenFile(name string, flag int, perm FileMode) (File, error) {
	fd, err := unix.Open(name, flag|unix.O_CLOEXEC, uint32(perm))
	if err != nil {
		return nil, err
	}
	return &posixFile{fd: fd, name: name}, nil
}

// posixFile is a File over a raw file descriptor.
type posixFile struct {
	fd   int
	name string
}

// Name returns the name of the file as presented to OpenFile.
func (f *posixFile) Name() string {
	return f.name
}

// Fd returns the underlying descriptor.
func (f *posixFile) Fd() uintptr {
	return uintptr(f.fd)
}

// Read issues a single read(2).
func (f *posixFile) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}
	n, err := unix.Read(f.fd, b)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

// Write issues a single write(2).
func (f *posixFile) Write(b []byte) (int, error) {
	n, err := unix.Write(f.fd, b)
	if n < 0 {
		n = 0
	}
	return n, err
}

// Seek issues lseek(2). The io.Seek* constants match SEEK_SET, SEEK_CUR and
// SEEK_END.
func (f *posixFile) Seek(offset int64, whence int) (int64, error) {
	return unix.Seek(f.fd, offset, whence)
}

// Close issues close(2). It is not retried on EINTR: on Linux the descriptor
// is already gone by then.
func (f *posixFile) Close() error {
	return unix.Close(f.fd)
}
