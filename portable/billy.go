////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package portable

import (
	"io"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"golang.org/x/sys/unix"
)

// billyStorage is a Storage implementation on top of a go-billy filesystem.
type billyStorage struct {
	fs billy.Filesystem
}

// UseBilly returns a Storage implementation that opens files inside the given
// go-billy filesystem. Errors are translated to errno values with ToErrno.
func UseBilly(fs billy.Filesystem) Storage {
	return &billyStorage{fs: fs}
}

// UseMemory returns a Storage implementation backed by a fresh in-memory
// go-billy filesystem. Nothing it writes survives the process.
func UseMemory() Storage {
	return UseBilly(memfs.New())
}

// OpenFile opens the named file in the wrapped filesystem.
func (s *billyStorage) OpenFile(name string, flag int, perm FileMode) (File, error) {
	f, err := s.fs.OpenFile(name, flag, osMode(perm))
	if err != nil {
		return nil, ToErrno(err)
	}
	return &billyFile{file: f}, nil
}

// billyFile adapts a billy.File to File.
type billyFile struct {
	file billy.File
}

// Name returns the name of the file as presented to OpenFile.
func (f *billyFile) Name() string {
	return f.file.Name()
}

// Read reads from the wrapped file.
func (f *billyFile) Read(b []byte) (int, error) {
	n, err := f.file.Read(b)
	if err == io.EOF && n > 0 {
		// The next call reports EOF on its own.
		err = nil
	}
	return n, ToErrno(err)
}

// Write writes to the wrapped file.
func (f *billyFile) Write(b []byte) (int, error) {
	n, err := f.file.Write(b)
	return n, ToErrno(err)
}

// Seek moves the wrapped file's offset.
func (f *billyFile) Seek(offset int64, whence int) (int64, error) {
	pos, err := f.file.Seek(offset, whence)
	if err == nil && pos < 0 {
		return 0, unix.EINVAL
	}
	return pos, ToErrno(err)
}

// Close closes the wrapped file.
func (f *billyFile) Close() error {
	return ToErrno(f.file.Close())
}
