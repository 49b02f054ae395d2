////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package nixio wraps native file streams as handles an embedded scripting
// host can open, read, write, seek and close, with a uniform error
// convention and automatic reclamation of handles the host forgets to close.
package nixio

import (
	"runtime"

	jww "github.com/spf13/jwalterweatherman"
	"gitlab.com/elixxir/nixio/portable"
)

// DefaultCreatePerm is the permission, before umask, of files created by
// Open. It matches fopen(3).
const DefaultCreatePerm portable.FileMode = 0666

// FileSystem opens Files against a storage backend.
type FileSystem struct {
	storage portable.Storage
	perm    portable.FileMode
}

// NewFileSystem returns a FileSystem that opens files through storage.
func NewFileSystem(storage portable.Storage) *FileSystem {
	return &FileSystem{
		storage: storage,
		perm:    DefaultCreatePerm,
	}
}

// Default returns a FileSystem on the native posix backend.
func Default() *FileSystem {
	return NewFileSystem(portable.UsePosix())
}

// SetCreatePerm sets the permission used when Open creates a file.
func (fs *FileSystem) SetCreatePerm(perm portable.FileMode) {
	fs.perm = perm
}

// Open opens path with an fopen(3) style mode such as "r", "w+" or "ab".
// The returned File owns the stream until Close or until the garbage
// collector reclaims it.
func (fs *FileSystem) Open(path, mode string) (*File, error) {
	flag, err := parseMode(mode)
	if err != nil {
		return nil, nativeError("open", path, err)
	}

	var stream portable.File
	for {
		stream, err = fs.storage.OpenFile(path, flag, fs.perm)
		if !isInterrupted(err) {
			break
		}
		jww.TRACE.Printf("open %s interrupted, retrying", path)
	}
	if err != nil {
		return nil, nativeError("open", path, err)
	}

	f := &File{
		name:   path,
		stream: stream,
		state:  stateOpen,
	}
	runtime.SetFinalizer(f, finalizeFile)
	jww.DEBUG.Printf("Opened %s (mode %q) as %s", path, mode, f)
	return f, nil
}

// Open opens path on the native posix backend. See FileSystem.Open.
func Open(path, mode string) (*File, error) {
	return Default().Open(path, mode)
}
