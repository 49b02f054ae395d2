////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package portable

import (
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/sys/unix"
)

// GenericKeyValue is a simple key-value storage interface that can be used
// to back the Storage interface. Each key holds the full contents of one
// file.
type GenericKeyValue interface {
	// Get retrieves the value for the given key.
	// Returns an error if the key does not exist.
	Get(key string) ([]byte, error)

	// Set stores the value for the given key.
	Set(key string, value []byte) error
}

// maxValueSize bounds the length of a single value; writes that would grow
// a file past it fail with EFBIG.
const maxValueSize = 1 << 30

// kv is a Storage implementation that wraps a GenericKeyValue interface.
type kv struct {
	storage GenericKeyValue
}

// UseKeyValue returns a Storage implementation that uses the provided
// GenericKeyValue interface as its backing store.
func UseKeyValue(storage GenericKeyValue) Storage {
	return &kv{storage: storage}
}

// OpenFile opens the named key. The usual open(2) flag semantics apply:
// O_CREAT creates a missing key, O_EXCL refuses an existing one, O_TRUNC
// empties it and O_APPEND forces every write to the end.
func (k *kv) OpenFile(name string, flag int, perm FileMode) (File, error) {
	value, err := k.storage.Get(name)
	exists := err == nil
	if err != nil && !isNotExist(err) {
		return nil, ToErrno(err)
	}

	switch {
	case !exists && flag&os.O_CREATE == 0:
		return nil, unix.ENOENT
	case exists && flag&os.O_CREATE != 0 && flag&os.O_EXCL != 0:
		return nil, unix.EEXIST
	}

	f := &kvFile{
		keyName: name,
		data:    value,
		storage: k.storage,
		flag:    flag,
	}
	if !exists || (flag&os.O_TRUNC != 0 && f.writable()) {
		f.data = nil
		if err = k.storage.Set(name, []byte{}); err != nil {
			return nil, ToErrno(err)
		}
	}
	return f, nil
}

// isNotExist reports whether a backing store error means the key is absent.
func isNotExist(err error) bool {
	return os.IsNotExist(err) ||
		strings.Contains(err.Error(), "not exist") ||
		strings.Contains(err.Error(), "not found")
}

// kvFile represents a File for a key-value pair in a GenericKeyValue store.
// The contents are held in memory and written through on every Write.
type kvFile struct {
	keyName string
	data    []byte
	offset  int64
	flag    int
	storage GenericKeyValue
	mux     sync.Mutex
}

func (f *kvFile) readable() bool {
	return f.flag&(os.O_WRONLY|os.O_RDWR) != os.O_WRONLY
}

func (f *kvFile) writable() bool {
	return f.flag&(os.O_WRONLY|os.O_RDWR) != 0
}

// Name returns the name of the file as presented to OpenFile.
func (f *kvFile) Name() string {
	return f.keyName
}

// Read reads up to len(b) bytes from the current offset.
// At end of file, Read returns 0, io.EOF.
func (f *kvFile) Read(b []byte) (int, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	if !f.readable() {
		return 0, unix.EBADF
	}
	if len(b) == 0 {
		return 0, nil
	}
	if f.offset >= int64(len(f.data)) {
		return 0, io.EOF
	}
	n := copy(b, f.data[f.offset:])
	f.offset += int64(n)
	return n, nil
}

// Write writes b at the current offset, growing the value with zero bytes
// if the offset lies past the end, and stores the result. The handle only
// sees the new contents once the store accepted them.
func (f *kvFile) Write(b []byte) (int, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	if !f.writable() {
		return 0, unix.EBADF
	}
	if f.flag&os.O_APPEND != 0 {
		f.offset = int64(len(f.data))
	}

	end := f.offset + int64(len(b))
	if end < f.offset || end > maxValueSize {
		return 0, unix.EFBIG
	}

	// Build into a fresh slice: f.data may be shared with the store, and it
	// must keep the old contents if Set fails.
	size := int64(len(f.data))
	if end > size {
		size = end
	}
	data := make([]byte, size)
	copy(data, f.data)
	copy(data[f.offset:end], b)

	if err := f.storage.Set(f.keyName, data); err != nil {
		return 0, ToErrno(err)
	}
	f.data = data
	f.offset = end
	return len(b), nil
}

// Seek sets the offset for the next Read or Write. Seeking past the end is
// allowed; seeking before the start is EINVAL.
func (f *kvFile) Seek(offset int64, whence int) (int64, error) {
	f.mux.Lock()
	defer f.mux.Unlock()

	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = f.offset
	case io.SeekEnd:
		base = int64(len(f.data))
	default:
		return 0, unix.EINVAL
	}
	pos := base + offset
	if pos < 0 {
		return 0, unix.EINVAL
	}
	f.offset = pos
	return pos, nil
}

// Close drops the in-memory copy. The store already holds every write.
func (f *kvFile) Close() error {
	f.mux.Lock()
	defer f.mux.Unlock()

	f.data = nil
	return nil
}
