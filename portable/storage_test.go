////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package portable

import (
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// memoryKV is a simple in-memory implementation of GenericKeyValue for
// testing.
type memoryKV struct {
	data map[string][]byte
	mux  sync.RWMutex
}

func newMemoryKV() *memoryKV {
	return &memoryKV{
		data: make(map[string][]byte),
	}
}

func (m *memoryKV) Get(key string) ([]byte, error) {
	m.mux.RLock()
	defer m.mux.RUnlock()

	val, ok := m.data[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	// Return a copy to avoid mutation
	result := make([]byte, len(val))
	copy(result, val)
	return result, nil
}

func (m *memoryKV) Set(key string, value []byte) error {
	m.mux.Lock()
	defer m.mux.Unlock()

	stored := make([]byte, len(value))
	copy(stored, value)
	m.data[key] = stored
	return nil
}

// backends returns every Storage implementation with a path prefix to open
// files under.
func backends(t *testing.T) map[string]struct {
	storage Storage
	dir     string
} {
	return map[string]struct {
		storage Storage
		dir     string
	}{
		"posix": {UsePosix(), t.TempDir()},
		"billy": {UseBilly(memfs.New()), "/sandbox"},
		"kv":    {UseKeyValue(newMemoryKV()), "kv"},
	}
}

// Tests the behaviour nixio relies on against every backend.
func TestStorage_Conformance(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(b.dir, "file.bin")

			_, err := b.storage.OpenFile(path, os.O_RDONLY, 0644)
			assert.ErrorIs(t, err, unix.ENOENT, "open missing file")

			f, err := b.storage.OpenFile(path,
				os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
			require.NoError(t, err)
			assert.Equal(t, filepath.Base(path), filepath.Base(f.Name()))

			n, err := f.Write([]byte("zero\x00byte"))
			require.NoError(t, err)
			assert.Equal(t, 9, n)

			pos, err := f.Seek(0, io.SeekStart)
			require.NoError(t, err)
			assert.EqualValues(t, 0, pos)

			buf := make([]byte, 32)
			n, err = f.Read(buf)
			require.NoError(t, err)
			assert.Equal(t, "zero\x00byte", string(buf[:n]))

			n, err = f.Read(buf)
			assert.Equal(t, 0, n)
			assert.Equal(t, io.EOF, err)

			pos, err = f.Seek(-4, io.SeekEnd)
			require.NoError(t, err)
			assert.EqualValues(t, 5, pos)
			pos, err = f.Seek(1, io.SeekCurrent)
			require.NoError(t, err)
			assert.EqualValues(t, 6, pos)

			require.NoError(t, f.Close())

			_, err = b.storage.OpenFile(path,
				os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
			assert.ErrorIs(t, err, unix.EEXIST, "exclusive create")

			// Append lands at the end regardless of offset
			f, err = b.storage.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0644)
			require.NoError(t, err)
			_, err = f.Write([]byte("!"))
			require.NoError(t, err)
			require.NoError(t, f.Close())

			f, err = b.storage.OpenFile(path, os.O_RDONLY, 0644)
			require.NoError(t, err)
			n, err = f.Read(buf)
			require.NoError(t, err)
			assert.Equal(t, "zero\x00byte!", string(buf[:n]))
			require.NoError(t, f.Close())
		})
	}
}

// Tests that the posix backend exposes its descriptor.
func TestPosix_Descriptor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fd")
	f, err := UsePosix().OpenFile(path, os.O_RDWR|os.O_CREATE, 0600)
	require.NoError(t, err)
	defer f.Close()

	d, ok := f.(Descriptor)
	require.True(t, ok)
	assert.Greater(t, d.Fd(), uintptr(2))

	_, err = f.Seek(-1, io.SeekStart)
	assert.ErrorIs(t, err, unix.EINVAL)
}

// Tests the key-value backend's access mode checks and sparse writes.
func TestKeyValue_Modes(t *testing.T) {
	store := newMemoryKV()
	s := UseKeyValue(store)

	f, err := s.OpenFile("k", os.O_WRONLY|os.O_CREATE, 0600)
	require.NoError(t, err)
	_, err = f.Read(make([]byte, 1))
	assert.ErrorIs(t, err, unix.EBADF)

	_, err = f.Seek(3, io.SeekStart)
	require.NoError(t, err)
	_, err = f.Write([]byte("x"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	stored, err := store.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 'x'}, stored)

	f, err = s.OpenFile("k", os.O_RDONLY, 0600)
	require.NoError(t, err)
	_, err = f.Write([]byte("y"))
	assert.ErrorIs(t, err, unix.EBADF)
	_, err = f.Seek(0, 7)
	assert.ErrorIs(t, err, unix.EINVAL)
}

// sharedKV hands out and keeps the caller's slices without copying, and can
// be told to refuse writes.
type sharedKV struct {
	data    map[string][]byte
	failSet bool
}

func (s *sharedKV) Get(key string) ([]byte, error) {
	val, ok := s.data[key]
	if !ok {
		return nil, os.ErrNotExist
	}
	return val, nil
}

func (s *sharedKV) Set(key string, value []byte) error {
	if s.failSet {
		return errors.New("store offline")
	}
	s.data[key] = value
	return nil
}

// Tests that a rejected Set leaves both the store and the handle with the
// old contents, and that writes past the size limit fail cleanly.
func TestKeyValue_WriteFailure(t *testing.T) {
	store := &sharedKV{data: map[string][]byte{"k": []byte("hello")}}
	f, err := UseKeyValue(store).OpenFile("k", os.O_RDWR, 0600)
	require.NoError(t, err)

	store.failSet = true
	n, err := f.Write([]byte("J"))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, unix.EIO)
	assert.Equal(t, "hello", string(store.data["k"]))

	pos, err := f.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.EqualValues(t, 0, pos)
	buf := make([]byte, 16)
	n, err = f.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(buf[:n]))

	store.failSet = false
	_, err = f.Seek(0, io.SeekStart)
	require.NoError(t, err)
	_, err = f.Write([]byte("J"))
	require.NoError(t, err)
	assert.Equal(t, "Jello", string(store.data["k"]))

	_, err = f.Seek(1<<62, io.SeekStart)
	require.NoError(t, err)
	_, err = f.Write([]byte("x"))
	assert.ErrorIs(t, err, unix.EFBIG)

	_, err = f.Seek(math.MaxInt64, io.SeekStart)
	require.NoError(t, err)
	_, err = f.Write([]byte("xy"))
	assert.ErrorIs(t, err, unix.EFBIG)
	assert.Equal(t, "Jello", string(store.data["k"]))
}

// Tests the error translation table.
func TestToErrno(t *testing.T) {
	tests := []struct {
		in   error
		want error
	}{
		{nil, nil},
		{io.EOF, io.EOF},
		{unix.EINTR, unix.EINTR},
		{errors.Wrap(unix.EAGAIN, "wrapped"), unix.EAGAIN},
		{os.ErrNotExist, unix.ENOENT},
		{&os.PathError{Op: "open", Path: "x", Err: os.ErrExist}, unix.EEXIST},
		{os.ErrPermission, unix.EACCES},
		{os.ErrClosed, unix.EBADF},
		{errors.New("something else"), unix.EIO},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ToErrno(tt.in), "ToErrno(%v)", tt.in)
	}
}
