////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package nixlua exposes nixio to gopher-lua scripts as the "nixio" module.
//
// Failures follow the nixio convention: nil, errno, message for hard
// failures; false, errno, message when the call would block; a raised
// argument error for bad arguments and closed handles. Handles left
// unreferenced are closed when the Go garbage collector reclaims them.
package nixlua

import (
	"github.com/pkg/errors"
	lua "github.com/yuin/gopher-lua"
	"gitlab.com/elixxir/nixio"
	"golang.org/x/sys/unix"
)

const (
	// ModuleName is the name scripts require.
	ModuleName = "nixio"

	// FileTypeName is the metatable that tags nixio file userdata.
	FileTypeName = "nixio.file"
)

// module is the per-LState module instance. errno is the code of the last
// native failure reported to this state's scripts.
type module struct {
	fs    *nixio.FileSystem
	errno unix.Errno
}

// Preload registers the module so that require("nixio") opens it against fs.
// A nil fs uses the native posix backend.
func Preload(L *lua.LState, fs *nixio.FileSystem) {
	L.PreloadModule(ModuleName, Loader(fs))
}

// Loader returns a lua.LGFunction that builds the module table.
func Loader(fs *nixio.FileSystem) lua.LGFunction {
	if fs == nil {
		fs = nixio.Default()
	}
	return func(L *lua.LState) int {
		m := &module{fs: fs}
		m.registerFileType(L)

		mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
			"open":     m.open,
			"errno":    m.lastErrno,
			"strerror": m.strerror,
		})
		L.Push(mod)
		return 1
	}
}

func (m *module) registerFileType(L *lua.LState) {
	mt := L.NewTypeMetatable(FileTypeName)
	methods := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"read":  m.read,
		"write": m.write,
		"seek":  m.seek,
		"tell":  m.tell,
		"close": m.close,
	})
	L.SetField(mt, "__index", methods)
	L.SetField(mt, "__tostring", L.NewFunction(m.tostring))
}

// push renders err onto the stack according to the nixio convention and
// returns the number of results. Argument errors are raised instead.
func (m *module) push(L *lua.LState, err error) int {
	switch nixio.Classify(err) {
	case nixio.BadArgument:
		var argErr *nixio.ArgError
		if errors.As(err, &argErr) {
			L.ArgError(argErr.Arg, argErr.Msg)
		}
		L.RaiseError("%s", err.Error())
		return 0
	case nixio.WouldBlock:
		L.Push(lua.LFalse)
	default:
		L.Push(lua.LNil)
	}
	m.errno = nixio.Errno(err)
	L.Push(lua.LNumber(m.errno))
	L.Push(lua.LString(m.errno.Error()))
	return 3
}

func (m *module) lastErrno(L *lua.LState) int {
	L.Push(lua.LNumber(m.errno))
	return 1
}

func (m *module) strerror(L *lua.LState) int {
	L.Push(lua.LString(nixio.Strerror(L.CheckInt(1))))
	return 1
}

// Open loads the module into L and binds it to the global "nixio", for hosts
// that do not use require.
func Open(L *lua.LState, fs *nixio.FileSystem) {
	L.Push(L.NewFunction(Loader(fs)))
	L.Call(0, 1)
	L.SetGlobal(ModuleName, L.Get(-1))
	L.Pop(1)
}
