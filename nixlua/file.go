////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package nixlua

import (
	"io"

	lua "github.com/yuin/gopher-lua"
	"gitlab.com/elixxir/nixio"
)

// checkFile returns the *nixio.File in userdata argument n, raising an
// argument error for anything else.
func checkFile(L *lua.LState, n int) *nixio.File {
	ud := L.CheckUserData(n)
	if f, ok := ud.Value.(*nixio.File); ok {
		return f
	}
	L.ArgError(n, FileTypeName+" expected")
	return nil
}

// nixio.open(path [, mode])
func (m *module) open(L *lua.LState) int {
	path := L.CheckString(1)
	mode := L.OptString(2, "r")

	f, err := m.fs.Open(path, mode)
	if err != nil {
		return m.push(L, err)
	}

	ud := L.NewUserData()
	ud.Value = f
	L.SetMetatable(ud, L.GetTypeMetatable(FileTypeName))
	L.Push(ud)
	return 1
}

// file:read(n)
func (m *module) read(L *lua.LState) int {
	f := checkFile(L, 1)
	n := L.CheckInt(2)

	data, err := f.Read(n)
	switch {
	case err == io.EOF:
		// End of file and a zero-sized read look the same to scripts.
		L.Push(lua.LNil)
		return 1
	case err != nil:
		return m.push(L, err)
	}
	L.Push(lua.LString(data))
	return 1
}

// file:write(data)
func (m *module) write(L *lua.LState) int {
	f := checkFile(L, 1)
	data := L.CheckString(2)

	sent, err := f.Write([]byte(data))
	if err != nil && (sent == 0 || nixio.Classify(err) == nixio.BadArgument) {
		return m.push(L, err)
	}
	if err != nil {
		m.errno = nixio.Errno(err)
	}
	L.Push(lua.LNumber(sent))
	return 1
}

// file:seek([whence,] offset)
func (m *module) seek(L *lua.LState) int {
	f := checkFile(L, 1)
	whence := "set"
	offsetArg := 2
	if L.GetTop() >= 3 {
		whence = L.OptString(2, "set")
		offsetArg = 3
	}
	offset := int64(L.CheckNumber(offsetArg))

	pos, err := f.Seek(whence, offset)
	if err != nil {
		return m.push(L, err)
	}
	L.Push(lua.LNumber(pos))
	return 1
}

// file:tell()
func (m *module) tell(L *lua.LState) int {
	f := checkFile(L, 1)

	pos, err := f.Tell()
	if err != nil {
		return m.push(L, err)
	}
	L.Push(lua.LNumber(pos))
	return 1
}

// file:close()
func (m *module) close(L *lua.LState) int {
	f := checkFile(L, 1)
	// Close never fails from a script's point of view; a failing close(2)
	// still releases the descriptor.
	_ = f.Close()
	return 0
}

func (m *module) tostring(L *lua.LState) int {
	f := checkFile(L, 1)
	L.Push(lua.LString(f.String()))
	return 1
}
