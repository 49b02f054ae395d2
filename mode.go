////////////////////////////////////////////////////////////////////////////////
// Copyright © 2024 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

package nixio

import (
	"io"

	"golang.org/x/sys/unix"
)

// parseMode converts an fopen(3) mode string to open(2) flags. The first
// character selects r, w or a; the rest may contain '+', 'b' (ignored), 'x'
// (exclusive create) and 'e' (close-on-exec, which is always set anyway).
// Anything else is EINVAL, as glibc reports it.
func parseMode(mode string) (int, error) {
	if mode == "" {
		return 0, unix.EINVAL
	}

	var flag int
	switch mode[0] {
	case 'r':
		flag = unix.O_RDONLY
	case 'w':
		flag = unix.O_WRONLY | unix.O_CREAT | unix.O_TRUNC
	case 'a':
		flag = unix.O_WRONLY | unix.O_CREAT | unix.O_APPEND
	default:
		return 0, unix.EINVAL
	}

	for _, c := range mode[1:] {
		switch c {
		case '+':
			flag &^= unix.O_WRONLY
			flag |= unix.O_RDWR
		case 'b', 'e':
		case 'x':
			if flag&unix.O_CREAT == 0 {
				return 0, unix.EINVAL
			}
			flag |= unix.O_EXCL
		default:
			return 0, unix.EINVAL
		}
	}
	return flag, nil
}

// parseWhence maps the host-facing whence names onto io.Seek* values.
func parseWhence(whence string) (int, bool) {
	switch whence {
	case "set":
		return io.SeekStart, true
	case "cur":
		return io.SeekCurrent, true
	case "end":
		return io.SeekEnd, true
	}
	return 0, false
}
