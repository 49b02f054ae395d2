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

	"github.com/go-git/go-billy/v5"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ToErrno converts an error coming out of a non-native backend into the
// closest unix.Errno. Errors that already carry an errno keep it, and io.EOF
// is returned untouched so readers can still detect end of file.
func ToErrno(err error) error {
	if err == nil || err == io.EOF {
		return err
	}

	var errno unix.Errno
	if errors.As(err, &errno) {
		return errno
	}

	switch {
	case errors.Is(err, os.ErrNotExist):
		return unix.ENOENT
	case errors.Is(err, os.ErrExist):
		return unix.EEXIST
	case errors.Is(err, os.ErrPermission):
		return unix.EACCES
	case errors.Is(err, os.ErrClosed):
		return unix.EBADF
	case errors.Is(err, os.ErrInvalid):
		return unix.EINVAL
	case errors.Is(err, billy.ErrReadOnly):
		return unix.EROFS
	case errors.Is(err, billy.ErrNotSupported):
		return unix.ENOTSUP
	case errors.Is(err, os.ErrDeadlineExceeded):
		return unix.EAGAIN
	}
	return unix.EIO
}
