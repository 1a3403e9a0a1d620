//go:build !windows

package document

import (
	"errors"
	"io/fs"
	"syscall"
)

func isLockError(err error) bool {
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.EWOULDBLOCK)
}
