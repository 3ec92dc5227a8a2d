package fsx

import (
	"errors"
	"runtime"
	"syscall"
)

// Windows reports a cross-volume rename as ERROR_NOT_SAME_DEVICE.
const errNotSameDevice = syscall.Errno(17)

func isEXDEV(err error) bool {
	if errors.Is(err, syscall.EXDEV) {
		return true
	}
	return runtime.GOOS == "windows" && errors.Is(err, errNotSameDevice)
}
