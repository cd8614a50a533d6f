//go:build windows

package hookfile

import (
	"os"
	"syscall"
	"unsafe"
)

var (
	kernel32         = syscall.NewLazyDLL("kernel32.dll")
	procLockFileEx   = kernel32.NewProc("LockFileEx")
	procUnlockFileEx = kernel32.NewProc("UnlockFileEx")
)

const (
	lockfileExclusiveLock   = 0x00000002
	lockfileFailImmediately = 0x00000001
	errorLockViolation      = 33
)

func platformLockFile(f *os.File) error {
	overlapped := &syscall.Overlapped{}
	ret, _, err := procLockFileEx.Call(
		uintptr(f.Fd()),
		uintptr(lockfileExclusiveLock|lockfileFailImmediately),
		uintptr(0),
		uintptr(0xFFFFFFFF),
		uintptr(0xFFFFFFFF),
		uintptr(unsafe.Pointer(overlapped)),
	)
	if ret == 0 {
		return err
	}
	return nil
}

func platformUnlockFile(f *os.File) error {
	overlapped := &syscall.Overlapped{}
	ret, _, err := procUnlockFileEx.Call(
		uintptr(f.Fd()),
		uintptr(0),
		uintptr(0xFFFFFFFF),
		uintptr(0xFFFFFFFF),
		uintptr(unsafe.Pointer(overlapped)),
	)
	if ret == 0 {
		return err
	}
	return nil
}

func isLockConflict(err error) bool {
	if errno, ok := err.(syscall.Errno); ok {
		return errno == errorLockViolation
	}
	return false
}
