package hookfile

import (
	"os"
	"time"

	"claude-wm-cli/internal/model"
)

// LockedFile is a scope-bound exclusive advisory lock on a single file
// handle: open the path, then poll-attempt a non-blocking exclusive lock
// with 100ms backoff until acquired or the timeout elapses. The lock is
// OS-level, so it excludes other processes, not just other goroutines. The
// resource does not buffer reads or writes; callers must Seek/Truncate
// explicitly.
type LockedFile struct {
	File *os.File
}

// OpenLocked opens path with the given flags/permissions and acquires an
// exclusive advisory lock on the resulting handle, retrying every 100ms
// until acquired or timeout elapses.
func OpenLocked(path string, flag int, perm os.FileMode, timeout time.Duration) (*LockedFile, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, model.NewFileSystemError("open", path, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := platformLockFile(f); err == nil {
			return &LockedFile{File: f}, nil
		} else if !isLockConflict(err) {
			f.Close()
			return nil, model.NewFileSystemError("lock", path, err)
		}

		if time.Now().After(deadline) {
			f.Close()
			return nil, model.NewTimeoutError("acquire advisory lock on " + path)
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// Unlock releases the advisory lock, then closes the handle.
func (lf *LockedFile) Unlock() error {
	if lf.File == nil {
		return nil
	}
	unlockErr := platformUnlockFile(lf.File)
	closeErr := lf.File.Close()
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}

// Seek and Truncate are exposed explicitly: the resource does not buffer, so
// callers re-position/resize the handle themselves before reading or
// rewriting.
func (lf *LockedFile) Seek(offset int64, whence int) (int64, error) {
	return lf.File.Seek(offset, whence)
}

func (lf *LockedFile) Truncate(size int64) error {
	return lf.File.Truncate(size)
}

func (lf *LockedFile) Read(p []byte) (int, error) {
	return lf.File.Read(p)
}

func (lf *LockedFile) Write(p []byte) (int, error) {
	return lf.File.Write(p)
}
