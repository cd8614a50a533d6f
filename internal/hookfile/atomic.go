// Package hookfile provides the atomic-write, advisory-lock,
// safe-directory, and batch-operation primitives hook formatters use to
// mutate target files safely.
package hookfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"claude-wm-cli/internal/model"
)

// AtomicWrite is a scope-bound handle for a single atomic write to target.
// Callers write incrementally via Write/WriteString, then call Commit (the
// single atomic rename) or Rollback. Cleanup always removes the temp file
// and, if present, the backup, regardless of outcome.
type AtomicWrite struct {
	target     string
	backup     bool
	perm       os.FileMode
	tempPath   string
	backupPath string
	tempFile   *os.File
	committed  bool
}

// BeginAtomicWrite opens a temp file alongside target, ready to receive
// content. If withBackup is true and target already exists, a backup copy
// is made before any content is written, so Rollback can restore it.
func BeginAtomicWrite(target string, withBackup bool) (*AtomicWrite, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, model.NewFileSystemError("create_directory", dir, err)
	}

	aw := &AtomicWrite{
		target: target,
		backup: withBackup,
		perm:   0o644,
	}

	if withBackup {
		if info, err := os.Stat(target); err == nil {
			aw.perm = info.Mode()
			backupPath := target + fmt.Sprintf(".bak.%d", time.Now().UnixNano())
			if err := copyFile(target, backupPath); err != nil {
				return nil, model.NewFileSystemError("backup", target, err)
			}
			aw.backupPath = backupPath
		}
	}

	tempPath := filepath.Join(dir, fmt.Sprintf(".tmp_%s_%d", filepath.Base(target), os.Getpid()))
	f, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, aw.perm)
	if err != nil {
		aw.cleanupBackup()
		return nil, model.NewFileSystemError("create_temp_file", tempPath, err)
	}

	aw.tempPath = tempPath
	aw.tempFile = f
	return aw, nil
}

// Write appends raw bytes to the temp file.
func (aw *AtomicWrite) Write(p []byte) (int, error) {
	return aw.tempFile.Write(p)
}

// WriteString appends a string to the temp file.
func (aw *AtomicWrite) WriteString(s string) (int, error) {
	return aw.tempFile.WriteString(s)
}

// Flush fsyncs the temp file without committing.
func (aw *AtomicWrite) Flush() error {
	return aw.tempFile.Sync()
}

// Commit is the single atomic step: fsync, then rename the temp file over
// target. If the rename fails and a backup exists, the backup is restored
// over target so the caller never observes a half-written file.
func (aw *AtomicWrite) Commit() error {
	if aw.committed {
		return nil
	}
	if err := aw.tempFile.Sync(); err != nil {
		return model.NewFileSystemError("sync", aw.tempPath, err)
	}
	if err := aw.tempFile.Close(); err != nil {
		return model.NewFileSystemError("close", aw.tempPath, err)
	}

	if err := os.Rename(aw.tempPath, aw.target); err != nil {
		if aw.backupPath != "" {
			_ = os.Rename(aw.backupPath, aw.target)
		}
		return model.NewFileSystemError("rename", aw.target, err)
	}

	aw.committed = true
	return nil
}

// Rollback discards the temp file entirely. If a backup was taken, it is
// restored over target; otherwise target is left untouched. After Rollback,
// no trace of the temp file or backup remains in dirname(target).
func (aw *AtomicWrite) Rollback() error {
	if aw.tempFile != nil {
		_ = aw.tempFile.Close()
	}
	if aw.tempPath != "" {
		_ = os.Remove(aw.tempPath)
	}
	if aw.backupPath != "" {
		if err := os.Rename(aw.backupPath, aw.target); err != nil {
			return model.NewFileSystemError("restore_backup", aw.target, err)
		}
		aw.backupPath = ""
	}
	return nil
}

// Cleanup removes the temp file and any remaining backup, regardless of
// whether Commit or Rollback was called. Safe to call multiple times.
func (aw *AtomicWrite) Cleanup() {
	if aw.tempPath != "" {
		_ = os.Remove(aw.tempPath)
	}
	aw.cleanupBackup()
}

func (aw *AtomicWrite) cleanupBackup() {
	if aw.backupPath != "" {
		_ = os.Remove(aw.backupPath)
		aw.backupPath = ""
	}
}

// WriteFileAtomic is a convenience wrapper: write all of data to target
// atomically in one call, with an optional backup.
func WriteFileAtomic(target string, data []byte, withBackup bool) error {
	aw, err := BeginAtomicWrite(target, withBackup)
	if err != nil {
		return err
	}
	defer aw.Cleanup()

	if _, err := aw.Write(data); err != nil {
		return model.NewFileSystemError("write", target, err)
	}
	return aw.Commit()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
