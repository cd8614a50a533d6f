package hookfile

import (
	"os"
	"path/filepath"

	"claude-wm-cli/internal/model"
)

// SafeDirectoryCreator walks upward from a target directory, creates only
// the missing prefix, and tracks which directories it created so a failed
// caller can clean up without ever removing a pre-existing or non-empty
// directory.
type SafeDirectoryCreator struct {
	created []string
}

// CreateAll walks upward from dir collecting the non-existing prefix,
// creates each directory in descending order (furthest ancestor first), and
// records which ones it created.
func (s *SafeDirectoryCreator) CreateAll(dir string) error {
	var missing []string
	cur := filepath.Clean(dir)
	for {
		info, err := os.Stat(cur)
		if err == nil {
			if !info.IsDir() {
				return model.NewFileSystemError("create_directory", cur, os.ErrExist).
					WithContext("path exists and is not a directory")
			}
			break
		}
		if !os.IsNotExist(err) {
			return model.NewFileSystemError("stat", cur, err)
		}
		missing = append(missing, cur)

		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	for i := len(missing) - 1; i >= 0; i-- {
		if err := os.Mkdir(missing[i], 0o755); err != nil && !os.IsExist(err) {
			return model.NewFileSystemError("mkdir", missing[i], err)
		}
		s.created = append(s.created, missing[i])
	}
	return nil
}

// CleanupOnError removes only the directories this call created, in reverse
// (most-recently-created first) order, and only if they are still empty. A
// directory that gained content after creation, or that pre-existed, is
// never removed.
func (s *SafeDirectoryCreator) CleanupOnError() {
	for i := len(s.created) - 1; i >= 0; i-- {
		dir := s.created[i]
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		_ = os.Remove(dir)
	}
	s.created = nil
}

// Created returns the directories recorded by CreateAll since the creator was
// made or last cleaned up; successive CreateAll calls accumulate.
func (s *SafeDirectoryCreator) Created() []string {
	out := make([]string, len(s.created))
	copy(out, s.created)
	return out
}
