package hookfile

import (
	"fmt"
	"os"

	"claude-wm-cli/internal/model"
)

// BatchOp is a single forward/rollback pair in a batch of file operations.
// Forward must record enough state (typically by returning a rollback
// closure capturing a backup path) that Rollback can reverse its effect
// exactly.
type BatchOp struct {
	Name    string
	Forward func() (rollback func() error, err error)
}

// Batch accumulates file operations and applies them all-or-nothing: if
// operation k fails, the rollbacks for k-1..0 run in reverse order before
// CommitAll returns the error. A rollback that itself fails is logged to
// stderr but does not abort the remaining rollbacks.
type Batch struct {
	ops []BatchOp
}

func NewBatch() *Batch { return &Batch{} }

func (b *Batch) Add(name string, forward func() (rollback func() error, err error)) {
	b.ops = append(b.ops, BatchOp{Name: name, Forward: forward})
}

// AddWrite is a convenience helper: writes data to path with WriteFileAtomic
// (each write is committed on its own when its op runs), remembering any
// pre-existing content so rollback can restore it, or remove the file if it
// did not exist before.
func (b *Batch) AddWrite(path string, data []byte) {
	b.Add("write:"+path, func() (func() error, error) {
		var hadPrevious bool
		var previous []byte
		if existing, err := os.ReadFile(path); err == nil {
			hadPrevious = true
			previous = existing
		}

		if err := WriteFileAtomic(path, data, false); err != nil {
			return nil, err
		}

		return func() error {
			if hadPrevious {
				return WriteFileAtomic(path, previous, false)
			}
			return os.Remove(path)
		}, nil
	})
}

// AddDelete removes path, recording its content so rollback can restore it.
func (b *Batch) AddDelete(path string) {
	b.Add("delete:"+path, func() (func() error, error) {
		previous, err := os.ReadFile(path)
		if err != nil {
			return nil, model.NewFileSystemError("read", path, err)
		}
		if err := os.Remove(path); err != nil {
			return nil, model.NewFileSystemError("delete", path, err)
		}
		return func() error {
			return WriteFileAtomic(path, previous, false)
		}, nil
	})
}

// CommitAll executes every forward op in order. If op k fails, rollbacks for
// k-1, k-2, ..., 0 execute in that reverse order before CommitAll returns
// k's error. On full success, effects of every op are observable and no
// rollback runs.
func (b *Batch) CommitAll() error {
	rollbacks := make([]func() error, 0, len(b.ops))

	for _, op := range b.ops {
		rollback, err := op.Forward()
		if err != nil {
			rollbackAll(rollbacks)
			return model.NewInternalError("batch operation failed: " + op.Name).WithCause(err)
		}
		if rollback != nil {
			rollbacks = append(rollbacks, rollback)
		}
	}
	return nil
}

func rollbackAll(rollbacks []func() error) {
	for i := len(rollbacks) - 1; i >= 0; i-- {
		if err := rollbacks[i](); err != nil {
			fmt.Fprintf(os.Stderr, "hookfile: batch rollback step failed: %v\n", err)
		}
	}
}
