// Package hookresource tracks every resource (temp file, temp dir,
// subprocess, background task, open file handle, locked file) acquired
// during one orchestrator invocation and guarantees it is released on
// every exit path, including panics and cancellation.
package hookresource

import (
	"fmt"
	"os"
	"sync"
)

// CleanupHandle is a single owned resource. Release must be idempotent,
// tolerate the resource already being gone, and never block indefinitely.
type CleanupHandle interface {
	// Kind returns a short label used in leak reports ("subprocess", "tempfile", ...).
	Kind() string
	// Release performs the idempotent cleanup action.
	Release() error
}

// Registry is a process-scoped (one per orchestrator invocation) ordered
// list of owned cleanup handles. Insertion order is reverse cleanup order.
type Registry struct {
	mu       sync.Mutex
	handles  []CleanupHandle
	drained  bool
	leakOpts *leakOptions
}

type leakOptions struct {
	enabled bool
	report  []string
}

// NewRegistry creates an empty registry. Pass WithLeakDetector() to enable
// debug-only leak reporting.
func NewRegistry(opts ...Option) *Registry {
	r := &Registry{leakOpts: &leakOptions{}}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// WithLeakDetector enables tracking of handles that outlive CleanupAll.
func WithLeakDetector() Option {
	return func(r *Registry) { r.leakOpts.enabled = true }
}

// Register appends handle to the registry. After CleanupAll has drained the
// registry, Register immediately releases the passed handle instead of
// queueing it, since there is no longer a scope that will call CleanupAll
// again.
func (r *Registry) Register(h CleanupHandle) {
	r.mu.Lock()
	if r.drained {
		r.mu.Unlock()
		if err := h.Release(); err != nil {
			fmt.Fprintf(os.Stderr, "hookresource: late-registered %s cleanup failed: %v\n", h.Kind(), err)
		}
		return
	}
	r.handles = append(r.handles, h)
	r.mu.Unlock()
}

// CleanupAll releases every registered handle in reverse insertion order.
// Every handle is given a chance to release even if an earlier one errors;
// errors are logged, never returned, never re-raised. After this call the
// registry is drained.
func (r *Registry) CleanupAll() {
	r.mu.Lock()
	handles := r.handles
	r.handles = nil
	r.drained = true
	leakEnabled := r.leakOpts.enabled
	r.mu.Unlock()

	var leaked []string
	for i := len(handles) - 1; i >= 0; i-- {
		h := handles[i]
		if err := h.Release(); err != nil {
			fmt.Fprintf(os.Stderr, "hookresource: %s cleanup failed: %v\n", h.Kind(), err)
			if leakEnabled {
				leaked = append(leaked, fmt.Sprintf("%s: %v", h.Kind(), err))
			}
		}
	}

	if leakEnabled {
		r.mu.Lock()
		r.leakOpts.report = leaked
		r.mu.Unlock()
	}
}

// LeakReport returns the handles that failed to release during the most
// recent CleanupAll, when the leak detector is enabled. Returns nil
// otherwise.
func (r *Registry) LeakReport() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.leakOpts.enabled {
		return nil
	}
	out := make([]string, len(r.leakOpts.report))
	copy(out, r.leakOpts.report)
	return out
}

// Len reports how many handles are currently registered (for tests).
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}
