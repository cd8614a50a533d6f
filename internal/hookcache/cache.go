package hookcache

import (
	"time"

	"claude-wm-cli/internal/hookdef"
)

// Cache is the narrow interface the orchestrator depends on. Both the
// ephemeral and persistent backends satisfy it; callers never need to know
// which one is in play.
type Cache interface {
	// Get returns the stored result and true if key is present and
	// unexpired. A cache fault is treated identically to a miss.
	Get(key string) (hookdef.HookResult, bool)
	// Set stores result under key with the given TTL. A cache fault is
	// logged and swallowed; it never fails the caller's write path.
	Set(key string, result hookdef.HookResult, ttl time.Duration)
	// ComputeKey delegates to the shared ComputeKey algorithm so callers
	// only need to hold a Cache reference.
	ComputeKey(def hookdef.HookDefinition, files []string) (string, error)
	// Clear drains every entry.
	Clear()
	// Stats reports the current size/capacity snapshot.
	Stats() Stats
}

// Stats is the snapshot shape returned by Stats().
type Stats struct {
	Total      int           `json:"total"`
	Active     int           `json:"active"`
	Expired    int           `json:"expired"`
	Capacity   int           `json:"capacity"`
	DefaultTTL time.Duration `json:"default_ttl"`
}
