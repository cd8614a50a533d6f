// Package hookcache provides the content-addressed result cache shared by
// both the ephemeral (in-memory LRU) and persistent (SQLite) backends. Both
// backends compute keys with the single ComputeKey algorithm in this file so
// neither backend can drift from the other.
package hookcache

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"claude-wm-cli/internal/hookdef"
)

const hashPrefixLen = 16

// canonicalConfig is the subset of a HookDefinition that participates in the
// cache key. Field order here is irrelevant: json.Marshal on a struct always
// emits fields in declaration order, which is what makes this canonical.
type canonicalConfig struct {
	Name          string   `json:"name"`
	Argv          []string `json:"argv"`
	Timeout       int      `json:"timeout"`
	Stage         string   `json:"stage"`
	SecurityLevel string   `json:"security_level"`
}

// ComputeKey derives "<hook_name>:<config_hash>:<content_hash>" from a hook
// definition and the list of file paths it consumes. config_hash is the
// first 16 hex chars of the SHA-256 of the canonical JSON encoding of the
// hook's name/argv/timeout/stage/security_level. content_hash is the first
// 16 hex chars of a single running SHA-256 over the sorted files' bytes.
// Missing or unreadable files are skipped (logged, not fatal) so a cache key
// can still be computed when a file filter returns a stale path.
func ComputeKey(def hookdef.HookDefinition, files []string) (string, error) {
	cfg := canonicalConfig{
		Name:          def.Name,
		Argv:          def.ArgvTemplate,
		Timeout:       def.TimeoutSeconds,
		Stage:         string(def.Stage),
		SecurityLevel: string(def.SecurityLevel),
	}
	encoded, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	configSum := sha256.Sum256(encoded)
	configHash := fmt.Sprintf("%x", configSum)[:hashPrefixLen]

	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)

	contentHasher := sha256.New()
	for _, path := range sorted {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hookcache: skipping unreadable file %s: %v\n", path, err)
			continue
		}
		contentHasher.Write(data)
	}
	contentHash := fmt.Sprintf("%x", contentHasher.Sum(nil))[:hashPrefixLen]

	return fmt.Sprintf("%s:%s:%s", def.Name, configHash, contentHash), nil
}
