package hookcache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claude-wm-cli/internal/hookdef"
)

func sampleDef(name string) hookdef.HookDefinition {
	return hookdef.HookDefinition{
		Name:           name,
		ArgvTemplate:   []string{"ruff", "check", "./pkg"},
		TimeoutSeconds: 30,
		Stage:          hookdef.StageFast,
		SecurityLevel:  hookdef.SecurityMedium,
	}
}

func TestComputeKey_DeterministicForIdenticalInputs(t *testing.T) {
	dir := t.TempDir()
	fileA := filepath.Join(dir, "a.py")
	fileB := filepath.Join(dir, "b.py")
	require.NoError(t, os.WriteFile(fileA, []byte("print(1)"), 0o644))
	require.NoError(t, os.WriteFile(fileB, []byte("print(2)"), 0o644))

	def := sampleDef("ruff-check")

	k1, err := ComputeKey(def, []string{fileA, fileB})
	require.NoError(t, err)
	k2, err := ComputeKey(def, []string{fileB, fileA}) // different order, same set
	require.NoError(t, err)

	assert.Equal(t, k1, k2, "file ordering must not change the key")
}

func TestComputeKey_ChangesWithArgv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(file, []byte("print(1)"), 0o644))

	def := sampleDef("ruff-check")
	k1, err := ComputeKey(def, []string{file})
	require.NoError(t, err)

	def.ArgvTemplate = append([]string{}, def.ArgvTemplate...)
	def.ArgvTemplate = append(def.ArgvTemplate, "--fix")
	k2, err := ComputeKey(def, []string{file})
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestComputeKey_ChangesWithFileContent(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.py")
	require.NoError(t, os.WriteFile(file, []byte("print(1)"), 0o644))

	def := sampleDef("ruff-check")
	k1, err := ComputeKey(def, []string{file})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(file, []byte("print(2)"), 0o644))
	k2, err := ComputeKey(def, []string{file})
	require.NoError(t, err)

	assert.NotEqual(t, k1, k2)
}

func TestComputeKey_SkipsUnreadableFiles(t *testing.T) {
	def := sampleDef("ruff-check")
	_, err := ComputeKey(def, []string{"/nonexistent/path/does-not-exist.py"})
	assert.NoError(t, err, "missing files are skipped, not fatal")
}

func TestLRUCache_SetThenGetWithinExpiryReturnsEqualValue(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	result := hookdef.HookResult{HookName: "ruff-check", Status: hookdef.StatusPassed}

	c.Set("k1", result, time.Minute)

	got, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, result, got)

	got2, ok := c.Get("k1")
	require.True(t, ok)
	assert.Equal(t, got, got2)
}

func TestLRUCache_ExpiredEntryIsEvictedOnRead(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	c.Set("k1", hookdef.HookResult{HookName: "ruff-check"}, -time.Second)

	_, ok := c.Get("k1")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 0, stats.Total, "expired entry must be gone after the read")
}

func TestLRUCache_EvictsLeastRecentlyUsedAtCapacity(t *testing.T) {
	c := NewLRUCache(2, time.Minute)
	c.Set("k1", hookdef.HookResult{HookName: "k1"}, time.Minute)
	c.Set("k2", hookdef.HookResult{HookName: "k2"}, time.Minute)

	// touch k1 so k2 becomes least-recently-used
	_, _ = c.Get("k1")

	c.Set("k3", hookdef.HookResult{HookName: "k3"}, time.Minute)

	_, ok := c.Get("k2")
	assert.False(t, ok, "k2 was least-recently-used and should have been evicted")

	_, ok = c.Get("k1")
	assert.True(t, ok)
	_, ok = c.Get("k3")
	assert.True(t, ok)

	assert.Equal(t, 2, c.Stats().Capacity)
}

func TestLRUCache_Clear(t *testing.T) {
	c := NewLRUCache(10, time.Minute)
	c.Set("k1", hookdef.HookResult{HookName: "k1"}, time.Minute)
	c.Clear()
	assert.Equal(t, 0, c.Stats().Total)
}

func TestSQLiteCache_SetGetRoundTripAndExpiry(t *testing.T) {
	dir := t.TempDir()
	c, err := OpenSQLiteCache(dir, time.Minute)
	require.NoError(t, err)
	defer c.Close()

	result := hookdef.HookResult{HookName: "ruff-check", Status: hookdef.StatusPassed, IssuesCount: 0}
	c.Set("ruff-check:abc:def", result, time.Minute)

	got, ok := c.Get("ruff-check:abc:def")
	require.True(t, ok)
	assert.Equal(t, result, got)

	c.Set("expired-key", result, -time.Second)
	_, ok = c.Get("expired-key")
	assert.False(t, ok)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Active)
}

func TestSQLiteCache_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	c1, err := OpenSQLiteCache(dir, time.Minute)
	require.NoError(t, err)

	result := hookdef.HookResult{HookName: "bandit", Status: hookdef.StatusPassed}
	c1.Set("bandit:abc:def", result, time.Minute)
	require.NoError(t, c1.Close())

	c2, err := OpenSQLiteCache(dir, time.Minute)
	require.NoError(t, err)
	defer c2.Close()

	got, ok := c2.Get("bandit:abc:def")
	require.True(t, ok)
	assert.Equal(t, result, got)
}
