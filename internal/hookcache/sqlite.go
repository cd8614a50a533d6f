package hookcache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"claude-wm-cli/internal/hookdef"
	"claude-wm-cli/internal/model"
)

// DefaultCacheDir is the on-disk location the persistent backend creates
// under the project root.
const DefaultCacheDir = ".crackerjack/cache"

// SQLiteCache is the persistent backend: entries survive across runs in a
// single cache_entries table. Every operation that can fail degrades to a
// miss (Get) or a no-op (Set) rather than propagating, per the cache
// contract's "errors never fail hook execution" rule.
type SQLiteCache struct {
	db         *sql.DB
	defaultTTL time.Duration
}

// OpenSQLiteCache opens (creating if necessary) a cache database at
// repoRoot/.crackerjack/cache/cache.db.
func OpenSQLiteCache(repoRoot string, defaultTTL time.Duration) (*SQLiteCache, error) {
	dir := filepath.Join(repoRoot, DefaultCacheDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, model.NewFileSystemError("create_directory", dir, err)
	}

	dbPath := filepath.Join(dir, "cache.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, model.NewInternalError("open cache database").WithCause(err)
	}
	db.SetMaxOpenConns(1) // sqlite3 driver is not safe for concurrent writers

	const schema = `CREATE TABLE IF NOT EXISTS cache_entries (
		key TEXT PRIMARY KEY,
		result BLOB NOT NULL,
		expiry INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, model.NewInternalError("create cache schema").WithCause(err)
	}

	return &SQLiteCache{db: db, defaultTTL: defaultTTL}, nil
}

func (c *SQLiteCache) ComputeKey(def hookdef.HookDefinition, files []string) (string, error) {
	return ComputeKey(def, files)
}

// Get returns the stored result if present and unexpired. Any database or
// decode fault is logged and treated as a miss.
func (c *SQLiteCache) Get(key string) (hookdef.HookResult, bool) {
	row := c.db.QueryRow(`SELECT result, expiry FROM cache_entries WHERE key = ?`, key)

	var blob []byte
	var expiryUnix int64
	if err := row.Scan(&blob, &expiryUnix); err != nil {
		if err != sql.ErrNoRows {
			fmt.Fprintf(os.Stderr, "hookcache: sqlite get fault for %s: %v\n", key, err)
		}
		return hookdef.HookResult{}, false
	}

	if time.Now().Unix() > expiryUnix {
		_, _ = c.db.Exec(`DELETE FROM cache_entries WHERE key = ?`, key)
		return hookdef.HookResult{}, false
	}

	var result hookdef.HookResult
	if err := json.Unmarshal(blob, &result); err != nil {
		fmt.Fprintf(os.Stderr, "hookcache: sqlite decode fault for %s: %v\n", key, err)
		return hookdef.HookResult{}, false
	}
	return result, true
}

// Set stores result under key with the given ttl. Any fault is logged and
// swallowed.
func (c *SQLiteCache) Set(key string, result hookdef.HookResult, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	blob, err := json.Marshal(result)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hookcache: sqlite encode fault for %s: %v\n", key, err)
		return
	}
	expiry := time.Now().Add(ttl).Unix()

	_, err = c.db.Exec(
		`INSERT INTO cache_entries (key, result, expiry) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET result = excluded.result, expiry = excluded.expiry`,
		key, blob, expiry,
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hookcache: sqlite set fault for %s: %v\n", key, err)
	}
}

// Clear drains every entry.
func (c *SQLiteCache) Clear() {
	if _, err := c.db.Exec(`DELETE FROM cache_entries`); err != nil {
		fmt.Fprintf(os.Stderr, "hookcache: sqlite clear fault: %v\n", err)
	}
}

// Stats reports total/active/expired against an unbounded capacity (the
// persistent backend has no LRU eviction; it relies on expiry + sweep).
func (c *SQLiteCache) Stats() Stats {
	var total int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM cache_entries`).Scan(&total); err != nil {
		fmt.Fprintf(os.Stderr, "hookcache: sqlite stats fault: %v\n", err)
		return Stats{DefaultTTL: c.defaultTTL}
	}

	var expired int
	if err := c.db.QueryRow(`SELECT COUNT(*) FROM cache_entries WHERE expiry < ?`, time.Now().Unix()).Scan(&expired); err != nil {
		fmt.Fprintf(os.Stderr, "hookcache: sqlite stats fault: %v\n", err)
	}

	return Stats{
		Total:      total,
		Active:     total - expired,
		Expired:    expired,
		Capacity:   0,
		DefaultTTL: c.defaultTTL,
	}
}

// Sweep deletes every expired entry, independent of Get-triggered lazy
// eviction. The orchestrator may call this periodically or on startup.
func (c *SQLiteCache) Sweep() error {
	_, err := c.db.Exec(`DELETE FROM cache_entries WHERE expiry < ?`, time.Now().Unix())
	return err
}

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

// Kind and Release let a *SQLiteCache register directly with
// internal/hookresource's Registry as a CleanupHandle, so the orchestrator
// doesn't need a separate adapter type to guarantee the db handle closes on
// every exit path.
func (c *SQLiteCache) Kind() string { return "sqlite_cache" }

func (c *SQLiteCache) Release() error { return c.Close() }
