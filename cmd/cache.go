/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"claude-wm-cli/internal/hookcache"
)

// cacheCmd groups maintenance operations for the persistent hook result
// cache.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the hook result cache",
	Long: `Inspect and maintain the persistent hook result cache.

The cache stores one entry per (hook, configuration, file contents) triple;
entries expire by TTL and are also evicted lazily on read. These commands
operate on the on-disk backend under the repository root.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry counts and TTL",
	Run: func(cmd *cobra.Command, args []string) {
		withPersistentCache(func(cache *hookcache.SQLiteCache) {
			stats := cache.Stats()
			fmt.Printf("Total entries:   %d\n", stats.Total)
			fmt.Printf("Active entries:  %d\n", stats.Active)
			fmt.Printf("Expired entries: %d\n", stats.Expired)
			fmt.Printf("Default TTL:     %v\n", stats.DefaultTTL)
		})
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Drain every cache entry",
	Run: func(cmd *cobra.Command, args []string) {
		withPersistentCache(func(cache *hookcache.SQLiteCache) {
			cache.Clear()
			fmt.Println("✅ Cache cleared")
		})
	},
}

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired cache entries",
	Run: func(cmd *cobra.Command, args []string) {
		withPersistentCache(func(cache *hookcache.SQLiteCache) {
			if err := cache.Sweep(); err != nil {
				fmt.Fprintf(os.Stderr, "cache sweep failed: %v\n", err)
				os.Exit(1)
			}
			fmt.Println("✅ Expired entries removed")
		})
	},
}

func withPersistentCache(fn func(cache *hookcache.SQLiteCache)) {
	repoRoot, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error getting current directory: %v\n", err)
		os.Exit(1)
	}

	cache, err := hookcache.OpenSQLiteCache(repoRoot, 15*time.Minute)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening cache: %v\n", err)
		os.Exit(1)
	}
	defer cache.Close()

	fn(cache)
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
}
