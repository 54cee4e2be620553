// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the provider call cache",
	Long: `Cache manages the content-addressed store of provider call results.
With the default file backend, entries survive across invocations: a quote
fetched by one command is reused by the next until its TTL expires.`,
}

// --- stats subcommand ---

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache entry and lookup counts",
	Args:  cobra.NoArgs,
	RunE:  runCacheStats,
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	stats := rt.cache.Stats()
	fmt.Printf("Backend:    %s (%s)\n", rt.cfg.Cache.Backend, cacheDir(rt.cfg))
	fmt.Printf("Entries:    %d\n", stats.Entries)
	fmt.Printf("Hits:       %d\n", stats.Hits)
	fmt.Printf("Misses:     %d\n", stats.Misses)
	fmt.Printf("Evictions:  %d\n", stats.Evictions)
	return nil
}

// --- sweep subcommand ---

var cacheSweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove expired cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCacheSweep,
}

func runCacheSweep(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	removed, err := rt.cache.Sweep()
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d expired entr%s\n", removed, plural(removed, "y", "ies"))
	return nil
}

// --- clear subcommand ---

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cache entries",
	Args:  cobra.NoArgs,
	RunE:  runCacheClear,
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	rt, err := buildRuntime()
	if err != nil {
		return err
	}
	defer rt.close()

	removed, err := rt.cache.Clear()
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d entr%s\n", removed, plural(removed, "y", "ies"))
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheSweepCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	rootCmd.AddCommand(cacheCmd)
}
