// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/fulltext-engine/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the content cache",
	Long: `Cache manages the local content cache. Entries past their TTL are
invisible to reads but stay on disk until swept; clear-stale performs
the sweep.`,
}

var cacheClearStaleCmd = &cobra.Command{
	Use:   "clear-stale",
	Short: "Delete cache entries past their TTL",
	RunE:  runCacheClearStale,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print cache entry counts",
	RunE:  runCacheStats,
}

func runCacheClearStale(cmd *cobra.Command, args []string) error {
	store, err := openCacheStore()
	if err != nil {
		return err
	}
	defer store.Close()

	removed, err := store.ClearStale(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d stale entries\n", removed)
	return nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	store, err := openCacheStore()
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.Len(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("%d entries\n", n)
	return nil
}

func openCacheStore() (*cache.Store, error) {
	cfg, err := engineConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = "cache"
	}
	return cache.NewStore(cfg.Cache, nil)
}

func init() {
	cacheCmd.AddCommand(cacheClearStaleCmd)
	cacheCmd.AddCommand(cacheStatsCmd)

	rootCmd.AddCommand(cacheCmd)
}
