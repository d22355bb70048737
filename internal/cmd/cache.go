package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hargabyte/h2y/internal/cache"
	"github.com/hargabyte/h2y/internal/config"
)

// cacheCmd groups cache maintenance subcommands.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the schema cache",
	Long: `Inspect and manage the .h2y/cache.db schema cache.

Examples:
  h2y cache stats   # Show cached entry counts
  h2y cache clear   # Drop all cached schemas and file hashes`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached data",
	RunE:  runCacheClear,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}

func openCacheDir() (*cache.Cache, error) {
	dir, err := config.FindConfigDir(".")
	if err != nil {
		return nil, fmt.Errorf("h2y not initialized: run 'h2y init' first")
	}
	return cache.Open(dir)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	db, err := openCacheDir()
	if err != nil {
		return err
	}
	defer db.Close()

	stats, err := db.GetStats()
	if err != nil {
		return err
	}

	fmt.Printf("Cache: %s\n", db.Path())
	fmt.Printf("  schemas:    %d\n", stats.SchemaCount)
	fmt.Printf("  file index: %d\n", stats.FileIndexCount)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	db, err := openCacheDir()
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Clear(); err != nil {
		return err
	}
	fmt.Println("Cache cleared")
	return nil
}
