package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hargabyte/h2y/internal/cache"
	"github.com/hargabyte/h2y/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .h2y directory, config and cache",
	Long: `Initialize the .h2y directory in the current directory.

This writes a default config.yaml and creates the cache database used
to skip re-parsing unchanged headers.

Examples:
  h2y init          # Initialize in current directory
  h2y init --force  # Reinitialize (overwrites existing config)`,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Reinitialize even if .h2y already exists")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	h2yDir := filepath.Join(cwd, config.ConfigDirName)
	cfgPath := filepath.Join(h2yDir, config.ConfigFileName)

	if _, err := os.Stat(cfgPath); err == nil {
		if !initForce {
			relPath, _ := filepath.Rel(cwd, h2yDir)
			fmt.Printf("Already initialized at %s\n", relPath)
			return nil
		}
		if err := os.Remove(cfgPath); err != nil {
			return fmt.Errorf("removing existing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config path: %w", err)
	}

	written, err := config.SaveDefault(cwd)
	if err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}

	// Create the cache database alongside the config.
	db, err := cache.Open(h2yDir)
	if err != nil {
		return fmt.Errorf("initializing cache: %w", err)
	}
	defer db.Close()

	relPath, _ := filepath.Rel(cwd, written)
	fmt.Printf("Initialized h2y at %s\n", relPath)

	return nil
}
