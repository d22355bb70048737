package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hargabyte/h2y/internal/mcp"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start MCP server for AI agent integration",
	Long: `Start an MCP (Model Context Protocol) server for AI agent integration.

This allows AI agents to query header schemas through MCP tools instead
of spawning CLI commands. Useful for iterative work against a set of
headers where repeated CLI calls would be wasteful.

Available Tools:
  h2y_describe  Normalize a header into its declaration schema
  h2y_lookup    Look up one named declaration in a header

Examples:
  h2y serve --mcp                # Start server (stdio transport)
  h2y serve --mcp --timeout 30m  # Auto-stop after 30 minutes idle`,
	RunE: runServe,
}

var (
	serveMCP     bool
	serveTimeout string
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveMCP, "mcp", false, "Start MCP server (stdio transport)")
	serveCmd.Flags().StringVar(&serveTimeout, "timeout", "30m", "Inactivity timeout (0 for no timeout)")
}

func runServe(cmd *cobra.Command, args []string) error {
	if !serveMCP {
		return fmt.Errorf("use --mcp to start the MCP server, or --help for usage")
	}

	timeout, err := parseDuration(serveTimeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}

	server, err := mcp.New(mcp.Config{Timeout: timeout})
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Handle signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintf(os.Stderr, "\nh2y serve: shutting down\n")
		os.Exit(0)
	}()

	// Log startup info to stderr (stdout is for MCP protocol)
	fmt.Fprintf(os.Stderr, "h2y serve: starting MCP server\n")
	if timeout > 0 {
		fmt.Fprintf(os.Stderr, "h2y serve: timeout: %v\n", timeout)
	}

	return server.ServeStdio()
}

func parseDuration(s string) (time.Duration, error) {
	if s == "0" || s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}
