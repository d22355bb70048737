// Package mcp provides an MCP (Model Context Protocol) server for h2y.
// This allows AI agents to query header schemas through MCP tools instead
// of spawning CLI commands.
package mcp

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"gopkg.in/yaml.v3"

	"github.com/hargabyte/h2y/internal/config"
	"github.com/hargabyte/h2y/internal/frontend"
	"github.com/hargabyte/h2y/internal/normalize"
	"github.com/hargabyte/h2y/internal/output"
)

// Server wraps the MCP server with h2y-specific functionality
type Server struct {
	mcpServer    *server.MCPServer
	cfg          *config.Config
	lastActivity time.Time
	timeout      time.Duration
	mu           sync.RWMutex
}

// Config holds server configuration
type Config struct {
	Timeout time.Duration // Inactivity timeout (0 = no timeout)
}

// New creates a new MCP server for h2y
func New(cfg Config) (*Server, error) {
	appCfg, err := config.Load(".")
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	mcpServer := server.NewMCPServer(
		"h2y",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcpServer:    mcpServer,
		cfg:          appCfg,
		lastActivity: time.Now(),
		timeout:      cfg.Timeout,
	}

	s.registerDescribeTool()
	s.registerLookupTool()

	return s, nil
}

// registerDescribeTool registers the h2y_describe tool
func (s *Server) registerDescribeTool() {
	tool := mcp.NewTool("h2y_describe",
		mcp.WithDescription("Normalize a C header into its declaration schema (structs, unions, typedefs, declarations, functions, enums)."),
		mcp.WithString("header",
			mcp.Required(),
			mcp.Description("Path to the C header to scan"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: yaml (default) or json"),
		),
		mcp.WithString("filter_header",
			mcp.Description("Regexp matched against header basenames to include"),
		),
		mcp.WithBoolean("include_system",
			mcp.Description("Include declarations from system headers"),
		),
		mcp.WithBoolean("canonical",
			mcp.Description("Assign _argN names to unnamed function parameters"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleDescribe)
}

// registerLookupTool registers the h2y_lookup tool
func (s *Server) registerLookupTool() {
	tool := mcp.NewTool("h2y_lookup",
		mcp.WithDescription("Look up one named declaration in a header's normalized schema."),
		mcp.WithString("header",
			mcp.Required(),
			mcp.Description("Path to the C header to scan"),
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Declaration name to look up"),
		),
	)

	s.mcpServer.AddTool(tool, s.handleLookup)
}

func (s *Server) handleDescribe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	header, ok := args["header"].(string)
	if !ok || header == "" {
		return mcp.NewToolResultError("header parameter is required"), nil
	}

	format := output.DefaultFormat
	if f, ok := args["format"].(string); ok && f != "" {
		parsed, err := output.ParseFormat(f)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		format = parsed
	}

	filterHeader, _ := args["filter_header"].(string)
	includeSystem, _ := args["include_system"].(bool)
	canonical, _ := args["canonical"].(bool)

	schema, err := s.scan(header, filterHeader, includeSystem, canonical)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := output.Render(schema, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleLookup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s.updateActivity()

	args := req.GetArguments()
	header, ok := args["header"].(string)
	if !ok || header == "" {
		return mcp.NewToolResultError("header parameter is required"), nil
	}
	name, ok := args["name"].(string)
	if !ok || name == "" {
		return mcp.NewToolResultError("name parameter is required"), nil
	}

	schema, err := s.scan(header, "", false, false)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	decl, section := schema.Lookup(name)
	if decl == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no declaration named %q in %s", name, header)), nil
	}

	result := map[string]interface{}{
		"section":     section,
		"declaration": decl,
	}
	data, err := yaml.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// scan runs the header pipeline with the server's configured include
// dirs. Diagnostics go to stderr; stdout belongs to the MCP protocol.
func (s *Server) scan(header, filterHeader string, includeSystem, canonical bool) (*normalize.Schema, error) {
	fe := frontend.New(frontend.Options{
		IncludeDirs:       s.cfg.Scan.IncludeDirs,
		SystemIncludeDirs: s.cfg.Scan.SystemIncludeDirs,
		Diag: func(file string, line, col uint32, msg string) {
			fmt.Fprintf(os.Stderr, "%s:%d:%d: warning: %s\n", file, line, col, msg)
		},
	})
	defer fe.Close()

	tu, err := fe.Load(header)
	if err != nil {
		return nil, err
	}

	var filter *normalize.Filter
	switch {
	case includeSystem:
		filter = normalize.NewUnrestrictedFilter()
	case filterHeader != "":
		filter, err = normalize.NewPatternFilter(filterHeader)
		if err != nil {
			return nil, fmt.Errorf("invalid filter_header pattern: %w", err)
		}
	default:
		filter = normalize.NewDefaultFilter(header)
	}

	return normalize.Walk(tu, normalize.Options{
		Filter:    filter,
		Canonical: canonical,
	})
}

// ServeStdio starts the server using stdio transport
func (s *Server) ServeStdio() error {
	if s.timeout > 0 {
		go s.timeoutChecker()
	}

	return server.ServeStdio(s.mcpServer)
}

// timeoutChecker monitors for inactivity and exits if timeout exceeded
func (s *Server) timeoutChecker() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.RLock()
		elapsed := time.Since(s.lastActivity)
		s.mu.RUnlock()

		if elapsed > s.timeout {
			fmt.Fprintf(os.Stderr, "h2y serve: timeout after %v of inactivity\n", s.timeout)
			os.Exit(0)
		}
	}
}

// updateActivity updates the last activity timestamp
func (s *Server) updateActivity() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}
