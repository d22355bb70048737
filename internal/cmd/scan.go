package cmd

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hargabyte/h2y/internal/cache"
	"github.com/hargabyte/h2y/internal/config"
	"github.com/hargabyte/h2y/internal/cursor"
	"github.com/hargabyte/h2y/internal/frontend"
	"github.com/hargabyte/h2y/internal/normalize"
	"github.com/hargabyte/h2y/internal/output"
)

// scanCmd represents the scan command
var scanCmd = &cobra.Command{
	Use:   "scan <header>",
	Short: "Normalize a C header into its declaration schema",
	Long: `Scan a C header and emit its normalized declaration schema.

By default only declarations written in the scanned file itself appear
in the output; declarations pulled in through includes are resolved but
not emitted. Use --filter-header to widen the origin filter to matching
header names, or --include-system to lift the restriction entirely.

Pass "-" as the header to read source from stdin.

Examples:
  h2y scan api.h                         # Declarations from api.h only
  h2y scan api.h --filter-header 'api_'  # Plus matching includes
  h2y scan api.h --include-system        # Everything, system headers too
  h2y scan api.h --canonical             # Name unnamed params _arg0, _arg1...
  h2y scan api.h -I vendor/include       # Extra include search dir
  h2y scan api.h --format json -o api.json`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

var (
	scanFilterHeader  string
	scanIncludeSystem bool
	scanCanonical     bool
	scanIncludeDirs   []string
	scanNoCache       bool
	scanOutput        string
)

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanFilterHeader, "filter-header", "", "Regexp matched against header basenames to include")
	scanCmd.Flags().BoolVar(&scanIncludeSystem, "include-system", false, "Include declarations from system headers")
	scanCmd.Flags().BoolVar(&scanCanonical, "canonical", false, "Assign _argN names to unnamed function parameters")
	scanCmd.Flags().StringArrayVarP(&scanIncludeDirs, "include-dir", "I", nil, "Extra include search directory (repeatable)")
	scanCmd.Flags().BoolVar(&scanNoCache, "no-cache", false, "Bypass the schema cache")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Write output to file instead of stdout")
}

func runScan(cmd *cobra.Command, args []string) error {
	header := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	format, err := resolveFormat(cfg)
	if err != nil {
		return err
	}

	opts := scanOptions(cfg)

	// stdin input is never cached; there is nothing to key it on.
	if header == "-" {
		source, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		data, err := scanSource("<stdin>", source, opts, format)
		if err != nil {
			return err
		}
		return writeOutput(data)
	}

	useCache := cfg.Cache.Enabled && !scanNoCache
	var db *cache.Cache
	var scanHash string
	if useCache {
		db, scanHash = openCache(header)
		if db != nil {
			defer db.Close()
		}
	}

	optionsKey := scanOptionsKey(opts)
	if db != nil {
		data, err := cachedSchema(db, header, scanHash, optionsKey, format)
		if err == nil {
			if verbose {
				fmt.Fprintf(os.Stderr, "h2y: cache hit for %s\n", header)
			}
			return writeOutput(data)
		}
		if errors.Is(err, errStaleDeps) {
			// A visited file changed, so every cached rendering of
			// this header is stale, not just the requested one.
			if err := db.DeleteSchemas(header); err != nil && verbose {
				fmt.Fprintf(os.Stderr, "h2y: cache invalidation failed: %v\n", err)
			}
		} else if err != sql.ErrNoRows && verbose {
			fmt.Fprintf(os.Stderr, "h2y: cache read failed: %v\n", err)
		}
	}

	data, deps, err := scanHeader(header, opts, format)
	if err != nil {
		return err
	}

	if db != nil {
		recordScan(db, header, scanHash, optionsKey, format, data, deps)
	}

	return writeOutput(data)
}

// errStaleDeps marks a cache miss caused by a change to a file the
// header's last scan visited.
var errStaleDeps = errors.New("scanned file changed since last scan")

// cachedSchema returns the cached rendering for a header, but only when
// every file the last scan visited (the header and its includes) still
// hashes the same. Included headers feed macros, tag definitions and
// filter-matched declarations into the output, so a change to any of
// them invalidates the entry.
func cachedSchema(db *cache.Cache, header, scanHash, optionsKey string, format output.Format) ([]byte, error) {
	deps, err := db.GetAllFileEntries(header)
	if err != nil {
		return nil, err
	}
	for _, dep := range deps {
		hash, err := cache.HashFile(dep.FilePath)
		if err != nil {
			return nil, errStaleDeps
		}
		changed, err := db.IsFileChanged(header, dep.FilePath, hash)
		if err != nil {
			return nil, err
		}
		if changed {
			return nil, errStaleDeps
		}
	}
	return db.GetSchema(header, scanHash, optionsKey, format.String())
}

// recordScan stores the rendered schema together with the content hash
// of every file the scan visited. Write failures only cost a future
// cache hit, so they are logged, not surfaced.
func recordScan(db *cache.Cache, header, scanHash, optionsKey string, format output.Format, data []byte, deps []string) {
	entry := cache.SchemaEntry{
		HeaderPath: header,
		ScanHash:   scanHash,
		OptionsKey: optionsKey,
		Format:     format.String(),
		Rendered:   data,
	}
	if err := db.PutSchema(entry); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "h2y: cache write failed: %v\n", err)
	}

	// A rescan may pull in a different include set; replace, not merge.
	if err := db.DeleteFileEntries(header); err != nil && verbose {
		fmt.Fprintf(os.Stderr, "h2y: cache write failed: %v\n", err)
	}
	for _, dep := range deps {
		hash, err := cache.HashFile(dep)
		if err != nil {
			continue
		}
		if err := db.SetFileScanned(header, dep, hash); err != nil && verbose {
			fmt.Fprintf(os.Stderr, "h2y: cache write failed: %v\n", err)
		}
	}
}

// ScanOptions carries the resolved scan settings after config and flag
// merging.
type ScanOptions struct {
	FilterHeader  string
	IncludeSystem bool
	Canonical     bool
	IncludeDirs   []string
	SystemDirs    []string
}

// scanOptions merges config values with command-line flags; flags win.
func scanOptions(cfg *config.Config) ScanOptions {
	opts := ScanOptions{
		FilterHeader:  cfg.Scan.FilterHeader,
		IncludeSystem: cfg.Scan.IncludeSystem,
		Canonical:     cfg.Scan.Canonical,
		IncludeDirs:   cfg.Scan.IncludeDirs,
		SystemDirs:    cfg.Scan.SystemIncludeDirs,
	}
	if scanFilterHeader != "" {
		opts.FilterHeader = scanFilterHeader
	}
	if scanIncludeSystem {
		opts.IncludeSystem = true
	}
	if scanCanonical {
		opts.Canonical = true
	}
	opts.IncludeDirs = append(opts.IncludeDirs, scanIncludeDirs...)
	return opts
}

// scanOptionsKey derives the cache key component for the options that
// shape the output.
func scanOptionsKey(opts ScanOptions) string {
	return strings.Join([]string{
		opts.FilterHeader,
		fmt.Sprintf("system=%t", opts.IncludeSystem),
		fmt.Sprintf("canonical=%t", opts.Canonical),
		strings.Join(opts.IncludeDirs, ","),
	}, "|")
}

// scanHeader runs the full pipeline for one header file. It returns the
// rendered output plus every file the scan visited, for cache recording.
func scanHeader(path string, opts ScanOptions, format output.Format) ([]byte, []string, error) {
	fe := frontend.New(frontend.Options{
		IncludeDirs:       opts.IncludeDirs,
		SystemIncludeDirs: opts.SystemDirs,
		Diag:              printDiag,
	})
	defer fe.Close()

	tu, err := fe.Load(path)
	if err != nil {
		return nil, nil, err
	}
	data, err := normalizeAndRender(path, tu, opts, format)
	if err != nil {
		return nil, nil, err
	}
	return data, fe.Files(), nil
}

// scanSource runs the pipeline over in-memory source.
func scanSource(path string, source []byte, opts ScanOptions, format output.Format) ([]byte, error) {
	fe := frontend.New(frontend.Options{
		IncludeDirs:       opts.IncludeDirs,
		SystemIncludeDirs: opts.SystemDirs,
		Diag:              printDiag,
	})
	defer fe.Close()

	tu, err := fe.LoadSource(path, source)
	if err != nil {
		return nil, err
	}
	return normalizeAndRender(path, tu, opts, format)
}

func normalizeAndRender(path string, tu *cursor.Cursor, opts ScanOptions, format output.Format) ([]byte, error) {
	filter, err := buildFilter(path, opts)
	if err != nil {
		return nil, err
	}

	schema, err := normalize.Walk(tu, normalize.Options{
		Filter:    filter,
		Canonical: opts.Canonical,
		Diag:      printDiag,
	})
	if err != nil {
		return nil, err
	}

	return output.Render(schema, format)
}

// buildFilter selects the origin filter implied by the scan options.
func buildFilter(path string, opts ScanOptions) (*normalize.Filter, error) {
	if opts.IncludeSystem {
		return normalize.NewUnrestrictedFilter(), nil
	}
	if opts.FilterHeader != "" {
		f, err := normalize.NewPatternFilter(opts.FilterHeader)
		if err != nil {
			return nil, fmt.Errorf("invalid --filter-header pattern: %w", err)
		}
		return f, nil
	}
	return normalize.NewDefaultFilter(path), nil
}

// openCache opens the cache in the nearest .h2y directory. A missing
// directory or unreadable header silently disables caching.
func openCache(header string) (*cache.Cache, string) {
	dir, err := config.FindConfigDir(".")
	if err != nil {
		return nil, ""
	}
	hash, err := cache.HashFile(header)
	if err != nil {
		return nil, ""
	}
	db, err := cache.Open(dir)
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "h2y: cache unavailable: %v\n", err)
		}
		return nil, ""
	}
	return db, hash
}

// loadConfig loads configuration from --config or the nearest .h2y dir.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load(".")
}

// resolveFormat picks the output format from the --format flag, then the
// config default.
func resolveFormat(cfg *config.Config) (output.Format, error) {
	if outputFormat != "" {
		return output.ParseFormat(outputFormat)
	}
	return output.ParseFormat(cfg.Output.DefaultFormat)
}

// printDiag writes one diagnostic to stderr in file:line:col form.
func printDiag(file string, line, col uint32, msg string) {
	if line > 0 {
		fmt.Fprintf(os.Stderr, "%s:%d:%d: warning: %s\n", file, line, col, msg)
		return
	}
	fmt.Fprintf(os.Stderr, "%s: warning: %s\n", file, msg)
}

func writeOutput(data []byte) error {
	if scanOutput == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(scanOutput, data, 0644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
