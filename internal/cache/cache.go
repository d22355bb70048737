// Package cache provides SQLite-backed caching for rendered schemas and
// header scan state. The cache is stored in .h2y/cache.db so repeated
// scans of unchanged headers skip parsing and normalization entirely.
package cache

import (
	"database/sql"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Cache manages the .h2y/cache.db SQLite database for storing rendered
// schemas and header scan state.
type Cache struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the cache database at the specified .h2y directory.
// It initializes the schema if the database is new.
func Open(h2yDir string) (*Cache, error) {
	dbPath := filepath.Join(h2yDir, "cache.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	cache := &Cache{db: db, dbPath: dbPath}

	if err := cache.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return cache, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// Clear removes all cached data from both schemas and file_index tables.
func (c *Cache) Clear() error {
	_, err := c.db.Exec("DELETE FROM schemas; DELETE FROM file_index;")
	if err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (c *Cache) Path() string {
	return c.dbPath
}

// DB returns the underlying database connection for advanced operations.
func (c *Cache) DB() *sql.DB {
	return c.db
}

// Stats returns cache statistics.
type Stats struct {
	SchemaCount    int64
	FileIndexCount int64
}

// GetStats returns statistics about the cache contents.
func (c *Cache) GetStats() (*Stats, error) {
	var stats Stats

	err := c.db.QueryRow("SELECT COUNT(*) FROM schemas").Scan(&stats.SchemaCount)
	if err != nil {
		return nil, fmt.Errorf("count schemas: %w", err)
	}

	err = c.db.QueryRow("SELECT COUNT(*) FROM file_index").Scan(&stats.FileIndexCount)
	if err != nil {
		return nil, fmt.Errorf("count file index: %w", err)
	}

	return &stats, nil
}
