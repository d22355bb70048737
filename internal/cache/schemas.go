package cache

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaEntry holds one cached rendering of a header scan.
type SchemaEntry struct {
	HeaderPath string
	ScanHash   string
	OptionsKey string
	Format     string
	Rendered   []byte
	CreatedAt  time.Time
}

// PutSchema stores rendered output for a header scan, replacing any
// previous entry for the same header, options and format.
func (c *Cache) PutSchema(entry SchemaEntry) error {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO schemas (header_path, scan_hash, options_key, format, rendered, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.HeaderPath, entry.ScanHash, entry.OptionsKey, entry.Format,
		entry.Rendered, createdAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("put schema %s: %w", entry.HeaderPath, err)
	}
	return nil
}

// GetSchema retrieves cached output for a header when the stored scan
// hash still matches. Returns sql.ErrNoRows on a miss; a stale entry
// (hash mismatch) is also a miss.
func (c *Cache) GetSchema(headerPath, scanHash, optionsKey, format string) ([]byte, error) {
	var storedHash string
	var rendered []byte
	err := c.db.QueryRow(`
		SELECT scan_hash, rendered FROM schemas
		WHERE header_path = ? AND options_key = ? AND format = ?`,
		headerPath, optionsKey, format).Scan(&storedHash, &rendered)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get schema %s: %w", headerPath, err)
	}
	if storedHash != scanHash {
		return nil, sql.ErrNoRows
	}
	return rendered, nil
}

// DeleteSchemas removes all cached renderings for a header.
func (c *Cache) DeleteSchemas(headerPath string) error {
	_, err := c.db.Exec("DELETE FROM schemas WHERE header_path = ?", headerPath)
	if err != nil {
		return fmt.Errorf("delete schemas %s: %w", headerPath, err)
	}
	return nil
}
