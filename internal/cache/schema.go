package cache

// schemaSQL defines the SQLite schema for the cache database.
// Tables:
//   - schemas: stores rendered output keyed by header, content hash and
//     the scan options that shaped it
//   - file_index: records, per scanned header, the content hash of every
//     file that scan visited (the header itself plus its includes), so a
//     cache hit can be invalidated when any of them changes
const schemaSQL = `
CREATE TABLE IF NOT EXISTS schemas (
    header_path TEXT NOT NULL,
    scan_hash TEXT NOT NULL,
    options_key TEXT NOT NULL,
    format TEXT NOT NULL,
    rendered BLOB NOT NULL,
    created_at TEXT NOT NULL,
    PRIMARY KEY (header_path, options_key, format)
);

CREATE TABLE IF NOT EXISTS file_index (
    header_path TEXT NOT NULL,
    file_path TEXT NOT NULL,
    scan_hash TEXT NOT NULL,
    scanned_at TEXT NOT NULL,
    PRIMARY KEY (header_path, file_path)
);

CREATE INDEX IF NOT EXISTS idx_schemas_hash ON schemas(scan_hash);
`

// initSchema creates the database tables and indexes if they don't exist.
func (c *Cache) initSchema() error {
	_, err := c.db.Exec(schemaSQL)
	return err
}
