package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"
)

// FileEntry records the hash one scan observed for one visited file.
type FileEntry struct {
	HeaderPath string
	FilePath   string
	ScanHash   string
	ScannedAt  time.Time
}

// HashFile computes the content hash used for cache validation.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("hash file %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SetFileScanned records the hash of one file visited while scanning a
// header. The header itself is recorded the same way as its includes.
func (c *Cache) SetFileScanned(headerPath, filePath, hash string) error {
	_, err := c.db.Exec(`
		INSERT OR REPLACE INTO file_index (header_path, file_path, scan_hash, scanned_at)
		VALUES (?, ?, ?, ?)`,
		headerPath, filePath, hash, time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("set file scanned %s: %w", filePath, err)
	}
	return nil
}

// GetFileHash retrieves the hash a header's last scan recorded for a
// visited file. Returns sql.ErrNoRows if no scan recorded it.
func (c *Cache) GetFileHash(headerPath, filePath string) (string, error) {
	var hash string
	err := c.db.QueryRow(`
		SELECT scan_hash FROM file_index WHERE header_path = ? AND file_path = ?`,
		headerPath, filePath).Scan(&hash)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("get file hash %s: %w", filePath, err)
	}
	return hash, nil
}

// IsFileChanged reports whether a file's content differs from what a
// header's last scan saw. A file with no recorded hash counts as changed.
func (c *Cache) IsFileChanged(headerPath, filePath, newHash string) (bool, error) {
	oldHash, err := c.GetFileHash(headerPath, filePath)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return oldHash != newHash, nil
}

// GetAllFileEntries retrieves every file a header's last scan visited.
func (c *Cache) GetAllFileEntries(headerPath string) ([]FileEntry, error) {
	rows, err := c.db.Query(`
		SELECT header_path, file_path, scan_hash, scanned_at FROM file_index
		WHERE header_path = ? ORDER BY file_path`, headerPath)
	if err != nil {
		return nil, fmt.Errorf("query file entries: %w", err)
	}
	defer rows.Close()

	var entries []FileEntry
	for rows.Next() {
		var entry FileEntry
		var scannedAt string
		err := rows.Scan(&entry.HeaderPath, &entry.FilePath, &entry.ScanHash, &scannedAt)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		entry.ScannedAt, _ = time.Parse(time.RFC3339, scannedAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// DeleteFileEntries removes a header's recorded file set, ahead of a
// rescan that may visit a different set of includes.
func (c *Cache) DeleteFileEntries(headerPath string) error {
	_, err := c.db.Exec("DELETE FROM file_index WHERE header_path = ?", headerPath)
	if err != nil {
		return fmt.Errorf("delete file entries %s: %w", headerPath, err)
	}
	return nil
}
