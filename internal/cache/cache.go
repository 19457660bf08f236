// Package cache provides file-based caching of traversal results so
// repeated analyze calls over an unchanged index are free.
package cache

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/blake3"

	"github.com/arborlabs/arbor/pkg/models"
)

// DefaultDir is the cache location relative to the project root.
var DefaultDir = filepath.Join(".arbor", "cache")

// Cache stores JSON entries keyed by analysis parameters. A disabled cache
// is a no-op on every method, so callers never branch on enablement.
type Cache struct {
	dir     string
	ttl     time.Duration
	enabled bool
}

// Entry is one cached result. Hash pins the entry to the symbol index
// state it was computed against.
type Entry struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	Data      []byte    `json:"data"`
}

// New creates a cache rooted at dir with the given TTL.
func New(dir string, ttlHours int, enabled bool) (*Cache, error) {
	if !enabled {
		return &Cache{enabled: false}, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &Cache{
		dir:     dir,
		ttl:     time.Duration(ttlHours) * time.Hour,
		enabled: true,
	}, nil
}

// HashBytes computes a BLAKE3 content hash as a hex string.
func HashBytes(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// HashFile computes the BLAKE3 content hash of a file.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// AnalysisKey builds the cache key for one analyze invocation: the root
// function, the depth ceiling, and a fingerprint of the symbol index the
// traversal will consult.
func AnalysisKey(functionID string, maxDepth int, indexFingerprint string) string {
	return fmt.Sprintf("analysis:%s:%d:%s", functionID, maxDepth, indexFingerprint)
}

// GetAnalysis retrieves a cached analysis whose index fingerprint still
// matches.
func (c *Cache) GetAnalysis(key, hash string) (*models.FunctionAnalysis, bool) {
	data, ok := c.getWithHash(key, hash)
	if !ok {
		return nil, false
	}
	var analysis models.FunctionAnalysis
	if err := json.Unmarshal(data, &analysis); err != nil {
		return nil, false
	}
	return &analysis, true
}

// SetAnalysis stores an analysis result under the given key and hash.
func (c *Cache) SetAnalysis(key, hash string, analysis *models.FunctionAnalysis) error {
	data, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	return c.setWithHash(key, hash, data)
}

// Get retrieves a cached entry if present and unexpired.
func (c *Cache) Get(key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	entry, ok := c.readEntry(key)
	if !ok {
		return nil, false
	}
	return entry.Data, true
}

func (c *Cache) getWithHash(key, hash string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	entry, ok := c.readEntry(key)
	if !ok || entry.Hash != hash {
		return nil, false
	}
	return entry.Data, true
}

func (c *Cache) readEntry(key string) (Entry, bool) {
	path := c.keyPath(key)
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, false
	}
	if time.Since(entry.Timestamp) > c.ttl {
		os.Remove(path)
		return Entry{}, false
	}
	return entry, true
}

// Set stores data under key.
func (c *Cache) Set(key string, data []byte) error {
	return c.setWithHash(key, "", data)
}

func (c *Cache) setWithHash(key, hash string, data []byte) error {
	if !c.enabled {
		return nil
	}

	entry := Entry{
		Hash:      hash,
		Timestamp: time.Now(),
		Data:      data,
	}

	entryData, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(c.keyPath(key), entryData, 0o600)
}

// Invalidate removes one entry.
func (c *Cache) Invalidate(key string) error {
	if !c.enabled {
		return nil
	}
	return os.Remove(c.keyPath(key))
}

// Clear removes every entry.
func (c *Cache) Clear() error {
	if !c.enabled {
		return nil
	}
	return os.RemoveAll(c.dir)
}

// keyPath maps a key to a filename. Keys carry qualified Python names, so
// they are hashed rather than used as path components.
func (c *Cache) keyPath(key string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%016x.json", xxhash.Sum64String(key)))
}

// Stats describes the cache's on-disk footprint.
type Stats struct {
	Entries   int           `json:"entries"`
	TotalSize int64         `json:"total_size"`
	OldestAge time.Duration `json:"oldest_age"`
	NewestAge time.Duration `json:"newest_age"`
}

// GetStats walks the cache directory and summarizes it.
func (c *Cache) GetStats() (*Stats, error) {
	if !c.enabled {
		return &Stats{}, nil
	}

	stats := &Stats{}
	var oldest, newest time.Time

	err := filepath.Walk(c.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		stats.Entries++
		stats.TotalSize += info.Size()

		modTime := info.ModTime()
		if oldest.IsZero() || modTime.Before(oldest) {
			oldest = modTime
		}
		if newest.IsZero() || modTime.After(newest) {
			newest = modTime
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !oldest.IsZero() {
		stats.OldestAge = time.Since(oldest)
	}
	if !newest.IsZero() {
		stats.NewestAge = time.Since(newest)
	}
	return stats, nil
}
